package service

import (
	"context"
	"strings"
	"time"

	"github.com/echohealthcare/mvps-pos/internal/domain/entity"
	"github.com/echohealthcare/mvps-pos/internal/domain/repository"
	"github.com/echohealthcare/mvps-pos/internal/metrics"
	"github.com/echohealthcare/mvps-pos/pkg/apperror"
)

// MinLookupDigits is the number of phone digits after which the register
// looks the customer up while the operator is still typing.
const MinLookupDigits = 10

// CustomerService resolves the register's customer draft to a backend customer.
type CustomerService struct {
	directory    repository.CustomerDirectory
	defaultName  string
	customerType string
}

// NewCustomerService creates a new customer service
func NewCustomerService(directory repository.CustomerDirectory, defaultName, customerType string) *CustomerService {
	if defaultName == "" {
		defaultName = entity.DefaultCustomerName
	}
	if customerType == "" {
		customerType = "retail"
	}
	return &CustomerService{
		directory:    directory,
		defaultName:  defaultName,
		customerType: customerType,
	}
}

// Resolve returns the customer with the given phone, creating one when the
// backend has none. An empty name creates a walk-in customer.
func (s *CustomerService) Resolve(ctx context.Context, phone, name string) (*entity.Customer, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, apperror.NewFieldError("phone", "Customer phone is required")
	}

	start := time.Now()
	found, err := s.directory.FindByPhone(ctx, phone)
	metrics.LookupDuration.WithLabelValues("customer_by_phone").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}
	if found != nil {
		return found, nil
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = s.defaultName
	}

	start = time.Now()
	created, err := s.directory.CreateCustomer(ctx, entity.NewCustomer{
		CustomerName: name,
		Phone:        phone,
		CustomerType: s.customerType,
		IsActive:     true,
	})
	metrics.LookupDuration.WithLabelValues("create_customer").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}
	return created, nil
}

// SoftLookup returns the existing customer for phone once it has enough digits.
// It never creates a customer. Short numbers return nil, nil.
func (s *CustomerService) SoftLookup(ctx context.Context, phone string) (*entity.Customer, error) {
	phone = strings.TrimSpace(phone)
	if digitCount(phone) < MinLookupDigits {
		return nil, nil
	}
	return s.directory.FindByPhone(ctx, phone)
}

func digitCount(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}
