package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/echohealthcare/mvps-pos/internal/domain/entity"
	"github.com/echohealthcare/mvps-pos/internal/domain/repository"
	"github.com/echohealthcare/mvps-pos/internal/metrics"
	"github.com/echohealthcare/mvps-pos/pkg/apperror"
)

// Order types accepted by the backend.
const (
	OrderTypeOnline     = "online"
	OrderTypeDoorToDoor = "door_to_door"
)

// CheckoutService submits the register's cart as one order.
type CheckoutService struct {
	register  *RegisterService
	customers *CustomerService
	orders    repository.OrderGateway
	orderType string
}

// NewCheckoutService creates a new checkout service
func NewCheckoutService(register *RegisterService, customers *CustomerService, orders repository.OrderGateway, orderType string) *CheckoutService {
	switch orderType {
	case OrderTypeOnline, OrderTypeDoorToDoor:
	case "":
		orderType = OrderTypeOnline
	default:
		log.Printf("[checkout] unknown order type %q, using %s", orderType, OrderTypeOnline)
		orderType = OrderTypeOnline
	}
	return &CheckoutService{
		register:  register,
		customers: customers,
		orders:    orders,
		orderType: orderType,
	}
}

// Submit resolves the customer and creates the order. Guard failures return
// without any backend call. The cart is left as it is whatever the outcome;
// only Clear starts the next sale.
func (s *CheckoutService) Submit(ctx context.Context) (*entity.OrderResult, error) {
	lines, draft, err := s.register.beginSubmit()
	if err != nil {
		metrics.CheckoutsTotal.WithLabelValues("rejected").Inc()
		return nil, err
	}

	customer, err := s.customers.Resolve(ctx, draft.Phone, draft.Name)
	if err != nil {
		return nil, s.fail("resolve customer", err, customerError)
	}

	start := time.Now()
	result, err := s.orders.CreateOrder(ctx, entity.NewOrderRequest(customer.CustomerID, s.orderType, lines))
	metrics.LookupDuration.WithLabelValues("create_order").Observe(time.Since(start).Seconds())
	if err == nil && result == nil {
		err = errors.New("empty order response")
	}
	if err != nil {
		return nil, s.fail("create order", err, orderError)
	}

	if result.CustomerID == 0 {
		result.CustomerID = customer.CustomerID
	}
	if result.SubmittedAt.IsZero() {
		result.SubmittedAt = s.register.now()
	}

	s.register.completeSubmit(result)
	metrics.CheckoutsTotal.WithLabelValues("succeeded").Inc()
	log.Printf("[checkout] order %s created for customer %d (%d lines)", result.OrderNumber, customer.CustomerID, len(lines))
	return result, nil
}

// customerError reports a customer that could not be found or created as a
// validation error on the customer, not as a failed order.
func customerError(err error) *apperror.AppError {
	return apperror.NewFieldError("customer", backendMessage(err, "Could not resolve customer"))
}

func orderError(err error) *apperror.AppError {
	return apperror.NewBadGatewayError(backendMessage(err, "Order submission failed"))
}

func (s *CheckoutService) fail(step string, err error, toAppError func(error) *apperror.AppError) error {
	log.Printf("[checkout] %s: %v", step, err)
	metrics.CheckoutsTotal.WithLabelValues("failed").Inc()

	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		appErr = toAppError(err)
	}
	s.register.failSubmit(appErr.Message)
	return appErr
}
