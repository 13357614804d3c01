package repository

import (
	"context"

	"github.com/echohealthcare/mvps-pos/internal/domain/entity"
)

// ProductCatalog resolves scanned barcodes against the backend.
type ProductCatalog interface {
	// LookupBarcode returns the product and vendor price for a raw barcode.
	// It returns nil, nil when no product matches.
	LookupBarcode(ctx context.Context, code string) (*entity.ProductLookup, error)
}

// CustomerDirectory finds and creates customers on the backend.
type CustomerDirectory interface {
	// FindByPhone returns the customer with the exact phone number, or nil, nil.
	FindByPhone(ctx context.Context, phone string) (*entity.Customer, error)
	// CreateCustomer creates a customer and returns the stored record.
	CreateCustomer(ctx context.Context, input entity.NewCustomer) (*entity.Customer, error)
}

// OrderGateway submits orders to the backend.
type OrderGateway interface {
	CreateOrder(ctx context.Context, req entity.OrderRequest) (*entity.OrderResult, error)
}

// BackendError is implemented by errors that carry a message returned by the
// backend. The message is shown to the operator verbatim.
type BackendError interface {
	error
	BackendMessage() string
}
