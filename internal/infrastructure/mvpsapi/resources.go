package mvpsapi

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/echohealthcare/mvps-pos/internal/domain/entity"
	"github.com/echohealthcare/mvps-pos/internal/domain/repository"
)

var (
	_ repository.ProductCatalog    = (*Client)(nil)
	_ repository.CustomerDirectory = (*Client)(nil)
	_ repository.OrderGateway      = (*Client)(nil)
	_ repository.BackendError      = (*Error)(nil)
)

// LookupBarcode calls GET /products/barcode/{code}.
func (c *Client) LookupBarcode(ctx context.Context, code string) (*entity.ProductLookup, error) {
	data, err := c.do(ctx, http.MethodGet, "/products/barcode/"+url.PathEscape(code), nil)
	if isMissing(err) || (err == nil && data == nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return toProductLookup(data)
}

// FindByPhone calls GET /customers/phone/{phone}.
func (c *Client) FindByPhone(ctx context.Context, phone string) (*entity.Customer, error) {
	data, err := c.do(ctx, http.MethodGet, "/customers/phone/"+url.PathEscape(phone), nil)
	if isMissing(err) || (err == nil && data == nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return toCustomer(data)
}

// CreateCustomer calls POST /customers.
func (c *Client) CreateCustomer(ctx context.Context, in entity.NewCustomer) (*entity.Customer, error) {
	data, err := c.do(ctx, http.MethodPost, "/customers", newCustomerBody{
		CustomerName: in.CustomerName,
		Phone:        in.Phone,
		CustomerType: in.CustomerType,
		IsActive:     in.IsActive,
	})
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, errors.New("mvps-api: empty customer response")
	}
	return toCustomer(data)
}

// CreateOrder calls POST /orders.
func (c *Client) CreateOrder(ctx context.Context, req entity.OrderRequest) (*entity.OrderResult, error) {
	data, err := c.do(ctx, http.MethodPost, "/orders", fromOrderRequest(req))
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, errors.New("mvps-api: empty order response")
	}
	return toOrderResult(data)
}

// isMissing reports a lookup the backend answered with "no such record":
// a 404, or a 2xx envelope with success=false.
func isMissing(err error) bool {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Status == http.StatusNotFound || (apiErr.Status >= 200 && apiErr.Status <= 299)
}
