package entity

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// OrderItem is one item of an order-creation request.
type OrderItem struct {
	ProductID       int64
	Quantity        int
	VendorProductID *int64
}

// OrderRequest is the single order-creation request built from the cart.
type OrderRequest struct {
	CustomerID int64
	OrderType  string
	Items      []OrderItem
}

// NewOrderRequest converts cart lines into an order request, carrying the
// vendor-product reference when the lookup provided one.
func NewOrderRequest(customerID int64, orderType string, lines []CartLine) OrderRequest {
	items := make([]OrderItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, OrderItem{
			ProductID:       l.ProductID,
			Quantity:        l.Quantity,
			VendorProductID: l.VendorProductID,
		})
	}
	return OrderRequest{
		CustomerID: customerID,
		OrderType:  orderType,
		Items:      items,
	}
}

// OrderResult is what the backend returns for a created order.
type OrderResult struct {
	OrderID     int64           `json:"order_id,omitempty"`
	OrderNumber string          `json:"order_number"`
	FinalAmount decimal.Decimal `json:"-"`
	CustomerID  int64           `json:"customer_id"`
	SubmittedAt time.Time       `json:"submitted_at"`
}

func (o OrderResult) MarshalJSON() ([]byte, error) {
	type Alias OrderResult
	return json.Marshal(&struct {
		Alias
		FinalAmount json.Number `json:"final_amount"`
	}{
		Alias:       Alias(o),
		FinalAmount: money(o.FinalAmount),
	})
}
