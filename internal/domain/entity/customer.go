package entity

// DefaultCustomerName is used when a walk-in customer is created without a name.
const DefaultCustomerName = "Walk-in Customer"

// Customer is a customer record owned by the backend.
type Customer struct {
	CustomerID   int64  `json:"customer_id"`
	CustomerName string `json:"customer_name"`
	Phone        string `json:"phone"`
	CustomerType string `json:"customer_type,omitempty"`
}

// NewCustomer is the payload for creating a customer at checkout.
type NewCustomer struct {
	CustomerName string
	Phone        string
	CustomerType string
	IsActive     bool
}

// CustomerDraft is what the operator has typed for the customer so far.
// It is resolved to a Customer only when the order is submitted.
type CustomerDraft struct {
	Phone string `json:"phone"`
	Name  string `json:"name"`
}
