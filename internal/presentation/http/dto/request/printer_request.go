package request

// PrintInvoiceRequest is the optional request body for printing the invoice.
type PrintInvoiceRequest struct {
	Copies int `json:"copies" binding:"omitempty,min=1,max=3"`
}
