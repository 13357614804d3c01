package entity

import "github.com/shopspring/decimal"

// ReceiptHeader holds the store header printed at the top of an invoice.
type ReceiptHeader struct {
	StoreName string `json:"store_name"`
	Address   string `json:"address,omitempty"`
	Phone     string `json:"phone,omitempty"`
	GSTIN     string `json:"gstin,omitempty"`
}

// ReceiptItem represents a single line on a printed invoice.
type ReceiptItem struct {
	Name                 string          `json:"name"`
	Quantity             int             `json:"quantity"`
	UnitPrice            decimal.Decimal `json:"unit_price"`
	MRP                  decimal.Decimal `json:"mrp"`
	DiscountPercent      decimal.Decimal `json:"discount_percent"`
	Total                decimal.Decimal `json:"total"`
	PrescriptionRequired bool            `json:"prescription_required,omitempty"`
}

// Receipt is a value object for the print view. It is composed from the
// still-populated cart at print time and is never stored.
type Receipt struct {
	Header    ReceiptHeader   `json:"header"`
	InvoiceNo string          `json:"invoice_no"`
	Date      string          `json:"date"`
	Cashier   string          `json:"cashier,omitempty"`
	Customer  string          `json:"customer,omitempty"`
	Phone     string          `json:"phone,omitempty"`
	Items     []ReceiptItem   `json:"items"`
	SubTotal  decimal.Decimal `json:"sub_total"`
	Discount  decimal.Decimal `json:"discount"`
	GSTRate   decimal.Decimal `json:"gst_rate"`
	GST       decimal.Decimal `json:"gst"`
	Total     decimal.Decimal `json:"total"`
}
