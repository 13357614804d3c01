package entity

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// DefaultGSTRate is the GST percentage applied when none is configured.
var DefaultGSTRate = decimal.NewFromInt(18)

// Totals is derived from the cart lines every time it is needed; it is never
// stored next to the lines it was computed from.
type Totals struct {
	ItemCount     int             `json:"item_count"`
	Subtotal      decimal.Decimal `json:"-"`
	TotalDiscount decimal.Decimal `json:"-"`
	TaxableAmount decimal.Decimal `json:"-"`
	GSTRate       decimal.Decimal `json:"-"`
	TaxAmount     decimal.Decimal `json:"-"`
	GrandTotal    decimal.Decimal `json:"-"`
}

// ComputeTotals derives invoice totals from lines and a GST percentage.
func ComputeTotals(lines []CartLine, gstRate decimal.Decimal) Totals {
	t := Totals{
		Subtotal:      decimal.Zero,
		TotalDiscount: decimal.Zero,
		GSTRate:       gstRate,
	}
	for _, l := range lines {
		t.ItemCount += l.Quantity
		t.Subtotal = t.Subtotal.Add(l.Gross())
		t.TotalDiscount = t.TotalDiscount.Add(l.Discount())
	}
	t.TaxableAmount = t.Subtotal.Sub(t.TotalDiscount)
	t.TaxAmount = t.TaxableAmount.Mul(gstRate).Div(hundred)
	t.GrandTotal = t.TaxableAmount.Add(t.TaxAmount)
	return t
}

func (t Totals) MarshalJSON() ([]byte, error) {
	type Alias Totals
	return json.Marshal(&struct {
		Alias
		Subtotal      json.Number `json:"subtotal"`
		TotalDiscount json.Number `json:"total_discount"`
		TaxableAmount json.Number `json:"taxable_amount"`
		GSTRate       json.Number `json:"gst_rate"`
		TaxAmount     json.Number `json:"tax_amount"`
		GrandTotal    json.Number `json:"grand_total"`
	}{
		Alias:         Alias(t),
		Subtotal:      money(t.Subtotal),
		TotalDiscount: money(t.TotalDiscount),
		TaxableAmount: money(t.TaxableAmount),
		GSTRate:       json.Number(t.GSTRate.String()),
		TaxAmount:     money(t.TaxAmount),
		GrandTotal:    money(t.GrandTotal),
	})
}
