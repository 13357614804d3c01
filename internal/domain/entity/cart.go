package entity

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// CartLine represents one distinct product on the current invoice.
type CartLine struct {
	ProductID            int64           `json:"product_id"`
	ProductName          string          `json:"product_name"`
	GenericName          string          `json:"generic_name,omitempty"`
	Manufacturer         string          `json:"manufacturer,omitempty"`
	UnitOfMeasure        string          `json:"unit_of_measure,omitempty"`
	UnitPrice            decimal.Decimal `json:"-"`
	MRP                  decimal.Decimal `json:"-"`
	DiscountPercent      decimal.Decimal `json:"-"`
	Quantity             int             `json:"quantity"`
	VendorProductID      *int64          `json:"vendor_product_id,omitempty"`
	PrescriptionRequired bool            `json:"prescription_required"`
}

// Gross returns unitPrice x quantity.
func (l CartLine) Gross() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Discount returns the discount amount of the line.
func (l CartLine) Discount() decimal.Decimal {
	return l.Gross().Mul(l.DiscountPercent).Div(hundred)
}

// Net returns the line amount after discount, before tax.
func (l CartLine) Net() decimal.Decimal {
	return l.Gross().Sub(l.Discount())
}

// MarshalJSON renders money fields with two decimal places and adds line amounts.
func (l CartLine) MarshalJSON() ([]byte, error) {
	type Alias CartLine
	return json.Marshal(&struct {
		Alias
		UnitPrice       json.Number `json:"unit_price"`
		MRP             json.Number `json:"mrp"`
		DiscountPercent json.Number `json:"discount_percent"`
		LineDiscount    json.Number `json:"line_discount"`
		LineTotal       json.Number `json:"line_total"`
	}{
		Alias:           Alias(l),
		UnitPrice:       money(l.UnitPrice),
		MRP:             money(l.MRP),
		DiscountPercent: money(l.DiscountPercent),
		LineDiscount:    money(l.Discount()),
		LineTotal:       money(l.Net()),
	})
}

// Cart is the ordered set of lines on the register. At most one line exists
// per product and lines keep their first-insertion order.
//
// Cart is not safe for concurrent use; the register serialises access.
type Cart struct {
	lines []CartLine
}

// NewCart creates an empty cart.
func NewCart() *Cart {
	return &Cart{}
}

func (c *Cart) find(productID int64) int {
	for i := range c.lines {
		if c.lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// AddOrIncrement increments the quantity of the product's line by one, or
// appends a new line seeded from the lookup. It reports whether a line was added.
func (c *Cart) AddOrIncrement(p ProductLookup) (CartLine, bool) {
	if i := c.find(p.ProductID); i >= 0 {
		c.lines[i].Quantity++
		return c.lines[i], false
	}

	line := CartLine{
		ProductID:            p.ProductID,
		ProductName:          p.ProductName,
		GenericName:          p.GenericName,
		Manufacturer:         p.Manufacturer,
		UnitOfMeasure:        p.UnitOfMeasure,
		UnitPrice:            ClampNonNegative(p.Price),
		MRP:                  ClampNonNegative(p.MRP),
		DiscountPercent:      ClampPercent(p.DiscountPercentage),
		Quantity:             1,
		VendorProductID:      p.VendorProductID,
		PrescriptionRequired: p.PrescriptionRequired,
	}
	c.lines = append(c.lines, line)
	return line, true
}

// SetQuantity sets the quantity of a line, clamped to a minimum of 1.
// It returns false when the product is not in the cart.
func (c *Cart) SetQuantity(productID int64, quantity int) bool {
	i := c.find(productID)
	if i < 0 {
		return false
	}
	if quantity < 1 {
		quantity = 1
	}
	c.lines[i].Quantity = quantity
	return true
}

// Increment adds one to the line quantity.
func (c *Cart) Increment(productID int64) bool {
	i := c.find(productID)
	if i < 0 {
		return false
	}
	return c.SetQuantity(productID, c.lines[i].Quantity+1)
}

// Decrement removes one from the line quantity, never going below 1.
func (c *Cart) Decrement(productID int64) bool {
	i := c.find(productID)
	if i < 0 {
		return false
	}
	return c.SetQuantity(productID, c.lines[i].Quantity-1)
}

// SetUnitPrice sets the unit price from raw operator input. Non-numeric input
// becomes 0 and negative values are clamped to 0.
func (c *Cart) SetUnitPrice(productID int64, raw string) bool {
	i := c.find(productID)
	if i < 0 {
		return false
	}
	c.lines[i].UnitPrice = ClampNonNegative(ParseAmount(raw))
	return true
}

// SetDiscountPercent sets the discount from raw operator input, clamped to [0,100].
func (c *Cart) SetDiscountPercent(productID int64, raw string) bool {
	i := c.find(productID)
	if i < 0 {
		return false
	}
	c.lines[i].DiscountPercent = ClampPercent(ParseAmount(raw))
	return true
}

// Remove deletes a line. Removing an absent product is a no-op.
func (c *Cart) Remove(productID int64) bool {
	i := c.find(productID)
	if i < 0 {
		return false
	}
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
	return true
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.lines = nil
}

// Line returns a copy of the line for productID.
func (c *Cart) Line(productID int64) (CartLine, bool) {
	i := c.find(productID)
	if i < 0 {
		return CartLine{}, false
	}
	return c.lines[i], true
}

// Lines returns a copy of the lines in insertion order.
func (c *Cart) Lines() []CartLine {
	out := make([]CartLine, len(c.lines))
	copy(out, c.lines)
	return out
}

// Len returns the number of distinct lines.
func (c *Cart) Len() int {
	return len(c.lines)
}
