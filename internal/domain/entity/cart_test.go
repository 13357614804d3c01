package entity

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookup(id int64, price, mrp, disc string) ProductLookup {
	return ProductLookup{
		ProductID:          id,
		ProductName:        "Product",
		Price:              decimal.RequireFromString(price),
		MRP:                decimal.RequireFromString(mrp),
		DiscountPercentage: decimal.RequireFromString(disc),
	}
}

func TestCart_AddOrIncrement(t *testing.T) {
	c := NewCart()

	line, added := c.AddOrIncrement(lookup(7, "10", "12", "0"))
	assert.True(t, added)
	assert.Equal(t, 1, line.Quantity)

	for i := 0; i < 2; i++ {
		line, added = c.AddOrIncrement(lookup(7, "99", "99", "50"))
		assert.False(t, added)
	}
	assert.Equal(t, 3, line.Quantity)
	// the seeded price is kept on later scans
	assert.Equal(t, "10.00", line.UnitPrice.StringFixed(2))
	assert.Equal(t, 1, c.Len())
}

func TestCart_AddClampsLookupValues(t *testing.T) {
	c := NewCart()
	line, _ := c.AddOrIncrement(lookup(1, "-4", "-1", "120"))
	assert.True(t, line.UnitPrice.IsZero())
	assert.True(t, line.MRP.IsZero())
	assert.Equal(t, "100", line.DiscountPercent.String())
}

func TestCart_Edits(t *testing.T) {
	tests := []struct {
		name      string
		edit      func(c *Cart) bool
		wantQty   int
		wantPrice string
		wantDisc  string
	}{
		{"quantity zero", func(c *Cart) bool { return c.SetQuantity(1, 0) }, 1, "10.00", "0.00"},
		{"quantity negative", func(c *Cart) bool { return c.SetQuantity(1, -1) }, 1, "10.00", "0.00"},
		{"quantity set", func(c *Cart) bool { return c.SetQuantity(1, 6) }, 6, "10.00", "0.00"},
		{"decrement at one", func(c *Cart) bool { return c.Decrement(1) }, 1, "10.00", "0.00"},
		{"increment", func(c *Cart) bool { return c.Increment(1) }, 2, "10.00", "0.00"},
		{"price text", func(c *Cart) bool { return c.SetUnitPrice(1, "abc") }, 1, "0.00", "0.00"},
		{"price empty", func(c *Cart) bool { return c.SetUnitPrice(1, "") }, 1, "0.00", "0.00"},
		{"price spaced", func(c *Cart) bool { return c.SetUnitPrice(1, " 8.5 ") }, 1, "8.50", "0.00"},
		{"discount 150", func(c *Cart) bool { return c.SetDiscountPercent(1, "150") }, 1, "10.00", "100.00"},
		{"discount negative", func(c *Cart) bool { return c.SetDiscountPercent(1, "-10") }, 1, "10.00", "0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCart()
			c.AddOrIncrement(lookup(1, "10", "12", "0"))
			require.True(t, tt.edit(c))

			line, ok := c.Line(1)
			require.True(t, ok)
			assert.Equal(t, tt.wantQty, line.Quantity)
			assert.Equal(t, tt.wantPrice, line.UnitPrice.StringFixed(2))
			assert.Equal(t, tt.wantDisc, line.DiscountPercent.StringFixed(2))
		})
	}
}

func TestCart_EditsOnMissingLine(t *testing.T) {
	c := NewCart()
	assert.False(t, c.SetQuantity(1, 2))
	assert.False(t, c.Increment(1))
	assert.False(t, c.SetUnitPrice(1, "1"))
	assert.False(t, c.SetDiscountPercent(1, "1"))
	assert.False(t, c.Remove(1))
}

func TestCart_RemoveKeepsOrder(t *testing.T) {
	c := NewCart()
	for id := int64(1); id <= 4; id++ {
		c.AddOrIncrement(lookup(id, "1", "1", "0"))
	}
	require.True(t, c.Remove(3))

	ids := []int64{}
	for _, l := range c.Lines() {
		ids = append(ids, l.ProductID)
	}
	assert.Equal(t, []int64{1, 2, 4}, ids)

	// Lines returns a copy
	c.Lines()[0].Quantity = 99
	line, _ := c.Line(1)
	assert.Equal(t, 1, line.Quantity)
}

func TestComputeTotals(t *testing.T) {
	gst := decimal.NewFromInt(18)

	t.Run("single paracetamol", func(t *testing.T) {
		c := NewCart()
		c.AddOrIncrement(lookup(101, "12.5", "15.0", "0"))
		tot := ComputeTotals(c.Lines(), gst)
		assert.Equal(t, "12.50", tot.Subtotal.StringFixed(2))
		assert.Equal(t, "0.00", tot.TotalDiscount.StringFixed(2))
		assert.Equal(t, "2.25", tot.TaxAmount.StringFixed(2))
		assert.Equal(t, "14.75", tot.GrandTotal.StringFixed(2))
		assert.Equal(t, 1, tot.ItemCount)
	})

	t.Run("discounted lines", func(t *testing.T) {
		c := NewCart()
		c.AddOrIncrement(lookup(1, "100", "120", "10"))
		c.AddOrIncrement(lookup(2, "50", "50", "0"))
		c.SetQuantity(2, 2)
		tot := ComputeTotals(c.Lines(), gst)
		assert.Equal(t, "200.00", tot.Subtotal.StringFixed(2))
		assert.Equal(t, "10.00", tot.TotalDiscount.StringFixed(2))
		assert.Equal(t, "190.00", tot.TaxableAmount.StringFixed(2))
		assert.Equal(t, "34.20", tot.TaxAmount.StringFixed(2))
		assert.Equal(t, "224.20", tot.GrandTotal.StringFixed(2))
		assert.True(t, tot.GrandTotal.Equal(tot.Subtotal.Sub(tot.TotalDiscount).Add(tot.TaxAmount)))
	})

	t.Run("empty cart", func(t *testing.T) {
		tot := ComputeTotals(nil, gst)
		assert.True(t, tot.GrandTotal.IsZero())
		assert.Equal(t, 0, tot.ItemCount)
	})
}

func TestCartLine_MarshalJSON(t *testing.T) {
	c := NewCart()
	line, _ := c.AddOrIncrement(lookup(101, "12.5", "15", "10"))

	data, err := json.Marshal(line)
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, 12.5, got["unit_price"])
	assert.Equal(t, 1.25, got["line_discount"])
	assert.Equal(t, 11.25, got["line_total"])
	assert.Equal(t, float64(101), got["product_id"])
}

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{"3", 3, false},
		{" 7 ", 7, false},
		{"2.9", 2, false},
		{"abc", 0, false},
		{"", 0, false},
		{"-4", 0, false},
		{"-1e30", 0, false},
		{"2147483647", MaxQuantity, false},
		{"2147483648", 0, true},
		{"9223372036854775808", 0, true},
		{"18446744073709551618", 0, true},
		{"1e19", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseQuantity(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrQuantityOutOfRange)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
