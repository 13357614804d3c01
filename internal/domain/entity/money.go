package entity

import (
	"encoding/json"
	"errors"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)

	maxQuantity = decimal.NewFromInt(MaxQuantity)
)

// MaxQuantity is the largest quantity a line accepts.
const MaxQuantity = math.MaxInt32

// ErrQuantityOutOfRange is returned for quantities above MaxQuantity.
var ErrQuantityOutOfRange = errors.New("quantity out of range")

// ParseQuantity parses operator input into a whole quantity. Text that is not
// a number gives 0 and fractions are truncated; values above MaxQuantity are
// rejected rather than wrapped.
func ParseQuantity(raw string) (int, error) {
	d := ParseAmount(raw).Truncate(0)
	if d.GreaterThan(maxQuantity) {
		return 0, ErrQuantityOutOfRange
	}
	if d.IsNegative() {
		return 0, nil
	}
	return int(d.IntPart()), nil
}

// ParseAmount parses operator input into a decimal. Anything that is not a
// number (empty string, "abc", "12,5") is treated as zero.
func ParseAmount(raw string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ClampNonNegative returns d, or zero when d is negative.
func ClampNonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// ClampPercent clamps d into [0,100].
func ClampPercent(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	if d.GreaterThan(hundred) {
		return hundred
	}
	return d
}

// money renders a decimal as a JSON number with two decimal places.
func money(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}
