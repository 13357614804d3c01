package request

import (
	"bytes"
	"encoding/json"

	"github.com/echohealthcare/mvps-pos/internal/domain/enum"
)

// NumericInput is operator input for a numeric field. It accepts a JSON number
// or a JSON string; whatever was typed is kept raw and parsed by the cart, which
// treats non-numeric text as zero.
type NumericInput string

func (n *NumericInput) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*n = NumericInput(s)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		// booleans, objects and the like are not numbers
		*n = ""
		return nil
	}
	*n = NumericInput(num.String())
	return nil
}

// ScanRequest submits a barcode read by an external scanner or typed by the operator.
type ScanRequest struct {
	Code   string `json:"code" binding:"required"`
	Format string `json:"format"`
	// Source defaults to manual; keyboard-wedge scanners post "camera" to be deduplicated.
	Source string `json:"source"`
}

// ScanSource returns the parsed source, defaulting to manual.
func (r ScanRequest) ScanSource() enum.ScanSource {
	if r.Source == "" {
		return enum.ScanSourceManual
	}
	return enum.ParseScanSource(r.Source)
}

// UpdateLineRequest edits one cart line. Absent fields are left unchanged.
type UpdateLineRequest struct {
	Quantity        *NumericInput `json:"quantity"`
	UnitPrice       *NumericInput `json:"unit_price"`
	DiscountPercent *NumericInput `json:"discount_percent"`
}

// CustomerRequest sets the customer draft.
type CustomerRequest struct {
	Phone string `json:"phone"`
	Name  string `json:"name"`
}
