package entity

import "github.com/shopspring/decimal"

// ProductLookup is the product + vendor price record resolved from a barcode.
// Field names are canonical; backend payload variants are normalized before
// a ProductLookup is built.
type ProductLookup struct {
	ProductID            int64           `json:"product_id"`
	ProductName          string          `json:"product_name"`
	GenericName          string          `json:"generic_name,omitempty"`
	Manufacturer         string          `json:"manufacturer,omitempty"`
	UnitOfMeasure        string          `json:"unit_of_measure,omitempty"`
	HSNCode              string          `json:"hsn_code,omitempty"`
	Price                decimal.Decimal `json:"price"`
	MRP                  decimal.Decimal `json:"mrp"`
	DiscountPercentage   decimal.Decimal `json:"discount_percentage"`
	VendorProductID      *int64          `json:"vendor_product_id,omitempty"`
	PrescriptionRequired bool            `json:"prescription_required"`
}
