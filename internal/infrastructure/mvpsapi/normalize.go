package mvpsapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/echohealthcare/mvps-pos/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// The backend has answered in camelCase, in snake_case and with price data
// nested under vendorProduct depending on the endpoint version. Each payload
// is normalized once here; nothing past this file sees the wire shape.

type fields map[string]json.RawMessage

func decodeFields(raw json.RawMessage) (fields, error) {
	var f fields
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, err
	}
	return f, nil
}

func (f fields) raw(keys ...string) json.RawMessage {
	for _, k := range keys {
		if v, ok := f[k]; ok && len(v) > 0 && !bytes.Equal(v, []byte("null")) {
			return v
		}
	}
	return nil
}

func (f fields) str(keys ...string) string {
	v := f.raw(keys...)
	if v == nil {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(string(v))
}

func (f fields) integer(keys ...string) (int64, bool) {
	v := f.raw(keys...)
	if v == nil {
		return 0, false
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		s = string(v)
	}
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		fl, ferr := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if ferr != nil {
			return 0, false
		}
		n = int64(fl)
	}
	return n, true
}

func (f fields) amount(keys ...string) (decimal.Decimal, bool) {
	v := f.raw(keys...)
	if v == nil {
		return decimal.Zero, false
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(v); err != nil {
		return decimal.Zero, false
	}
	return d, true
}

func (f fields) flag(keys ...string) bool {
	v := f.raw(keys...)
	if v == nil {
		return false
	}
	var b bool
	if err := json.Unmarshal(v, &b); err == nil {
		return b
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		b, _ = strconv.ParseBool(strings.TrimSpace(s))
	}
	return b
}

func (f fields) nested(keys ...string) fields {
	v := f.raw(keys...)
	if v == nil {
		return fields{}
	}
	n, err := decodeFields(v)
	if err != nil {
		return fields{}
	}
	return n
}

func firstDecimal(sources []fields, keys ...string) decimal.Decimal {
	for _, f := range sources {
		if d, ok := f.amount(keys...); ok {
			return d
		}
	}
	return decimal.Zero
}

func toProductLookup(raw json.RawMessage) (*entity.ProductLookup, error) {
	f, err := decodeFields(raw)
	if err != nil {
		return nil, err
	}
	vp := f.nested("vendorProduct", "vendor_product")
	src := []fields{f, vp}

	id, ok := f.integer("productId", "product_id", "id")
	if !ok {
		return nil, errors.New("product response has no product id")
	}

	p := &entity.ProductLookup{
		ProductID:            id,
		ProductName:          f.str("productName", "product_name", "name"),
		GenericName:          f.str("genericName", "generic_name"),
		Manufacturer:         f.str("manufacturer", "manufacturerName", "manufacturer_name"),
		UnitOfMeasure:        f.str("unitOfMeasure", "unit_of_measure", "uom"),
		HSNCode:              f.str("hsnCode", "hsn_code"),
		Price:                firstDecimal(src, "price", "sellingPrice", "selling_price", "vendorPrice", "vendor_price"),
		MRP:                  firstDecimal(src, "mrp", "MRP"),
		DiscountPercentage:   firstDecimal(src, "discountPercentage", "discount_percentage", "discountPercent", "discount_percent"),
		PrescriptionRequired: f.flag("prescriptionRequired", "prescription_required"),
	}
	if vid, ok := f.integer("vendorProductId", "vendor_product_id"); ok {
		p.VendorProductID = &vid
	} else if vid, ok := vp.integer("vendorProductId", "vendor_product_id", "id"); ok {
		p.VendorProductID = &vid
	}
	return p, nil
}

func toCustomer(raw json.RawMessage) (*entity.Customer, error) {
	f, err := decodeFields(raw)
	if err != nil {
		return nil, err
	}
	id, ok := f.integer("customerId", "customer_id", "id")
	if !ok {
		return nil, errors.New("customer response has no customer id")
	}
	return &entity.Customer{
		CustomerID:   id,
		CustomerName: f.str("customerName", "customer_name", "name"),
		Phone:        f.str("phone", "phoneNumber", "phone_number"),
		CustomerType: f.str("customerType", "customer_type"),
	}, nil
}

func toOrderResult(raw json.RawMessage) (*entity.OrderResult, error) {
	f, err := decodeFields(raw)
	if err != nil {
		return nil, err
	}
	o := &entity.OrderResult{
		OrderNumber: f.str("orderNumber", "order_number"),
		FinalAmount: firstDecimal([]fields{f}, "finalAmount", "final_amount", "totalAmount", "total_amount"),
	}
	if id, ok := f.integer("orderId", "order_id", "id"); ok {
		o.OrderID = id
	}
	if cid, ok := f.integer("customerId", "customer_id"); ok {
		o.CustomerID = cid
	}
	if o.OrderNumber == "" && o.OrderID != 0 {
		o.OrderNumber = strconv.FormatInt(o.OrderID, 10)
	}
	if o.OrderNumber == "" {
		return nil, errors.New("order response has no order number")
	}
	if ts := f.str("createdAt", "created_at", "orderDate", "order_date"); ts != "" {
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			o.SubmittedAt = t
		}
	}
	return o, nil
}

// Request bodies use the backend's camelCase names.

type newCustomerBody struct {
	CustomerName string `json:"customerName"`
	Phone        string `json:"phone"`
	CustomerType string `json:"customerType"`
	IsActive     bool   `json:"isActive"`
}

type orderItemBody struct {
	ProductID       int64  `json:"productId"`
	Quantity        int    `json:"quantity"`
	VendorProductID *int64 `json:"vendorProductId,omitempty"`
}

type orderBody struct {
	CustomerID int64           `json:"customerId"`
	OrderType  string          `json:"orderType"`
	Items      []orderItemBody `json:"items"`
}

func fromOrderRequest(req entity.OrderRequest) orderBody {
	body := orderBody{
		CustomerID: req.CustomerID,
		OrderType:  req.OrderType,
		Items:      make([]orderItemBody, 0, len(req.Items)),
	}
	for _, it := range req.Items {
		body.Items = append(body.Items, orderItemBody{
			ProductID:       it.ProductID,
			Quantity:        it.Quantity,
			VendorProductID: it.VendorProductID,
		})
	}
	return body
}
