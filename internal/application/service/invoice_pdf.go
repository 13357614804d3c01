package service

import (
	"bytes"
	"fmt"

	"github.com/echohealthcare/mvps-pos/internal/domain/entity"
	"github.com/echohealthcare/mvps-pos/pkg/printer"
	"github.com/jung-kurt/gofpdf/v2"
)

// InvoicePDF renders the current cart as an A4 tax invoice.
func (s *PrinterService) InvoicePDF(cashier string) ([]byte, *entity.Receipt, error) {
	r, err := s.BuildReceipt(cashier)
	if err != nil {
		return nil, nil, err
	}
	data, err := RenderInvoicePDF(r)
	if err != nil {
		return nil, r, err
	}
	return data, r, nil
}

// RenderInvoicePDF lays a receipt out on an A4 page.
func RenderInvoicePDF(r *entity.Receipt) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.SetTitle("Invoice "+r.InvoiceNo, false)
	pdf.AddPage()

	// Header
	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(190, 10, r.Header.StoreName, "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	if r.Header.Address != "" {
		pdf.CellFormat(190, 5, r.Header.Address, "", 1, "C", false, 0, "")
	}
	if r.Header.Phone != "" {
		pdf.CellFormat(190, 5, "Phone: "+r.Header.Phone, "", 1, "C", false, 0, "")
	}
	if r.Header.GSTIN != "" {
		pdf.CellFormat(190, 5, "GSTIN: "+r.Header.GSTIN, "", 1, "C", false, 0, "")
	}
	pdf.Ln(3)
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(190, 8, "TAX INVOICE", "", 1, "C", false, 0, "")
	pdf.Ln(2)

	// Invoice and customer
	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(95, 7, "Invoice: "+r.InvoiceNo, "LT", 0, "L", true, 0, "")
	pdf.CellFormat(95, 7, "Date: "+r.Date, "RT", 1, "L", true, 0, "")
	pdf.CellFormat(95, 7, "Customer: "+r.Customer, "LB", 0, "L", true, 0, "")
	pdf.CellFormat(95, 7, "Phone: "+r.Phone, "RB", 1, "L", true, 0, "")
	if r.Cashier != "" {
		pdf.CellFormat(190, 6, "Cashier: "+r.Cashier, "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	// Items
	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(200, 200, 200)
	pdf.CellFormat(10, 7, "#", "1", 0, "C", true, 0, "")
	pdf.CellFormat(72, 7, "Item", "1", 0, "C", true, 0, "")
	pdf.CellFormat(15, 7, "Qty", "1", 0, "C", true, 0, "")
	pdf.CellFormat(23, 7, "MRP", "1", 0, "C", true, 0, "")
	pdf.CellFormat(23, 7, "Rate", "1", 0, "C", true, 0, "")
	pdf.CellFormat(17, 7, "Disc %", "1", 0, "C", true, 0, "")
	pdf.CellFormat(30, 7, "Amount", "1", 1, "C", true, 0, "")

	pdf.SetFont("Arial", "", 9)
	for i, item := range r.Items {
		name := item.Name
		if item.PrescriptionRequired {
			name += " (Rx)"
		}
		if len([]rune(name)) > 42 {
			name = printer.Truncate(name, 39) + "..."
		}
		pdf.CellFormat(10, 6, fmt.Sprintf("%d", i+1), "1", 0, "C", false, 0, "")
		pdf.CellFormat(72, 6, name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(15, 6, fmt.Sprintf("%d", item.Quantity), "1", 0, "C", false, 0, "")
		pdf.CellFormat(23, 6, item.MRP.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(23, 6, item.UnitPrice.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(17, 6, item.DiscountPercent.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, item.Total.StringFixed(2), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(3)

	// Totals
	totals := []struct {
		label string
		value string
	}{
		{"Subtotal", r.SubTotal.StringFixed(2)},
		{"Discount", r.Discount.StringFixed(2)},
		{fmt.Sprintf("GST @ %s%%", r.GSTRate.String()), r.GST.StringFixed(2)},
	}
	pdf.SetFont("Arial", "", 10)
	for _, t := range totals {
		pdf.CellFormat(130, 6, "", "", 0, "", false, 0, "")
		pdf.CellFormat(30, 6, t.label, "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, t.value, "1", 1, "R", false, 0, "")
	}
	pdf.SetFont("Arial", "B", 11)
	pdf.SetFillColor(220, 240, 220)
	pdf.CellFormat(130, 8, "", "", 0, "", false, 0, "")
	pdf.CellFormat(30, 8, "Grand Total", "1", 0, "L", true, 0, "")
	pdf.CellFormat(30, 8, "Rs. "+r.Total.StringFixed(2), "1", 1, "R", true, 0, "")

	pdf.Ln(10)
	pdf.SetFont("Arial", "I", 9)
	pdf.CellFormat(190, 5, "This is a computer generated invoice.", "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
