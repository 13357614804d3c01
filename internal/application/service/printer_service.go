package service

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/echohealthcare/mvps-pos/internal/domain/entity"
	"github.com/echohealthcare/mvps-pos/pkg/apperror"
	"github.com/echohealthcare/mvps-pos/pkg/printer"
)

// DraftInvoiceNo is printed on invoices of carts that have not been ordered yet.
const DraftInvoiceNo = "DRAFT"

// PrinterService composes invoices from the register and prints them.
type PrinterService struct {
	printer     printer.Printer
	register    *RegisterService
	header      entity.ReceiptHeader
	printerType string
	charWidth   int
	now         func() time.Time
}

// NewPrinterService creates a new printer service.
func NewPrinterService(
	p printer.Printer,
	register *RegisterService,
	header entity.ReceiptHeader,
	printerType string,
	charWidth int,
) *PrinterService {
	return &PrinterService{
		printer:     p,
		register:    register,
		header:      header,
		printerType: printerType,
		charWidth:   charWidth,
		now:         time.Now,
	}
}

// PrinterStatus returns the current printer status information.
type PrinterStatus struct {
	Configured bool   `json:"configured"`
	Connected  bool   `json:"connected"`
	Type       string `json:"type"`
}

// GetStatus returns printer connection status.
func (s *PrinterService) GetStatus() *PrinterStatus {
	return &PrinterStatus{
		Configured: s.printerType != "none" && s.printerType != "",
		Connected:  s.printer.IsConnected(),
		Type:       s.printerType,
	}
}

// BuildReceipt composes the invoice from the current cart. The cart is still
// populated after a successful order, so the printed invoice carries the
// order number.
func (s *PrinterService) BuildReceipt(cashier string) (*entity.Receipt, error) {
	snap := s.register.Snapshot()
	if len(snap.Lines) == 0 {
		return nil, apperror.NewUnprocessableError("Cart is empty")
	}

	r := &entity.Receipt{
		Header:    s.header,
		InvoiceNo: DraftInvoiceNo,
		Date:      s.now().Format("02-01-2006 15:04"),
		Cashier:   cashier,
		Customer:  snap.Customer.Name,
		Phone:     snap.Customer.Phone,
		SubTotal:  snap.Totals.Subtotal,
		Discount:  snap.Totals.TotalDiscount,
		GSTRate:   snap.Totals.GSTRate,
		GST:       snap.Totals.TaxAmount,
		Total:     snap.Totals.GrandTotal,
	}
	if snap.LastOrder != nil {
		r.InvoiceNo = snap.LastOrder.OrderNumber
		r.Date = snap.LastOrder.SubmittedAt.Format("02-01-2006 15:04")
	}

	for _, l := range snap.Lines {
		r.Items = append(r.Items, entity.ReceiptItem{
			Name:                 l.ProductName,
			Quantity:             l.Quantity,
			UnitPrice:            l.UnitPrice,
			MRP:                  l.MRP,
			DiscountPercent:      l.DiscountPercent,
			Total:                l.Net(),
			PrescriptionRequired: l.PrescriptionRequired,
		})
	}
	return r, nil
}

// PrintInvoice prints the current cart on the receipt printer.
// The receipt is returned even when printing fails so it can be shown on screen.
func (s *PrinterService) PrintInvoice(ctx context.Context, cashier string) (*entity.Receipt, error) {
	r, err := s.BuildReceipt(cashier)
	if err != nil {
		return nil, err
	}

	if err := s.printer.Print(ctx, FormatReceipt(r, s.charWidth)); err != nil {
		log.Printf("[printer] invoice %s: %v", r.InvoiceNo, err)
		return r, apperror.NewAppError(http.StatusServiceUnavailable, fmt.Sprintf("Failed to print invoice: %v", err))
	}
	return r, nil
}

// FormatReceipt converts a Receipt into ESC/POS bytes.
func FormatReceipt(r *entity.Receipt, width int) []byte {
	doc := printer.NewDocument(width)

	doc.SetAlign(printer.AlignCenter).
		SetBold(true).
		SetFontSize(printer.FontDouble).
		Text(r.Header.StoreName).
		SetFontSize(printer.FontNormal).
		SetBold(false)

	if r.Header.Address != "" {
		doc.Text(r.Header.Address)
	}
	if r.Header.Phone != "" {
		doc.Text(r.Header.Phone)
	}
	if r.Header.GSTIN != "" {
		doc.TextF("GSTIN: %s", r.Header.GSTIN)
	}
	doc.Text("TAX INVOICE")

	doc.SetAlign(printer.AlignLeft).
		Separator('-').
		KeyValue("Invoice:", r.InvoiceNo).
		KeyValue("Date:", r.Date)
	if r.Cashier != "" {
		doc.KeyValue("Cashier:", r.Cashier)
	}
	if r.Customer != "" {
		doc.KeyValue("Customer:", r.Customer)
	}
	if r.Phone != "" {
		doc.KeyValue("Phone:", r.Phone)
	}
	doc.Separator('-')

	for _, item := range r.Items {
		doc.ItemLine(item.Quantity, item.Name, item.Total.StringFixed(2))
		detail := fmt.Sprintf("  @ %s", item.UnitPrice.StringFixed(2))
		if item.DiscountPercent.IsPositive() {
			detail += fmt.Sprintf(" less %s%%", item.DiscountPercent.String())
		}
		if item.MRP.IsPositive() {
			detail += fmt.Sprintf(" MRP %s", item.MRP.StringFixed(2))
		}
		doc.Text(detail)
		if item.PrescriptionRequired {
			doc.Text("  Rx required")
		}
	}
	doc.Separator('-')

	doc.KeyValue("Subtotal:", r.SubTotal.StringFixed(2))
	if r.Discount.IsPositive() {
		doc.KeyValue("Discount:", "-"+r.Discount.StringFixed(2))
	}
	doc.KeyValue(fmt.Sprintf("GST %s%%:", r.GSTRate.String()), r.GST.StringFixed(2))
	doc.SetBold(true).
		KeyValue("TOTAL:", "Rs. "+r.Total.StringFixed(2)).
		SetBold(false).
		Separator('-')

	doc.SetAlign(printer.AlignCenter)
	if r.InvoiceNo != DraftInvoiceNo {
		doc.Barcode(printer.BarcodeCode128, r.InvoiceNo)
	}
	doc.FeedLines(1).
		Text("Thank you! Get well soon.").
		SetAlign(printer.AlignLeft).
		FeedLines(3).
		PartialCut()

	return doc.Bytes()
}
