package service

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/echohealthcare/mvps-pos/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockPrinter struct {
	Data      []byte
	Err       error
	Connected bool
}

func (m *MockPrinter) Print(ctx context.Context, data []byte) error {
	if m.Err != nil {
		return m.Err
	}
	m.Data = append([]byte(nil), data...)
	return nil
}

func (m *MockPrinter) Close() error      { return nil }
func (m *MockPrinter) IsConnected() bool { return m.Connected }

var testHeader = entity.ReceiptHeader{
	StoreName: "MVPS Pharmacy",
	Address:   "12 MG Road, Pune",
	GSTIN:     "27AAAAA0000A1Z5",
}

func newPrinterFixture(t *testing.T) (*testRegister, *MockPrinter, *PrinterService) {
	t.Helper()
	tr := newTestRegister()
	tr.catalog.Products["8901030865278"] = paracetamol()
	p := &MockPrinter{Connected: true}
	return tr, p, NewPrinterService(p, tr.reg, testHeader, "network", 42)
}

func TestPrinterService_BuildReceiptEmptyCart(t *testing.T) {
	_, _, svc := newPrinterFixture(t)
	_, err := svc.BuildReceipt("asha")
	requireAppError(t, err, http.StatusUnprocessableEntity)
}

func TestPrinterService_DraftInvoice(t *testing.T) {
	tr, p, svc := newPrinterFixture(t)
	ctx := context.Background()
	_, err := tr.reg.HandleScan(ctx, manual("8901030865278"))
	require.NoError(t, err)
	_, err = tr.reg.SetCustomerDraft(ctx, "12345", "Meera")
	require.NoError(t, err)

	r, err := svc.PrintInvoice(ctx, "asha")
	require.NoError(t, err)
	assert.Equal(t, DraftInvoiceNo, r.InvoiceNo)
	assert.Equal(t, "Meera", r.Customer)
	require.Len(t, r.Items, 1)
	assert.Equal(t, "12.50", r.Items[0].Total.StringFixed(2))
	assert.Equal(t, "14.75", r.Total.StringFixed(2))

	out := string(p.Data)
	assert.Contains(t, out, "MVPS Pharmacy")
	assert.Contains(t, out, "TAX INVOICE")
	assert.Contains(t, out, "GSTIN: 27AAAAA0000A1Z5")
	assert.Contains(t, out, "Paracetamol 500mg")
	assert.Contains(t, out, "MRP 15.00")
	assert.Contains(t, out, "GST 18%:")
	assert.Contains(t, out, "Rs. 14.75")
	// no barcode before the order exists
	assert.False(t, bytes.Contains(p.Data, []byte{0x1D, 'k'}))
}

func TestPrinterService_OrderedInvoice(t *testing.T) {
	tr, p, svc := newPrinterFixture(t)
	ctx := context.Background()
	tr.orders.Result = &entity.OrderResult{OrderNumber: "ORD-77"}
	_, err := tr.reg.HandleScan(ctx, manual("8901030865278"))
	require.NoError(t, err)
	_, err = tr.reg.SetCustomerDraft(ctx, "12345", "")
	require.NoError(t, err)
	_, err = tr.checkout.Submit(ctx)
	require.NoError(t, err)

	r, err := svc.PrintInvoice(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "ORD-77", r.InvoiceNo)
	assert.Equal(t, tr.clock.Now().Format("02-01-2006 15:04"), r.Date)
	assert.True(t, bytes.Contains(p.Data, []byte("{BORD-77")))
}

func TestPrinterService_PrintFailureReturnsReceipt(t *testing.T) {
	tr, p, svc := newPrinterFixture(t)
	p.Err = errors.New("paper out")
	_, err := tr.reg.HandleScan(context.Background(), manual("8901030865278"))
	require.NoError(t, err)

	r, err := svc.PrintInvoice(context.Background(), "")
	appErr := requireAppError(t, err, http.StatusServiceUnavailable)
	assert.Contains(t, appErr.Message, "paper out")
	require.NotNil(t, r)
	assert.Len(t, r.Items, 1)
}

func TestPrinterService_InvoicePDF(t *testing.T) {
	tr, _, svc := newPrinterFixture(t)
	_, err := tr.reg.HandleScan(context.Background(), manual("8901030865278"))
	require.NoError(t, err)

	data, r, err := svc.InvoicePDF("asha")
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
}

func TestPrinterService_GetStatus(t *testing.T) {
	tests := []struct {
		name           string
		printerType    string
		connected      bool
		wantConfigured bool
	}{
		{"network", "network", true, true},
		{"none", "none", false, false},
		{"unset", "", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewPrinterService(&MockPrinter{Connected: tt.connected}, nil, testHeader, tt.printerType, 32)
			st := svc.GetStatus()
			assert.Equal(t, tt.wantConfigured, st.Configured)
			assert.Equal(t, tt.connected, st.Connected)
		})
	}
}
