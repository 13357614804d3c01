package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/echohealthcare/mvps-pos/internal/application/service"
	"github.com/echohealthcare/mvps-pos/internal/config"
	"github.com/echohealthcare/mvps-pos/internal/domain/entity"
	infraRepo "github.com/echohealthcare/mvps-pos/internal/infrastructure/repository"
	"github.com/echohealthcare/mvps-pos/internal/presentation/http/handler"
	"github.com/echohealthcare/mvps-pos/internal/presentation/http/middleware"
	"github.com/echohealthcare/mvps-pos/pkg/printer"
	"github.com/echohealthcare/mvps-pos/pkg/scanner"
	"github.com/echohealthcare/mvps-pos/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubBackend struct {
	mu       sync.Mutex
	products map[string]entity.ProductLookup
	lookups  int
	orders   int
}

func (b *stubBackend) LookupBarcode(ctx context.Context, code string) (*entity.ProductLookup, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lookups++
	p, ok := b.products[code]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (b *stubBackend) FindByPhone(ctx context.Context, phone string) (*entity.Customer, error) {
	return nil, nil
}

func (b *stubBackend) CreateCustomer(ctx context.Context, in entity.NewCustomer) (*entity.Customer, error) {
	return &entity.Customer{CustomerID: 900, CustomerName: in.CustomerName, Phone: in.Phone}, nil
}

func (b *stubBackend) CreateOrder(ctx context.Context, req entity.OrderRequest) (*entity.OrderResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.orders++
	return &entity.OrderResult{OrderNumber: "ORD-1001", FinalAmount: decimal.RequireFromString("14.75")}, nil
}

type testServer struct {
	router  *gin.Engine
	backend *stubBackend
	token   string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	backend := &stubBackend{products: map[string]entity.ProductLookup{
		"8901030865278": {
			ProductID:   101,
			ProductName: "Paracetamol 500mg",
			Price:       decimal.RequireFromString("12.5"),
			MRP:         decimal.RequireFromString("15.0"),
		},
	}}

	customers := service.NewCustomerService(backend, "", "")
	register := service.NewRegisterService(backend, customers, service.RegisterConfig{
		GSTRate:      entity.DefaultGSTRate,
		DedupeWindow: service.DefaultDedupeWindow,
	})
	checkout := service.NewCheckoutService(register, customers, backend, "")
	decoder := scanner.DecoderFunc(func(img image.Image) (scanner.Result, error) {
		return scanner.Result{Text: "8901030865278", Format: "EAN_13"}, nil
	})
	scanSvc := service.NewScannerService(register, nil, scanner.NewFallback(decoder, 0))
	printSvc := service.NewPrinterService(printer.NewNullPrinter(), register, entity.ReceiptHeader{StoreName: "MVPS Pharmacy"}, "none", 42)
	t.Cleanup(func() {
		scanSvc.Close()
		register.Close()
	})

	jwtManager := utils.NewJWTManager("test-secret", time.Hour)
	token, err := jwtManager.GenerateAccessToken("op-1", "Asha", []string{"cashier"})
	require.NoError(t, err)

	router := Setup(&Handlers{
		Register: handler.NewRegisterHandler(register, checkout),
		Scanner:  handler.NewScannerHandler(scanSvc, register, 0),
		Printer:  handler.NewPrinterHandler(printSvc),
		Health:   handler.NewHealthHandler("mvps-pos", scanSvc, printSvc),
	}, &Deps{
		JWTManager:      jwtManager,
		Cfg:             &config.Config{},
		IdempotencyRepo: infraRepo.NewMemoryIdempotencyRepository(),
	})

	return &testServer{router: router, backend: backend, token: token}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  json.RawMessage `json:"errors"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

type registerView struct {
	Lines []struct {
		ProductID       int64       `json:"product_id"`
		Quantity        int         `json:"quantity"`
		UnitPrice       json.Number `json:"unit_price"`
		DiscountPercent json.Number `json:"discount_percent"`
	} `json:"lines"`
	Totals struct {
		Subtotal   json.Number `json:"subtotal"`
		TaxAmount  json.Number `json:"tax_amount"`
		GrandTotal json.Number `json:"grand_total"`
	} `json:"totals"`
	SubmissionState string `json:"submission_state"`
	Error           string `json:"error"`
}

func TestRoutes_RequireOperatorToken(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/register", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
}

func TestRoutes_RequireRegisterRole(t *testing.T) {
	s := newTestServer(t)
	jwtManager := utils.NewJWTManager("test-secret", time.Hour)

	tests := []struct {
		name  string
		roles []string
		want  int
	}{
		{"cashier", []string{"cashier"}, http.StatusOK},
		{"supervisor", []string{"auditor", "supervisor"}, http.StatusOK},
		{"other role", []string{"auditor"}, http.StatusForbidden},
		{"no roles", nil, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := jwtManager.GenerateAccessToken("op-2", "Ravi", tt.roles)
			require.NoError(t, err)

			w := s.do(t, http.MethodGet, "/api/v1/register", nil, "Authorization", "Bearer "+token)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
			if tt.want == http.StatusForbidden {
				assert.Equal(t, "Insufficient role privileges", decode(t, w).Message)
			}
		})
	}
}

func TestRoutes_PanicRendersEnvelope(t *testing.T) {
	s := newTestServer(t)
	s.router.GET("/boom", func(c *gin.Context) { panic("boom") })

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	env := decode(t, w)
	assert.False(t, env.Success)
	assert.Equal(t, "Internal server error", env.Message)
}

func TestRoutes_ScanEditAndCheckout(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/v1/register/scan", map[string]string{"code": "8901030865278", "source": "camera"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var scanned struct {
		Register registerView `json:"register"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &scanned))
	require.Len(t, scanned.Register.Lines, 1)
	assert.Equal(t, "12.50", scanned.Register.Totals.Subtotal.String())
	assert.Equal(t, "2.25", scanned.Register.Totals.TaxAmount.String())
	assert.Equal(t, "14.75", scanned.Register.Totals.GrandTotal.String())

	// the same camera read straight away is ignored
	w = s.do(t, http.MethodPost, "/api/v1/register/scan", map[string]string{"code": "8901030865278", "source": "camera"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Duplicate scan ignored", decode(t, w).Message)
	assert.Equal(t, 1, s.backend.lookups)

	w = s.do(t, http.MethodPatch, "/api/v1/register/lines/101", map[string]interface{}{
		"quantity":         "0",
		"discount_percent": 150,
		"unit_price":       "abc",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var edited registerView
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &edited))
	assert.Equal(t, 1, edited.Lines[0].Quantity)
	assert.Equal(t, "0.00", edited.Lines[0].UnitPrice.String())
	assert.Equal(t, "100.00", edited.Lines[0].DiscountPercent.String())

	w = s.do(t, http.MethodPost, "/api/v1/register/checkout", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "Customer phone is required", decode(t, w).Message)
	assert.Equal(t, 0, s.backend.orders)

	w = s.do(t, http.MethodPut, "/api/v1/register/customer", map[string]string{"phone": "9000000001"})
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/register/checkout", nil, middleware.IdempotencyKeyHeader, "key-1")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	first := w.Body.String()

	w = s.do(t, http.MethodPost, "/api/v1/register/checkout", nil, middleware.IdempotencyKeyHeader, "key-1")
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "true", w.Header().Get("X-Idempotency-Replayed"))
	assert.Equal(t, first, w.Body.String())
	assert.Equal(t, 1, s.backend.orders)

	w = s.do(t, http.MethodPost, "/api/v1/register/checkout", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/register/invoice.pdf", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "invoice-ORD-1001.pdf")

	w = s.do(t, http.MethodPost, "/api/v1/register/clear", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var cleared registerView
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &cleared))
	assert.Empty(t, cleared.Lines)
	assert.Equal(t, "Idle", cleared.SubmissionState)
}

func TestRoutes_ScanNotFound(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/v1/register/scan", map[string]string{"code": "0000"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	env := decode(t, w)
	assert.False(t, env.Success)
	assert.Equal(t, "Product not found for barcode: 0000", env.Message)

	w = s.do(t, http.MethodPost, "/api/v1/register/scan", map[string]string{})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestRoutes_LineErrors(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/v1/register/lines/abc/increment", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/register/lines/55/increment", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodDelete, "/api/v1/register/lines/55", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRoutes_OversizedQuantityIsRejected(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/v1/register/scan", map[string]string{"code": "8901030865278"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	for _, q := range []interface{}{"18446744073709551618", json.Number("1e19"), json.Number("9223372036854775808")} {
		w = s.do(t, http.MethodPatch, "/api/v1/register/lines/101", map[string]interface{}{"quantity": q})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code, "quantity %v", q)
		assert.Equal(t, "Quantity is too large", decode(t, w).Message)
	}

	w = s.do(t, http.MethodGet, "/api/v1/register", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var view registerView
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &view))
	require.Len(t, view.Lines, 1)
	assert.Equal(t, 1, view.Lines[0].Quantity)
}

func TestRoutes_CaptureUpload(t *testing.T) {
	s := newTestServer(t)

	var img bytes.Buffer
	require.NoError(t, png.Encode(&img, image.NewGray(image.Rect(0, 0, 64, 32))))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("frame", "frame.png")
	require.NoError(t, err)
	_, err = part.Write(img.Bytes())
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/register/capture", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+s.token)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var data struct {
		Capture struct {
			Found bool   `json:"found"`
			Code  string `json:"code"`
			Pass  string `json:"pass"`
		} `json:"capture"`
		Register registerView `json:"register"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &data))
	assert.True(t, data.Capture.Found)
	assert.Equal(t, scanner.PassOriginal, data.Capture.Pass)
	require.Len(t, data.Register.Lines, 1)
	assert.Equal(t, 1, data.Register.Lines[0].Quantity)
}

func TestRoutes_CaptureWithoutCamera(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/v1/register/capture", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/register/scanner/start", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestRoutes_Metrics(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodGet, "/api/v1/register", nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "pos_http_requests_total"))
}
