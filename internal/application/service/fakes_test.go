package service

import (
	"context"
	"sync"
	"time"

	"github.com/echohealthcare/mvps-pos/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// --- Mock catalog ---

type MockCatalog struct {
	mu       sync.Mutex
	Products map[string]entity.ProductLookup
	Err      error
	calls    map[string]int
	// gates hold a lookup until the test releases it
	gates map[string]chan struct{}
}

func newMockCatalog() *MockCatalog {
	return &MockCatalog{
		Products: map[string]entity.ProductLookup{},
		calls:    map[string]int{},
		gates:    map[string]chan struct{}{},
	}
}

func (m *MockCatalog) LookupBarcode(ctx context.Context, code string) (*entity.ProductLookup, error) {
	m.mu.Lock()
	m.calls[code]++
	gate := m.gates[code]
	m.mu.Unlock()

	if gate != nil {
		<-gate
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	p, ok := m.Products[code]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *MockCatalog) Calls(code string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[code]
}

func (m *MockCatalog) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		n += c
	}
	return n
}

func (m *MockCatalog) Hold(code string) chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch := make(chan struct{})
	m.gates[code] = ch
	return ch
}

// --- Mock customer directory ---

type MockDirectory struct {
	mu        sync.Mutex
	Customers map[string]entity.Customer
	FindErr   error
	CreateErr error
	Created   []entity.NewCustomer
	finds     int
	nextID    int64
}

func newMockDirectory() *MockDirectory {
	return &MockDirectory{Customers: map[string]entity.Customer{}, nextID: 500}
}

func (m *MockDirectory) FindByPhone(ctx context.Context, phone string) (*entity.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finds++
	if m.FindErr != nil {
		return nil, m.FindErr
	}
	c, ok := m.Customers[phone]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (m *MockDirectory) CreateCustomer(ctx context.Context, in entity.NewCustomer) (*entity.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Created = append(m.Created, in)
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	m.nextID++
	c := entity.Customer{CustomerID: m.nextID, CustomerName: in.CustomerName, Phone: in.Phone, CustomerType: in.CustomerType}
	m.Customers[in.Phone] = c
	return &c, nil
}

func (m *MockDirectory) Finds() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.finds
}

// --- Mock order gateway ---

type MockOrders struct {
	mu       sync.Mutex
	Requests []entity.OrderRequest
	Result   *entity.OrderResult
	Err      error
}

func (m *MockOrders) CreateOrder(ctx context.Context, req entity.OrderRequest) (*entity.OrderResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests = append(m.Requests, req)
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Result == nil {
		return &entity.OrderResult{OrderNumber: "ORD-1", FinalAmount: decimal.NewFromInt(100)}, nil
	}
	r := *m.Result
	return &r, nil
}

func (m *MockOrders) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Requests)
}

// backendErr mimics the backend client's error.
type backendErr struct{ msg string }

func (e *backendErr) Error() string          { return "backend: " + e.msg }
func (e *backendErr) BackendMessage() string { return e.msg }

// --- Clock ---

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func paracetamol() entity.ProductLookup {
	return entity.ProductLookup{
		ProductID:          101,
		ProductName:        "Paracetamol 500mg",
		Price:              decimal.RequireFromString("12.5"),
		MRP:                decimal.RequireFromString("15.0"),
		DiscountPercentage: decimal.Zero,
	}
}

func product(id int64, name, price string) entity.ProductLookup {
	return entity.ProductLookup{ProductID: id, ProductName: name, Price: decimal.RequireFromString(price)}
}

type testRegister struct {
	reg       *RegisterService
	catalog   *MockCatalog
	directory *MockDirectory
	orders    *MockOrders
	checkout  *CheckoutService
	clock     *fakeClock
}

func newTestRegister() *testRegister {
	catalog := newMockCatalog()
	directory := newMockDirectory()
	orders := &MockOrders{}
	clock := newFakeClock()
	customers := NewCustomerService(directory, "", "")
	reg := NewRegisterService(catalog, customers, RegisterConfig{
		GSTRate:      entity.DefaultGSTRate,
		DedupeWindow: DefaultDedupeWindow,
		Clock:        clock.Now,
	})
	return &testRegister{
		reg:       reg,
		catalog:   catalog,
		directory: directory,
		orders:    orders,
		checkout:  NewCheckoutService(reg, customers, orders, ""),
		clock:     clock,
	}
}
