package service

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/echohealthcare/mvps-pos/internal/domain/entity"
	"github.com/echohealthcare/mvps-pos/internal/domain/enum"
	"github.com/echohealthcare/mvps-pos/internal/domain/repository"
	"github.com/echohealthcare/mvps-pos/internal/metrics"
	"github.com/echohealthcare/mvps-pos/pkg/apperror"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	DefaultStatusTTL   = 4 * time.Second
	DefaultHistorySize = 50
)

// RegisterConfig configures a RegisterService.
type RegisterConfig struct {
	GSTRate      decimal.Decimal
	DedupeWindow time.Duration
	StatusTTL    time.Duration
	HistorySize  int
	Clock        func() time.Time
}

// RegisterService owns the session state of one checkout counter: the cart,
// the customer draft, the order submission state and the scan history.
// Every mutation happens under one lock; backend calls run outside it and
// apply their result to whatever the state is when they complete.
type RegisterService struct {
	catalog   repository.ProductCatalog
	customers *CustomerService
	gstRate   decimal.Decimal
	statusTTL time.Duration
	histSize  int
	now       func() time.Time

	mu            sync.Mutex
	cart          *entity.Cart
	draft         entity.CustomerDraft
	state         enum.SubmissionState
	errMsg        string
	status        string
	statusExpires time.Time
	lastOrder     *entity.OrderResult
	history       []entity.ScanRecord
	dedupe        *Deduper
	closed        bool
}

// NewRegisterService creates the register. customers may be nil, which disables
// the soft customer lookup.
func NewRegisterService(catalog repository.ProductCatalog, customers *CustomerService, cfg RegisterConfig) *RegisterService {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.StatusTTL <= 0 {
		cfg.StatusTTL = DefaultStatusTTL
	}
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = DefaultHistorySize
	}
	if cfg.GSTRate.IsNegative() {
		cfg.GSTRate = decimal.Zero
	}
	return &RegisterService{
		catalog:   catalog,
		customers: customers,
		gstRate:   cfg.GSTRate,
		statusTTL: cfg.StatusTTL,
		histSize:  cfg.HistorySize,
		now:       cfg.Clock,
		cart:      entity.NewCart(),
		dedupe:    NewDeduper(cfg.DedupeWindow),
	}
}

// RegisterSnapshot is a consistent copy of the register state.
type RegisterSnapshot struct {
	Lines           []entity.CartLine    `json:"lines"`
	Totals          entity.Totals        `json:"totals"`
	Customer        entity.CustomerDraft `json:"customer"`
	SubmissionState enum.SubmissionState `json:"submission_state"`
	Error           string               `json:"error,omitempty"`
	Status          string               `json:"status,omitempty"`
	LastOrder       *entity.OrderResult  `json:"last_order,omitempty"`
	ScanHistory     []entity.ScanRecord  `json:"scan_history"`
}

// ScanResult describes what a single code did to the cart.
type ScanResult struct {
	Outcome string           `json:"outcome"`
	Code    string           `json:"code"`
	Line    *entity.CartLine `json:"line,omitempty"`
}

// LineUpdate carries the editable fields of a cart line. Nil fields are left alone.
type LineUpdate struct {
	Quantity        *int
	UnitPrice       *string
	DiscountPercent *string
}

// HandleScan resolves a code against the catalog and adds the product to the
// cart. Camera and capture reads of the same code inside the dedupe window are
// suppressed; typed codes always go through. Each accepted code issues exactly
// one lookup.
func (s *RegisterService) HandleScan(ctx context.Context, ev entity.ScanEvent) (*ScanResult, error) {
	ev.Code = strings.TrimSpace(ev.Code)
	if ev.Code == "" {
		return nil, apperror.NewFieldError("code", "Barcode is required")
	}
	if ev.ObservedAt.IsZero() {
		ev.ObservedAt = s.now()
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, apperror.ErrRegisterClosed
	}
	if ev.Source.Deduplicated() {
		if s.dedupe.ShouldSuppress(ev.Code, ev.ObservedAt) {
			s.recordLocked(ev, entity.ScanOutcomeSuppressed, 0)
			s.mu.Unlock()
			return &ScanResult{Outcome: entity.ScanOutcomeSuppressed, Code: ev.Code}, nil
		}
		s.dedupe.Observe(ev.Code, ev.ObservedAt)
	}
	s.touchLocked()
	s.errMsg = ""
	s.mu.Unlock()

	start := time.Now()
	product, err := s.catalog.LookupBarcode(ctx, ev.Code)
	metrics.LookupDuration.WithLabelValues("product_by_barcode").Observe(time.Since(start).Seconds())

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		log.Printf("[register] dropping lookup result for %s: register closed", ev.Code)
		metrics.ScansTotal.WithLabelValues(ev.Source.String(), entity.ScanOutcomeDropped).Inc()
		return nil, apperror.ErrRegisterClosed
	}
	if err != nil {
		msg := backendMessage(err, "Product lookup failed")
		log.Printf("[register] lookup %s failed: %v", ev.Code, err)
		s.errMsg = msg
		s.recordLocked(ev, entity.ScanOutcomeFailed, 0)
		return nil, apperror.NewBadGatewayError(msg)
	}
	if product == nil {
		msg := "Product not found for barcode: " + ev.Code
		s.errMsg = msg
		s.recordLocked(ev, entity.ScanOutcomeNotFound, 0)
		return nil, apperror.NewAppError(http.StatusNotFound, msg)
	}

	line, added := s.cart.AddOrIncrement(*product)
	outcome := entity.ScanOutcomeIncremented
	if added {
		outcome = entity.ScanOutcomeAdded
	}
	s.recordLocked(ev, outcome, product.ProductID)
	return &ScanResult{Outcome: outcome, Code: ev.Code, Line: &line}, nil
}

// UpdateLine applies operator edits to one line.
func (s *RegisterService) UpdateLine(productID int64, u LineUpdate) (entity.CartLine, error) {
	return s.mutateLine(productID, func(c *entity.Cart) {
		if u.Quantity != nil {
			c.SetQuantity(productID, *u.Quantity)
		}
		if u.UnitPrice != nil {
			c.SetUnitPrice(productID, *u.UnitPrice)
		}
		if u.DiscountPercent != nil {
			c.SetDiscountPercent(productID, *u.DiscountPercent)
		}
	})
}

// Increment is the + control of a line.
func (s *RegisterService) Increment(productID int64) (entity.CartLine, error) {
	return s.mutateLine(productID, func(c *entity.Cart) { c.Increment(productID) })
}

// Decrement is the - control of a line. Quantity never drops below 1.
func (s *RegisterService) Decrement(productID int64) (entity.CartLine, error) {
	return s.mutateLine(productID, func(c *entity.Cart) { c.Decrement(productID) })
}

func (s *RegisterService) mutateLine(productID int64, fn func(*entity.Cart)) (entity.CartLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return entity.CartLine{}, apperror.ErrRegisterClosed
	}
	s.touchLocked()
	if _, ok := s.cart.Line(productID); !ok {
		return entity.CartLine{}, apperror.NewNotFoundError("Cart line")
	}
	fn(s.cart)
	line, _ := s.cart.Line(productID)
	return line, nil
}

// RemoveLine deletes a line. Removing a product that is not in the cart is a no-op.
func (s *RegisterService) RemoveLine(productID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return apperror.ErrRegisterClosed
	}
	s.touchLocked()
	s.cart.Remove(productID)
	return nil
}

// Clear starts a new sale: empties the cart, resets the customer draft, the
// submission state and the dedupe window.
func (s *RegisterService) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return apperror.ErrRegisterClosed
	}
	if s.state == enum.SubmissionSubmitting {
		return apperror.ErrSubmitting
	}
	s.cart.Clear()
	s.draft = entity.CustomerDraft{}
	s.state = enum.SubmissionIdle
	s.errMsg = ""
	s.status = ""
	s.lastOrder = nil
	s.dedupe.Reset()
	return nil
}

// ClearHistory empties the scan history without touching the cart.
func (s *RegisterService) ClearHistory() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return apperror.ErrRegisterClosed
	}
	s.history = nil
	return nil
}

// SetCustomerDraft stores what the operator typed for the customer. Once the
// phone has enough digits and no name was typed, the existing customer's name
// is filled in. Lookup failures are logged and otherwise ignored.
func (s *RegisterService) SetCustomerDraft(ctx context.Context, phone, name string) (entity.CustomerDraft, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return entity.CustomerDraft{}, apperror.ErrRegisterClosed
	}
	s.touchLocked()
	s.draft = entity.CustomerDraft{Phone: phone, Name: name}
	draft := s.draft
	s.mu.Unlock()

	if s.customers == nil || strings.TrimSpace(name) != "" {
		return draft, nil
	}

	found, err := s.customers.SoftLookup(ctx, phone)
	if err != nil {
		log.Printf("[register] customer lookup for %s failed: %v", phone, err)
		return draft, nil
	}
	if found == nil {
		return draft, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// The operator may have kept typing while the lookup ran.
	if s.closed || s.draft.Phone != phone || strings.TrimSpace(s.draft.Name) != "" {
		return s.draft, nil
	}
	s.draft.Name = found.CustomerName
	return s.draft, nil
}

// SetStatus shows a transient message that clears itself after the status TTL.
func (s *RegisterService) SetStatus(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = msg
	s.statusExpires = s.now().Add(s.statusTTL)
}

// Snapshot returns a copy of the register state.
func (s *RegisterService) Snapshot() RegisterSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines := s.cart.Lines()
	snap := RegisterSnapshot{
		Lines:           lines,
		Totals:          entity.ComputeTotals(lines, s.gstRate),
		Customer:        s.draft,
		SubmissionState: s.state,
		Error:           s.errMsg,
		ScanHistory:     make([]entity.ScanRecord, len(s.history)),
	}
	copy(snap.ScanHistory, s.history)
	if s.status != "" && s.now().Before(s.statusExpires) {
		snap.Status = s.status
	}
	if s.lastOrder != nil {
		o := *s.lastOrder
		snap.LastOrder = &o
	}
	return snap
}

// Close marks the register as torn down. Lookups and submissions still in
// flight drop their results.
func (s *RegisterService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

// beginSubmit checks the checkout guards and moves the register to Submitting.
// It returns the lines and draft to submit.
func (s *RegisterService) beginSubmit() ([]entity.CartLine, entity.CustomerDraft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, entity.CustomerDraft{}, apperror.ErrRegisterClosed
	}
	if !s.state.CanSubmit() {
		if s.state == enum.SubmissionSucceeded {
			return nil, entity.CustomerDraft{}, apperror.ErrAlreadyOrdered
		}
		return nil, entity.CustomerDraft{}, apperror.ErrSubmitting
	}
	s.touchLocked()

	if s.cart.Len() == 0 {
		err := apperror.NewFieldError("items", "Cart is empty")
		s.errMsg = err.Message
		return nil, entity.CustomerDraft{}, err
	}
	if strings.TrimSpace(s.draft.Phone) == "" {
		err := apperror.NewFieldError("phone", "Customer phone is required")
		s.errMsg = err.Message
		return nil, entity.CustomerDraft{}, err
	}

	s.state = enum.SubmissionSubmitting
	s.errMsg = ""
	return s.cart.Lines(), s.draft, nil
}

func (s *RegisterService) completeSubmit(result *entity.OrderResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		log.Printf("[register] order %s created after register closed", result.OrderNumber)
		return
	}
	s.state = enum.SubmissionSucceeded
	s.lastOrder = result
}

func (s *RegisterService) failSubmit(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.state = enum.SubmissionFailed
	s.errMsg = msg
}

// touchLocked moves a failed submission back to Idle on the next operator action.
func (s *RegisterService) touchLocked() {
	if s.state == enum.SubmissionFailed {
		s.state = enum.SubmissionIdle
	}
}

func (s *RegisterService) recordLocked(ev entity.ScanEvent, outcome string, productID int64) {
	metrics.ScansTotal.WithLabelValues(ev.Source.String(), outcome).Inc()
	s.history = append(s.history, entity.ScanRecord{
		ID:         uuid.New(),
		Code:       ev.Code,
		Format:     ev.Format,
		Source:     ev.Source,
		Outcome:    outcome,
		ProductID:  productID,
		ObservedAt: ev.ObservedAt,
	})
	if over := len(s.history) - s.histSize; over > 0 {
		s.history = append([]entity.ScanRecord(nil), s.history[over:]...)
	}
}

// backendMessage returns the message the backend attached to err, or fallback.
func backendMessage(err error, fallback string) string {
	var be repository.BackendError
	if errors.As(err, &be) {
		if msg := strings.TrimSpace(be.BackendMessage()); msg != "" {
			return msg
		}
	}
	return fallback
}
