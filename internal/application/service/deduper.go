package service

import "time"

// DefaultDedupeWindow is how long an identical camera read is ignored.
const DefaultDedupeWindow = 3 * time.Second

// Deduper suppresses repeated reads of the same barcode within a window.
// The camera reports a code on every frame it stays in view; only the first
// read inside the window should reach the cart.
//
// Deduper is not safe for concurrent use.
type Deduper struct {
	window         time.Duration
	lastCode       string
	lastObservedAt time.Time
	seen           bool
}

// NewDeduper creates a deduper. A window <= 0 disables suppression.
func NewDeduper(window time.Duration) *Deduper {
	return &Deduper{window: window}
}

// ShouldSuppress reports whether code observed at now repeats the last accepted read.
func (d *Deduper) ShouldSuppress(code string, now time.Time) bool {
	if !d.seen || d.window <= 0 {
		return false
	}
	return code == d.lastCode && now.Sub(d.lastObservedAt) < d.window
}

// Observe records code as the last accepted read.
func (d *Deduper) Observe(code string, now time.Time) {
	d.lastCode = code
	d.lastObservedAt = now
	d.seen = true
}

// Reset forgets the last accepted read.
func (d *Deduper) Reset() {
	*d = Deduper{window: d.window}
}
