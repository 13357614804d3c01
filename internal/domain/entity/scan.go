package entity

import (
	"time"

	"github.com/echohealthcare/mvps-pos/internal/domain/enum"
	"github.com/google/uuid"
)

// ScanEvent is a single raw decode or typed code. It is consumed immediately
// by the register and never persisted.
type ScanEvent struct {
	Code       string
	Format     string
	Source     enum.ScanSource
	ObservedAt time.Time
}

// Scan outcomes recorded in the history.
const (
	ScanOutcomeAdded       = "added"
	ScanOutcomeIncremented = "incremented"
	ScanOutcomeSuppressed  = "suppressed"
	ScanOutcomeNotFound    = "not_found"
	ScanOutcomeFailed      = "failed"
	ScanOutcomeDropped     = "dropped"
)

// ScanRecord is a display-only entry of the register's scan history.
type ScanRecord struct {
	ID         uuid.UUID       `json:"id"`
	Code       string          `json:"code"`
	Format     string          `json:"format,omitempty"`
	Source     enum.ScanSource `json:"source"`
	Outcome    string          `json:"outcome"`
	ProductID  int64           `json:"product_id,omitempty"`
	ObservedAt time.Time       `json:"observed_at"`
}
