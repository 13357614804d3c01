package entity

import (
	"time"

	"github.com/google/uuid"
)

// IdempotencyKey stores a processed checkout so a retried request replays the
// original response instead of creating a second order.
type IdempotencyKey struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Key          string    `gorm:"uniqueIndex:idx_idempotency_operator_key;size:255;not null"`
	OperatorID   string    `gorm:"uniqueIndex:idx_idempotency_operator_key;size:255;not null"`
	Endpoint     string    `gorm:"size:255;not null"` // e.g. "POST /api/v1/register/checkout"
	ResponseCode int       `gorm:"not null"`
	ResponseBody string    `gorm:"type:text"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	ExpiresAt    time.Time `gorm:"not null;index"`
}

// TableName returns the table name for IdempotencyKey
func (IdempotencyKey) TableName() string {
	return "pos_idempotency_keys"
}

// IsExpired checks if the idempotency key has expired
func (i *IdempotencyKey) IsExpired() bool {
	return time.Now().After(i.ExpiresAt)
}
