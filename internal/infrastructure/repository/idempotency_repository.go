package repository

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/echohealthcare/mvps-pos/internal/domain/entity"
	domainRepo "github.com/echohealthcare/mvps-pos/internal/domain/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type idempotencyRepository struct {
	db *gorm.DB
}

// NewIdempotencyRepository creates a new idempotency repository
func NewIdempotencyRepository(db *gorm.DB) domainRepo.IdempotencyRepository {
	return &idempotencyRepository{db: db}
}

func (r *idempotencyRepository) GetByKey(ctx context.Context, key, operatorID string) (*entity.IdempotencyKey, error) {
	var ikey entity.IdempotencyKey
	err := r.db.WithContext(ctx).
		Where("key = ? AND operator_id = ?", key, operatorID).
		First(&ikey).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ikey, nil
}

// Create stores ikey, replacing an expired row for the same key that cleanup
// has not removed yet.
func (r *idempotencyRepository) Create(ctx context.Context, ikey *entity.IdempotencyKey) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("key = ? AND operator_id = ? AND expires_at < ?", ikey.Key, ikey.OperatorID, time.Now()).
			Delete(&entity.IdempotencyKey{}).Error; err != nil {
			return err
		}
		return tx.Create(ikey).Error
	})
}

func (r *idempotencyRepository) DeleteExpired(ctx context.Context) error {
	return r.db.WithContext(ctx).
		Where("expires_at < ?", time.Now()).
		Delete(&entity.IdempotencyKey{}).Error
}

// memoryIdempotencyRepository keeps keys in process memory for registers
// running without a database.
type memoryIdempotencyRepository struct {
	mu   sync.Mutex
	keys map[string]entity.IdempotencyKey
	now  func() time.Time
}

// NewMemoryIdempotencyRepository creates an in-memory idempotency repository
func NewMemoryIdempotencyRepository() domainRepo.IdempotencyRepository {
	return &memoryIdempotencyRepository{
		keys: make(map[string]entity.IdempotencyKey),
		now:  time.Now,
	}
}

func memoryKey(key, operatorID string) string {
	return operatorID + "\x00" + key
}

func (r *memoryIdempotencyRepository) GetByKey(ctx context.Context, key, operatorID string) (*entity.IdempotencyKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ikey, ok := r.keys[memoryKey(key, operatorID)]
	if !ok {
		return nil, nil
	}
	return &ikey, nil
}

func (r *memoryIdempotencyRepository) Create(ctx context.Context, ikey *entity.IdempotencyKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := memoryKey(ikey.Key, ikey.OperatorID)
	if existing, exists := r.keys[k]; exists && !r.now().After(existing.ExpiresAt) {
		return gorm.ErrDuplicatedKey
	}
	if ikey.ID == uuid.Nil {
		ikey.ID = uuid.New()
	}
	if ikey.CreatedAt.IsZero() {
		ikey.CreatedAt = r.now()
	}
	r.keys[k] = *ikey
	return nil
}

func (r *memoryIdempotencyRepository) DeleteExpired(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	for k, v := range r.keys {
		if v.ExpiresAt.Before(now) {
			delete(r.keys, k)
		}
	}
	return nil
}
