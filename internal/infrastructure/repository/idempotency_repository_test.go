package repository

import (
	"context"
	"testing"
	"time"

	"github.com/echohealthcare/mvps-pos/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestMemoryIdempotencyRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryIdempotencyRepository()

	got, err := repo.GetByKey(ctx, "k1", "op-1")
	require.NoError(t, err)
	assert.Nil(t, got)

	key := &entity.IdempotencyKey{
		Key:          "k1",
		OperatorID:   "op-1",
		Endpoint:     "POST /api/v1/register/checkout",
		ResponseCode: 201,
		ResponseBody: `{"success":true}`,
		ExpiresAt:    time.Now().Add(time.Hour),
	}
	require.NoError(t, repo.Create(ctx, key))
	assert.NotEqual(t, "", key.ID.String())

	got, err = repo.GetByKey(ctx, "k1", "op-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 201, got.ResponseCode)

	// keys are scoped per operator
	got, err = repo.GetByKey(ctx, "k1", "op-2")
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.ErrorIs(t, repo.Create(ctx, &entity.IdempotencyKey{Key: "k1", OperatorID: "op-1"}), gorm.ErrDuplicatedKey)
}

func TestMemoryIdempotencyRepository_DeleteExpired(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryIdempotencyRepository()

	require.NoError(t, repo.Create(ctx, &entity.IdempotencyKey{Key: "old", OperatorID: "op", ExpiresAt: time.Now().Add(-time.Minute)}))
	require.NoError(t, repo.Create(ctx, &entity.IdempotencyKey{Key: "new", OperatorID: "op", ExpiresAt: time.Now().Add(time.Hour)}))
	require.NoError(t, repo.DeleteExpired(ctx))

	old, err := repo.GetByKey(ctx, "old", "op")
	require.NoError(t, err)
	assert.Nil(t, old)

	fresh, err := repo.GetByKey(ctx, "new", "op")
	require.NoError(t, err)
	assert.NotNil(t, fresh)
}

func TestMemoryIdempotencyRepository_CreateReplacesExpiredKey(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryIdempotencyRepository()

	require.NoError(t, repo.Create(ctx, &entity.IdempotencyKey{
		Key:          "k1",
		OperatorID:   "op-1",
		ResponseCode: 201,
		ResponseBody: `{"order":"ORD-1"}`,
		ExpiresAt:    time.Now().Add(-time.Second),
	}))

	require.NoError(t, repo.Create(ctx, &entity.IdempotencyKey{
		Key:          "k1",
		OperatorID:   "op-1",
		ResponseCode: 201,
		ResponseBody: `{"order":"ORD-2"}`,
		ExpiresAt:    time.Now().Add(time.Hour),
	}))

	got, err := repo.GetByKey(ctx, "k1", "op-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, `{"order":"ORD-2"}`, got.ResponseBody)
	assert.False(t, got.IsExpired())
}
