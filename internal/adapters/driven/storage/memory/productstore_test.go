package memory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowmart-labs/skusync/internal/core/domain"
)

func TestProductStore_GetNotFound(t *testing.T) {
	store := NewProductStore()

	_, err := store.Get(context.Background(), testKey("missing"))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProductStore_Upsert_CreateThenUpdate(t *testing.T) {
	store := NewProductStore()
	ctx := context.Background()

	p := domain.Product{
		Key:   testKey("sku-1"),
		Name:  "Canvas Tote",
		Price: decimal.RequireFromString("19.99"),
	}
	require.NoError(t, store.Upsert(ctx, p))

	created, err := store.Get(ctx, p.Key)
	require.NoError(t, err)
	assert.NotEmpty(t, created.InternalID)
	assert.False(t, created.CreatedAt.IsZero())

	// Updating preserves the surrogate ID and creation time.
	p.Name = "Canvas Tote XL"
	require.NoError(t, store.Upsert(ctx, p))

	updated, err := store.Get(ctx, p.Key)
	require.NoError(t, err)
	assert.Equal(t, created.InternalID, updated.InternalID)
	assert.True(t, updated.CreatedAt.Equal(created.CreatedAt))
	assert.Equal(t, "Canvas Tote XL", updated.Name)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestStagingSource_FetchBatch_WatermarkPredicate(t *testing.T) {
	src := NewStagingSource()
	ctx := context.Background()

	t0 := mustTime(t, "2026-03-01T10:00:00Z")
	t1 := t0.Add(time.Minute)

	src.Add(
		domain.StagingRecord{Namespace: "flowmart", LocalID: "sku-b", SourceUpdatedAt: t0},
		domain.StagingRecord{Namespace: "flowmart", LocalID: "sku-a", SourceUpdatedAt: t0},
		domain.StagingRecord{Namespace: "flowmart", LocalID: "sku-c", SourceUpdatedAt: t1},
	)

	// Zero watermark sees everything in (ts, key) order.
	all, err := src.FetchBatch(ctx, domain.Watermark{}, 10)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "sku-a", all[0].LocalID)
	assert.Equal(t, "sku-b", all[1].LocalID)
	assert.Equal(t, "sku-c", all[2].LocalID)

	// A watermark mid-timestamp only skips keys at or before it.
	rest, err := src.FetchBatch(ctx, domain.Watermark{
		LastSeenAt:  t0,
		LastSeenKey: "flowmart#sku-a",
	}, 10)
	require.NoError(t, err)
	require.Len(t, rest, 2)
	assert.Equal(t, "sku-b", rest[0].LocalID)
	assert.Equal(t, "sku-c", rest[1].LocalID)
}

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	require.NoError(t, err)
	return ts
}
