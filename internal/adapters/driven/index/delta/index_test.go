package delta

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowmart-labs/skusync/internal/core/domain"
)

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := New(domain.DefaultIndexConfig(t.TempDir()))
	require.NoError(t, err)
	return idx
}

func TestIndex_UpsertAndSearch(t *testing.T) {
	ctx := context.Background()
	idx := newTestIndex(t)

	require.NoError(t, idx.Upsert(ctx, "acme#sku-1", []float32{1, 0, 0}, "red tote"))
	require.NoError(t, idx.Upsert(ctx, "acme#sku-2", []float32{1, 1, 0}, "red-ish tote"))
	require.NoError(t, idx.Upsert(ctx, "acme#sku-3", []float32{0, 1, 0}, "blue tote"))

	hits, err := idx.Search(ctx, []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)

	assert.Equal(t, "acme#sku-1", hits[0].DocID)
	assert.Equal(t, "red tote", hits[0].Text)
	assert.InDelta(t, 1.0, hits[0].Similarity, 1e-6)
	assert.Equal(t, "acme#sku-2", hits[1].DocID)
	assert.Greater(t, hits[0].Similarity, hits[1].Similarity)
}

func TestIndex_SearchEmptyIndex(t *testing.T) {
	idx := newTestIndex(t)

	hits, err := idx.Search(context.Background(), []float32{1, 0, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestIndex_DimensionMismatch(t *testing.T) {
	ctx := context.Background()
	idx := newTestIndex(t)

	require.NoError(t, idx.Upsert(ctx, "acme#sku-1", []float32{1, 0, 0}, ""))

	err := idx.Upsert(ctx, "acme#sku-2", []float32{1, 0}, "")
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)

	_, err = idx.Search(ctx, []float32{1, 0}, 5)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestIndex_UpsertMigratesBaseEntryToDelta(t *testing.T) {
	ctx := context.Background()
	idx := newTestIndex(t)

	require.NoError(t, idx.Upsert(ctx, "acme#sku-1", []float32{1, 0, 0}, "old text"))
	require.NoError(t, idx.Upsert(ctx, "acme#sku-2", []float32{0, 1, 0}, "other"))
	require.NoError(t, idx.Compact(ctx))

	stats, err := idx.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.BaseCount)
	assert.Equal(t, 2, stats.BaseLive)
	assert.Equal(t, 0, stats.DeltaCount)

	// Update a document that now lives in the base.
	require.NoError(t, idx.Upsert(ctx, "acme#sku-1", []float32{0, 0, 1}, "new text"))

	stats, err = idx.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.BaseCount, "superseded slot stays in the base until compaction")
	assert.Equal(t, 1, stats.BaseLive)
	assert.Equal(t, 1, stats.DeltaCount)
	assert.InDelta(t, 0.5, stats.DeltaRatio, 1e-9)

	// The delta copy is authoritative: the old vector must not match.
	hits, err := idx.Search(ctx, []float32{0, 0, 1}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "acme#sku-1", hits[0].DocID)
	assert.Equal(t, "new text", hits[0].Text)

	hits, err = idx.Search(ctx, []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	for _, h := range hits {
		if h.DocID == "acme#sku-1" {
			assert.Less(t, h.Similarity, 0.01, "stale base vector must not be searchable")
		}
	}
}

func TestIndex_Delete(t *testing.T) {
	ctx := context.Background()
	idx := newTestIndex(t)

	require.NoError(t, idx.Upsert(ctx, "acme#sku-1", []float32{1, 0, 0}, ""))
	require.NoError(t, idx.Compact(ctx))
	require.NoError(t, idx.Upsert(ctx, "acme#sku-2", []float32{0, 1, 0}, ""))

	// Delete one base entry and one delta entry.
	require.NoError(t, idx.Delete(ctx, "acme#sku-1"))
	require.NoError(t, idx.Delete(ctx, "acme#sku-2"))
	// Unknown document is a no-op.
	require.NoError(t, idx.Delete(ctx, "acme#missing"))

	stats, err := idx.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.BaseLive)
	assert.Equal(t, 0, stats.DeltaCount)
	assert.Equal(t, 1, stats.Tombstones)

	hits, err := idx.Search(ctx, []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestIndex_CompactDropsSupersededAndTombstones(t *testing.T) {
	ctx := context.Background()
	idx := newTestIndex(t)

	require.NoError(t, idx.Upsert(ctx, "acme#sku-1", []float32{1, 0, 0}, "one"))
	require.NoError(t, idx.Upsert(ctx, "acme#sku-2", []float32{0, 1, 0}, "two"))
	require.NoError(t, idx.Upsert(ctx, "acme#sku-3", []float32{0, 0, 1}, "three"))
	require.NoError(t, idx.Compact(ctx))

	require.NoError(t, idx.Upsert(ctx, "acme#sku-1", []float32{1, 1, 0}, "one v2"))
	require.NoError(t, idx.Delete(ctx, "acme#sku-3"))
	require.NoError(t, idx.Compact(ctx))

	stats, err := idx.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.BaseCount)
	assert.Equal(t, 2, stats.BaseLive)
	assert.Equal(t, 0, stats.DeltaCount)
	assert.Equal(t, 0, stats.Tombstones)
	assert.Zero(t, stats.DeltaRatio)

	hits, err := idx.Search(ctx, []float32{1, 1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "acme#sku-1", hits[0].DocID)
	assert.Equal(t, "one v2", hits[0].Text)
}

func TestIndex_FlushCompactsAtThreshold(t *testing.T) {
	ctx := context.Background()
	cfg := domain.DefaultIndexConfig(t.TempDir())
	idx, err := New(cfg)
	require.NoError(t, err)

	// 20 documents in the base; one delta entry is a 1/20 = 5% ratio,
	// two put it at the 10% default threshold.
	for n := 0; n < 20; n++ {
		require.NoError(t, idx.Upsert(ctx, docID(n), []float32{float32(n + 1), 1, 0}, ""))
	}
	require.NoError(t, idx.Compact(ctx))

	require.NoError(t, idx.Upsert(ctx, docID(0), []float32{1, 2, 0}, ""))
	require.NoError(t, idx.Flush(ctx))

	stats, err := idx.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.DeltaCount, "below threshold, delta survives a flush")

	require.NoError(t, idx.Upsert(ctx, docID(1), []float32{2, 3, 0}, ""))
	require.NoError(t, idx.Flush(ctx))

	stats, err = idx.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.DeltaCount, "at threshold, flush folds the delta into the base")
	assert.Equal(t, 20, stats.BaseCount)
	assert.Equal(t, 20, stats.BaseLive)
}

func TestIndex_PersistenceRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	cfg := domain.DefaultIndexConfig(dir)

	idx, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, idx.Upsert(ctx, "acme#sku-1", []float32{1, 0, 0}, "red tote"))
	require.NoError(t, idx.Upsert(ctx, "acme#sku-2", []float32{0, 1, 0}, "blue tote"))
	require.NoError(t, idx.Compact(ctx))
	require.NoError(t, idx.Upsert(ctx, "acme#sku-1", []float32{0, 0, 1}, "green tote"))
	require.NoError(t, idx.Close())

	reopened, err := New(cfg)
	require.NoError(t, err)
	defer reopened.Close()

	hits, err := reopened.Search(ctx, []float32{0, 0, 1}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "acme#sku-1", hits[0].DocID)
	assert.Equal(t, "green tote", hits[0].Text, "text payload survives the round trip")

	stats, err := reopened.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.BaseLive+stats.DeltaCount)
}

func docID(n int) string {
	return "acme#sku-" + string(rune('a'+n))
}
