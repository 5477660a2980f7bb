package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowmart-labs/skusync/internal/adapters/driven/storage/memory"
	"github.com/flowmart-labs/skusync/internal/core/domain"
	"github.com/flowmart-labs/skusync/internal/core/ports/driven"
	"github.com/flowmart-labs/skusync/internal/core/ports/driving"
)

// --- Mock implementations for sync and search testing ---

// mockEmbedder implements driven.EmbeddingService with a deterministic
// text-derived vector.
type mockEmbedder struct {
	mu     sync.Mutex
	calls  int
	failOn string // fail when the text contains this substring
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.failOn != "" && strings.Contains(text, m.failOn) {
		return nil, errors.New("embedding provider unavailable")
	}
	vec := make([]float32, 4)
	for i, r := range text {
		vec[i%4] += float32(r)
	}
	return vec, nil
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := m.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int               { return 4 }
func (m *mockEmbedder) ModelName() string             { return "mock-embed" }
func (m *mockEmbedder) Ping(_ context.Context) error  { return nil }
func (m *mockEmbedder) Close() error                  { return nil }

var _ driven.EmbeddingService = (*mockEmbedder)(nil)

// mockIndex implements driven.VectorIndex over a flat map.
type mockIndex struct {
	mu      sync.Mutex
	docs    map[string]mockDoc
	flushes int
	failAll bool
}

type mockDoc struct {
	vector []float32
	text   string
}

func newMockIndex() *mockIndex {
	return &mockIndex{docs: make(map[string]mockDoc)}
}

func (m *mockIndex) Upsert(_ context.Context, docID string, vector []float32, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll {
		return errors.New("index unavailable")
	}
	m.docs[docID] = mockDoc{vector: vector, text: text}
	return nil
}

func (m *mockIndex) Delete(_ context.Context, docID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll {
		return errors.New("index unavailable")
	}
	delete(m.docs, docID)
	return nil
}

func (m *mockIndex) Search(_ context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var hits []driven.VectorHit
	for id, doc := range m.docs {
		hits = append(hits, driven.VectorHit{DocID: id, Text: doc.text, Similarity: cosine(query, doc.vector)})
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].Similarity > hits[j].Similarity })
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func (m *mockIndex) Stats(_ context.Context) (driven.IndexStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return driven.IndexStats{DeltaCount: len(m.docs)}, nil
}

func (m *mockIndex) Compact(_ context.Context) error { return nil }

func (m *mockIndex) Flush(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flushes++
	return nil
}

func (m *mockIndex) Close() error { return nil }

func (m *mockIndex) get(docID string) (mockDoc, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[docID]
	return doc, ok
}

func (m *mockIndex) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.docs)
}

var _ driven.VectorIndex = (*mockIndex)(nil)

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (sqrt(na) * sqrt(nb))
}

func sqrt(x float64) float64 {
	if x <= 0 {
		return 0
	}
	z := x
	for i := 0; i < 32; i++ {
		z = (z + x/z) / 2
	}
	return z
}

type syncFixture struct {
	products  *memory.ProductStore
	changeLog *memory.ChangeLogStore
	cursors   *memory.CursorStore
	embedder  *mockEmbedder
	index     *mockIndex
	service   *SyncService
}

func newSyncFixture(t *testing.T, cfg domain.SyncConfig) *syncFixture {
	t.Helper()
	f := &syncFixture{
		products:  memory.NewProductStore(),
		changeLog: memory.NewChangeLogStore(),
		cursors:   memory.NewCursorStore(),
		embedder:  &mockEmbedder{},
		index:     newMockIndex(),
	}
	f.service = NewSyncService(f.changeLog, f.cursors, f.products, f.embedder, f.index, cfg)
	return f
}

// seed stores a product and appends its change entry, mirroring what the
// upsert engine does.
func (f *syncFixture) seed(t *testing.T, localID, name string, changeType domain.ChangeType) domain.BusinessKey {
	t.Helper()
	ctx := context.Background()
	key := domain.BusinessKey{Namespace: "flowmart", LocalID: localID}
	p := domain.Product{Key: key, Name: name, Price: decimal.RequireFromString("9.99")}

	if changeType != domain.ChangeDelete {
		require.NoError(t, f.products.Upsert(ctx, p))
	}
	require.NoError(t, f.changeLog.Append(ctx, domain.ChangeLogEntry{
		Key:         key,
		DataVersion: domain.DataVersion(&p),
		ChangeType:  changeType,
		Status:      domain.StatusPending,
	}))
	return key
}

func TestSyncService_ProcessesPendingEntries(t *testing.T) {
	f := newSyncFixture(t, domain.DefaultSyncConfig())
	ctx := context.Background()

	f.seed(t, "sku-1", "Tote", domain.ChangeCreate)
	f.seed(t, "sku-2", "Mug", domain.ChangeCreate)

	stats, err := f.service.Run(ctx, driving.SyncOptions{Resume: true})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Processed)
	assert.Equal(t, 2, stats.Succeeded)
	assert.Zero(t, stats.Failed)
	assert.Equal(t, 2, f.index.size())
	assert.Equal(t, 1, f.index.flushes)

	for _, e := range f.changeLog.Entries() {
		assert.Equal(t, domain.StatusProcessed, e.Status)
	}

	cursor, err := f.cursors.Get(ctx, domain.SyncJobName)
	require.NoError(t, err)
	assert.Equal(t, int64(2), cursor.LastID)
}

func TestSyncService_RerunIsANoOp(t *testing.T) {
	f := newSyncFixture(t, domain.DefaultSyncConfig())
	ctx := context.Background()

	f.seed(t, "sku-1", "Tote", domain.ChangeCreate)

	_, err := f.service.Run(ctx, driving.SyncOptions{Resume: true})
	require.NoError(t, err)
	embedCalls := f.embedder.calls

	stats, err := f.service.Run(ctx, driving.SyncOptions{Resume: true})
	require.NoError(t, err)
	assert.Zero(t, stats.Processed)
	assert.Equal(t, embedCalls, f.embedder.calls)
}

func TestSyncService_NoResumeRescansBehindCursor(t *testing.T) {
	f := newSyncFixture(t, domain.DefaultSyncConfig())
	f.embedder.failOn = "Poison"
	ctx := context.Background()

	f.seed(t, "sku-1", "Poison Pill", domain.ChangeCreate)
	f.seed(t, "sku-2", "Mug", domain.ChangeCreate)

	// First run fails the poisoned entry and advances the cursor past it.
	_, err := f.service.Run(ctx, driving.SyncOptions{Resume: true})
	require.NoError(t, err)
	cursor, err := f.cursors.Get(ctx, domain.SyncJobName)
	require.NoError(t, err)
	require.Equal(t, int64(2), cursor.LastID)

	// An operator reset leaves the re-opened entry behind the cursor.
	n, err := f.changeLog.ResetFailed(ctx, domain.BusinessKey{})
	require.NoError(t, err)
	require.Equal(t, 1, n)
	f.embedder.failOn = ""

	// Resuming from the cursor cannot see it.
	stats, err := f.service.Run(ctx, driving.SyncOptions{Resume: true})
	require.NoError(t, err)
	assert.Zero(t, stats.Processed)

	// A full re-scan rewinds the cursor and picks it up.
	stats, err = f.service.Run(ctx, driving.SyncOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Processed)
	assert.Equal(t, 1, stats.Succeeded)

	cursor, err = f.cursors.Get(ctx, domain.SyncJobName)
	require.NoError(t, err)
	assert.Equal(t, int64(1), cursor.LastID, "cursor re-advances past the re-processed entry")
}

func TestSyncService_FailureIsContainedPerEntry(t *testing.T) {
	f := newSyncFixture(t, domain.DefaultSyncConfig())
	f.embedder.failOn = "Poison"
	ctx := context.Background()

	f.seed(t, "sku-1", "Tote", domain.ChangeCreate)
	f.seed(t, "sku-2", "Poison Pill", domain.ChangeCreate)
	f.seed(t, "sku-3", "Mug", domain.ChangeCreate)

	stats, err := f.service.Run(ctx, driving.SyncOptions{Resume: true})
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Processed)
	assert.Equal(t, 2, stats.Succeeded)
	assert.Equal(t, 1, stats.Failed)

	entries := f.changeLog.Entries()
	assert.Equal(t, domain.StatusProcessed, entries[0].Status)
	assert.Equal(t, domain.StatusFailed, entries[1].Status)
	assert.Equal(t, 1, entries[1].RetryCount)
	assert.Contains(t, entries[1].LastError, "unavailable")
	assert.Equal(t, domain.StatusProcessed, entries[2].Status)

	// The cursor still advances past the whole page: the FAILED entry is
	// terminal until an operator resets it.
	cursor, err := f.cursors.Get(ctx, domain.SyncJobName)
	require.NoError(t, err)
	assert.Equal(t, int64(3), cursor.LastID)
}

func TestSyncService_DeleteRemovesDocument(t *testing.T) {
	f := newSyncFixture(t, domain.DefaultSyncConfig())
	ctx := context.Background()

	key := f.seed(t, "sku-1", "Tote", domain.ChangeCreate)
	_, err := f.service.Run(ctx, driving.SyncOptions{Resume: true})
	require.NoError(t, err)
	require.Equal(t, 1, f.index.size())

	require.NoError(t, f.changeLog.Append(ctx, domain.ChangeLogEntry{
		Key:         key,
		DataVersion: "tombstone-v1",
		ChangeType:  domain.ChangeDelete,
		Status:      domain.StatusPending,
	}))

	stats, err := f.service.Run(ctx, driving.SyncOptions{Resume: true})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Deleted)
	assert.Zero(t, f.index.size())
}

func TestSyncService_MissingProductFailsEntry(t *testing.T) {
	f := newSyncFixture(t, domain.DefaultSyncConfig())
	ctx := context.Background()

	// Change entry without a canonical row behind it.
	require.NoError(t, f.changeLog.Append(ctx, domain.ChangeLogEntry{
		Key:         domain.BusinessKey{Namespace: "flowmart", LocalID: "ghost"},
		DataVersion: "v1",
		ChangeType:  domain.ChangeUpdate,
		Status:      domain.StatusPending,
	}))

	stats, err := f.service.Run(ctx, driving.SyncOptions{Resume: true})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Failed)

	e := f.changeLog.Entries()[0]
	assert.Equal(t, domain.StatusFailed, e.Status)
	assert.Contains(t, e.LastError, "missing from canonical store")
}

func TestSyncService_RetryCeilingThenReset(t *testing.T) {
	f := newSyncFixture(t, domain.SyncConfig{RetryCeiling: 3, BatchSize: 10})
	f.embedder.failOn = "Tote"
	ctx := context.Background()

	key := f.seed(t, "sku-1", "Tote", domain.ChangeCreate)

	reset := func() {
		_, err := f.changeLog.ResetFailed(ctx, key)
		require.NoError(t, err)
		require.NoError(t, f.cursors.Reset(ctx, domain.SyncJobName, 0))
	}

	// Fail, reset, fail, reset, fail: three attempts in total.
	for i := 0; i < 3; i++ {
		stats, err := f.service.Run(ctx, driving.SyncOptions{Resume: true})
		require.NoError(t, err)
		require.Equal(t, 1, stats.Failed, "attempt %d", i+1)
		if i < 2 {
			reset()
		}
	}

	// A FAILED entry is not retried until reset.
	stats, err := f.service.Run(ctx, driving.SyncOptions{Resume: true})
	require.NoError(t, err)
	assert.Zero(t, stats.Processed)

	// Resetting makes it eligible again, and a healthy embedder clears it.
	f.embedder.failOn = ""
	reset()

	stats, err = f.service.Run(ctx, driving.SyncOptions{Resume: true})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Succeeded)
}

func TestSyncService_TotalLimitPagesAcrossRuns(t *testing.T) {
	f := newSyncFixture(t, domain.SyncConfig{BatchSize: 2, RetryCeiling: 3})
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		f.seed(t, fmt.Sprintf("sku-%d", i), fmt.Sprintf("Item %d", i), domain.ChangeCreate)
	}

	stats, err := f.service.Run(ctx, driving.SyncOptions{Resume: true, TotalLimit: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Processed)

	stats, err = f.service.Run(ctx, driving.SyncOptions{Resume: true})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Processed)
	assert.Equal(t, 5, f.index.size())
}
