package delta

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"
	"sync"

	"github.com/flowmart-labs/skusync/internal/core/domain"
	"github.com/flowmart-labs/skusync/internal/core/ports/driven"
	"github.com/flowmart-labs/skusync/internal/logger"
)

// entry is one indexed document: its vector, the text payload returned in
// search hits, and the precomputed magnitude used for cosine scoring.
type entry struct {
	docID string
	vec   []float32
	mag   float64
	text  string
}

// Index implements driven.VectorIndex with a base+delta segment pair.
//
// A single mutex serialises writers; Search takes the read lock only. The
// base slice may contain superseded slots (documents migrated to the delta
// or deleted); baseLive maps doc IDs to the slots still visible in search.
type Index struct {
	mu  sync.RWMutex
	cfg domain.IndexConfig

	dim        int
	base       []entry
	baseLive   map[string]int
	delta      map[string]entry
	tombstones int
	dirty      bool
}

var _ driven.VectorIndex = (*Index)(nil)

// New opens the index rooted at cfg.Dir, loading any persisted segments.
func New(cfg domain.IndexConfig) (*Index, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("index directory not configured: %w", domain.ErrIndexUnavailable)
	}
	if cfg.CompactionThreshold <= 0 {
		cfg.CompactionThreshold = domain.DefaultCompactionThreshold
	}
	if err := os.MkdirAll(cfg.Dir, 0700); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	idx := &Index{
		cfg:      cfg,
		baseLive: make(map[string]int),
		delta:    make(map[string]entry),
	}
	if err := idx.load(); err != nil {
		return nil, err
	}
	return idx, nil
}

// Upsert inserts or replaces a document's vector. A document living in the
// base is migrated into the delta; its base slot stays behind as a
// superseded entry until the next compaction.
func (i *Index) Upsert(ctx context.Context, docID string, vector []float32, text string) error {
	if docID == "" || len(vector) == 0 {
		return domain.ErrInvalidInput
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	if i.dim == 0 {
		i.dim = len(vector)
	} else if len(vector) != i.dim {
		return fmt.Errorf("vector for %s has dimension %d, index has %d: %w",
			docID, len(vector), i.dim, domain.ErrDimensionMismatch)
	}

	if _, ok := i.baseLive[docID]; ok {
		// Migrate: the delta copy now shadows the base slot.
		delete(i.baseLive, docID)
	}
	i.delta[docID] = entry{
		docID: docID,
		vec:   append([]float32(nil), vector...),
		mag:   magnitude(vector),
		text:  text,
	}
	i.dirty = true
	return nil
}

// Delete removes a document from both segments. Unknown documents are a
// no-op.
func (i *Index) Delete(ctx context.Context, docID string) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if _, ok := i.delta[docID]; ok {
		delete(i.delta, docID)
		i.dirty = true
	}
	if _, ok := i.baseLive[docID]; ok {
		delete(i.baseLive, docID)
		i.tombstones++
		i.dirty = true
	}
	return nil
}

// Search returns the k most similar live documents across both segments,
// ordered by descending cosine similarity.
func (i *Index) Search(ctx context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	if i.dim == 0 {
		return nil, nil
	}
	if len(query) != i.dim {
		return nil, fmt.Errorf("query has dimension %d, index has %d: %w",
			len(query), i.dim, domain.ErrDimensionMismatch)
	}
	qm := magnitude(query)
	if qm == 0 {
		return nil, nil
	}

	hits := make([]driven.VectorHit, 0, len(i.baseLive)+len(i.delta))
	score := func(e entry) {
		if e.mag == 0 {
			return
		}
		s := dot(query, e.vec) / (qm * e.mag)
		if math.IsNaN(s) {
			return
		}
		hits = append(hits, driven.VectorHit{DocID: e.docID, Text: e.text, Similarity: s})
	}

	// Segments are disjoint: migrating a document to the delta removes it
	// from baseLive, so no dedup pass is needed here.
	for _, slot := range i.baseLive {
		score(i.base[slot])
	}
	for _, e := range i.delta {
		score(e)
	}

	sort.Slice(hits, func(a, b int) bool { return hits[a].Similarity > hits[b].Similarity })
	if k > 0 && k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

// Stats reports the current segment shape.
func (i *Index) Stats(ctx context.Context) (driven.IndexStats, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.statsLocked(), nil
}

func (i *Index) statsLocked() driven.IndexStats {
	stats := driven.IndexStats{
		BaseCount:  len(i.base),
		BaseLive:   len(i.baseLive),
		DeltaCount: len(i.delta),
		Tombstones: i.tombstones,
	}
	if live := stats.BaseLive + stats.DeltaCount; live > 0 {
		stats.DeltaRatio = float64(stats.DeltaCount) / float64(live)
	}
	return stats
}

// Compact folds the delta into a fresh base segment and persists it.
func (i *Index) Compact(ctx context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.compactLocked()
	return i.persistLocked()
}

// compactLocked rebuilds the base from live base entries plus the delta.
// Superseded slots and tombstones are dropped.
func (i *Index) compactLocked() {
	if len(i.delta) == 0 && len(i.base) == len(i.baseLive) {
		return
	}

	merged := make([]entry, 0, len(i.baseLive)+len(i.delta))
	for _, slot := range i.baseLive {
		merged = append(merged, i.base[slot])
	}
	for _, e := range i.delta {
		merged = append(merged, e)
	}
	sort.Slice(merged, func(a, b int) bool { return merged[a].docID < merged[b].docID })

	live := make(map[string]int, len(merged))
	for slot, e := range merged {
		live[e.docID] = slot
	}

	logger.Debug("index: compacted %d base + %d delta entries into %d",
		len(i.baseLive), len(i.delta), len(merged))

	i.base = merged
	i.baseLive = live
	i.delta = make(map[string]entry)
	i.tombstones = 0
	i.dirty = true
}

// Flush persists in-memory state. Compaction is checked here, off the
// per-document write path: when the delta ratio reaches the configured
// threshold the delta is folded into the base first.
func (i *Index) Flush(ctx context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if stats := i.statsLocked(); stats.DeltaCount > 0 && stats.DeltaRatio >= i.cfg.CompactionThreshold {
		logger.Debug("index: delta ratio %.3f >= %.3f, compacting", stats.DeltaRatio, i.cfg.CompactionThreshold)
		i.compactLocked()
	}
	return i.persistLocked()
}

// Close flushes and releases the index.
func (i *Index) Close() error {
	return i.Flush(context.Background())
}

func dot(a, b []float32) float64 {
	var s float64
	for n := range a {
		s += float64(a[n]) * float64(b[n])
	}
	return s
}

func magnitude(v []float32) float64 {
	return math.Sqrt(dot(v, v))
}
