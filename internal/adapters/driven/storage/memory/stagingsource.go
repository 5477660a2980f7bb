package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/flowmart-labs/skusync/internal/core/domain"
	"github.com/flowmart-labs/skusync/internal/core/ports/driven"
)

// Ensure StagingSource implements the interface.
var _ driven.StagingSource = (*StagingSource)(nil)

// StagingSource is an in-memory implementation of driven.StagingSource.
// It serves tests that exercise watermark semantics without a database.
type StagingSource struct {
	mu      sync.RWMutex
	records []domain.StagingRecord
}

// NewStagingSource creates a new in-memory staging source.
func NewStagingSource() *StagingSource {
	return &StagingSource{}
}

// Add stages records for later reads.
func (s *StagingSource) Add(records ...domain.StagingRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, records...)
}

// FetchBatch returns up to limit records strictly after the watermark,
// ordered by (source_updated_at ASC, business key ASC).
func (s *StagingSource) FetchBatch(_ context.Context, wm domain.Watermark, limit int) ([]domain.StagingRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.StagingRecord
	for _, r := range s.records {
		key := r.Key().DocumentID()
		if r.SourceUpdatedAt.After(wm.LastSeenAt) ||
			(r.SourceUpdatedAt.Equal(wm.LastSeenAt) && key > wm.LastSeenKey) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].SourceUpdatedAt.Equal(out[j].SourceUpdatedAt) {
			return out[i].SourceUpdatedAt.Before(out[j].SourceUpdatedAt)
		}
		return out[i].Key().DocumentID() < out[j].Key().DocumentID()
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
