package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/flowmart-labs/skusync/internal/core/domain"
	"github.com/flowmart-labs/skusync/internal/core/ports/driven"
)

// Ensure WatermarkStore implements the interface.
var _ driven.WatermarkStore = (*WatermarkStore)(nil)

// WatermarkStore is an in-memory implementation of driven.WatermarkStore.
type WatermarkStore struct {
	mu         sync.RWMutex
	watermarks map[string]domain.Watermark
}

// NewWatermarkStore creates a new in-memory watermark store.
func NewWatermarkStore() *WatermarkStore {
	return &WatermarkStore{
		watermarks: make(map[string]domain.Watermark),
	}
}

// Get returns the watermark for a source table, or a zero watermark.
func (s *WatermarkStore) Get(_ context.Context, sourceTable string) (domain.Watermark, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	wm, ok := s.watermarks[sourceTable]
	if !ok {
		return domain.Watermark{SourceTable: sourceTable}, nil
	}
	return wm, nil
}

// Advance persists a new position, rejecting regressions.
func (s *WatermarkStore) Advance(_ context.Context, sourceTable string, ts time.Time, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if wm, ok := s.watermarks[sourceTable]; ok && !wm.AllowsAdvanceTo(ts, key) {
		return fmt.Errorf("watermark for %q would move backwards: %w", sourceTable, domain.ErrWatermarkRegression)
	}
	s.watermarks[sourceTable] = domain.Watermark{
		SourceTable: sourceTable,
		LastSeenAt:  ts.UTC(),
		LastSeenKey: key,
		UpdatedAt:   time.Now().UTC(),
	}
	return nil
}
