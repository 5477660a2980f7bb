package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/flowmart-labs/skusync/internal/core/domain"
	"github.com/flowmart-labs/skusync/internal/core/ports/driven"
)

// Ensure CursorStore implements the interface.
var _ driven.CursorStore = (*CursorStore)(nil)

// CursorStore is an in-memory implementation of driven.CursorStore.
type CursorStore struct {
	mu      sync.RWMutex
	cursors map[string]domain.SyncCursor
}

// NewCursorStore creates a new in-memory cursor store.
func NewCursorStore() *CursorStore {
	return &CursorStore{
		cursors: make(map[string]domain.SyncCursor),
	}
}

// Get returns the cursor for a job, or a zero cursor if none exists.
func (s *CursorStore) Get(_ context.Context, jobName string) (domain.SyncCursor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cursors[jobName]
	if !ok {
		return domain.SyncCursor{JobName: jobName}, nil
	}
	return c, nil
}

// Advance moves the cursor forward. Moving backwards is rejected.
func (s *CursorStore) Advance(_ context.Context, jobName string, lastID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.cursors[jobName]; ok && lastID < c.LastID {
		return fmt.Errorf("cursor for %q would move backwards (%d -> %d): %w", jobName, c.LastID, lastID, domain.ErrInvalidInput)
	}
	s.cursors[jobName] = domain.SyncCursor{
		JobName:   jobName,
		LastID:    lastID,
		UpdatedAt: time.Now().UTC(),
	}
	return nil
}

// Reset forces the cursor to a position, backwards moves included.
func (s *CursorStore) Reset(_ context.Context, jobName string, lastID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursors[jobName] = domain.SyncCursor{
		JobName:   jobName,
		LastID:    lastID,
		UpdatedAt: time.Now().UTC(),
	}
	return nil
}
