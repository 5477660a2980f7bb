package memory

import (
	"context"
	"sync"
	"time"

	"github.com/flowmart-labs/skusync/internal/core/domain"
	"github.com/flowmart-labs/skusync/internal/core/ports/driven"
)

// Ensure ChangeLogStore implements the interface.
var _ driven.ChangeLogStore = (*ChangeLogStore)(nil)

// ChangeLogStore is an in-memory implementation of driven.ChangeLogStore.
type ChangeLogStore struct {
	mu      sync.RWMutex
	entries []domain.ChangeLogEntry
	nextID  int64
}

// NewChangeLogStore creates a new in-memory change log store.
func NewChangeLogStore() *ChangeLogStore {
	return &ChangeLogStore{nextID: 1}
}

// Append inserts an entry unless the (key, dataVersion) tuple already exists.
func (s *ChangeLogStore) Append(_ context.Context, entry domain.ChangeLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.Key == entry.Key && e.DataVersion == entry.DataVersion {
			return nil
		}
	}
	now := time.Now().UTC()
	entry.ID = s.nextID
	s.nextID++
	if entry.Status == "" {
		entry.Status = domain.StatusPending
	}
	entry.CreatedAt = now
	entry.UpdatedAt = now
	s.entries = append(s.entries, entry)
	return nil
}

// FetchPending returns PENDING entries after afterID with retry headroom.
func (s *ChangeLogStore) FetchPending(_ context.Context, afterID int64, limit, ceiling int) ([]domain.ChangeLogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.ChangeLogEntry
	for _, e := range s.entries {
		if e.ID <= afterID || e.Status != domain.StatusPending || e.RetryCount >= ceiling {
			continue
		}
		out = append(out, e)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// MarkProcessed transitions an entry to PROCESSED.
func (s *ChangeLogStore) MarkProcessed(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.entries {
		if s.entries[i].ID == id {
			s.entries[i].Status = domain.StatusProcessed
			s.entries[i].LastError = ""
			s.entries[i].UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return domain.ErrNotFound
}

// MarkFailed transitions an entry to FAILED and bumps its retry count.
func (s *ChangeLogStore) MarkFailed(_ context.Context, id int64, lastError string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.entries {
		if s.entries[i].ID == id {
			s.entries[i].Status = domain.StatusFailed
			s.entries[i].RetryCount++
			s.entries[i].LastError = domain.TruncateError(lastError)
			s.entries[i].UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return domain.ErrNotFound
}

// ResetFailed returns FAILED entries to PENDING. A zero key resets all.
func (s *ChangeLogStore) ResetFailed(_ context.Context, key domain.BusinessKey) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	reset := 0
	for i := range s.entries {
		if s.entries[i].Status != domain.StatusFailed {
			continue
		}
		if !key.IsZero() && s.entries[i].Key != key {
			continue
		}
		s.entries[i].Status = domain.StatusPending
		s.entries[i].RetryCount = 0
		s.entries[i].LastError = ""
		s.entries[i].UpdatedAt = time.Now().UTC()
		reset++
	}
	return reset, nil
}

// FailedOverLimit returns FAILED entries at or over the retry ceiling.
func (s *ChangeLogStore) FailedOverLimit(_ context.Context, ceiling int) ([]domain.ChangeLogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.ChangeLogEntry
	for _, e := range s.entries {
		if e.Status == domain.StatusFailed && e.RetryCount >= ceiling {
			out = append(out, e)
		}
	}
	return out, nil
}

// CountByStatus returns entry counts grouped by status.
func (s *ChangeLogStore) CountByStatus(_ context.Context) (map[domain.ChangeStatus]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[domain.ChangeStatus]int)
	for _, e := range s.entries {
		counts[e.Status]++
	}
	return counts, nil
}

// Entries returns a copy of all entries in insertion order. Test helper.
func (s *ChangeLogStore) Entries() []domain.ChangeLogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.ChangeLogEntry, len(s.entries))
	copy(out, s.entries)
	return out
}
