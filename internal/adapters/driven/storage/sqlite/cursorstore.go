package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/flowmart-labs/skusync/internal/core/domain"
	"github.com/flowmart-labs/skusync/internal/core/ports/driven"
)

// cursorStore implements driven.CursorStore.
type cursorStore struct {
	store *Store
}

var _ driven.CursorStore = (*cursorStore)(nil)

// Get returns the cursor for a job, or a zero cursor if none exists.
// A stored value that does not parse as an integer surfaces
// domain.ErrCursorCorrupt: failing loudly beats silently reconsuming the
// whole change log from the beginning.
func (s *cursorStore) Get(ctx context.Context, jobName string) (domain.SyncCursor, error) {
	row := s.store.q(ctx).QueryRowContext(ctx, `
		SELECT last_id, updated_at FROM sync_cursor WHERE job_name = ?
	`, jobName)

	var lastID, updatedAt string
	if err := row.Scan(&lastID, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.SyncCursor{JobName: jobName}, nil
		}
		return domain.SyncCursor{}, fmt.Errorf("scanning cursor: %w", err)
	}

	id, err := strconv.ParseInt(lastID, 10, 64)
	if err != nil || id < 0 {
		return domain.SyncCursor{}, fmt.Errorf("cursor for %q holds %q: %w", jobName, lastID, domain.ErrCursorCorrupt)
	}

	cursor := domain.SyncCursor{JobName: jobName, LastID: id}
	if t, err := time.Parse(time.RFC3339Nano, updatedAt); err == nil {
		cursor.UpdatedAt = t
	}
	return cursor, nil
}

// Advance moves the cursor forward. Moving backwards returns
// domain.ErrInvalidInput.
func (s *cursorStore) Advance(ctx context.Context, jobName string, lastID int64) error {
	current, err := s.Get(ctx, jobName)
	if err != nil {
		return err
	}
	if lastID < current.LastID {
		return fmt.Errorf("cursor for %q would move backwards (%d -> %d): %w",
			jobName, current.LastID, lastID, domain.ErrInvalidInput)
	}
	return s.put(ctx, jobName, lastID)
}

// Reset forces the cursor to a position, backwards moves included.
func (s *cursorStore) Reset(ctx context.Context, jobName string, lastID int64) error {
	return s.put(ctx, jobName, lastID)
}

func (s *cursorStore) put(ctx context.Context, jobName string, lastID int64) error {
	_, err := s.store.q(ctx).ExecContext(ctx, `
		INSERT INTO sync_cursor (job_name, last_id, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(job_name) DO UPDATE SET
			last_id = excluded.last_id,
			updated_at = excluded.updated_at
	`, jobName, strconv.FormatInt(lastID, 10), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("writing cursor for %q: %w", jobName, err)
	}
	return nil
}
