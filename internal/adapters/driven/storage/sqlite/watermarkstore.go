package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/flowmart-labs/skusync/internal/core/domain"
	"github.com/flowmart-labs/skusync/internal/core/ports/driven"
)

// watermarkStore implements driven.WatermarkStore.
type watermarkStore struct {
	store *Store
}

var _ driven.WatermarkStore = (*watermarkStore)(nil)

// Get returns the watermark for a source table, or a zero watermark.
func (s *watermarkStore) Get(ctx context.Context, sourceTable string) (domain.Watermark, error) {
	row := s.store.q(ctx).QueryRowContext(ctx, `
		SELECT last_seen_at, last_seen_key, updated_at
		FROM etl_watermark WHERE source_table = ?
	`, sourceTable)

	var lastSeenAt, lastSeenKey, updatedAt string
	if err := row.Scan(&lastSeenAt, &lastSeenKey, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Watermark{SourceTable: sourceTable}, nil
		}
		return domain.Watermark{}, fmt.Errorf("scanning watermark: %w", err)
	}

	ts, err := time.Parse(time.RFC3339Nano, lastSeenAt)
	if err != nil {
		// A hand-edited timestamp must not silently restart the read
		// from the epoch.
		return domain.Watermark{}, fmt.Errorf("watermark for %q holds %q: %w", sourceTable, lastSeenAt, domain.ErrCursorCorrupt)
	}

	wm := domain.Watermark{
		SourceTable: sourceTable,
		LastSeenAt:  ts,
		LastSeenKey: lastSeenKey,
	}
	if t, err := time.Parse(time.RFC3339Nano, updatedAt); err == nil {
		wm.UpdatedAt = t
	}
	return wm, nil
}

// Advance persists a new position, rejecting regressions.
func (s *watermarkStore) Advance(ctx context.Context, sourceTable string, ts time.Time, key string) error {
	current, err := s.Get(ctx, sourceTable)
	if err != nil {
		return err
	}
	if !current.IsZero() && !current.AllowsAdvanceTo(ts, key) {
		return fmt.Errorf("watermark for %q would move backwards: %w", sourceTable, domain.ErrWatermarkRegression)
	}

	_, err = s.store.q(ctx).ExecContext(ctx, `
		INSERT INTO etl_watermark (source_table, last_seen_at, last_seen_key, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(source_table) DO UPDATE SET
			last_seen_at = excluded.last_seen_at,
			last_seen_key = excluded.last_seen_key,
			updated_at = excluded.updated_at
	`, sourceTable, formatTimeKey(ts), key,
		time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("writing watermark for %q: %w", sourceTable, err)
	}
	return nil
}
