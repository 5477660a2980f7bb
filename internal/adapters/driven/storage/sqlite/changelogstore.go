package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/flowmart-labs/skusync/internal/core/domain"
	"github.com/flowmart-labs/skusync/internal/core/ports/driven"
)

// changeLogStore implements driven.ChangeLogStore.
type changeLogStore struct {
	store *Store
}

var _ driven.ChangeLogStore = (*changeLogStore)(nil)

// Append inserts a change log entry. A duplicate (namespace, local_id,
// data_version) tuple hits the unique constraint and inserts nothing;
// that collapse is the idempotency mechanism, not an error.
func (s *changeLogStore) Append(ctx context.Context, entry domain.ChangeLogEntry) error {
	status := entry.Status
	if status == "" {
		status = domain.StatusPending
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	_, err := s.store.q(ctx).ExecContext(ctx, `
		INSERT INTO product_change_log (namespace, local_id, data_version, change_type, status, retry_count, last_error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, 0, '', ?, ?)
		ON CONFLICT(namespace, local_id, data_version) DO NOTHING
	`, entry.Key.Namespace, entry.Key.LocalID, entry.DataVersion,
		string(entry.ChangeType), string(status), now, now)

	if err != nil {
		return fmt.Errorf("appending change log entry for %s: %w", entry.Key.DocumentID(), err)
	}
	return nil
}

// FetchPending returns PENDING entries after afterID with retry headroom,
// ordered by id ascending. Cursor pagination only.
func (s *changeLogStore) FetchPending(ctx context.Context, afterID int64, limit, ceiling int) ([]domain.ChangeLogEntry, error) {
	rows, err := s.store.q(ctx).QueryContext(ctx, `
		SELECT id, namespace, local_id, data_version, change_type, status, retry_count, last_error, created_at, updated_at
		FROM product_change_log
		WHERE id > ? AND status = ? AND retry_count < ?
		ORDER BY id ASC
		LIMIT ?
	`, afterID, string(domain.StatusPending), ceiling, limit)
	if err != nil {
		return nil, fmt.Errorf("querying pending entries: %w", err)
	}
	defer rows.Close()

	return collectEntries(rows)
}

// MarkProcessed transitions an entry to PROCESSED, clearing last_error.
func (s *changeLogStore) MarkProcessed(ctx context.Context, id int64) error {
	res, err := s.store.q(ctx).ExecContext(ctx, `
		UPDATE product_change_log
		SET status = ?, last_error = '', updated_at = ?
		WHERE id = ?
	`, string(domain.StatusProcessed), time.Now().UTC().Format(time.RFC3339Nano), id)
	if err != nil {
		return fmt.Errorf("marking entry %d processed: %w", id, err)
	}
	return requireRow(res, id)
}

// MarkFailed transitions an entry to FAILED, bumping retry_count.
func (s *changeLogStore) MarkFailed(ctx context.Context, id int64, lastError string) error {
	res, err := s.store.q(ctx).ExecContext(ctx, `
		UPDATE product_change_log
		SET status = ?, retry_count = retry_count + 1, last_error = ?, updated_at = ?
		WHERE id = ?
	`, string(domain.StatusFailed), domain.TruncateError(lastError),
		time.Now().UTC().Format(time.RFC3339Nano), id)
	if err != nil {
		return fmt.Errorf("marking entry %d failed: %w", id, err)
	}
	return requireRow(res, id)
}

// ResetFailed returns FAILED entries to PENDING with a zeroed retry
// count. A zero key resets all failed entries.
func (s *changeLogStore) ResetFailed(ctx context.Context, key domain.BusinessKey) (int, error) {
	query := `
		UPDATE product_change_log
		SET status = ?, retry_count = 0, last_error = '', updated_at = ?
		WHERE status = ?`
	args := []any{
		string(domain.StatusPending),
		time.Now().UTC().Format(time.RFC3339Nano),
		string(domain.StatusFailed),
	}
	if !key.IsZero() {
		query += " AND namespace = ? AND local_id = ?"
		args = append(args, key.Namespace, key.LocalID)
	}

	res, err := s.store.q(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("resetting failed entries: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting reset entries: %w", err)
	}
	return int(n), nil
}

// FailedOverLimit returns entries left FAILED at or over the retry ceiling.
func (s *changeLogStore) FailedOverLimit(ctx context.Context, ceiling int) ([]domain.ChangeLogEntry, error) {
	rows, err := s.store.q(ctx).QueryContext(ctx, `
		SELECT id, namespace, local_id, data_version, change_type, status, retry_count, last_error, created_at, updated_at
		FROM product_change_log
		WHERE status = ? AND retry_count >= ?
		ORDER BY id ASC
	`, string(domain.StatusFailed), ceiling)
	if err != nil {
		return nil, fmt.Errorf("querying failed entries: %w", err)
	}
	defer rows.Close()

	return collectEntries(rows)
}

// CountByStatus returns entry counts grouped by status.
func (s *changeLogStore) CountByStatus(ctx context.Context) (map[domain.ChangeStatus]int, error) {
	rows, err := s.store.q(ctx).QueryContext(ctx, `
		SELECT status, COUNT(*) FROM product_change_log GROUP BY status
	`)
	if err != nil {
		return nil, fmt.Errorf("counting change log entries: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.ChangeStatus]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scanning status count: %w", err)
		}
		counts[domain.ChangeStatus(status)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating status counts: %w", err)
	}
	return counts, nil
}

// collectEntries scans all rows into change log entries.
func collectEntries(rows *sql.Rows) ([]domain.ChangeLogEntry, error) {
	var entries []domain.ChangeLogEntry //nolint:prealloc // size unknown from query
	for rows.Next() {
		var e domain.ChangeLogEntry
		var changeType, status, createdAt, updatedAt string
		if err := rows.Scan(&e.ID, &e.Key.Namespace, &e.Key.LocalID, &e.DataVersion,
			&changeType, &status, &e.RetryCount, &e.LastError, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scanning change log entry: %w", err)
		}
		e.ChangeType = domain.ChangeType(changeType)
		e.Status = domain.ChangeStatus(status)
		if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			e.CreatedAt = t
		}
		if t, err := time.Parse(time.RFC3339Nano, updatedAt); err == nil {
			e.UpdatedAt = t
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating change log entries: %w", err)
	}
	return entries, nil
}

// requireRow converts a zero-row update into ErrNotFound.
func requireRow(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("change log entry %d: %w", id, domain.ErrNotFound)
	}
	return nil
}
