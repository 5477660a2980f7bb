package driven

import (
	"context"

	"github.com/flowmart-labs/skusync/internal/core/domain"
)

// ChangeLogStore persists the append-only, de-duplicated change log.
type ChangeLogStore interface {
	// Append inserts a change log entry. Inserting a duplicate
	// (namespace, localId, dataVersion) tuple is a silent no-op: the
	// uniqueness constraint is the idempotency mechanism, not an error.
	Append(ctx context.Context, entry domain.ChangeLogEntry) error

	// FetchPending returns up to limit PENDING entries with ID greater
	// than afterID and retry count below ceiling, ordered by ID
	// ascending. Cursor pagination only; offset pagination degrades with
	// table growth and is unsafe under concurrent inserts.
	FetchPending(ctx context.Context, afterID int64, limit, ceiling int) ([]domain.ChangeLogEntry, error)

	// MarkProcessed transitions an entry to PROCESSED, clearing
	// LastError and leaving RetryCount untouched.
	MarkProcessed(ctx context.Context, id int64) error

	// MarkFailed transitions an entry to FAILED, incrementing RetryCount
	// and recording the truncated diagnostic.
	MarkFailed(ctx context.Context, id int64, lastError string) error

	// ResetFailed sets FAILED entries for a key back to PENDING with a
	// zeroed retry count, making them eligible for the worker again. A
	// zero key resets all failed entries. Returns the number reset.
	ResetFailed(ctx context.Context, key domain.BusinessKey) (int, error)

	// FailedOverLimit returns entries left FAILED with RetryCount at or
	// above ceiling, for the operator report.
	FailedOverLimit(ctx context.Context, ceiling int) ([]domain.ChangeLogEntry, error)

	// CountByStatus returns entry counts grouped by status.
	CountByStatus(ctx context.Context) (map[domain.ChangeStatus]int, error)
}

