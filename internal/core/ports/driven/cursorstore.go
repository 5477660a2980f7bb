package driven

import (
	"context"
	"time"

	"github.com/flowmart-labs/skusync/internal/core/domain"
)

// CursorStore persists the sync worker's change log cursor.
type CursorStore interface {
	// Get returns the cursor for a job, or a zero cursor if the job has
	// never advanced. A persisted value that cannot be parsed surfaces
	// domain.ErrCursorCorrupt: the worker must fail loudly rather than
	// silently reconsume the log from the beginning.
	Get(ctx context.Context, jobName string) (domain.SyncCursor, error)

	// Advance moves the cursor forward. Moving backwards returns
	// domain.ErrInvalidInput.
	Advance(ctx context.Context, jobName string, lastID int64) error

	// Reset forces the cursor to a position, backwards moves included.
	// Operator reset path only: re-passed terminal entries are filtered
	// out of the pending fetch, so a rewind is cheap.
	Reset(ctx context.Context, jobName string, lastID int64) error
}

// WatermarkStore persists per-source-table read progress.
type WatermarkStore interface {
	// Get returns the watermark for a source table, or a zero watermark
	// (epoch timestamp, empty key) if the table has never been read.
	Get(ctx context.Context, sourceTable string) (domain.Watermark, error)

	// Advance persists a new position. The pair must be the maximum
	// observed in a just-committed batch; a pair behind the stored
	// watermark returns domain.ErrWatermarkRegression.
	Advance(ctx context.Context, sourceTable string, ts time.Time, key string) error
}
