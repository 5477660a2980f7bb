package driving

import (
	"context"
	"time"

	"github.com/flowmart-labs/skusync/internal/core/domain"
)

// StatusReporter exposes a point-in-time view of the pipeline.
type StatusReporter interface {
	Status(ctx context.Context) (*PipelineStatus, error)
}

// PipelineStatus aggregates progress across the ETL, the change log and
// the vector index.
type PipelineStatus struct {
	// Products is the number of rows in the canonical store.
	Products int64

	// Watermark is the staging read position.
	Watermark domain.Watermark

	// Cursor is the sync worker's change log position.
	Cursor domain.SyncCursor

	// Pending, Processed and Failed count change log entries by status.
	Pending   int64
	Processed int64
	Failed    int64

	// DeadLettered counts FAILED entries at or over the retry ceiling.
	// These require a manual reset before they are retried.
	DeadLettered int64

	// IndexBaseLive is the number of live documents in the base segment.
	IndexBaseLive int

	// IndexDelta is the number of documents in the delta segment.
	IndexDelta int

	// IndexDeltaRatio is the delta share of all live documents.
	IndexDeltaRatio float64

	// GeneratedAt is when the snapshot was taken.
	GeneratedAt time.Time
}

// Admin exposes maintenance operations over the pipeline.
type Admin interface {
	// ResetFailed returns FAILED change log entries to PENDING with a
	// zeroed retry count. A nil key resets all failed entries; otherwise
	// only entries for that business key. Returns the number reset.
	ResetFailed(ctx context.Context, key *domain.BusinessKey) (int, error)
}
