package driven

import (
	"context"

	"github.com/flowmart-labs/skusync/internal/core/domain"
)

// StagingSource reads the upstream staging table incrementally.
// Implementations are strictly read-only: the pipeline never writes to
// the source.
type StagingSource interface {
	// FetchBatch returns at most limit records strictly after the
	// watermark position, ordered by (sourceTimestamp ASC, key ASC).
	//
	// The selection predicate is
	//
	//	sourceTimestamp > wm.LastSeenAt OR
	//	(sourceTimestamp = wm.LastSeenAt AND key > wm.LastSeenKey)
	//
	// so rows sharing the exact watermark timestamp with an already
	// processed row are neither dropped nor reprocessed. An empty result
	// means the source is fully caught up.
	FetchBatch(ctx context.Context, wm domain.Watermark, limit int) ([]domain.StagingRecord, error)
}
