package services

import (
	"context"
	"fmt"
	"time"

	"github.com/flowmart-labs/skusync/internal/core/domain"
	"github.com/flowmart-labs/skusync/internal/core/ports/driven"
	"github.com/flowmart-labs/skusync/internal/core/ports/driving"
)

// Ensure StatusService implements the interfaces.
var (
	_ driving.StatusReporter = (*StatusService)(nil)
	_ driving.Admin          = (*StatusService)(nil)
)

// StatusService aggregates pipeline progress for operators and exposes
// the failed-entry reset path.
type StatusService struct {
	products   driven.ProductStore
	changeLog  driven.ChangeLogStore
	cursors    driven.CursorStore
	watermarks driven.WatermarkStore
	index      driven.VectorIndex
	etlCfg     domain.ETLConfig
	syncCfg    domain.SyncConfig
}

// NewStatusService creates a status reporter.
func NewStatusService(
	products driven.ProductStore,
	changeLog driven.ChangeLogStore,
	cursors driven.CursorStore,
	watermarks driven.WatermarkStore,
	index driven.VectorIndex,
	etlCfg domain.ETLConfig,
	syncCfg domain.SyncConfig,
) *StatusService {
	if etlCfg.SourceTable == "" {
		etlCfg.SourceTable = domain.DefaultStagingTable
	}
	if syncCfg.JobName == "" {
		syncCfg.JobName = domain.SyncJobName
	}
	if syncCfg.RetryCeiling <= 0 {
		syncCfg.RetryCeiling = domain.DefaultRetryCeiling
	}
	return &StatusService{
		products:   products,
		changeLog:  changeLog,
		cursors:    cursors,
		watermarks: watermarks,
		index:      index,
		etlCfg:     etlCfg,
		syncCfg:    syncCfg,
	}
}

// Status returns a point-in-time snapshot of the pipeline.
func (s *StatusService) Status(ctx context.Context) (*driving.PipelineStatus, error) {
	status := &driving.PipelineStatus{GeneratedAt: time.Now().UTC()}

	count, err := s.products.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}
	status.Products = count

	wm, err := s.watermarks.Get(ctx, s.etlCfg.SourceTable)
	if err != nil {
		return nil, fmt.Errorf("load watermark: %w", err)
	}
	status.Watermark = wm

	cursor, err := s.cursors.Get(ctx, s.syncCfg.JobName)
	if err != nil {
		return nil, fmt.Errorf("load cursor: %w", err)
	}
	status.Cursor = cursor

	counts, err := s.changeLog.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("count change log: %w", err)
	}
	status.Pending = int64(counts[domain.StatusPending])
	status.Processed = int64(counts[domain.StatusProcessed])
	status.Failed = int64(counts[domain.StatusFailed])

	dead, err := s.changeLog.FailedOverLimit(ctx, s.syncCfg.RetryCeiling)
	if err != nil {
		return nil, fmt.Errorf("query failed entries: %w", err)
	}
	status.DeadLettered = int64(len(dead))

	if s.index != nil {
		idx, err := s.index.Stats(ctx)
		if err != nil {
			return nil, fmt.Errorf("index stats: %w", err)
		}
		status.IndexBaseLive = idx.BaseLive
		status.IndexDelta = idx.DeltaCount
		status.IndexDeltaRatio = idx.DeltaRatio
	}
	return status, nil
}

// DeadLetters returns the entries stuck at or over the retry ceiling.
func (s *StatusService) DeadLetters(ctx context.Context) ([]domain.ChangeLogEntry, error) {
	return s.changeLog.FailedOverLimit(ctx, s.syncCfg.RetryCeiling)
}

// ResetFailed returns FAILED entries to PENDING with a zeroed retry
// count. A nil key resets all failed entries.
//
// The sync cursor is rewound to zero when anything was reset: the
// re-opened entries sit behind it, and re-passed terminal entries cost
// nothing because the pending fetch filters them out.
func (s *StatusService) ResetFailed(ctx context.Context, key *domain.BusinessKey) (int, error) {
	var k domain.BusinessKey
	if key != nil {
		k = *key
	}
	n, err := s.changeLog.ResetFailed(ctx, k)
	if err != nil {
		return 0, fmt.Errorf("reset failed entries: %w", err)
	}
	if n > 0 {
		if err := s.cursors.Reset(ctx, s.syncCfg.JobName, 0); err != nil {
			return n, fmt.Errorf("rewind cursor: %w", err)
		}
	}
	return n, nil
}
