package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/flowmart-labs/skusync/internal/core/domain"
	"github.com/flowmart-labs/skusync/internal/core/ports/driven"
	"github.com/flowmart-labs/skusync/internal/core/ports/driving"
	"github.com/flowmart-labs/skusync/internal/logger"
)

// Ensure SyncService implements the interface.
var _ driving.SyncRunner = (*SyncService)(nil)

// SyncService pages through pending change log entries and applies them
// to the vector index.
//
// An entry only signals that something changed; the worker re-reads the
// current product row per entry, so a burst of rapid updates converges to
// the final state instead of replaying intermediate ones. Per-entry
// failures are contained: the entry is marked FAILED and the batch keeps
// going. Only infrastructure failures abort the run, leaving the cursor
// untouched so the next run retries the same window.
type SyncService struct {
	changeLog driven.ChangeLogStore
	cursors   driven.CursorStore
	products  driven.ProductStore
	embedder  driven.EmbeddingService
	index     driven.VectorIndex
	cfg       domain.SyncConfig
}

// NewSyncService creates a sync worker.
func NewSyncService(
	changeLog driven.ChangeLogStore,
	cursors driven.CursorStore,
	products driven.ProductStore,
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
	cfg domain.SyncConfig,
) *SyncService {
	if cfg.JobName == "" {
		cfg.JobName = domain.SyncJobName
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = domain.DefaultSyncBatchSize
	}
	if cfg.RetryCeiling <= 0 {
		cfg.RetryCeiling = domain.DefaultRetryCeiling
	}
	return &SyncService{
		changeLog: changeLog,
		cursors:   cursors,
		products:  products,
		embedder:  embedder,
		index:     index,
		cfg:       cfg,
	}
}

// Run consumes PENDING entries from the stored cursor until the log is
// drained or opts.TotalLimit is reached.
func (s *SyncService) Run(ctx context.Context, opts driving.SyncOptions) (driving.SyncStats, error) {
	var stats driving.SyncStats

	batchSize := s.cfg.BatchSize
	if opts.BatchSize > 0 {
		batchSize = opts.BatchSize
	}

	cursor := domain.SyncCursor{JobName: s.cfg.JobName}
	if opts.Resume {
		// A corrupt cursor must fail loudly here: silently restarting
		// from zero would reprocess the whole log.
		stored, err := s.cursors.Get(ctx, s.cfg.JobName)
		if err != nil {
			return stats, fmt.Errorf("load cursor: %w", err)
		}
		cursor = stored
	} else if err := s.cursors.Reset(ctx, s.cfg.JobName, 0); err != nil {
		// The persisted cursor must rewind too, or the Advance calls
		// below would be rejected as regressions.
		return stats, fmt.Errorf("rewind cursor: %w", err)
	}
	logger.Section("Vector Sync")
	logger.Info("starting from cursor %d", cursor.LastID)

	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		limit := batchSize
		if opts.TotalLimit > 0 {
			remaining := opts.TotalLimit - stats.Processed
			if remaining <= 0 {
				break
			}
			if remaining < limit {
				limit = remaining
			}
		}

		entries, err := s.changeLog.FetchPending(ctx, cursor.LastID, limit, s.cfg.RetryCeiling)
		if err != nil {
			return stats, fmt.Errorf("fetch pending: %w", err)
		}
		if len(entries) == 0 {
			break
		}

		for _, entry := range entries {
			stats.Processed++

			if err := s.apply(ctx, entry); err != nil {
				logger.Warn("entry %d (%s) failed: %v", entry.ID, entry.Key.DocumentID(), err)
				if markErr := s.changeLog.MarkFailed(ctx, entry.ID, err.Error()); markErr != nil {
					return stats, fmt.Errorf("mark entry %d failed: %w", entry.ID, markErr)
				}
				stats.Failed++
				continue
			}
			if err := s.changeLog.MarkProcessed(ctx, entry.ID); err != nil {
				return stats, fmt.Errorf("mark entry %d processed: %w", entry.ID, err)
			}
			stats.Succeeded++
			if entry.ChangeType == domain.ChangeDelete {
				stats.Deleted++
			}
		}

		// Every fetched entry is now terminal (PROCESSED or FAILED), so
		// the cursor may move past the whole page. Entries left PENDING
		// by a crash before this point are re-fetched next run.
		last := entries[len(entries)-1].ID
		if err := s.cursors.Advance(ctx, s.cfg.JobName, last); err != nil {
			return stats, fmt.Errorf("advance cursor: %w", err)
		}
		cursor.LastID = last
		stats.Batches++

		if len(entries) < limit {
			break
		}
	}

	if err := s.index.Flush(ctx); err != nil {
		return stats, fmt.Errorf("flush index: %w", err)
	}

	logger.Info("sync done: %d processed, %d succeeded, %d failed, %d deleted",
		stats.Processed, stats.Succeeded, stats.Failed, stats.Deleted)
	return stats, nil
}

// apply pushes a single change log entry into the index.
func (s *SyncService) apply(ctx context.Context, entry domain.ChangeLogEntry) error {
	docID := entry.Key.DocumentID()

	if entry.ChangeType == domain.ChangeDelete {
		if err := s.index.Delete(ctx, docID); err != nil {
			return fmt.Errorf("delete %s from index: %w", docID, err)
		}
		return nil
	}

	product, err := s.products.Get(ctx, entry.Key)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("product %s missing from canonical store: %w", docID, err)
		}
		return fmt.Errorf("get product %s: %w", docID, err)
	}

	text := BuildVectorText(*product)
	vector, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("embed %s: %w", docID, err)
	}
	if err := s.index.Upsert(ctx, docID, vector, text); err != nil {
		return fmt.Errorf("upsert %s into index: %w", docID, err)
	}
	return nil
}
