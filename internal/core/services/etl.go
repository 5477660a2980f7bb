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

// Ensure ETLService implements the interface.
var _ driving.ETLRunner = (*ETLService)(nil)

// ETLService drains the staging table into the canonical product store.
//
// Each batch runs in one transaction: the upserts, the change log appends
// and the watermark advance commit together or not at all. A crash
// mid-batch leaves the watermark at the previous batch boundary, so the
// next run re-reads the same window and the version compare collapses the
// replays to no-ops.
type ETLService struct {
	staging    driven.StagingSource
	watermarks driven.WatermarkStore
	engine     *UpsertEngine
	tx         driven.Transactor
	cfg        domain.ETLConfig
}

// NewETLService creates an ETL runner.
func NewETLService(
	staging driven.StagingSource,
	watermarks driven.WatermarkStore,
	engine *UpsertEngine,
	tx driven.Transactor,
	cfg domain.ETLConfig,
) *ETLService {
	if cfg.SourceTable == "" {
		cfg.SourceTable = domain.DefaultStagingTable
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = domain.DefaultETLBatchSize
	}
	return &ETLService{
		staging:    staging,
		watermarks: watermarks,
		engine:     engine,
		tx:         tx,
		cfg:        cfg,
	}
}

// Run reads staged rows in watermark order and upserts them until the
// staging table is drained or opts.TotalLimit is reached.
func (s *ETLService) Run(ctx context.Context, opts driving.ETLOptions) (driving.ETLStats, error) {
	var stats driving.ETLStats

	batchSize := s.cfg.BatchSize
	if opts.BatchSize > 0 {
		batchSize = opts.BatchSize
	}

	wm := domain.Watermark{SourceTable: s.cfg.SourceTable}
	if opts.Resume {
		stored, err := s.watermarks.Get(ctx, s.cfg.SourceTable)
		if err != nil {
			return stats, fmt.Errorf("load watermark: %w", err)
		}
		wm = stored
	}
	logger.Section("ETL")
	logger.Info("starting from watermark (%s, %q)", wm.LastSeenAt.Format("2006-01-02T15:04:05Z07:00"), wm.LastSeenKey)

	normaliser := NewNormaliser()

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

		records, err := s.staging.FetchBatch(ctx, wm, limit)
		if err != nil {
			return stats, fmt.Errorf("fetch staging batch: %w", err)
		}
		if len(records) == 0 {
			break
		}

		err = s.tx.InTx(ctx, func(ctx context.Context) error {
			for _, rec := range records {
				product, err := normaliser.Normalise(rec)
				if err != nil {
					if errors.Is(err, domain.ErrInvalidInput) {
						logger.Warn("skipping staging row (%s, %s): %v", rec.Namespace, rec.LocalID, err)
						stats.Skipped++
						continue
					}
					return err
				}

				outcome, err := s.engine.Apply(ctx, product)
				if err != nil {
					return err
				}
				switch outcome {
				case domain.UpsertCreated:
					stats.Created++
				case domain.UpsertUpdated:
					stats.Updated++
				case domain.UpsertUnchanged:
					stats.Unchanged++
				}
			}

			// The watermark advances to the batch maximum even when every
			// row was unchanged, so identical re-exports still make
			// progress through the staging table.
			ts, key, ok := domain.MaxPosition(records)
			if !ok {
				return nil
			}
			if err := s.watermarks.Advance(ctx, s.cfg.SourceTable, ts, key); err != nil {
				return fmt.Errorf("advance watermark: %w", err)
			}
			wm.LastSeenAt = ts
			wm.LastSeenKey = key
			return nil
		})
		if err != nil {
			return stats, fmt.Errorf("etl batch: %w", err)
		}

		stats.Processed += len(records)
		stats.Batches++
		logger.Debug("batch %d committed: %d rows, watermark (%s, %q)",
			stats.Batches, len(records), wm.LastSeenAt.Format("2006-01-02T15:04:05Z07:00"), wm.LastSeenKey)

		if len(records) < limit {
			break
		}
	}

	logger.Info("etl done: %d processed, %d created, %d updated, %d unchanged, %d skipped",
		stats.Processed, stats.Created, stats.Updated, stats.Unchanged, stats.Skipped)
	return stats, nil
}
