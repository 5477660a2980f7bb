package driving

import "context"

// ETLRunner drains the staging table into the canonical product store.
type ETLRunner interface {
	// Run reads staged rows in watermark order and upserts them until the
	// staging table is drained or opts.TotalLimit is reached.
	Run(ctx context.Context, opts ETLOptions) (ETLStats, error)
}

// ETLOptions controls a single ETL run.
type ETLOptions struct {
	// Resume continues from the stored watermark. When false the run
	// starts from the zero watermark and re-reads the whole staging table.
	Resume bool

	// TotalLimit caps the number of staged rows consumed across the whole
	// run. Zero means unlimited.
	TotalLimit int

	// BatchSize overrides the configured batch size when positive.
	BatchSize int
}

// ETLStats summarises an ETL run.
type ETLStats struct {
	// Processed is the number of staged rows read.
	Processed int

	// Created is the number of new products inserted.
	Created int

	// Updated is the number of products whose data version changed.
	Updated int

	// Unchanged is the number of rows whose data version matched the
	// stored product, skipped without a write.
	Unchanged int

	// Skipped is the number of malformed rows dropped by normalisation.
	Skipped int

	// Batches is the number of transactional batches committed.
	Batches int
}
