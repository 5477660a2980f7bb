package driving

import "context"

// SyncRunner drains pending change log entries into the vector index.
type SyncRunner interface {
	// Run pages through PENDING entries from the stored cursor until the
	// log is drained or opts.TotalLimit is reached.
	Run(ctx context.Context, opts SyncOptions) (SyncStats, error)
}

// SyncOptions controls a single sync run.
type SyncOptions struct {
	// Resume continues from the stored cursor. When false the cursor is
	// rewound and the whole change log is re-scanned; terminal entries
	// are filtered by the pending fetch, so only PENDING work is redone.
	Resume bool

	// TotalLimit caps the number of entries consumed across the whole run.
	// Zero means unlimited.
	TotalLimit int

	// BatchSize overrides the configured batch size when positive.
	BatchSize int
}

// SyncStats summarises a sync run.
type SyncStats struct {
	// Processed is the number of change log entries attempted.
	Processed int

	// Succeeded is the number marked PROCESSED.
	Succeeded int

	// Failed is the number marked FAILED in this run.
	Failed int

	// Deleted is the number of DELETE changes applied to the index.
	Deleted int

	// Batches is the number of pages consumed.
	Batches int
}
