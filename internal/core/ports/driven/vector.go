package driven

import "context"

// VectorIndex provides incremental similarity search over document vectors.
//
// Implementations keep a large read-optimised base segment plus a small
// delta segment that absorbs writes. Updating a document that lives in the
// base migrates it into the delta and marks the base entry superseded, so
// writers never rebuild the base in the hot path.
type VectorIndex interface {
	// Upsert inserts or replaces the vector for a document ID.
	// The text is stored alongside the vector and returned in search hits.
	Upsert(ctx context.Context, docID string, vector []float32, text string) error

	// Delete removes a document from the index. Deleting an unknown
	// document is a no-op.
	Delete(ctx context.Context, docID string) error

	// Search finds the k nearest neighbours of the query vector across
	// base and delta. When a document exists in both segments, the delta
	// entry wins.
	Search(ctx context.Context, query []float32, k int) ([]VectorHit, error)

	// Stats reports segment sizes and the live delta ratio.
	Stats(ctx context.Context) (IndexStats, error)

	// Compact folds the delta segment into the base. Safe to call at any
	// time; a no-op when the delta is empty.
	Compact(ctx context.Context) error

	// Flush persists in-memory state to disk.
	Flush(ctx context.Context) error

	// Close flushes and releases resources.
	Close() error
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// DocID is the matched document.
	DocID string

	// Text is the indexed text payload for the document.
	Text string

	// Similarity is the cosine similarity score (0-1).
	Similarity float64
}

// IndexStats describes the current shape of a base+delta index.
type IndexStats struct {
	// BaseCount is the number of entries in the base segment, including
	// superseded ones.
	BaseCount int

	// BaseLive is the number of base entries still visible in search.
	BaseLive int

	// DeltaCount is the number of live entries in the delta segment.
	DeltaCount int

	// Tombstones is the number of deleted-but-not-compacted documents.
	Tombstones int

	// DeltaRatio is DeltaCount relative to the total live document count.
	// Zero when the index is empty.
	DeltaRatio float64
}
