package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrWatermarkRegression indicates an attempt to move a watermark
	// backwards. Callers must guarantee monotonic advancement; a
	// regression means a bug or manual tampering and is never retried.
	ErrWatermarkRegression = errors.New("watermark regression")

	// ErrCursorCorrupt indicates the persisted sync cursor could not be
	// parsed. The worker fails loudly rather than silently reprocessing
	// the whole change log from the beginning.
	ErrCursorCorrupt = errors.New("sync cursor corrupt")

	// ErrEmbeddingUnavailable indicates the embedding service is not
	// configured. Index synchronisation and semantic search are disabled.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrIndexUnavailable indicates the vector index is not configured.
	ErrIndexUnavailable = errors.New("vector index unavailable")

	// ErrDimensionMismatch indicates a vector with the wrong dimension
	// was handed to the index.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)
