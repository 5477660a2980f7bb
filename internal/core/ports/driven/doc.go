// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports): the staging source, the canonical product
// store, the change log, watermark and cursor stores, the embedding
// service and the vector index.
package driven
