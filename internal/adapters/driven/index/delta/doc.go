// Package delta provides an incremental on-disk vector index built from two
// flat segments: a large read-optimised base and a small delta that absorbs
// writes.
//
// Upserting a document that lives in the base marks the base slot superseded
// and writes the new vector into the delta, so the base is never rebuilt on
// the write path. Search scans both segments with brute-force cosine
// similarity and merges the results; the delta is authoritative for any
// document present in both. When the delta grows past a configured fraction
// of the live document count, Flush folds it into a fresh base segment.
//
// Segments persist as little-endian binary files under the configured
// directory, so sync runs resume from the last flushed state.
package delta
