package domain

import "time"

// Watermark marks how far incremental reading of a source table has
// progressed. The timestamp alone is not enough: multiple rows can share
// one timestamp, so the composite key of the last processed row
// disambiguates within it.
type Watermark struct {
	// SourceTable names the staging table this watermark brackets.
	SourceTable string

	// LastSeenAt is the highest source timestamp fully processed.
	LastSeenAt time.Time

	// LastSeenKey is the highest composite key ("namespace#localId")
	// processed among rows sharing LastSeenAt.
	LastSeenKey string

	// UpdatedAt is when the watermark row was last advanced.
	UpdatedAt time.Time
}

// IsZero reports whether the watermark has never been advanced.
// A zero watermark selects the whole staging table.
func (w Watermark) IsZero() bool {
	return w.LastSeenAt.IsZero() && w.LastSeenKey == ""
}

// AllowsAdvanceTo reports whether moving to (ts, key) keeps the watermark
// monotonically non-decreasing. Equal pairs are allowed: re-committing
// the same position is a no-op, not a regression.
func (w Watermark) AllowsAdvanceTo(ts time.Time, key string) bool {
	if ts.After(w.LastSeenAt) {
		return true
	}
	if ts.Equal(w.LastSeenAt) {
		return key >= w.LastSeenKey
	}
	return false
}

// MaxPosition returns the maximum (timestamp, key) pair in a batch of
// staging records, which becomes the next watermark once the batch
// commits. ok is false for an empty batch.
func MaxPosition(records []StagingRecord) (ts time.Time, key string, ok bool) {
	for _, r := range records {
		k := r.Key().DocumentID()
		switch {
		case !ok,
			r.SourceUpdatedAt.After(ts),
			r.SourceUpdatedAt.Equal(ts) && k > key:
			ts, key, ok = r.SourceUpdatedAt, k, true
		}
	}
	return ts, key, ok
}
