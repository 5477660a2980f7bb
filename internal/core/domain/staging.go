package domain

import "time"

// StagingRecord is a raw row read from the upstream staging table.
// Fields beyond the key and timestamp are loosely typed: the upstream
// feed carries concatenated strings and embedded JSON that the
// normaliser coerces into canonical Product fields.
type StagingRecord struct {
	// Namespace is the brand/partition code (required).
	Namespace string

	// LocalID is the SKU within the namespace (required).
	LocalID string

	// SourceUpdatedAt is the upstream modification timestamp. Together
	// with the composite key it forms the total order the staging reader
	// pages over.
	SourceUpdatedAt time.Time

	// Name is the raw product name. May be empty.
	Name string

	// Price is the raw price string, e.g. "129.00". May be empty.
	Price string

	// ColorsConcat is a "||"-separated colour list, e.g. "red||blue".
	ColorsConcat string

	// TagsJSON is an embedded JSON array of tags, possibly malformed.
	TagsJSON string

	// AttrsJSON is an embedded JSON object of attributes, possibly
	// malformed.
	AttrsJSON string

	// Description is the raw long-form description.
	Description string

	// ImageURL is the raw image reference.
	ImageURL string

	// OnSale carries the on-sale flag when present in the feed.
	OnSale *bool
}

// Key returns the composite business key of the record.
func (r StagingRecord) Key() BusinessKey {
	return BusinessKey{Namespace: r.Namespace, LocalID: r.LocalID}
}
