package domain

import "time"

// ChangeType classifies what happened to a product.
type ChangeType string

// Change types.
const (
	ChangeCreate ChangeType = "CREATE"
	ChangeUpdate ChangeType = "UPDATE"
	ChangeDelete ChangeType = "DELETE"
)

// IsValid returns true if the change type is recognised.
func (t ChangeType) IsValid() bool {
	switch t {
	case ChangeCreate, ChangeUpdate, ChangeDelete:
		return true
	default:
		return false
	}
}

// ChangeStatus is the processing state of a change log entry.
type ChangeStatus string

// Change statuses.
const (
	StatusPending   ChangeStatus = "PENDING"
	StatusProcessed ChangeStatus = "PROCESSED"
	StatusFailed    ChangeStatus = "FAILED"
)

// IsTerminal reports whether the sync worker is done with the entry.
func (s ChangeStatus) IsTerminal() bool {
	return s == StatusProcessed || s == StatusFailed
}

// MaxLastErrorLen bounds the diagnostic string stored per entry.
const MaxLastErrorLen = 1000

// ChangeLogEntry is one append-only record of a detected content change.
// Entries are unique on (namespace, localId, dataVersion): re-processing
// identical content never produces a duplicate. Only the sync worker
// mutates Status, RetryCount and LastError; entries are never deleted.
type ChangeLogEntry struct {
	// ID is the monotonically increasing entry identifier the sync
	// worker's cursor pages over.
	ID int64

	// Key is the composite business key of the changed product.
	Key BusinessKey

	// DataVersion is the content hash the entry was emitted for.
	DataVersion string

	// ChangeType classifies the change.
	ChangeType ChangeType

	// Status is the processing state.
	Status ChangeStatus

	// RetryCount is incremented on each failed sync attempt.
	RetryCount int

	// LastError holds the truncated diagnostic from the last failure.
	LastError string

	// CreatedAt is when the entry was appended.
	CreatedAt time.Time

	// UpdatedAt is when the entry was last touched by the worker.
	UpdatedAt time.Time
}

// TruncateError bounds an error message to MaxLastErrorLen.
func TruncateError(msg string) string {
	if len(msg) > MaxLastErrorLen {
		return msg[:MaxLastErrorLen]
	}
	return msg
}

// SyncCursor is the sync worker's own bookmark into the change log,
// independent of the staging watermark. It advances only past entries
// that reached a terminal status.
type SyncCursor struct {
	// JobName identifies the consumer, e.g. "vector-sync".
	JobName string

	// LastID is the highest terminally-processed entry identifier.
	LastID int64

	// UpdatedAt is when the cursor was last advanced.
	UpdatedAt time.Time
}
