package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// KeySeparator joins the namespace and local ID into a document ID.
// The resulting string is the join key between the change log, the
// canonical store and the vector index.
const KeySeparator = "#"

// BusinessKey uniquely identifies a product across systems.
// Keys are never reused for distinct real-world entities.
type BusinessKey struct {
	// Namespace is the owning partition, e.g. a brand code.
	Namespace string

	// LocalID identifies the product within the namespace, e.g. a SKU.
	LocalID string
}

// DocumentID renders the key as its stable wire format "namespace#localId".
func (k BusinessKey) DocumentID() string {
	return k.Namespace + KeySeparator + k.LocalID
}

// IsZero returns true if either component is empty.
func (k BusinessKey) IsZero() bool {
	return k.Namespace == "" || k.LocalID == ""
}

// ParseBusinessKey parses a "namespace#localId" document ID.
// Returns ErrInvalidInput if the string is not a valid key.
func ParseBusinessKey(s string) (BusinessKey, error) {
	ns, local, ok := strings.Cut(s, KeySeparator)
	if !ok || ns == "" || local == "" {
		return BusinessKey{}, ErrInvalidInput
	}
	return BusinessKey{Namespace: ns, LocalID: local}, nil
}

// Product is the canonical record owned by the upsert engine.
// It is created on first sighting of a BusinessKey and updated in place
// whenever the computed data version differs from the stored one.
// Rows are never deleted by the pipeline; deletions are recorded as a
// distinct change type in the change log.
type Product struct {
	// Key is the composite business key.
	Key BusinessKey

	// Name is the display name.
	Name string

	// Price is the exact decimal price. Never a float: platform-dependent
	// rounding would produce spurious version changes.
	Price decimal.Decimal

	// Tags is a free-form tag set, deduplicated and sorted.
	Tags []string

	// Attributes is a free-form attribute map.
	Attributes map[string]any

	// OnSale indicates whether the product is currently on sale.
	// Nil means the upstream feed did not carry the flag.
	OnSale *bool

	// ImageURL references the primary product image.
	ImageURL string

	// Description is the long-form description. It is stored but excluded
	// from the data version whitelist.
	Description string

	// InternalID is the surrogate identifier, assigned once on creation
	// and never overwritten by an upsert.
	InternalID string

	// CreatedAt is when the record was first created. Immutable.
	CreatedAt time.Time

	// UpdatedAt is when the record was last updated.
	UpdatedAt time.Time
}

// UpsertOutcome describes what an upsert did to the canonical store.
type UpsertOutcome int

// Upsert outcomes.
const (
	// UpsertUnchanged means the stored version matched and nothing was
	// written. This is the mechanism that absorbs timestamp jitter from
	// the upstream source.
	UpsertUnchanged UpsertOutcome = iota

	// UpsertCreated means a new canonical record was inserted.
	UpsertCreated

	// UpsertUpdated means an existing record was updated in place.
	UpsertUpdated
)

// String returns the outcome name.
func (o UpsertOutcome) String() string {
	switch o {
	case UpsertUnchanged:
		return "unchanged"
	case UpsertCreated:
		return "created"
	case UpsertUpdated:
		return "updated"
	default:
		return "unknown"
	}
}
