package driven

import (
	"context"

	"github.com/flowmart-labs/skusync/internal/core/domain"
)

// ProductStore persists canonical product records.
// Backed by SQLite. All writes flow through the upsert engine; API
// layers outside this pipeline only ever read.
type ProductStore interface {
	// Get retrieves a product by its composite business key.
	// Returns domain.ErrNotFound if absent.
	Get(ctx context.Context, key domain.BusinessKey) (*domain.Product, error)

	// Upsert inserts or updates the record keyed by its BusinessKey.
	// InternalID and CreatedAt are never overwritten on update; the
	// store assigns them on first insert when unset.
	Upsert(ctx context.Context, p domain.Product) error

	// Count returns the number of canonical records.
	Count(ctx context.Context) (int64, error)
}
