package memory

import (
	"context"

	"github.com/flowmart-labs/skusync/internal/core/ports/driven"
)

// Ensure Transactor implements the interface.
var _ driven.Transactor = (*Transactor)(nil)

// Transactor is a no-op driven.Transactor for in-memory stores, which
// have no transaction support. fn runs directly against the stores.
type Transactor struct{}

// NewTransactor creates a no-op transactor.
func NewTransactor() *Transactor {
	return &Transactor{}
}

// InTx runs fn with the caller's context.
func (t *Transactor) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
