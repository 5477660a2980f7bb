package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/flowmart-labs/skusync/internal/core/domain"
	"github.com/flowmart-labs/skusync/internal/core/ports/driven"
	"github.com/flowmart-labs/skusync/internal/logger"
)

// UpsertEngine applies normalised products to the canonical store and
// emits change log entries when the content version moves.
//
// The read-compare-write sequence is atomic only when the caller runs it
// inside a transaction (see driven.Transactor); the engine itself holds
// no locks.
type UpsertEngine struct {
	products  driven.ProductStore
	changeLog driven.ChangeLogStore
}

// NewUpsertEngine creates an upsert engine.
func NewUpsertEngine(products driven.ProductStore, changeLog driven.ChangeLogStore) *UpsertEngine {
	return &UpsertEngine{
		products:  products,
		changeLog: changeLog,
	}
}

// Apply upserts a product if its data version differs from the stored
// row, appending a CREATE or UPDATE change log entry accordingly.
// Identical content is a no-op reported as UpsertUnchanged.
func (e *UpsertEngine) Apply(ctx context.Context, p domain.Product) (domain.UpsertOutcome, error) {
	newVersion := domain.DataVersion(&p)

	existing, err := e.products.Get(ctx, p.Key)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return domain.UpsertUnchanged, fmt.Errorf("get product %s: %w", p.Key.DocumentID(), err)
	}

	changeType := domain.ChangeCreate
	if existing != nil {
		if domain.DataVersion(existing) == newVersion {
			logger.Debug("product %s unchanged at version %s", p.Key.DocumentID(), newVersion[:12])
			return domain.UpsertUnchanged, nil
		}
		changeType = domain.ChangeUpdate
	}

	if err := e.products.Upsert(ctx, p); err != nil {
		return domain.UpsertUnchanged, fmt.Errorf("upsert product %s: %w", p.Key.DocumentID(), err)
	}

	// A duplicate (key, version) tuple is silently absorbed by the store;
	// that collapse is the idempotency guarantee, not an error.
	entry := domain.ChangeLogEntry{
		Key:         p.Key,
		DataVersion: newVersion,
		ChangeType:  changeType,
		Status:      domain.StatusPending,
	}
	if err := e.changeLog.Append(ctx, entry); err != nil {
		return domain.UpsertUnchanged, fmt.Errorf("append change log for %s: %w", p.Key.DocumentID(), err)
	}

	if changeType == domain.ChangeCreate {
		return domain.UpsertCreated, nil
	}
	return domain.UpsertUpdated, nil
}
