// Package memory provides in-memory store implementations used by unit
// tests and by components that do not need persistence.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/flowmart-labs/skusync/internal/core/domain"
	"github.com/flowmart-labs/skusync/internal/core/ports/driven"
)

// Ensure ProductStore implements the interface.
var _ driven.ProductStore = (*ProductStore)(nil)

// ProductStore is an in-memory implementation of driven.ProductStore.
type ProductStore struct {
	mu       sync.RWMutex
	products map[string]domain.Product
}

// NewProductStore creates a new in-memory product store.
func NewProductStore() *ProductStore {
	return &ProductStore{
		products: make(map[string]domain.Product),
	}
}

// Get retrieves a product by business key.
func (s *ProductStore) Get(_ context.Context, key domain.BusinessKey) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[key.DocumentID()]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

// Upsert stores or updates a product. The surrogate ID and creation time
// of an existing row are preserved.
func (s *ProductStore) Upsert(_ context.Context, p domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	id := p.Key.DocumentID()
	if existing, ok := s.products[id]; ok {
		p.InternalID = existing.InternalID
		p.CreatedAt = existing.CreatedAt
	} else {
		if p.InternalID == "" {
			p.InternalID = uuid.NewString()
		}
		if p.CreatedAt.IsZero() {
			p.CreatedAt = now
		}
	}
	p.UpdatedAt = now
	s.products[id] = p
	return nil
}

// Count returns the number of stored products.
func (s *ProductStore) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.products)), nil
}
