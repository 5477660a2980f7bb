package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/flowmart-labs/skusync/internal/core/domain"
	"github.com/flowmart-labs/skusync/internal/core/ports/driven"
	"github.com/flowmart-labs/skusync/internal/core/ports/driving"
	"github.com/flowmart-labs/skusync/internal/logger"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// SearchService answers semantic product queries against the vector index,
// hydrating hits from the canonical store.
type SearchService struct {
	products driven.ProductStore
	embedder driven.EmbeddingService
	index    driven.VectorIndex
}

// NewSearchService creates a search service.
func NewSearchService(products driven.ProductStore, embedder driven.EmbeddingService, index driven.VectorIndex) *SearchService {
	return &SearchService{
		products: products,
		embedder: embedder,
		index:    index,
	}
}

// Search embeds the query and returns the closest indexed products.
func (s *SearchService) Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("empty query: %w", domain.ErrInvalidInput)
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = domain.DefaultSearchLimit
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	// Over-fetch when filtering by namespace so the post-filter can still
	// fill the requested limit.
	k := limit
	if opts.Namespace != "" {
		k *= 4
	}
	hits, err := s.index.Search(ctx, vector, k)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}

	results := make([]domain.SearchResult, 0, limit)
	for _, hit := range hits {
		key, err := domain.ParseBusinessKey(hit.DocID)
		if err != nil {
			logger.Warn("index returned malformed document id %q: %v", hit.DocID, err)
			continue
		}
		if opts.Namespace != "" && key.Namespace != opts.Namespace {
			continue
		}
		product, err := s.products.Get(ctx, key)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				// Index ahead of store, e.g. a DELETE not yet synced.
				logger.Debug("hit %s has no canonical row, dropping", hit.DocID)
				continue
			}
			return nil, fmt.Errorf("hydrate %s: %w", hit.DocID, err)
		}
		results = append(results, domain.SearchResult{
			Product: *product,
			Score:   hit.Similarity,
		})
		if len(results) == limit {
			break
		}
	}
	return results, nil
}
