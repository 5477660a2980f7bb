package driving

import (
	"context"

	"github.com/flowmart-labs/skusync/internal/core/domain"
)

// SearchService provides semantic product search to external actors.
type SearchService interface {
	// Search embeds the query and returns the closest indexed products.
	Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error)
}
