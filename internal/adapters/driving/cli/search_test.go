package cli

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/flowmart-labs/skusync/internal/core/domain"
)

// mockSearchService implements driving.SearchService for testing.
type mockSearchService struct {
	results  []domain.SearchResult
	err      error
	lastOpts domain.SearchOptions
}

func (m *mockSearchService) Search(_ context.Context, _ string, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	m.lastOpts = opts
	return m.results, m.err
}

func setupSearchTest(svc *mockSearchService) func() {
	oldSearch := searchService
	searchService = svc
	return func() {
		searchService = oldSearch
	}
}

func TestSearchCmd_Use(t *testing.T) {
	assert.Equal(t, "search [query]", searchCmd.Use)
}

func TestSearchCmd_PrintsResults(t *testing.T) {
	mock := &mockSearchService{results: []domain.SearchResult{
		{
			Product: domain.Product{
				Key:   domain.BusinessKey{Namespace: "acme", LocalID: "sku-1"},
				Name:  "Canvas Tote",
				Price: decimal.RequireFromString("129.00"),
				Tags:  []string{"canvas", "tote"},
			},
			Score: 0.92,
		},
	}}
	cleanup := setupSearchTest(mock)
	defer cleanup()

	out, err := execute("search", "sturdy canvas bag")

	assert.NoError(t, err)
	assert.Contains(t, out, "Canvas Tote (0.92)")
	assert.Contains(t, out, "acme#sku-1")
	assert.Equal(t, domain.DefaultSearchLimit, mock.lastOpts.Limit)
}

func TestSearchCmd_NamespaceFilter(t *testing.T) {
	mock := &mockSearchService{}
	cleanup := setupSearchTest(mock)
	defer cleanup()

	out, err := execute("search", "tote", "--namespace", "acme", "-n", "3")

	assert.NoError(t, err)
	assert.Contains(t, out, "No results found")
	assert.Equal(t, "acme", mock.lastOpts.Namespace)
	assert.Equal(t, 3, mock.lastOpts.Limit)

	searchNamespace = ""
	searchLimit = domain.DefaultSearchLimit
}

func TestSearchCmd_RequiresQuery(t *testing.T) {
	cleanup := setupSearchTest(&mockSearchService{})
	defer cleanup()

	_, err := execute("search")

	assert.Error(t, err)
}
