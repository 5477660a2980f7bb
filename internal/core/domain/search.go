package domain

// SearchOptions controls a semantic search request.
type SearchOptions struct {
	// Limit caps the number of results. Zero means the default limit.
	Limit int

	// Namespace restricts results to a single tenant. Empty means all.
	Namespace string
}

// DefaultSearchLimit is used when SearchOptions.Limit is zero.
const DefaultSearchLimit = 10

// SearchResult is a scored product match.
type SearchResult struct {
	// Product is the matched catalogue entry.
	Product Product

	// Score is the cosine similarity of the match (0-1, higher is closer).
	Score float64
}
