package driving

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// SearchService provides raw similarity search to external actors.
type SearchService interface {
	// Search returns the topK chunks closest to query, by descending similarity.
	Search(ctx context.Context, query string, topK int) ([]domain.SearchResult, error)
}
