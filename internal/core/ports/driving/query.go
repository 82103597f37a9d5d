package driving

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// QueryService answers questions from indexed documents with multi-turn context.
type QueryService interface {
	// Query runs the retrieval-augmented pipeline for one user question.
	// It never fails on capability errors: the result's Response explains them.
	// It fails only on invalid input (empty query, topK < 1).
	Query(ctx context.Context, query, sessionID string, topK int) (*domain.QueryResult, error)
}
