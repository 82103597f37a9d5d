// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import "context"

// EmbeddingService turns text into vectors. Every vector it returns has
// Dimensions() values; the vector store collection is created with the same size.
//
// Adapters exist for Ollama, OpenAI (including Azure deployments) and Gemini.
type EmbeddingService interface {
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns one vector per text, in input order.
	// An empty input returns an empty result without a request.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	Dimensions() int
	ModelName() string

	// Ping makes the cheapest request that proves the model is usable.
	Ping(ctx context.Context) error

	Close() error
}
