package driven

import "github.com/custodia-labs/sercha-rag/internal/core/domain"

// AIConfigValidator checks provider settings against the live provider
// before they are saved. Unconfigured settings pass.
type AIConfigValidator interface {
	// ValidateEmbedding embeds a probe text and fails with
	// domain.ErrDimensionMismatch when the vector length differs from the
	// model's declared dimensions.
	ValidateEmbedding(config *domain.EmbeddingSettings) error

	ValidateLLM(config *domain.LLMSettings) error
}
