package driving

import "github.com/custodia-labs/sercha-rag/internal/core/domain"

// SettingsService reads and writes the persisted configuration. Keys are
// dotted paths such as "retrieval.top_k"; unset keys fall back to GetDefaults.
type SettingsService interface {
	Get() (*domain.AppSettings, error)

	// Save writes every field. A blank API key leaves the stored key untouched.
	Save(settings *domain.AppSettings) error

	// Set parses value for key and stores it. Unknown keys and values that
	// fail to parse return domain.ErrInvalidInput.
	Set(key, value string) error

	// Keys lists the keys accepted by Set, sorted.
	Keys() []string

	// SetEmbeddingProvider switches provider, filling in the provider's default
	// model when model is empty.
	SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error
	SetLLMProvider(provider domain.AIProvider, model, apiKey string) error

	// Validate checks the stored values without contacting any provider.
	Validate() error

	GetDefaults() domain.AppSettings

	// ValidateEmbeddingConfig embeds a probe string with the stored provider
	// and checks the vector length against the model's dimensions.
	ValidateEmbeddingConfig() error

	// ValidateLLMConfig checks the stored LLM provider answers.
	ValidateLLMConfig() error
}
