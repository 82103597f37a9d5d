package services

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider    = "embedding.provider"
	keyEmbedModel       = "embedding.model"
	keyEmbedBaseURL     = "embedding.base_url"
	keyEmbedAPIKey      = "embedding.api_key"
	keyEmbedAPIVersion  = "embedding.api_version"
	keyLLMProvider      = "llm.provider"
	keyLLMModel         = "llm.model"
	keyLLMBaseURL       = "llm.base_url"
	keyLLMAPIKey        = "llm.api_key"
	keyLLMAPIVersion    = "llm.api_version"
	keyVectorBackend    = "vector_store.backend"
	keyVectorURL        = "vector_store.url"
	keyVectorAPIKey     = "vector_store.api_key"
	keyVectorCollection = "vector_store.collection"
	keyVectorDims       = "vector_store.dimensions"
	keyChunkSize        = "chunking.chunk_size"
	keyChunkOverlap     = "chunking.overlap"
	keyTopK             = "retrieval.top_k"
	keyHistoryLimit     = "retrieval.history_limit"
	keyEmbedBatchSize   = "retrieval.embed_batch_size"
	keyEmbedRateLimit   = "retrieval.embed_rate_limit"
	keySessionBackend   = "sessions.backend"
	keyDataDir          = "storage.data_dir"
	keyUploadDir        = "storage.upload_dir"
)

type keyKind int

const (
	kindString keyKind = iota
	kindInt
	kindFloat
	kindProvider
	kindVectorBackend
	kindSessionBackend
)

var settingKinds = map[string]keyKind{
	keyEmbedProvider:    kindProvider,
	keyEmbedModel:       kindString,
	keyEmbedBaseURL:     kindString,
	keyEmbedAPIKey:      kindString,
	keyEmbedAPIVersion:  kindString,
	keyLLMProvider:      kindProvider,
	keyLLMModel:         kindString,
	keyLLMBaseURL:       kindString,
	keyLLMAPIKey:        kindString,
	keyLLMAPIVersion:    kindString,
	keyVectorBackend:    kindVectorBackend,
	keyVectorURL:        kindString,
	keyVectorAPIKey:     kindString,
	keyVectorCollection: kindString,
	keyVectorDims:       kindInt,
	keyChunkSize:        kindInt,
	keyChunkOverlap:     kindInt,
	keyTopK:             kindInt,
	keyHistoryLimit:     kindInt,
	keyEmbedBatchSize:   kindInt,
	keyEmbedRateLimit:   kindFloat,
	keySessionBackend:   kindSessionBackend,
	keyDataDir:          kindString,
	keyUploadDir:        kindString,
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
	}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	d := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider:   s.getProvider(keyEmbedProvider, d.Embedding.Provider),
			Model:      s.getString(keyEmbedModel, d.Embedding.Model),
			BaseURL:    s.configStore.GetString(keyEmbedBaseURL), // No default - empty is valid for cloud providers
			APIKey:     s.configStore.GetString(keyEmbedAPIKey),
			APIVersion: s.configStore.GetString(keyEmbedAPIVersion),
			BatchSize:  s.getInt(keyEmbedBatchSize, d.Embedding.BatchSize),
			RateLimit:  s.getFloat(keyEmbedRateLimit, d.Embedding.RateLimit),
		},
		LLM: domain.LLMSettings{
			Provider:   s.getProvider(keyLLMProvider, d.LLM.Provider),
			Model:      s.getString(keyLLMModel, d.LLM.Model),
			BaseURL:    s.configStore.GetString(keyLLMBaseURL),
			APIKey:     s.configStore.GetString(keyLLMAPIKey),
			APIVersion: s.configStore.GetString(keyLLMAPIVersion),
		},
		VectorStore: domain.VectorStoreSettings{
			Backend:    domain.VectorBackend(s.getString(keyVectorBackend, d.VectorStore.Backend.String())),
			URL:        s.getString(keyVectorURL, d.VectorStore.URL),
			APIKey:     s.configStore.GetString(keyVectorAPIKey),
			Collection: s.getString(keyVectorCollection, d.VectorStore.Collection),
			Dimensions: s.getInt(keyVectorDims, d.VectorStore.Dimensions),
		},
		Chunking: domain.ChunkingSettings{
			ChunkSize: s.getInt(keyChunkSize, d.Chunking.ChunkSize),
			Overlap:   s.getInt(keyChunkOverlap, d.Chunking.Overlap),
		},
		Retrieval: domain.RetrievalSettings{
			TopK:         s.getInt(keyTopK, d.Retrieval.TopK),
			HistoryLimit: s.getInt(keyHistoryLimit, d.Retrieval.HistoryLimit),
		},
		Sessions: domain.SessionBackend(s.getString(keySessionBackend, d.Sessions.String())),
		Storage: domain.StorageSettings{
			DataDir:   s.getString(keyDataDir, d.Storage.DataDir),
			UploadDir: s.getString(keyUploadDir, d.Storage.UploadDir),
		},
	}

	if !settings.VectorStore.Backend.IsValid() {
		settings.VectorStore.Backend = d.VectorStore.Backend
	}
	if !settings.Sessions.IsValid() {
		settings.Sessions = d.Sessions
	}

	return settings, nil
}

// Save persists application settings. Empty API keys are not written so
// that saving never erases a stored key.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyEmbedAPIVersion, settings.Embedding.APIVersion},
		{keyEmbedBatchSize, settings.Embedding.BatchSize},
		{keyEmbedRateLimit, settings.Embedding.RateLimit},
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyLLMAPIVersion, settings.LLM.APIVersion},
		{keyVectorBackend, settings.VectorStore.Backend.String()},
		{keyVectorURL, settings.VectorStore.URL},
		{keyVectorCollection, settings.VectorStore.Collection},
		{keyVectorDims, settings.VectorStore.Dimensions},
		{keyChunkSize, settings.Chunking.ChunkSize},
		{keyChunkOverlap, settings.Chunking.Overlap},
		{keyTopK, settings.Retrieval.TopK},
		{keyHistoryLimit, settings.Retrieval.HistoryLimit},
		{keySessionBackend, settings.Sessions.String()},
		{keyDataDir, settings.Storage.DataDir},
		{keyUploadDir, settings.Storage.UploadDir},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	for _, secret := range []struct{ key, value string }{
		{keyEmbedAPIKey, settings.Embedding.APIKey},
		{keyLLMAPIKey, settings.LLM.APIKey},
		{keyVectorAPIKey, settings.VectorStore.APIKey},
	} {
		if secret.value == "" {
			continue
		}
		if err := s.configStore.Set(secret.key, secret.value); err != nil {
			return fmt.Errorf("save %s: %w", secret.key, err)
		}
	}

	return nil
}

// Set parses and stores a single setting by its dotted key.
func (s *SettingsService) Set(key, value string) error {
	key = strings.ToLower(strings.TrimSpace(key))
	kind, ok := settingKinds[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	value = strings.TrimSpace(value)

	var parsed any
	switch kind {
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("%w: %s must be a non-negative integer", domain.ErrInvalidInput, key)
		}
		parsed = n
	case kindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f < 0 {
			return fmt.Errorf("%w: %s must be a non-negative number", domain.ErrInvalidInput, key)
		}
		parsed = f
	case kindProvider:
		if !domain.AIProvider(value).IsValid() {
			return fmt.Errorf("%w: unknown provider %q", domain.ErrInvalidInput, value)
		}
		parsed = value
	case kindVectorBackend:
		if !domain.VectorBackend(value).IsValid() {
			return fmt.Errorf("%w: unknown vector store backend %q", domain.ErrInvalidInput, value)
		}
		parsed = value
	case kindSessionBackend:
		if !domain.SessionBackend(value).IsValid() {
			return fmt.Errorf("%w: unknown session backend %q", domain.ErrInvalidInput, value)
		}
		parsed = value
	default:
		parsed = value
	}

	if err := s.configStore.Set(key, parsed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Keys returns every settable key in sorted order.
func (s *SettingsService) Keys() []string {
	return slices.Sorted(maps.Keys(settingKinds))
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !slices.Contains(domain.AllEmbeddingProviders(), provider) {
		return fmt.Errorf("%w: provider %q does not support embeddings", domain.ErrInvalidInput, provider)
	}
	if err := requireKey(provider, apiKey); err != nil {
		return err
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider
	settings.Embedding.Model = modelOrDefault(model, domain.DefaultEmbeddingModels()[provider])
	settings.Embedding.BaseURL = baseURLFor(provider, settings.Embedding.BaseURL)
	settings.Embedding.APIKey = apiKey

	// A new model usually means a new vector size.
	if d, ok := domain.EmbeddingDimensions()[settings.Embedding.Model]; ok {
		settings.VectorStore.Dimensions = d
	}

	return s.Save(settings)
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: unknown LLM provider %q", domain.ErrInvalidInput, provider)
	}
	if err := requireKey(provider, apiKey); err != nil {
		return err
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.LLM.Provider = provider
	settings.LLM.Model = modelOrDefault(model, domain.DefaultLLMModels()[provider])
	settings.LLM.BaseURL = baseURLFor(provider, settings.LLM.BaseURL)
	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

// Validate checks that the stored settings can build a working pipeline.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if settings.Chunking.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunking.chunk_size must be positive", domain.ErrInvalidInput)
	}
	if settings.Chunking.Overlap >= settings.Chunking.ChunkSize {
		return fmt.Errorf("%w: chunking.overlap (%d) must be smaller than chunking.chunk_size (%d)",
			domain.ErrInvalidInput, settings.Chunking.Overlap, settings.Chunking.ChunkSize)
	}
	if settings.VectorStore.Dimensions <= 0 {
		return fmt.Errorf("%w: vector_store.dimensions must be positive", domain.ErrInvalidInput)
	}
	if settings.VectorStore.Collection == "" {
		return fmt.Errorf("%w: vector_store.collection is required", domain.ErrInvalidInput)
	}
	if settings.VectorStore.Backend == domain.VectorBackendQdrant && settings.VectorStore.URL == "" {
		return fmt.Errorf("%w: vector_store.url is required for qdrant", domain.ErrInvalidInput)
	}

	if settings.Embedding.Provider != "" && !settings.Embedding.IsConfigured() {
		return fmt.Errorf("embedding provider %s is not fully configured", settings.Embedding.Provider)
	}
	if settings.Embedding.Provider != "" {
		if d, ok := domain.EmbeddingDimensions()[settings.Embedding.Model]; ok && d != settings.VectorStore.Dimensions {
			return fmt.Errorf("%w: model %s produces %d dimensions but vector_store.dimensions is %d",
				domain.ErrDimensionMismatch, settings.Embedding.Model, d, settings.VectorStore.Dimensions)
		}
	}
	if settings.LLM.Provider != "" && !settings.LLM.IsConfigured() {
		return fmt.Errorf("LLM provider %s is not fully configured", settings.LLM.Provider)
	}

	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getInt returns defaultVal only when key is absent, so an explicit zero
// (for example chunking.overlap = 0) is honoured.
func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func requireKey(provider domain.AIProvider, apiKey string) error {
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrInvalidInput, provider)
	}
	return nil
}

func modelOrDefault(model, fallback string) string {
	if model != "" {
		return model
	}
	return fallback
}

// baseURLFor keeps a custom URL for local providers and clears it for
// cloud providers.
func baseURLFor(provider domain.AIProvider, current string) string {
	if !provider.IsLocal() {
		return ""
	}
	if current == "" {
		return "http://localhost:11434"
	}
	return current
}
