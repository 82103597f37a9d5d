package domain

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API, or any compatible endpoint (Azure OpenAI).
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"

	// AIProviderGemini is the Google Gemini API.
	AIProviderGemini AIProvider = "gemini"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic, AIProviderGemini:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic || p == AIProviderGemini
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	case AIProviderGemini:
		return "Google Gemini (cloud)"
	default:
		return unknownDescription
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama or OpenAI-compatible servers).
	BaseURL string

	// APIKey is the API key (for cloud providers).
	APIKey string

	// APIVersion selects Azure OpenAI routing when set (openai provider only).
	APIVersion string

	// BatchSize is the number of texts sent per embedding request.
	BatchSize int

	// RateLimit caps embedding requests per second. Zero disables limiting.
	RateLimit float64
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() || e.Provider == AIProviderAnthropic {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama or OpenAI-compatible servers).
	BaseURL string

	// APIKey is the API key (for cloud providers).
	APIKey string

	// APIVersion selects Azure OpenAI routing when set (openai provider only).
	APIVersion string
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// VectorBackend selects the vector database implementation.
type VectorBackend string

// Available vector backends.
const (
	// VectorBackendQdrant uses a Qdrant server over REST.
	VectorBackendQdrant VectorBackend = "qdrant"

	// VectorBackendSQLite keeps vectors in the local SQLite database.
	VectorBackendSQLite VectorBackend = "sqlite"

	// VectorBackendMemory keeps vectors in process memory.
	VectorBackendMemory VectorBackend = "memory"
)

// IsValid returns true if the backend is recognised.
func (b VectorBackend) IsValid() bool {
	switch b {
	case VectorBackendQdrant, VectorBackendSQLite, VectorBackendMemory:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (b VectorBackend) String() string {
	return string(b)
}

// VectorStoreSettings holds vector database configuration.
type VectorStoreSettings struct {
	// Backend selects the implementation.
	Backend VectorBackend

	// URL is the Qdrant endpoint.
	URL string

	// APIKey is the Qdrant API key, if any.
	APIKey string

	// Collection is the collection name.
	Collection string

	// Dimensions is the configured vector size. It must match the
	// embedding service output.
	Dimensions int
}

// SessionBackend selects where conversation logs live.
type SessionBackend string

// Available session backends.
const (
	SessionBackendMemory SessionBackend = "memory"
	SessionBackendSQLite SessionBackend = "sqlite"
	SessionBackendBolt   SessionBackend = "bolt"
)

// IsValid returns true if the backend is recognised.
func (b SessionBackend) IsValid() bool {
	switch b {
	case SessionBackendMemory, SessionBackendSQLite, SessionBackendBolt:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (b SessionBackend) String() string {
	return string(b)
}

// ChunkingSettings configures the segmenter.
type ChunkingSettings struct {
	// ChunkSize is the maximum number of characters per chunk.
	ChunkSize int

	// Overlap is the number of characters carried into the next chunk.
	Overlap int
}

// RetrievalSettings configures the query pipeline.
type RetrievalSettings struct {
	// TopK is the default number of chunks retrieved per query.
	TopK int

	// HistoryLimit caps the number of prior messages sent to the model.
	// Zero sends the whole session.
	HistoryLimit int
}

// StorageSettings holds local paths.
type StorageSettings struct {
	// DataDir holds the SQLite and bbolt databases.
	DataDir string

	// UploadDir holds uploaded documents.
	UploadDir string
}

// AppSettings holds all application settings.
type AppSettings struct {
	Embedding   EmbeddingSettings
	LLM         LLMSettings
	VectorStore VectorStoreSettings
	Chunking    ChunkingSettings
	Retrieval   RetrievalSettings
	Sessions    SessionBackend
	Storage     StorageSettings
}

// DefaultAppSettings returns settings with sensible defaults.
// AI providers are left unconfigured; users must set them explicitly.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{
			BatchSize: 16,
		},
		LLM: LLMSettings{},
		VectorStore: VectorStoreSettings{
			Backend:    VectorBackendSQLite,
			URL:        "http://localhost:6333",
			Collection: "documents",
			Dimensions: 1536,
		},
		Chunking: ChunkingSettings{
			ChunkSize: 1000,
			Overlap:   200,
		},
		Retrieval: RetrievalSettings{
			TopK:         3,
			HistoryLimit: 0,
		},
		Sessions: SessionBackendMemory,
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderGemini,
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
		AIProviderGemini,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
		AIProviderGemini: "text-embedding-004",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
		AIProviderGemini:    "gemini-2.5-flash",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
		// Gemini models
		"text-embedding-004": 768,
		"gemini-embedding-001": 3072,
	}
}
