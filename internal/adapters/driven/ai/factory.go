// Package ai builds the embedding and LLM adapters selected by the settings.
package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	geminiembed "github.com/custodia-labs/sercha-rag/internal/adapters/driven/embedding/gemini"
	ollamaembed "github.com/custodia-labs/sercha-rag/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/sercha-rag/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/embedding/throttle"
	anthropicllm "github.com/custodia-labs/sercha-rag/internal/adapters/driven/llm/anthropic"
	geminillm "github.com/custodia-labs/sercha-rag/internal/adapters/driven/llm/gemini"
	ollamallm "github.com/custodia-labs/sercha-rag/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/sercha-rag/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// pingTimeout bounds each connectivity check.
const pingTimeout = 5 * time.Second

const fixHint = "Run 'sercha-rag settings show' and 'sercha-rag settings set' to fix"

var errNoAnthropicEmbeddings = errors.New("anthropic does not support embeddings, use ollama, openai or gemini")

// InitResult holds the services that came up. A nil service is disabled and
// the reason is in Warnings.
type InitResult struct {
	EmbeddingService driven.EmbeddingService
	LLMService       driven.LLMService
	Warnings         []string
}

// Close releases both services.
func (r *InitResult) Close() {
	if r.EmbeddingService != nil {
		_ = r.EmbeddingService.Close()
	}
	if r.LLMService != nil {
		_ = r.LLMService.Close()
	}
}

// Init connects both services. Failures degrade to warnings so the
// application can still start.
func Init(ctx context.Context, settings *domain.AppSettings) *InitResult {
	result := &InitResult{}
	warn := func(what string, err error) {
		logger.Warn("%s disabled: %v", what, err)
		result.Warnings = append(result.Warnings, err.Error())
	}

	var err error
	if result.EmbeddingService, err = ConnectEmbedding(ctx, &settings.Embedding); err != nil {
		warn("embedding service", err)
	}
	if result.LLMService, err = ConnectLLM(ctx, &settings.LLM); err != nil {
		warn("LLM service", err)
	}
	return result
}

// ConnectEmbedding creates the embedding service and pings it.
// It returns nil, nil when no provider is configured.
func ConnectEmbedding(ctx context.Context, settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	svc, err := CreateEmbeddingService(settings)
	return connect(ctx, svc, err, domain.ErrEmbeddingUnavailable)
}

// ConnectLLM creates the LLM service and pings it.
// It returns nil, nil when no provider is configured.
func ConnectLLM(ctx context.Context, settings *domain.LLMSettings) (driven.LLMService, error) {
	svc, err := CreateLLMService(settings)
	return connect(ctx, svc, err, domain.ErrLLMUnavailable)
}

type service interface {
	Ping(ctx context.Context) error
	Close() error
}

// connect pings a freshly created service and closes it when unreachable.
// Errors wrap unavailable so callers can match them with errors.Is.
func connect[S service](ctx context.Context, svc S, err error, unavailable error) (S, error) {
	var none S
	if err != nil {
		return none, fmt.Errorf("%w: %w. %s", unavailable, err, fixHint)
	}
	if any(svc) == nil {
		return none, nil
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := svc.Ping(ctx); err != nil {
		_ = svc.Close()
		return none, fmt.Errorf("%w: service unreachable (%w). %s", unavailable, err, fixHint)
	}
	return svc, nil
}

// CreateEmbeddingService builds the configured embedding adapter without
// contacting it. The adapter is rate limited when settings.RateLimit is positive.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil {
		return nil, nil
	}
	if settings.Provider == domain.AIProviderAnthropic {
		return nil, errNoAnthropicEmbeddings
	}
	if !settings.IsConfigured() {
		return nil, nil
	}

	svc, err := newEmbedder(settings, domain.EmbeddingDimensions()[settings.Model])
	if err != nil {
		return nil, err
	}
	return throttle.Wrap(svc, throttle.Config{RequestsPerSecond: settings.RateLimit}), nil
}

func newEmbedder(s *domain.EmbeddingSettings, dims int) (driven.EmbeddingService, error) {
	switch s.Provider {
	case domain.AIProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL: s.BaseURL, Model: s.Model, Dimensions: dims,
		}), nil
	case domain.AIProviderOpenAI:
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey: s.APIKey, BaseURL: s.BaseURL, Model: s.Model,
			AzureAPIVersion: s.APIVersion, Dimensions: dims,
		})
	case domain.AIProviderGemini:
		return geminiembed.NewEmbeddingService(context.Background(), geminiembed.Config{
			APIKey: s.APIKey, BaseURL: s.BaseURL, Model: s.Model, Dimensions: dims,
		})
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", s.Provider)
	}
}

// CreateLLMService builds the configured LLM adapter without contacting it.
// It returns nil when no provider is configured.
func CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	s := settings
	switch s.Provider {
	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{BaseURL: s.BaseURL, Model: s.Model}), nil
	case domain.AIProviderOpenAI:
		return openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey: s.APIKey, BaseURL: s.BaseURL, Model: s.Model, AzureAPIVersion: s.APIVersion,
		})
	case domain.AIProviderAnthropic:
		return anthropicllm.NewLLMService(anthropicllm.Config{APIKey: s.APIKey, BaseURL: s.BaseURL, Model: s.Model})
	case domain.AIProviderGemini:
		return geminillm.NewLLMService(context.Background(), geminillm.Config{
			APIKey: s.APIKey, BaseURL: s.BaseURL, Model: s.Model,
		})
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", s.Provider)
	}
}
