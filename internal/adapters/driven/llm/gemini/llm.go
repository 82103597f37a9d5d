// Package gemini provides an LLM service adapter using the Google Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.5-flash"

// Gemini content roles.
const (
	roleUser  = "user"
	roleModel = "model"
)

// Config holds configuration for the Gemini LLM service.
type Config struct {
	// APIKey is the Gemini API key (required).
	APIKey string

	// BaseURL overrides the API endpoint.
	BaseURL string

	// Model is the model to use (default: gemini-2.5-flash).
	Model string
}

// modelsAPI is the subset of genai.Models used by the adapter.
type modelsAPI interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	Get(ctx context.Context, model string, config *genai.GetModelConfig) (*genai.Model, error)
}

// LLMService provides completions using Gemini.
type LLMService struct {
	models modelsAPI
	model  string
}

// NewLLMService creates a new Gemini LLM service.
func NewLLMService(ctx context.Context, cfg Config) (*LLMService, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("gemini: API key is required")
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}

	return newWithModels(client.Models, cfg.Model), nil
}

func newWithModels(models modelsAPI, model string) *LLMService {
	if model = strings.TrimSpace(model); model == "" {
		model = DefaultModel
	}
	return &LLMService{models: models, model: model}
}

// Complete sends the system prompt as a system instruction and the history
// and user message as contents.
func (s *LLMService) Complete(ctx context.Context, creq driven.CompletionRequest) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(creq.Temperature)),
	}
	if creq.MaxTokens > 0 {
		config.MaxOutputTokens = int32(creq.MaxTokens)
	}
	if creq.SystemPrompt != "" {
		config.SystemInstruction = textContent(roleUser, creq.SystemPrompt)
	}

	resp, err := s.models.GenerateContent(ctx, s.model, buildContents(creq), config)
	if err != nil {
		return "", fmt.Errorf("%w: gemini: generate content: %v", domain.ErrLLMUnavailable, err)
	}

	output := responseText(resp)
	if output == "" {
		return "", fmt.Errorf("%w: gemini: empty response", domain.ErrLLMUnavailable)
	}
	return output, nil
}

// buildContents maps history and the user message to Gemini contents.
// Assistant turns use the model role; system turns in history are dropped.
func buildContents(creq driven.CompletionRequest) []*genai.Content {
	contents := make([]*genai.Content, 0, len(creq.History)+1)
	for _, msg := range creq.History {
		switch msg.Role {
		case "assistant":
			contents = append(contents, textContent(roleModel, msg.Content))
		case "user":
			contents = append(contents, textContent(roleUser, msg.Content))
		}
	}
	return append(contents, textContent(roleUser, creq.UserMessage))
}

func textContent(role, text string) *genai.Content {
	return &genai.Content{
		Role:  role,
		Parts: []*genai.Part{{Text: text}},
	}
}

// responseText joins the text parts of every candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil || part.Text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(part.Text)
		}
	}
	return strings.TrimSpace(builder.String())
}

// ModelName returns the name of the LLM model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping validates the API key by fetching the model metadata.
func (s *LLMService) Ping(ctx context.Context) error {
	if _, err := s.models.Get(ctx, s.model, nil); err != nil {
		return fmt.Errorf("gemini: ping failed: %w", err)
	}
	return nil
}

// Close releases resources.
func (s *LLMService) Close() error {
	return nil
}
