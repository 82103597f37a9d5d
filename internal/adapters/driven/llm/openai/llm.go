// Package openai answers completions with the OpenAI chat completions API
// or an Azure OpenAI deployment.
package openai

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/openaiclient"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

var _ driven.LLMService = (*LLMService)(nil)

const (
	DefaultLLMModel   = "gpt-4o-mini"
	DefaultLLMTimeout = 120 * time.Second
)

// LLMConfig mirrors openaiclient.Config; Model is the deployment on Azure.
type LLMConfig struct {
	APIKey          string
	BaseURL         string
	Model           string
	AzureAPIVersion string
	Timeout         time.Duration
}

type LLMService struct {
	client *openaiclient.Client
	model  string
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// completionRequest always carries temperature so zero stays deterministic.
type completionRequest struct {
	Model       string    `json:"model,omitempty"`
	Messages    []message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

func NewLLMService(cfg LLMConfig) (*LLMService, error) {
	if cfg.Model == "" {
		cfg.Model = DefaultLLMModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultLLMTimeout
	}
	client, err := openaiclient.New(openaiclient.Config(cfg), domain.ErrLLMUnavailable)
	if err != nil {
		return nil, err
	}
	return &LLMService{client: client, model: cfg.Model}, nil
}

func (s *LLMService) IsAzure() bool {
	return s.client.IsAzure()
}

// Complete returns the first choice's text.
func (s *LLMService) Complete(ctx context.Context, creq driven.CompletionRequest) (string, error) {
	msgs := creq.Messages()
	req := completionRequest{
		Model:       s.client.BodyModel(),
		Messages:    make([]message, len(msgs)),
		MaxTokens:   creq.MaxTokens,
		Temperature: creq.Temperature,
	}
	for i, m := range msgs {
		req.Messages[i] = message{Role: m.Role, Content: m.Content}
	}

	var resp completionResponse
	if err := s.client.Post(ctx, "chat/completions", req, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: openai: no choices returned", domain.ErrLLMUnavailable)
	}
	return resp.Choices[0].Message.Content, nil
}

func (s *LLMService) ModelName() string {
	return s.model
}

// Ping lists models on OpenAI. On Azure it sends a one-token completion.
func (s *LLMService) Ping(ctx context.Context) error {
	if !s.IsAzure() {
		return s.client.ListModels(ctx)
	}
	_, err := s.Complete(ctx, driven.CompletionRequest{UserMessage: "ping", MaxTokens: 1})
	return err
}

func (s *LLMService) Close() error {
	return nil
}
