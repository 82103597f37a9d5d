// Package ollama answers completions with a local Ollama chat model.
package ollama

import (
	"context"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/ollamaclient"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

var _ driven.LLMService = (*LLMService)(nil)

const (
	DefaultLLMModel   = "llama3.2"
	DefaultLLMTimeout = 120 * time.Second
)

// LLMConfig configures the adapter. Zero fields take the defaults above.
type LLMConfig struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

// LLMService calls /api/chat without streaming.
type LLMService struct {
	client *ollamaclient.Client
	model  string
}

// options is Ollama's generation block. Temperature is always sent because
// zero is a meaningful setting for contextualisation.
type options struct {
	NumPredict  int     `json:"num_predict,omitempty"`
	Temperature float64 `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  options       `json:"options"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
}

func NewLLMService(cfg LLMConfig) *LLMService {
	if cfg.Model == "" {
		cfg.Model = DefaultLLMModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultLLMTimeout
	}
	return &LLMService{
		client: ollamaclient.New(cfg.BaseURL, cfg.Timeout, domain.ErrLLMUnavailable),
		model:  cfg.Model,
	}
}

func (s *LLMService) Complete(ctx context.Context, creq driven.CompletionRequest) (string, error) {
	msgs := creq.Messages()
	req := chatRequest{
		Model:    s.model,
		Messages: make([]chatMessage, len(msgs)),
		Options:  options{NumPredict: creq.MaxTokens, Temperature: creq.Temperature},
	}
	for i, m := range msgs {
		req.Messages[i] = chatMessage{Role: m.Role, Content: m.Content}
	}

	var resp chatResponse
	if err := s.client.Post(ctx, "/api/chat", req, &resp); err != nil {
		return "", err
	}
	return resp.Message.Content, nil
}

func (s *LLMService) ModelName() string {
	return s.model
}

// Ping checks the server is up and the chat model has been pulled.
func (s *LLMService) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, s.model)
}

func (s *LLMService) Close() error {
	return nil
}
