// Package anthropic answers completions with the Anthropic Messages API.
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

var _ driven.LLMService = (*LLMService)(nil)

const (
	DefaultBaseURL = "https://api.anthropic.com"
	DefaultModel   = "claude-3-5-sonnet-latest"
	DefaultTimeout = 120 * time.Second

	// DefaultMaxTokens applies when a request sets no limit; the API requires one.
	DefaultMaxTokens = 1024

	apiVersion = "2023-06-01"
)

// Config configures the adapter. APIKey is required.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

type LLMService struct {
	http    *http.Client
	baseURL string
	apiKey  string
	model   string
}

type turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesRequest struct {
	Model       string  `json:"model"`
	System      string  `json:"system,omitempty"`
	Messages    []turn  `json:"messages"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

type errorResponse struct {
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func NewLLMService(cfg Config) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &LLMService{
		http:    &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
	}, nil
}

// Complete sends one Messages call. The system prompt goes in the top-level
// field and the conversation is reshaped into strictly alternating turns.
func (s *LLMService) Complete(ctx context.Context, creq driven.CompletionRequest) (string, error) {
	maxTokens := creq.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	var resp messagesResponse
	err := s.call(ctx, http.MethodPost, "/v1/messages", messagesRequest{
		Model:       s.model,
		System:      creq.SystemPrompt,
		Messages:    turns(creq.History, creq.UserMessage),
		MaxTokens:   maxTokens,
		Temperature: creq.Temperature,
	}, &resp)
	if err != nil {
		return "", err
	}

	var out strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			out.WriteString(block.Text)
		}
	}
	if out.Len() == 0 {
		return "", fmt.Errorf("%w: anthropic: empty reply (stop_reason %q)", domain.ErrLLMUnavailable, resp.StopReason)
	}
	return out.String(), nil
}

// turns drops system messages, skips assistant turns before the first user
// turn and merges consecutive same-role messages. The API rejects anything
// else, and session logs can hold two user turns in a row after a failed answer.
func turns(history []driven.ChatMessage, question string) []turn {
	all := append(history[:len(history):len(history)], driven.ChatMessage{Role: "user", Content: question})

	out := make([]turn, 0, len(all))
	for _, m := range all {
		switch {
		case m.Role != "user" && m.Role != "assistant":
			continue
		case len(out) == 0 && m.Role == "assistant":
			continue
		case len(out) > 0 && out[len(out)-1].Role == m.Role:
			out[len(out)-1].Content += "\n\n" + m.Content
		default:
			out = append(out, turn{Role: m.Role, Content: m.Content})
		}
	}
	return out
}

func (s *LLMService) ModelName() string {
	return s.model
}

// Ping lists models, which checks the key without spending tokens.
func (s *LLMService) Ping(ctx context.Context) error {
	return s.call(ctx, http.MethodGet, "/v1/models", nil, nil)
}

func (s *LLMService) Close() error {
	return nil
}

// call performs one authenticated request. A nil out discards the body.
func (s *LLMService) call(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader = http.NoBody
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", s.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: anthropic: %v", domain.ErrLLMUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: anthropic: read response: %v", domain.ErrLLMUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		var apiErr errorResponse
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != nil {
			return fmt.Errorf("%w: anthropic %s (status %d): %s",
				domain.ErrLLMUnavailable, apiErr.Error.Type, resp.StatusCode, apiErr.Error.Message)
		}
		return fmt.Errorf("%w: anthropic error (status %d): %s", domain.ErrLLMUnavailable, resp.StatusCode, bytes.TrimSpace(raw))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: anthropic: decode response: %v", domain.ErrLLMUnavailable, err)
	}
	return nil
}
