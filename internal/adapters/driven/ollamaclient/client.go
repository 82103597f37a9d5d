// Package ollamaclient is the JSON-over-HTTP plumbing shared by the Ollama
// embedding and chat adapters.
package ollamaclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultBaseURL is where a local Ollama listens.
const DefaultBaseURL = "http://localhost:11434"

// maxErrorBody caps how much of an error response is quoted back.
const maxErrorBody = 512

// Client talks to one Ollama server. Every failure is wrapped with the
// sentinel given to New so callers can classify it with errors.Is.
type Client struct {
	http        *http.Client
	baseURL     string
	unavailable error
}

// New returns a client. An empty baseURL uses DefaultBaseURL.
func New(baseURL string, timeout time.Duration, unavailable error) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		http:        &http.Client{Timeout: timeout},
		baseURL:     strings.TrimRight(baseURL, "/"),
		unavailable: unavailable,
	}
}

// Post sends in as JSON to path and decodes the reply into out. Ollama
// reports some failures as 200 with an "error" field; those fail too.
func (c *Client) Post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	raw, err := c.do(req)
	if err != nil {
		return err
	}

	var failure struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &failure); err == nil && failure.Error != "" {
		return fmt.Errorf("%w: ollama error: %s", c.unavailable, failure.Error)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: ollama: decode response: %v", c.unavailable, err)
	}
	return nil
}

// Ping lists local models and fails unless model has been pulled.
// "llama3.2" matches "llama3.2:latest".
func (c *Client) Ping(ctx context.Context, model string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", http.NoBody)
	if err != nil {
		return fmt.Errorf("ollama: create ping request: %w", err)
	}

	raw, err := c.do(req)
	if err != nil {
		return err
	}

	var tags struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.Unmarshal(raw, &tags); err != nil {
		return fmt.Errorf("%w: ollama: decode model list: %v", c.unavailable, err)
	}
	for _, m := range tags.Models {
		if m.Name == model || strings.TrimSuffix(m.Name, ":latest") == model {
			return nil
		}
	}
	return fmt.Errorf("%w: ollama: model %q is not pulled (run `ollama pull %s`)", c.unavailable, model, model)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: ollama: %v", c.unavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: ollama: read response (status %d): %v", c.unavailable, resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		if len(raw) > maxErrorBody {
			raw = raw[:maxErrorBody]
		}
		return nil, fmt.Errorf("%w: ollama error (status %d): %s", c.unavailable, resp.StatusCode, bytes.TrimSpace(raw))
	}
	return raw, nil
}
