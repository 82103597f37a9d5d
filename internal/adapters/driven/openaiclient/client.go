// Package openaiclient is the request plumbing shared by the OpenAI chat and
// embedding adapters. It speaks both api.openai.com (and compatible servers)
// and Azure OpenAI, where the model name is a deployment and the API version
// travels in the query string.
package openaiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is the public OpenAI endpoint.
const DefaultBaseURL = "https://api.openai.com/v1"

const maxErrorBody = 512

// ErrMissingAPIKey is returned by New without a key.
var ErrMissingAPIKey = errors.New("openai: API key is required")

// Config is shared by both adapters. For Azure, BaseURL is the resource
// endpoint (https://name.openai.azure.com) and Model the deployment.
type Config struct {
	APIKey          string
	BaseURL         string
	Model           string
	AzureAPIVersion string
	Timeout         time.Duration
}

// Client sends authenticated JSON requests. Failures wrap the sentinel
// passed to New.
type Client struct {
	http        *http.Client
	baseURL     string
	apiKey      string
	model       string
	apiVersion  string
	unavailable error
}

func New(cfg Config, unavailable error) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	return &Client{
		http:        &http.Client{Timeout: cfg.Timeout},
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		apiVersion:  cfg.AzureAPIVersion,
		unavailable: unavailable,
	}, nil
}

// IsAzure reports whether requests go to an Azure deployment.
func (c *Client) IsAzure() bool {
	return c.apiVersion != ""
}

// BodyModel is the "model" field for request bodies. Azure selects the
// model by deployment path, so it is left empty there.
func (c *Client) BodyModel() string {
	if c.IsAzure() {
		return ""
	}
	return c.model
}

// Post sends in to the operation ("chat/completions", "embeddings") and
// decodes the reply into out.
func (c *Client) Post(ctx context.Context, op string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(op), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return c.do(req, out)
}

// ListModels checks the key without running inference. Azure has no
// deployment-scoped equivalent; callers send a minimal request instead.
func (c *Client) ListModels(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return c.do(req, nil)
}

func (c *Client) endpoint(op string) string {
	if !c.IsAzure() {
		return c.baseURL + "/" + op
	}
	return fmt.Sprintf("%s/openai/deployments/%s/%s?api-version=%s",
		c.baseURL, url.PathEscape(c.model), op, url.QueryEscape(c.apiVersion))
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Content-Type", "application/json")
	if c.IsAzure() {
		req.Header.Set("api-key", c.apiKey)
	} else {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: openai: %v", c.unavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: openai: read response: %v", c.unavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return c.statusError(resp.StatusCode, raw)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: openai: decode response: %v", c.unavailable, err)
	}
	return nil
}

func (c *Client) statusError(status int, raw []byte) error {
	var apiErr struct {
		Error *struct {
			Message string `json:"message"`
			Type    string `json:"type"`
		} `json:"error"`
	}
	if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != nil {
		return fmt.Errorf("%w: openai error (status %d): %s", c.unavailable, status, apiErr.Error.Message)
	}
	if len(raw) > maxErrorBody {
		raw = raw[:maxErrorBody]
	}
	return fmt.Errorf("%w: openai error (status %d): %s", c.unavailable, status, bytes.TrimSpace(raw))
}
