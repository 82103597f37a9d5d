// Package openai embeds text with the OpenAI embeddings API or an Azure
// OpenAI deployment.
package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/openaiclient"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

var _ driven.EmbeddingService = (*EmbeddingService)(nil)

const (
	DefaultModel      = "text-embedding-3-small"
	DefaultTimeout    = 60 * time.Second
	DefaultDimensions = 1536
)

// Config configures the adapter. Dimensions of zero uses the known size
// of Model, then DefaultDimensions.
type Config struct {
	APIKey          string
	BaseURL         string
	Model           string
	AzureAPIVersion string
	Timeout         time.Duration
	Dimensions      int
}

type EmbeddingService struct {
	client     *openaiclient.Client
	model      string
	dimensions int
}

type embeddingRequest struct {
	Model      string   `json:"model,omitempty"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions,omitempty"`
}

// embeddingResponse entries are not guaranteed to arrive in input order.
type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	dims := cfg.Dimensions
	if dims == 0 {
		dims = domain.EmbeddingDimensions()[cfg.Model]
	}
	if dims == 0 {
		dims = DefaultDimensions
	}

	client, err := openaiclient.New(openaiclient.Config{
		APIKey:          cfg.APIKey,
		BaseURL:         cfg.BaseURL,
		Model:           cfg.Model,
		AzureAPIVersion: cfg.AzureAPIVersion,
		Timeout:         cfg.Timeout,
	}, domain.ErrEmbeddingUnavailable)
	if err != nil {
		return nil, err
	}
	return &EmbeddingService{client: client, model: cfg.Model, dimensions: dims}, nil
}

func (s *EmbeddingService) IsAzure() bool {
	return s.client.IsAzure()
}

func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch sends all texts in one request and restores input order.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	req := embeddingRequest{Model: s.client.BodyModel(), Input: texts}
	// Only the text-embedding-3 family accepts a dimensions override.
	if !s.IsAzure() && strings.HasPrefix(s.model, "text-embedding-3-") {
		req.Dimensions = s.dimensions
	}

	var resp embeddingResponse
	if err := s.client.Post(ctx, "embeddings", req, &resp); err != nil {
		return nil, err
	}

	out := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(texts) {
			return nil, fmt.Errorf("%w: openai: embedding index %d out of range", domain.ErrEmbeddingUnavailable, d.Index)
		}
		out[d.Index] = d.Embedding
	}
	for i, v := range out {
		if v == nil {
			return nil, fmt.Errorf("%w: openai: missing embedding for input %d", domain.ErrEmbeddingUnavailable, i)
		}
	}
	return out, nil
}

func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Ping lists models on OpenAI. On Azure it embeds a single word.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	if !s.IsAzure() {
		return s.client.ListModels(ctx)
	}
	_, err := s.Embed(ctx, "ping")
	return err
}

func (s *EmbeddingService) Close() error {
	return nil
}
