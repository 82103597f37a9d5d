// Package qdrant provides a driven.VectorStore backed by the Qdrant REST API.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure VectorStore implements the interface.
var _ driven.VectorStore = (*VectorStore)(nil)

// Default configuration values.
const (
	DefaultURL     = "http://localhost:6333"
	DefaultTimeout = 15 * time.Second
)

// Config holds connection settings.
type Config struct {
	// URL is the Qdrant base URL (default: http://localhost:6333).
	URL string

	// APIKey is sent as the api-key header when set.
	APIKey string

	// Timeout bounds each request (default: 15s).
	Timeout time.Duration
}

// VectorStore talks to a Qdrant server over HTTP.
type VectorStore struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// envelope is the common Qdrant response wrapper.
type envelope struct {
	Result json.RawMessage `json:"result"`
	Status any             `json:"status"`
}

type collectionResult struct {
	PointsCount int `json:"points_count"`
	Config      struct {
		Params struct {
			Vectors struct {
				Size     int    `json:"size"`
				Distance string `json:"distance"`
			} `json:"vectors"`
		} `json:"params"`
	} `json:"config"`
}

type point struct {
	ID      any            `json:"id"`
	Vector  []float32      `json:"vector,omitempty"`
	Payload map[string]any `json:"payload,omitempty"`
	Score   float64        `json:"score,omitempty"`
}

// NewVectorStore creates a Qdrant client. No request is made until first use.
func NewVectorStore(cfg Config) *VectorStore {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &VectorStore{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimSuffix(cfg.URL, "/"),
		apiKey:  cfg.APIKey,
	}
}

// GetCollection describes a collection, or returns domain.ErrNotFound.
func (s *VectorStore) GetCollection(ctx context.Context, name string) (*driven.CollectionInfo, error) {
	var res collectionResult
	if err := s.do(ctx, http.MethodGet, collectionPath(name), nil, &res); err != nil {
		return nil, fmt.Errorf("collection %s: %w", name, err)
	}
	return &driven.CollectionInfo{
		Name:       name,
		VectorSize: res.Config.Params.Vectors.Size,
		Distance:   driven.Distance(res.Config.Params.Vectors.Distance),
		PointCount: res.PointsCount,
	}, nil
}

// CreateCollection creates a collection with a single unnamed vector.
func (s *VectorStore) CreateCollection(ctx context.Context, name string, vectorSize int, distance driven.Distance) error {
	if vectorSize <= 0 {
		return fmt.Errorf("%w: vector size must be positive", domain.ErrInvalidInput)
	}
	body := map[string]any{
		"vectors": map[string]any{
			"size":     vectorSize,
			"distance": string(distance),
		},
	}
	if err := s.do(ctx, http.MethodPut, collectionPath(name), body, nil); err != nil {
		return fmt.Errorf("create collection %s: %w", name, err)
	}
	return nil
}

// DeleteCollection drops a collection.
func (s *VectorStore) DeleteCollection(ctx context.Context, name string) error {
	if err := s.do(ctx, http.MethodDelete, collectionPath(name), nil, nil); err != nil {
		return fmt.Errorf("delete collection %s: %w", name, err)
	}
	return nil
}

// Upsert writes points and waits for them to be indexed.
func (s *VectorStore) Upsert(ctx context.Context, collection string, points []driven.VectorPoint) error {
	if len(points) == 0 {
		return nil
	}
	body := make([]point, len(points))
	for i, p := range points {
		vec := p.Vector
		if vec == nil {
			vec = []float32{}
		}
		body[i] = point{ID: p.ID, Vector: vec, Payload: p.Payload}
	}
	path := collectionPath(collection) + "/points?wait=true"
	if err := s.do(ctx, http.MethodPut, path, map[string]any{"points": body}, nil); err != nil {
		return fmt.Errorf("upsert into %s: %w", collection, err)
	}
	return nil
}

// Search returns up to limit hits by descending cosine similarity.
func (s *VectorStore) Search(
	ctx context.Context, collection string, query []float32, limit int, withPayload bool,
) ([]driven.VectorHit, error) {
	if limit < 1 {
		return nil, fmt.Errorf("%w: limit must be at least 1", domain.ErrInvalidInput)
	}
	body := map[string]any{
		"vector":       query,
		"limit":        limit,
		"with_payload": withPayload,
	}
	var res []point
	if err := s.do(ctx, http.MethodPost, collectionPath(collection)+"/points/search", body, &res); err != nil {
		return nil, fmt.Errorf("search %s: %w", collection, err)
	}

	hits := make([]driven.VectorHit, len(res))
	for i, p := range res {
		hits[i] = driven.VectorHit{ID: pointID(p.ID), Score: p.Score}
		if withPayload {
			hits[i].Payload = p.Payload
		}
	}
	return hits, nil
}

// Retrieve reads points by id, in the order Qdrant returns them.
func (s *VectorStore) Retrieve(ctx context.Context, collection string, ids []string) ([]domain.VectorRecord, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	body := map[string]any{
		"ids":          ids,
		"with_payload": true,
		"with_vector":  true,
	}
	var res []point
	if err := s.do(ctx, http.MethodPost, collectionPath(collection)+"/points", body, &res); err != nil {
		return nil, fmt.Errorf("retrieve from %s: %w", collection, err)
	}

	records := make([]domain.VectorRecord, len(res))
	for i, p := range res {
		records[i] = domain.VectorRecord{ID: pointID(p.ID), Payload: p.Payload, Vector: p.Vector}
	}
	return records, nil
}

// Delete removes points by id.
func (s *VectorStore) Delete(ctx context.Context, collection string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	path := collectionPath(collection) + "/points/delete?wait=true"
	if err := s.do(ctx, http.MethodPost, path, map[string]any{"points": ids}, nil); err != nil {
		return fmt.Errorf("delete from %s: %w", collection, err)
	}
	return nil
}

// Close releases idle connections.
func (s *VectorStore) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

// do sends a JSON request and decodes the result field into out.
// A 404 maps to domain.ErrNotFound. Transport failures and other
// non-2xx responses map to domain.ErrVectorStoreUnavailable.
func (s *VectorStore) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrVectorStoreUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %v", domain.ErrVectorStoreUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return domain.ErrNotFound
	case resp.StatusCode >= 300:
		return fmt.Errorf("%w: qdrant %s %s: status %d: %s",
			domain.ErrVectorStoreUnavailable, method, path, resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if out == nil {
		return nil
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("%w: decode response: %v", domain.ErrVectorStoreUnavailable, err)
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return fmt.Errorf("%w: decode result: %v", domain.ErrVectorStoreUnavailable, err)
	}
	return nil
}

func collectionPath(name string) string {
	return "/collections/" + url.PathEscape(name)
}

// pointID renders a Qdrant id, which is either a UUID string or an integer.
func pointID(id any) string {
	switch v := id.(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%.0f", v)
	default:
		return fmt.Sprint(v)
	}
}
