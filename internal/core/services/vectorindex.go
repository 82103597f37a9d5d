package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Ensure VectorIndex implements the interface.
var _ driving.SearchService = (*VectorIndex)(nil)

// DefaultEmbedBatchSize is the number of texts sent to the embedding
// service per request.
const DefaultEmbedBatchSize = 16

// StoreResult reports the outcome of VectorIndex.Store.
type StoreResult struct {
	// IDs are the generated point ids, one per stored text, in input order.
	IDs []string

	// ZeroVectors counts texts stored with a zero vector because their
	// embedding batch failed.
	ZeroVectors int
}

// VectorIndex stores text chunks as vectors in a named collection and
// answers similarity queries. It holds no mutable state of its own.
type VectorIndex struct {
	store      driven.VectorStore
	embedder   driven.EmbeddingService
	collection string
	dimensions int
	batchSize  int
}

// VectorIndexOption configures a VectorIndex.
type VectorIndexOption func(*VectorIndex)

// WithEmbedBatchSize sets how many texts are embedded per request.
func WithEmbedBatchSize(n int) VectorIndexOption {
	return func(v *VectorIndex) {
		if n > 0 {
			v.batchSize = n
		}
	}
}

// WithDimensions sets the configured vector size of the collection.
// When unset the embedding service's dimensions are used.
func WithDimensions(n int) VectorIndexOption {
	return func(v *VectorIndex) {
		if n > 0 {
			v.dimensions = n
		}
	}
}

// NewVectorIndex creates a vector index over the given collection.
func NewVectorIndex(
	store driven.VectorStore,
	embedder driven.EmbeddingService,
	collection string,
	opts ...VectorIndexOption,
) *VectorIndex {
	v := &VectorIndex{
		store:      store,
		embedder:   embedder,
		collection: collection,
		batchSize:  DefaultEmbedBatchSize,
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.dimensions == 0 && embedder != nil {
		v.dimensions = embedder.Dimensions()
	}
	return v
}

// Collection returns the collection name.
func (v *VectorIndex) Collection() string {
	return v.collection
}

// Dimensions returns the configured vector size.
func (v *VectorIndex) Dimensions() int {
	return v.dimensions
}

// EnsureCollection creates the collection with cosine distance when it does
// not exist. An existing collection, or an embedding service, whose vector
// size differs from the configured one is a configuration error.
func (v *VectorIndex) EnsureCollection(ctx context.Context) error {
	if v.store == nil {
		return domain.ErrNotImplemented
	}
	if v.dimensions <= 0 {
		return fmt.Errorf("%w: vector dimensions are not configured", domain.ErrInvalidInput)
	}
	if v.embedder != nil {
		if d := v.embedder.Dimensions(); d > 0 && d != v.dimensions {
			return fmt.Errorf("%w: embedding model %s produces %d dimensions, index configured for %d",
				domain.ErrDimensionMismatch, v.embedder.ModelName(), d, v.dimensions)
		}
	}

	info, err := v.store.GetCollection(ctx, v.collection)
	if err == nil {
		if info.VectorSize != 0 && info.VectorSize != v.dimensions {
			return fmt.Errorf("%w: collection %s has %d dimensions, index configured for %d",
				domain.ErrDimensionMismatch, v.collection, info.VectorSize, v.dimensions)
		}
		return nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("get collection %s: %w", v.collection, err)
	}

	logger.Info("Creating collection %s (%d dimensions)", v.collection, v.dimensions)
	if err := v.store.CreateCollection(ctx, v.collection, v.dimensions, driven.DistanceCosine); err != nil {
		return fmt.Errorf("create collection %s: %w", v.collection, err)
	}
	return nil
}

// Store embeds texts and writes them with their metadata. Each payload keeps
// the original text under the "text" key. Embedding failures for a batch
// degrade to zero vectors for that batch; a failed write returns no ids.
func (v *VectorIndex) Store(ctx context.Context, texts []string, metadata []map[string]any) (*StoreResult, error) {
	if len(texts) != len(metadata) {
		return nil, fmt.Errorf("%w: %d texts but %d metadata entries",
			domain.ErrInvalidInput, len(texts), len(metadata))
	}
	if v.store == nil || v.embedder == nil {
		return nil, domain.ErrNotImplemented
	}
	if len(texts) == 0 {
		return &StoreResult{IDs: []string{}}, nil
	}

	vectors, zeros, err := v.embedAll(ctx, texts)
	if err != nil {
		return nil, err
	}

	points := make([]driven.VectorPoint, len(texts))
	ids := make([]string, len(texts))
	for i, text := range texts {
		payload := make(map[string]any, len(metadata[i])+1)
		for k, val := range metadata[i] {
			payload[k] = val
		}
		payload[domain.PayloadText] = text

		ids[i] = uuid.New().String()
		points[i] = driven.VectorPoint{ID: ids[i], Vector: vectors[i], Payload: payload}
	}

	if err := v.store.Upsert(ctx, v.collection, points); err != nil {
		return nil, fmt.Errorf("upsert %d points: %w", len(points), err)
	}

	logger.Debug("Stored %d points in %s (%d zero vectors)", len(points), v.collection, zeros)
	return &StoreResult{IDs: ids, ZeroVectors: zeros}, nil
}

// embedAll embeds texts in batches. A batch that errors, or returns the
// wrong number of vectors, is replaced by zero vectors. A vector of the wrong
// size is a configuration error and aborts the call.
func (v *VectorIndex) embedAll(ctx context.Context, texts []string) ([][]float32, int, error) {
	vectors := make([][]float32, 0, len(texts))
	zeros := 0

	for start := 0; start < len(texts); start += v.batchSize {
		end := start + v.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[start:end]

		embedded, err := v.embedder.EmbedBatch(ctx, batch)
		if err == nil && len(embedded) != len(batch) {
			err = fmt.Errorf("got %d embeddings for %d texts", len(embedded), len(batch))
		}
		if err != nil {
			logger.Warn("Embedding batch %d-%d failed, storing zero vectors: %v", start, end-1, err)
			for range batch {
				vectors = append(vectors, make([]float32, v.dimensions))
			}
			zeros += len(batch)
			continue
		}

		for _, vec := range embedded {
			if err := v.checkDimensions(vec); err != nil {
				return nil, 0, err
			}
			vectors = append(vectors, vec)
		}
	}

	return vectors, zeros, nil
}

func (v *VectorIndex) checkDimensions(vec []float32) error {
	if v.dimensions > 0 && len(vec) != v.dimensions {
		return fmt.Errorf("%w: embedding has %d dimensions, index configured for %d",
			domain.ErrDimensionMismatch, len(vec), v.dimensions)
	}
	return nil
}

// Search embeds query and returns the topK most similar chunks in
// descending score order. Missing payload text is replaced by a placeholder
// naming the source and chunk index.
func (v *VectorIndex) Search(ctx context.Context, query string, topK int) ([]domain.SearchResult, error) {
	if topK < 1 {
		return nil, fmt.Errorf("%w: top_k must be at least 1, got %d", domain.ErrInvalidInput, topK)
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.SearchResult{}, nil
	}
	if v.store == nil || v.embedder == nil {
		return nil, domain.ErrNotImplemented
	}

	vec, err := v.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %v", domain.ErrEmbeddingUnavailable, err)
	}
	if err := v.checkDimensions(vec); err != nil {
		return nil, err
	}

	hits, err := v.store.Search(ctx, v.collection, vec, topK, true)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", v.collection, err)
	}

	results := make([]domain.SearchResult, 0, len(hits))
	for _, hit := range hits {
		results = append(results, domain.SearchResultFromPayload(hit.ID, hit.Score, hit.Payload))
	}
	return results, nil
}

// Get returns the payload and vector of a stored point.
func (v *VectorIndex) Get(ctx context.Context, id string) (*domain.VectorRecord, error) {
	if v.store == nil {
		return nil, domain.ErrNotImplemented
	}
	records, err := v.store.Retrieve(ctx, v.collection, []string{id})
	if err != nil {
		return nil, fmt.Errorf("retrieve %s: %w", id, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("point %s: %w", id, domain.ErrNotFound)
	}
	return &records[0], nil
}

// Delete removes points by id. Unknown ids are ignored.
func (v *VectorIndex) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	if v.store == nil {
		return domain.ErrNotImplemented
	}
	if err := v.store.Delete(ctx, v.collection, ids); err != nil {
		return fmt.Errorf("delete %d points: %w", len(ids), err)
	}
	return nil
}

// Clear drops the collection and recreates it empty. All stored vectors are
// lost.
func (v *VectorIndex) Clear(ctx context.Context) error {
	if v.store == nil {
		return domain.ErrNotImplemented
	}
	if err := v.store.DeleteCollection(ctx, v.collection); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("delete collection %s: %w", v.collection, err)
	}
	if err := v.store.CreateCollection(ctx, v.collection, v.dimensions, driven.DistanceCosine); err != nil {
		return fmt.Errorf("create collection %s: %w", v.collection, err)
	}
	logger.Info("Cleared collection %s", v.collection)
	return nil
}

// Info returns the collection description.
func (v *VectorIndex) Info(ctx context.Context) (*driven.CollectionInfo, error) {
	if v.store == nil {
		return nil, domain.ErrNotImplemented
	}
	return v.store.GetCollection(ctx, v.collection)
}
