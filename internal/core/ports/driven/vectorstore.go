package driven

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// Distance is the similarity metric of a collection.
type Distance string

// DistanceCosine is the only metric used by the index.
const DistanceCosine Distance = "Cosine"

// CollectionInfo describes an existing collection.
type CollectionInfo struct {
	Name       string
	VectorSize int
	Distance   Distance
	PointCount int
}

// VectorPoint is a vector with its id and payload.
type VectorPoint struct {
	ID      string
	Vector  []float32
	Payload map[string]any
}

// VectorStore is the vector database capability.
// Implementations hold no in-process lock while waiting on the network.
type VectorStore interface {
	// GetCollection returns collection info, or domain.ErrNotFound.
	GetCollection(ctx context.Context, name string) (*CollectionInfo, error)

	// CreateCollection creates a collection with the given vector size and metric.
	CreateCollection(ctx context.Context, name string, vectorSize int, distance Distance) error

	// DeleteCollection drops a collection and every vector in it.
	DeleteCollection(ctx context.Context, name string) error

	// Upsert writes points, replacing any with the same id.
	Upsert(ctx context.Context, collection string, points []VectorPoint) error

	// Search returns up to limit hits ordered by descending similarity.
	// Ties keep insertion order.
	Search(ctx context.Context, collection string, query []float32, limit int, withPayload bool) ([]VectorHit, error)

	// Retrieve reads points by id. Unknown ids are skipped.
	Retrieve(ctx context.Context, collection string, ids []string) ([]domain.VectorRecord, error)

	// Delete removes points by id. Unknown ids are ignored.
	Delete(ctx context.Context, collection string, ids []string) error

	// Close releases resources.
	Close() error
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// ID is the matched point.
	ID string

	// Score is the cosine similarity in [-1, 1].
	Score float64

	// Payload is set when requested.
	Payload map[string]any
}
