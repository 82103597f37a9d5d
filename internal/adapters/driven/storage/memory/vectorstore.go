package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/vectorstore/vecmath"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure VectorStore implements the interface.
var _ driven.VectorStore = (*VectorStore)(nil)

type collection struct {
	size     int
	distance driven.Distance
	order    []string
	points   map[string]driven.VectorPoint
}

// VectorStore is an in-memory implementation of driven.VectorStore using
// brute-force cosine search. Search ties are broken by insertion order.
type VectorStore struct {
	mu          sync.RWMutex
	collections map[string]*collection
}

// NewVectorStore creates a new in-memory vector store.
func NewVectorStore() *VectorStore {
	return &VectorStore{
		collections: make(map[string]*collection),
	}
}

// GetCollection describes a collection.
func (s *VectorStore) GetCollection(_ context.Context, name string) (*driven.CollectionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[name]
	if !ok {
		return nil, fmt.Errorf("collection %s: %w", name, domain.ErrNotFound)
	}
	return &driven.CollectionInfo{
		Name:       name,
		VectorSize: c.size,
		Distance:   c.distance,
		PointCount: len(c.points),
	}, nil
}

// CreateCollection creates an empty collection.
func (s *VectorStore) CreateCollection(_ context.Context, name string, vectorSize int, distance driven.Distance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[name]; ok {
		return fmt.Errorf("collection %s: %w", name, domain.ErrAlreadyExists)
	}
	s.collections[name] = &collection{
		size:     vectorSize,
		distance: distance,
		points:   make(map[string]driven.VectorPoint),
	}
	return nil
}

// DeleteCollection drops a collection and its points.
func (s *VectorStore) DeleteCollection(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[name]; !ok {
		return fmt.Errorf("collection %s: %w", name, domain.ErrNotFound)
	}
	delete(s.collections, name)
	return nil
}

// Upsert inserts or replaces points. Every vector must match the
// collection size.
func (s *VectorStore) Upsert(_ context.Context, name string, points []driven.VectorPoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[name]
	if !ok {
		return fmt.Errorf("collection %s: %w", name, domain.ErrNotFound)
	}
	for _, p := range points {
		if c.size > 0 && len(p.Vector) != c.size {
			return fmt.Errorf("%w: point %s has %d dimensions, collection %s expects %d",
				domain.ErrDimensionMismatch, p.ID, len(p.Vector), name, c.size)
		}
	}
	for _, p := range points {
		if _, exists := c.points[p.ID]; !exists {
			c.order = append(c.order, p.ID)
		}
		c.points[p.ID] = driven.VectorPoint{
			ID:      p.ID,
			Vector:  append([]float32(nil), p.Vector...),
			Payload: copyPayload(p.Payload),
		}
	}
	return nil
}

// Search returns the limit points most similar to query.
func (s *VectorStore) Search(
	_ context.Context, name string, query []float32, limit int, withPayload bool,
) ([]driven.VectorHit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[name]
	if !ok {
		return nil, fmt.Errorf("collection %s: %w", name, domain.ErrNotFound)
	}

	candidates := make([]vecmath.Candidate, 0, len(c.order))
	for _, id := range c.order {
		p := c.points[id]
		candidates = append(candidates, vecmath.Candidate{ID: id, Vector: p.Vector, Payload: copyPayload(p.Payload)})
	}
	return vecmath.TopK(query, candidates, limit, withPayload), nil
}

// Retrieve returns the stored points with the given ids. Unknown ids are
// skipped.
func (s *VectorStore) Retrieve(_ context.Context, name string, ids []string) ([]domain.VectorRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[name]
	if !ok {
		return nil, fmt.Errorf("collection %s: %w", name, domain.ErrNotFound)
	}
	records := make([]domain.VectorRecord, 0, len(ids))
	for _, id := range ids {
		if p, ok := c.points[id]; ok {
			records = append(records, domain.VectorRecord{
				ID:      id,
				Payload: copyPayload(p.Payload),
				Vector:  append([]float32(nil), p.Vector...),
			})
		}
	}
	return records, nil
}

// Delete removes points. Unknown ids are ignored.
func (s *VectorStore) Delete(_ context.Context, name string, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[name]
	if !ok {
		return fmt.Errorf("collection %s: %w", name, domain.ErrNotFound)
	}
	removed := make(map[string]bool, len(ids))
	for _, id := range ids {
		if _, ok := c.points[id]; ok {
			delete(c.points, id)
			removed[id] = true
		}
	}
	if len(removed) == 0 {
		return nil
	}
	order := c.order[:0]
	for _, id := range c.order {
		if !removed[id] {
			order = append(order, id)
		}
	}
	c.order = order
	return nil
}

// Close is a no-op.
func (s *VectorStore) Close() error {
	return nil
}

func copyPayload(p map[string]any) map[string]any {
	if p == nil {
		return nil
	}
	out := make(map[string]any, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}
