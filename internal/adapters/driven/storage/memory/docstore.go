package memory

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore keeps document metadata in a map. Documents are copied on the
// way in and out so callers never share the ChunkIDs backing array.
type DocumentStore struct {
	mu   sync.RWMutex
	docs map[string]domain.Document
}

func NewDocumentStore() *DocumentStore {
	return &DocumentStore{docs: map[string]domain.Document{}}
}

func clone(doc domain.Document) domain.Document {
	doc.ChunkIDs = slices.Clone(doc.ChunkIDs)
	return doc
}

// SaveDocument inserts or replaces the document with doc.ID.
func (s *DocumentStore) SaveDocument(_ context.Context, doc *domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[doc.ID] = clone(*doc)
	return nil
}

func (s *DocumentStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	doc = clone(doc)
	return &doc, nil
}

func (s *DocumentStore) DeleteDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.docs, id)
	return nil
}

// ListDocuments returns every document sorted by name, then id.
func (s *DocumentStore) ListDocuments(_ context.Context) ([]domain.Document, error) {
	s.mu.RLock()
	docs := slices.Collect(maps.Values(s.docs))
	s.mu.RUnlock()

	for i := range docs {
		docs[i] = clone(docs[i])
	}
	slices.SortFunc(docs, func(a, b domain.Document) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	return docs, nil
}
