package driven

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// DocumentStore persists the catalogue of uploaded documents.
type DocumentStore interface {
	// SaveDocument stores or updates a document record.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// GetDocument retrieves a document by ID, or domain.ErrNotFound.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// DeleteDocument removes a document record, or returns domain.ErrNotFound.
	DeleteDocument(ctx context.Context, id string) error

	// ListDocuments returns every document ordered by name.
	ListDocuments(ctx context.Context) ([]domain.Document, error)
}

// BlobStore keeps the original bytes of uploaded documents.
type BlobStore interface {
	// Put stores content under name and returns its location.
	Put(ctx context.Context, name string, content []byte) (string, error)

	// Get returns the content stored under name, or domain.ErrNotFound.
	Get(ctx context.Context, name string) ([]byte, error)

	// Delete removes the content stored under name, or returns domain.ErrNotFound.
	Delete(ctx context.Context, name string) error
}
