package driving

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// DocumentService manages uploaded documents and their vectors.
type DocumentService interface {
	// Upload stores a document's bytes under name and indexes it.
	// Unsupported extensions fail with domain.ErrUnsupportedType.
	Upload(ctx context.Context, name string, content []byte) (*domain.IngestResult, error)

	// IngestText segments and indexes already extracted text under name.
	IngestText(ctx context.Context, name, text string) (*domain.IngestResult, error)

	// IngestFile uploads a file from disk.
	IngestFile(ctx context.Context, path string) (*domain.IngestResult, error)

	// IngestDirectory uploads every supported file read by the connector.
	// Progress, if non-nil, is called once per file.
	IngestDirectory(ctx context.Context, connector driven.Connector, progress func(path string, err error)) (*domain.DirectoryResult, error)

	// Watch keeps the index in sync with a directory until ctx is cancelled.
	Watch(ctx context.Context, connector driven.Connector, onChange func(change domain.RawDocumentChange, err error)) error

	// List returns every uploaded document.
	List(ctx context.Context) ([]domain.Document, error)

	// Get retrieves a document record by ID.
	Get(ctx context.Context, documentID string) (*domain.Document, error)

	// GetContent returns the extracted text of a document.
	GetContent(ctx context.Context, documentID string) (string, error)

	// Delete removes a document, its stored bytes and its vectors.
	Delete(ctx context.Context, documentID string) error

	// ClearIndex drops every vector. Document records are kept but lose their chunk ids.
	ClearIndex(ctx context.Context) error
}
