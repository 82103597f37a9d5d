package driven

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// Connector reads documents from a directory tree.
type Connector interface {
	// Root returns the directory being read.
	Root() string

	// Validate checks the directory exists and is readable.
	Validate(ctx context.Context) error

	// FullSync emits every supported document under the root.
	// Both channels are closed when the walk finishes.
	FullSync(ctx context.Context) (<-chan domain.RawDocument, <-chan error)

	// Watch emits changes until ctx is cancelled.
	Watch(ctx context.Context) (<-chan domain.RawDocumentChange, error)

	// Close releases resources.
	Close() error
}
