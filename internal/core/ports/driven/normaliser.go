package driven

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// Normaliser turns one family of uploads (PDF, DOCX, plain text) into text.
type Normaliser interface {
	SupportedMIMETypes() []string

	// Priority breaks ties when two normalisers claim a MIME type; higher wins.
	Priority() int

	Normalise(ctx context.Context, raw *domain.RawDocument) (*NormaliseResult, error)
}

// NormaliserRegistry is what ingestion sees: a single entry point that
// picks the normaliser by raw.MIMEType. Unknown types fail with
// domain.ErrUnsupportedType.
type NormaliserRegistry interface {
	Normalise(ctx context.Context, raw *domain.RawDocument) (*NormaliseResult, error)
}

// NormaliseResult is extracted text ready for the segmenter.
type NormaliseResult struct {
	Title   string
	Content string

	// Metadata is format specific, e.g. page count for PDFs.
	Metadata map[string]any
}
