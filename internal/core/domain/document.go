package domain

import (
	"path/filepath"
	"strings"
	"time"
)

// DocumentType is the file format of an uploaded document.
type DocumentType string

// Supported document types.
const (
	DocumentTypeText DocumentType = "txt"
	DocumentTypePDF  DocumentType = "pdf"
	DocumentTypeDOCX DocumentType = "docx"
)

// IsValid returns true if the document type can be read.
func (t DocumentType) IsValid() bool {
	switch t {
	case DocumentTypeText, DocumentTypePDF, DocumentTypeDOCX:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (t DocumentType) String() string {
	return string(t)
}

// MIMEType returns the content type used to select a normaliser.
func (t DocumentType) MIMEType() string {
	switch t {
	case DocumentTypeText:
		return "text/plain"
	case DocumentTypePDF:
		return "application/pdf"
	case DocumentTypeDOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	default:
		return "application/octet-stream"
	}
}

// DocumentTypeFromPath derives the document type from a file extension.
// The comparison is case-insensitive. The second result is false for
// unsupported extensions.
func DocumentTypeFromPath(path string) (DocumentType, bool) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	t := DocumentType(ext)
	return t, t.IsValid()
}

// SupportedExtensions returns the file extensions accepted for ingestion.
func SupportedExtensions() []string {
	return []string{".txt", ".pdf", ".docx"}
}

// Document is the catalogue record of an uploaded document.
type Document struct {
	// ID identifies the document. It is the stored file name.
	ID string

	// Name is the display name, usually equal to ID.
	Name string

	// Type is the file format.
	Type DocumentType

	// Path is where the original file is stored.
	Path string

	// Size is the file size in bytes.
	Size int64

	// Content is the extracted text.
	Content string

	// ChunkIDs are the vector ids generated when the document was indexed.
	// Deleting the document deletes these vectors.
	ChunkIDs []string

	// CreatedAt is when the document was first uploaded.
	CreatedAt time.Time

	// UpdatedAt is when the document was last indexed.
	UpdatedAt time.Time
}

// ChunkCount returns the number of indexed chunks.
func (d Document) ChunkCount() int {
	return len(d.ChunkIDs)
}

// Chunk is a bounded, contiguous span of a document's text.
// Chunks are created at ingestion and immutable thereafter.
type Chunk struct {
	// ID is the vector id assigned when the chunk was stored.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Source is the name of the source document.
	Source string

	// Index is the 0-based position of the chunk within its document.
	// Unique per (Source, Index).
	Index int

	// Content is the text of the chunk.
	Content string

	// Vector is the embedding of Content.
	Vector []float32

	// Metadata holds extra payload fields.
	Metadata map[string]any
}

// IngestResult reports the outcome of storing one document.
type IngestResult struct {
	// Document is the catalogue record.
	Document Document

	// ChunkCount is the number of chunks produced by the segmenter.
	ChunkCount int

	// Stored is true when every chunk was written to the vector store.
	Stored bool

	// ZeroVectors counts chunks stored with a zero-vector because
	// their embedding batch failed.
	ZeroVectors int
}

// DirectoryResult reports the outcome of ingesting a directory.
type DirectoryResult struct {
	// Successful is the number of documents stored.
	Successful int

	// Total is the number of supported files found.
	Total int

	// Failed maps file paths to the reason they were not stored.
	Failed map[string]error
}
