package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// ChunkIndex stores and removes chunk vectors.
type ChunkIndex interface {
	Store(ctx context.Context, texts []string, metadata []map[string]any) (*StoreResult, error)
	Delete(ctx context.Context, ids ...string) error
	Clear(ctx context.Context) error
}

// DocumentService uploads documents, extracts their text, and keeps the
// vector index in step with the document catalogue.
type DocumentService struct {
	docStore    driven.DocumentStore
	blobs       driven.BlobStore
	normalisers driven.NormaliserRegistry
	segmenter   driven.Segmenter
	index       ChunkIndex
	now         func() time.Time
}

// NewDocumentService creates a new document service.
func NewDocumentService(
	docStore driven.DocumentStore,
	blobs driven.BlobStore,
	normalisers driven.NormaliserRegistry,
	segmenter driven.Segmenter,
	index ChunkIndex,
) *DocumentService {
	return &DocumentService{
		docStore:    docStore,
		blobs:       blobs,
		normalisers: normalisers,
		segmenter:   segmenter,
		index:       index,
		now:         time.Now,
	}
}

// Upload stores content under name, extracts its text and indexes it.
// The document record is saved before indexing, so a document whose
// vectors could not be written is still listed and can be matched. In
// that case both the result and the error are returned.
func (s *DocumentService) Upload(ctx context.Context, name string, content []byte) (*domain.IngestResult, error) {
	logger.Section("Document Upload")

	name, docType, err := validateName(name)
	if err != nil {
		return nil, err
	}
	if s.blobs == nil {
		return nil, domain.ErrNotImplemented
	}

	text, err := s.extract(ctx, name, docType, content)
	if err != nil {
		return nil, err
	}

	path, err := s.blobs.Put(ctx, name, content)
	if err != nil {
		return nil, fmt.Errorf("store %s: %w", name, err)
	}

	return s.ingest(ctx, domain.Document{
		ID:   name,
		Name: name,
		Type: docType,
		Path: path,
		Size: int64(len(content)),
	}, text)
}

// IngestFile uploads a file from disk.
func (s *DocumentService) IngestFile(ctx context.Context, path string) (*domain.IngestResult, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("file %s: %w", path, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return s.Upload(ctx, filepath.Base(path), content)
}

// IngestText segments and indexes text that is already extracted. The
// document is catalogued as plain text without stored bytes.
func (s *DocumentService) IngestText(ctx context.Context, name, text string) (*domain.IngestResult, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.ContainsAny(name, `/\`) {
		return nil, fmt.Errorf("%w: invalid document name %q", domain.ErrInvalidInput, name)
	}
	return s.ingest(ctx, domain.Document{
		ID:   name,
		Name: name,
		Type: domain.DocumentTypeText,
		Size: int64(len(text)),
	}, text)
}

// ingest segments text, writes its vectors and saves the catalogue record.
// Vectors of a previous version of the document are removed first.
func (s *DocumentService) ingest(ctx context.Context, doc domain.Document, text string) (*domain.IngestResult, error) {
	if s.docStore == nil || s.segmenter == nil || s.index == nil {
		return nil, domain.ErrNotImplemented
	}

	now := s.now()
	doc.CreatedAt = now
	doc.UpdatedAt = now
	doc.Content = text

	if prev, err := s.docStore.GetDocument(ctx, doc.ID); err == nil {
		doc.CreatedAt = prev.CreatedAt
		if err := s.index.Delete(ctx, prev.ChunkIDs...); err != nil {
			logger.Warn("Failed to remove old vectors of %s: %v", doc.ID, err)
		}
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("get document %s: %w", doc.ID, err)
	}

	chunks := s.chunk(doc, text)
	result := &domain.IngestResult{ChunkCount: len(chunks)}

	var storeErr error
	switch {
	case len(chunks) == 0:
		storeErr = fmt.Errorf("%w: no text extracted from %s", domain.ErrInvalidInput, doc.Name)
	default:
		texts := make([]string, len(chunks))
		metadata := make([]map[string]any, len(chunks))
		for i, c := range chunks {
			texts[i] = c.Content
			metadata[i] = c.Metadata
		}

		stored, err := s.index.Store(ctx, texts, metadata)
		if err != nil {
			storeErr = fmt.Errorf("index %s: %w", doc.Name, err)
			break
		}
		doc.ChunkIDs = stored.IDs
		result.Stored = true
		result.ZeroVectors = stored.ZeroVectors
	}

	if err := s.docStore.SaveDocument(ctx, &doc); err != nil {
		return nil, fmt.Errorf("save document %s: %w", doc.ID, err)
	}
	result.Document = doc

	if storeErr != nil {
		logger.Warn("Document %s saved without vectors: %v", doc.ID, storeErr)
		return result, storeErr
	}

	logger.Info("Indexed %s: %d chunks", doc.ID, len(chunks))
	return result, nil
}

func (s *DocumentService) chunk(doc domain.Document, text string) []domain.Chunk {
	parts := s.segmenter.Split(text)
	chunks := make([]domain.Chunk, 0, len(parts))
	for i, part := range parts {
		chunks = append(chunks, domain.Chunk{
			DocumentID: doc.ID,
			Source:     doc.Name,
			Index:      i,
			Content:    part,
			Metadata: map[string]any{
				domain.PayloadSource:     doc.Name,
				domain.PayloadChunkIndex: i,
				domain.PayloadFilePath:   doc.Path,
				domain.PayloadDocumentID: doc.ID,
			},
		})
	}
	return chunks
}

// extract converts raw bytes to text using the normaliser for docType.
func (s *DocumentService) extract(
	ctx context.Context, uri string, docType domain.DocumentType, content []byte,
) (string, error) {
	if s.normalisers == nil {
		return "", domain.ErrNotImplemented
	}
	res, err := s.normalisers.Normalise(ctx, &domain.RawDocument{
		URI:      uri,
		MIMEType: docType.MIMEType(),
		Content:  content,
	})
	if err != nil {
		return "", fmt.Errorf("read %s: %w", uri, err)
	}
	return res.Content, nil
}

// IngestDirectory stores every supported document the connector yields.
// Files that fail are recorded in the result and do not stop the run.
func (s *DocumentService) IngestDirectory(
	ctx context.Context, connector driven.Connector, progress func(path string, err error),
) (*domain.DirectoryResult, error) {
	logger.Section("Directory Ingest")

	if connector == nil {
		return nil, fmt.Errorf("%w: connector is required", domain.ErrInvalidInput)
	}
	if err := connector.Validate(ctx); err != nil {
		return nil, err
	}
	logger.Debug("Ingesting from %s", connector.Root())

	result := &domain.DirectoryResult{Failed: make(map[string]error)}
	report := func(path string, err error) {
		result.Total++
		if err != nil {
			result.Failed[path] = err
		} else {
			result.Successful++
		}
		if progress != nil {
			progress(path, err)
		}
	}

	docs, errs := connector.FullSync(ctx)
	for docs != nil || errs != nil {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		case raw, ok := <-docs:
			if !ok {
				docs = nil
				continue
			}
			_, err := s.ingestRaw(ctx, &raw)
			report(raw.URI, err)
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			var pathErr *fs.PathError
			if errors.As(err, &pathErr) {
				report(pathErr.Path, err)
				continue
			}
			logger.Warn("Connector error: %v", err)
		}
	}

	logger.Info("Ingested %d of %d documents", result.Successful, result.Total)
	return result, nil
}

// Watch applies connector changes to the index until ctx is cancelled or the
// connector stops.
func (s *DocumentService) Watch(
	ctx context.Context, connector driven.Connector, onChange func(change domain.RawDocumentChange, err error),
) error {
	if connector == nil {
		return fmt.Errorf("%w: connector is required", domain.ErrInvalidInput)
	}

	changes, err := connector.Watch(ctx)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case change, ok := <-changes:
			if !ok {
				return nil
			}

			var err error
			switch change.Type {
			case domain.ChangeDeleted:
				err = s.Delete(ctx, filepath.Base(change.Document.URI))
				if errors.Is(err, domain.ErrNotFound) {
					err = nil
				}
			default:
				_, err = s.ingestRaw(ctx, &change.Document)
			}
			logger.Debug("Applied %s for %s: %v", change.Type, change.Document.URI, err)

			if onChange != nil {
				onChange(change, err)
			}
		}
	}
}

func (s *DocumentService) ingestRaw(ctx context.Context, raw *domain.RawDocument) (*domain.IngestResult, error) {
	return s.Upload(ctx, filepath.Base(raw.URI), raw.Content)
}

// List returns every document in name order.
func (s *DocumentService) List(ctx context.Context) ([]domain.Document, error) {
	if s.docStore == nil {
		return nil, domain.ErrNotImplemented
	}
	return s.docStore.ListDocuments(ctx)
}

// Get retrieves a document by ID.
func (s *DocumentService) Get(ctx context.Context, documentID string) (*domain.Document, error) {
	if s.docStore == nil {
		return nil, domain.ErrNotImplemented
	}
	return s.docStore.GetDocument(ctx, documentID)
}

// GetContent returns the extracted text of a document. Records without
// cached text are re-read from stored bytes.
func (s *DocumentService) GetContent(ctx context.Context, documentID string) (string, error) {
	doc, err := s.Get(ctx, documentID)
	if err != nil {
		return "", err
	}
	if doc.Content != "" {
		return doc.Content, nil
	}
	if s.blobs == nil {
		return "", domain.ErrNotImplemented
	}

	content, err := s.blobs.Get(ctx, doc.ID)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", doc.ID, err)
	}
	return s.extract(ctx, doc.ID, doc.Type, content)
}

// Delete removes a document record, its stored bytes and its vectors.
func (s *DocumentService) Delete(ctx context.Context, documentID string) error {
	doc, err := s.Get(ctx, documentID)
	if err != nil {
		return err
	}

	if s.index != nil {
		if err := s.index.Delete(ctx, doc.ChunkIDs...); err != nil {
			return fmt.Errorf("delete vectors of %s: %w", documentID, err)
		}
	}
	if s.blobs != nil {
		if err := s.blobs.Delete(ctx, doc.ID); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("delete file %s: %w", documentID, err)
		}
	}

	logger.Info("Deleted document %s (%d chunks)", documentID, doc.ChunkCount())
	return s.docStore.DeleteDocument(ctx, documentID)
}

// ClearIndex drops every vector. Document records are kept without chunk ids.
func (s *DocumentService) ClearIndex(ctx context.Context) error {
	if s.index == nil || s.docStore == nil {
		return domain.ErrNotImplemented
	}
	if err := s.index.Clear(ctx); err != nil {
		return err
	}

	docs, err := s.docStore.ListDocuments(ctx)
	if err != nil {
		return err
	}
	for i := range docs {
		if len(docs[i].ChunkIDs) == 0 {
			continue
		}
		docs[i].ChunkIDs = nil
		if err := s.docStore.SaveDocument(ctx, &docs[i]); err != nil {
			return fmt.Errorf("save document %s: %w", docs[i].ID, err)
		}
	}
	return nil
}

// validateName returns the cleaned name and its document type.
func validateName(name string) (string, domain.DocumentType, error) {
	name = strings.TrimSpace(name)
	if name == "" || name != filepath.Base(name) || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return "", "", fmt.Errorf("%w: invalid document name %q", domain.ErrInvalidInput, name)
	}
	docType, ok := domain.DocumentTypeFromPath(name)
	if !ok {
		return "", "", fmt.Errorf("%w: %s (supported: %s)",
			domain.ErrUnsupportedType, filepath.Ext(name), strings.Join(domain.SupportedExtensions(), ", "))
	}
	return name, docType, nil
}
