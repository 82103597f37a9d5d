package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// documentStore implements driven.DocumentStore.
type documentStore struct {
	store *Store
}

var _ driven.DocumentStore = (*documentStore)(nil)

const documentColumns = "id, name, type, path, size, content, chunk_ids, created_at, updated_at"

// SaveDocument stores or updates a document.
func (s *documentStore) SaveDocument(ctx context.Context, doc *domain.Document) error {
	chunkIDs := doc.ChunkIDs
	if chunkIDs == nil {
		chunkIDs = []string{}
	}
	chunkIDsJSON, err := json.Marshal(chunkIDs)
	if err != nil {
		return fmt.Errorf("marshalling chunk ids: %w", err)
	}

	createdAt, updatedAt := doc.CreatedAt, doc.UpdatedAt
	if createdAt.IsZero() {
		createdAt = s.store.now()
	}
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO documents (`+documentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			type = excluded.type,
			path = excluded.path,
			size = excluded.size,
			content = excluded.content,
			chunk_ids = excluded.chunk_ids,
			updated_at = excluded.updated_at
	`, doc.ID, doc.Name, string(doc.Type), doc.Path, doc.Size, doc.Content,
		string(chunkIDsJSON), createdAt, updatedAt)
	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (s *documentStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx, "SELECT "+documentColumns+" FROM documents WHERE id = ?", id)
	doc, err := scanDocument(row)
	if err != nil {
		return nil, notFound(err, "document "+id)
	}
	return doc, nil
}

// DeleteDocument removes a document record.
func (s *documentStore) DeleteDocument(ctx context.Context, id string) error {
	res, err := s.store.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	return requireAffected(res, "document "+id)
}

// ListDocuments returns every document ordered by name.
func (s *documentStore) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	rows, err := s.store.db.QueryContext(ctx, "SELECT "+documentColumns+" FROM documents ORDER BY name, id")
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	docs := []domain.Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return docs, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanDocument scans a single document row.
func scanDocument(row rowScanner) (*domain.Document, error) {
	var doc domain.Document
	var docType, chunkIDsJSON string

	if err := row.Scan(&doc.ID, &doc.Name, &docType, &doc.Path, &doc.Size, &doc.Content,
		&chunkIDsJSON, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}
	doc.Type = domain.DocumentType(docType)

	if chunkIDsJSON != "" {
		if err := json.Unmarshal([]byte(chunkIDsJSON), &doc.ChunkIDs); err != nil {
			return nil, fmt.Errorf("unmarshalling chunk ids: %w", err)
		}
	}
	return &doc, nil
}
