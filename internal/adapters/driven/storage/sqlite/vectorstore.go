package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/vectorstore/vecmath"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// vectorStore implements driven.VectorStore with vectors stored as
// little-endian float32 blobs and brute-force cosine search.
type vectorStore struct {
	store *Store
}

var _ driven.VectorStore = (*vectorStore)(nil)

// GetCollection describes a collection.
func (s *vectorStore) GetCollection(ctx context.Context, name string) (*driven.CollectionInfo, error) {
	info := driven.CollectionInfo{Name: name}
	var distance string
	err := s.store.db.QueryRowContext(ctx, `
		SELECT c.vector_size, c.distance,
			(SELECT COUNT(*) FROM vector_points p WHERE p.collection = c.name)
		FROM vector_collections c WHERE c.name = ?
	`, name).Scan(&info.VectorSize, &distance, &info.PointCount)
	if err != nil {
		return nil, notFound(err, "collection "+name)
	}
	info.Distance = driven.Distance(distance)
	return &info, nil
}

// CreateCollection creates an empty collection.
func (s *vectorStore) CreateCollection(ctx context.Context, name string, vectorSize int, distance driven.Distance) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO vector_collections (name, vector_size, distance, created_at) VALUES (?, ?, ?, ?)
	`, name, vectorSize, string(distance), s.store.now())
	if err != nil {
		if isConstraintError(err) {
			return fmt.Errorf("collection %s: %w", name, domain.ErrAlreadyExists)
		}
		return fmt.Errorf("creating collection: %w", err)
	}
	return nil
}

// DeleteCollection drops a collection; its points cascade.
func (s *vectorStore) DeleteCollection(ctx context.Context, name string) error {
	res, err := s.store.db.ExecContext(ctx, "DELETE FROM vector_collections WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("deleting collection: %w", err)
	}
	return requireAffected(res, "collection "+name)
}

// Upsert inserts or replaces points in one transaction. Every vector must
// match the collection size.
func (s *vectorStore) Upsert(ctx context.Context, name string, points []driven.VectorPoint) error {
	info, err := s.GetCollection(ctx, name)
	if err != nil {
		return err
	}
	for _, p := range points {
		if info.VectorSize > 0 && len(p.Vector) != info.VectorSize {
			return fmt.Errorf("%w: point %s has %d dimensions, collection %s expects %d",
				domain.ErrDimensionMismatch, p.ID, len(p.Vector), name, info.VectorSize)
		}
	}

	return s.store.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO vector_points (collection, id, vector, payload) VALUES (?, ?, ?, ?)
			ON CONFLICT(collection, id) DO UPDATE SET
				vector = excluded.vector,
				payload = excluded.payload
		`)
		if err != nil {
			return fmt.Errorf("preparing statement: %w", err)
		}
		defer stmt.Close()

		for _, p := range points {
			payload := p.Payload
			if payload == nil {
				payload = map[string]any{}
			}
			payloadJSON, err := json.Marshal(payload)
			if err != nil {
				return fmt.Errorf("marshalling payload of %s: %w", p.ID, err)
			}
			blob := vecmath.Encode(p.Vector)
			if blob == nil {
				blob = []byte{}
			}
			if _, err := stmt.ExecContext(ctx, name, p.ID, blob, string(payloadJSON)); err != nil {
				return fmt.Errorf("upserting point %s: %w", p.ID, err)
			}
		}
		return nil
	})
}

// Search scores every point of the collection in insertion order.
func (s *vectorStore) Search(
	ctx context.Context, name string, query []float32, limit int, withPayload bool,
) ([]driven.VectorHit, error) {
	if _, err := s.GetCollection(ctx, name); err != nil {
		return nil, err
	}

	rows, err := s.store.db.QueryContext(ctx,
		"SELECT id, vector, payload FROM vector_points WHERE collection = ? ORDER BY rowid", name)
	if err != nil {
		return nil, fmt.Errorf("querying points: %w", err)
	}
	defer rows.Close()

	var candidates []vecmath.Candidate
	for rows.Next() {
		record, err := scanPoint(rows, withPayload)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, vecmath.Candidate{ID: record.ID, Vector: record.Vector, Payload: record.Payload})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating points: %w", err)
	}

	return vecmath.TopK(query, candidates, limit, withPayload), nil
}

// Retrieve reads points by id in the order requested. Unknown ids are skipped.
func (s *vectorStore) Retrieve(ctx context.Context, name string, ids []string) ([]domain.VectorRecord, error) {
	if _, err := s.GetCollection(ctx, name); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []domain.VectorRecord{}, nil
	}

	args := make([]any, 0, len(ids)+1)
	args = append(args, name)
	for _, id := range ids {
		args = append(args, id)
	}

	rows, err := s.store.db.QueryContext(ctx,
		"SELECT id, vector, payload FROM vector_points WHERE collection = ? AND id IN ("+placeholders(len(ids))+")",
		args...)
	if err != nil {
		return nil, fmt.Errorf("querying points: %w", err)
	}
	defer rows.Close()

	found := make(map[string]domain.VectorRecord, len(ids))
	for rows.Next() {
		record, err := scanPoint(rows, true)
		if err != nil {
			return nil, err
		}
		found[record.ID] = *record
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating points: %w", err)
	}

	records := make([]domain.VectorRecord, 0, len(found))
	for _, id := range ids {
		if r, ok := found[id]; ok {
			records = append(records, r)
			delete(found, id)
		}
	}
	return records, nil
}

// Delete removes points. Unknown ids are ignored.
func (s *vectorStore) Delete(ctx context.Context, name string, ids []string) error {
	if _, err := s.GetCollection(ctx, name); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	args := make([]any, 0, len(ids)+1)
	args = append(args, name)
	for _, id := range ids {
		args = append(args, id)
	}
	_, err := s.store.db.ExecContext(ctx,
		"DELETE FROM vector_points WHERE collection = ? AND id IN ("+placeholders(len(ids))+")", args...)
	if err != nil {
		return fmt.Errorf("deleting points: %w", err)
	}
	return nil
}

// Close is a no-op; the owning Store closes the database.
func (s *vectorStore) Close() error {
	return nil
}

func scanPoint(rows *sql.Rows, withPayload bool) (*domain.VectorRecord, error) {
	var record domain.VectorRecord
	var blob []byte
	var payloadJSON string
	if err := rows.Scan(&record.ID, &blob, &payloadJSON); err != nil {
		return nil, fmt.Errorf("scanning point: %w", err)
	}

	vector, err := vecmath.Decode(blob)
	if err != nil {
		return nil, fmt.Errorf("decoding point %s: %w", record.ID, err)
	}
	record.Vector = vector

	if withPayload && payloadJSON != "" {
		if err := json.Unmarshal([]byte(payloadJSON), &record.Payload); err != nil {
			return nil, fmt.Errorf("unmarshalling payload of %s: %w", record.ID, err)
		}
	}
	return &record, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
