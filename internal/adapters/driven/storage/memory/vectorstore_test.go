package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

func newTestVectorStore(t *testing.T) *VectorStore {
	t.Helper()
	s := NewVectorStore()
	require.NoError(t, s.CreateCollection(context.Background(), "docs", 2, driven.DistanceCosine))
	return s
}

func TestVectorStore_Collections(t *testing.T) {
	ctx := context.Background()
	s := NewVectorStore()

	_, err := s.GetCollection(ctx, "docs")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, s.CreateCollection(ctx, "docs", 3, driven.DistanceCosine))
	assert.ErrorIs(t, s.CreateCollection(ctx, "docs", 3, driven.DistanceCosine), domain.ErrAlreadyExists)

	info, err := s.GetCollection(ctx, "docs")
	require.NoError(t, err)
	assert.Equal(t, 3, info.VectorSize)
	assert.Equal(t, driven.DistanceCosine, info.Distance)
	assert.Equal(t, 0, info.PointCount)

	require.NoError(t, s.DeleteCollection(ctx, "docs"))
	assert.ErrorIs(t, s.DeleteCollection(ctx, "docs"), domain.ErrNotFound)
}

func TestVectorStore_UpsertSearch(t *testing.T) {
	ctx := context.Background()
	s := newTestVectorStore(t)

	require.NoError(t, s.Upsert(ctx, "docs", []driven.VectorPoint{
		{ID: "x", Vector: []float32{1, 0}, Payload: map[string]any{"text": "east"}},
		{ID: "y", Vector: []float32{0, 1}, Payload: map[string]any{"text": "north"}},
		{ID: "z", Vector: []float32{0, 0}, Payload: map[string]any{"text": "zero"}},
	}))

	hits, err := s.Search(ctx, "docs", []float32{0.9, 0.1}, 2, true)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "x", hits[0].ID)
	assert.Equal(t, "east", hits[0].Payload["text"])
	assert.Greater(t, hits[0].Score, hits[1].Score)

	info, err := s.GetCollection(ctx, "docs")
	require.NoError(t, err)
	assert.Equal(t, 3, info.PointCount)
}

func TestVectorStore_UpsertReplacesAndRejectsWrongSize(t *testing.T) {
	ctx := context.Background()
	s := newTestVectorStore(t)

	require.NoError(t, s.Upsert(ctx, "docs", []driven.VectorPoint{{ID: "x", Vector: []float32{1, 0}}}))
	require.NoError(t, s.Upsert(ctx, "docs", []driven.VectorPoint{{ID: "x", Vector: []float32{0, 1}}}))

	recs, err := s.Retrieve(ctx, "docs", []string{"x"})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, []float32{0, 1}, recs[0].Vector)

	err = s.Upsert(ctx, "docs", []driven.VectorPoint{{ID: "bad", Vector: []float32{1, 2, 3}}})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)

	err = s.Upsert(ctx, "missing", []driven.VectorPoint{{ID: "x", Vector: []float32{1, 0}}})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestVectorStore_RetrieveAndDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestVectorStore(t)

	require.NoError(t, s.Upsert(ctx, "docs", []driven.VectorPoint{
		{ID: "a", Vector: []float32{1, 0}, Payload: map[string]any{"source": "a.txt"}},
		{ID: "b", Vector: []float32{0, 1}},
	}))

	recs, err := s.Retrieve(ctx, "docs", []string{"a", "unknown"})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "a.txt", recs[0].Payload["source"])

	require.NoError(t, s.Delete(ctx, "docs", []string{"a", "unknown"}))
	hits, err := s.Search(ctx, "docs", []float32{1, 0}, 10, false)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "b", hits[0].ID)
	assert.Nil(t, hits[0].Payload)
}

func TestVectorStore_PayloadIsCopied(t *testing.T) {
	ctx := context.Background()
	s := newTestVectorStore(t)

	payload := map[string]any{"text": "original"}
	require.NoError(t, s.Upsert(ctx, "docs", []driven.VectorPoint{{ID: "a", Vector: []float32{1, 0}, Payload: payload}}))
	payload["text"] = "mutated"

	recs, err := s.Retrieve(ctx, "docs", []string{"a"})
	require.NoError(t, err)
	assert.Equal(t, "original", recs[0].Payload["text"])
}
