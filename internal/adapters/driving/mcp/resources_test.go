package mcp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

func TestExtractID(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		kind     string
		expected string
	}{
		{name: "valid document URI", uri: "sercha-rag://documents/doc.txt", kind: "documents/", expected: "doc.txt"},
		{name: "valid session URI", uri: "sercha-rag://sessions/abc123", kind: "sessions/", expected: "abc123"},
		{name: "wrong kind", uri: "sercha-rag://sessions/abc123", kind: "documents/", expected: ""},
		{name: "invalid prefix", uri: "file://documents/doc.txt", kind: "documents/", expected: ""},
		{name: "nested path", uri: "sercha-rag://documents/a/b", kind: "documents/", expected: ""},
		{name: "empty URI", uri: "", kind: "documents/", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractID(tt.uri, tt.kind))
		})
	}
}

// Helper to create a ReadResourceRequest with the given URI.
func makeReadResourceRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func TestServer_handleDocumentsResource(t *testing.T) {
	ctx := context.Background()

	t.Run("nil document service returns not found", func(t *testing.T) {
		server := newTestServer(t, &Ports{Query: &mockQueryService{}})

		_, err := server.handleDocumentsResource(ctx, makeReadResourceRequest("sercha-rag://documents"))

		require.Error(t, err)
	})

	t.Run("returns documents successfully", func(t *testing.T) {
		docs := &mockDocumentService{documents: []domain.Document{
			{ID: "readme.txt", Type: domain.DocumentTypeText},
			{ID: "guide.pdf", Type: domain.DocumentTypePDF},
		}}
		server := newTestServer(t, &Ports{Query: &mockQueryService{}, Documents: docs})

		result, err := server.handleDocumentsResource(ctx, makeReadResourceRequest("sercha-rag://documents"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "application/json", result.Contents[0].MIMEType)
		assert.Contains(t, result.Contents[0].Text, "readme.txt")
		assert.Contains(t, result.Contents[0].Text, "guide.pdf")
	})

	t.Run("returns error on list failure", func(t *testing.T) {
		docs := &mockDocumentService{err: errors.New("storage error")}
		server := newTestServer(t, &Ports{Query: &mockQueryService{}, Documents: docs})

		_, err := server.handleDocumentsResource(ctx, makeReadResourceRequest("sercha-rag://documents"))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "listing documents")
	})

	t.Run("handles empty document list", func(t *testing.T) {
		docs := &mockDocumentService{documents: []domain.Document{}}
		server := newTestServer(t, &Ports{Query: &mockQueryService{}, Documents: docs})

		result, err := server.handleDocumentsResource(ctx, makeReadResourceRequest("sercha-rag://documents"))

		require.NoError(t, err)
		assert.Equal(t, "[]", result.Contents[0].Text)
	})
}

func TestServer_handleDocumentContentResource(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid URI returns not found", func(t *testing.T) {
		server := newTestServer(t, &Ports{Query: &mockQueryService{}, Documents: &mockDocumentService{}})

		_, err := server.handleDocumentContentResource(ctx, makeReadResourceRequest("sercha-rag://invalid/uri"))

		require.Error(t, err)
	})

	t.Run("returns content successfully", func(t *testing.T) {
		docs := &mockDocumentService{content: "Hello World\n\nThis is the document content."}
		server := newTestServer(t, &Ports{Query: &mockQueryService{}, Documents: docs})

		result, err := server.handleDocumentContentResource(ctx, makeReadResourceRequest("sercha-rag://documents/doc.txt"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "Hello World\n\nThis is the document content.", result.Contents[0].Text)
		assert.Equal(t, "text/plain", result.Contents[0].MIMEType)
	})

	t.Run("returns error on get content failure", func(t *testing.T) {
		docs := &mockDocumentService{err: errors.New("disk failure")}
		server := newTestServer(t, &Ports{Query: &mockQueryService{}, Documents: docs})

		_, err := server.handleDocumentContentResource(ctx, makeReadResourceRequest("sercha-rag://documents/doc.txt"))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "getting document content")
	})

	t.Run("unknown document is a resource not found error", func(t *testing.T) {
		docs := &mockDocumentService{err: domain.ErrNotFound}
		server := newTestServer(t, &Ports{Query: &mockQueryService{}, Documents: docs})

		_, err := server.handleDocumentContentResource(ctx, makeReadResourceRequest("sercha-rag://documents/doc.txt"))

		require.Error(t, err)
		assert.NotErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestServer_handleSessionResource(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the transcript", func(t *testing.T) {
		sessions := &mockSessionService{transcript: "Human: hi\n\nAssistant: hello"}
		server := newTestServer(t, &Ports{Query: &mockQueryService{}, Sessions: sessions})

		result, err := server.handleSessionResource(ctx, makeReadResourceRequest("sercha-rag://sessions/abc"))

		require.NoError(t, err)
		assert.Equal(t, "Human: hi\n\nAssistant: hello", result.Contents[0].Text)
	})

	t.Run("missing id returns not found", func(t *testing.T) {
		server := newTestServer(t, &Ports{Query: &mockQueryService{}, Sessions: &mockSessionService{}})

		_, err := server.handleSessionResource(ctx, makeReadResourceRequest("sercha-rag://sessions/"))

		require.Error(t, err)
	})

	t.Run("nil session service returns not found", func(t *testing.T) {
		server := newTestServer(t, &Ports{Query: &mockQueryService{}})

		_, err := server.handleSessionResource(ctx, makeReadResourceRequest("sercha-rag://sessions/abc"))

		require.Error(t, err)
	})
}

func TestServer_handleSessionsResource(t *testing.T) {
	ctx := context.Background()
	updated := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	sessions := &mockSessionService{summaries: []domain.SessionSummary{
		{ID: "s1", MessageCount: 4, UpdatedAt: updated},
	}}
	server := newTestServer(t, &Ports{Query: &mockQueryService{}, Sessions: sessions})

	result, err := server.handleSessionsResource(ctx, makeReadResourceRequest("sercha-rag://sessions"))

	require.NoError(t, err)
	require.Len(t, result.Contents, 1)
	assert.Equal(t, "application/json", result.Contents[0].MIMEType)
	assert.JSONEq(t, `[{"id":"s1","messages":4,"updated_at":"2026-03-01T09:30:00Z"}]`, result.Contents[0].Text)
}
