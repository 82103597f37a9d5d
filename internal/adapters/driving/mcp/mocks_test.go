package mcp

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// mockQueryService is a mock implementation of driving.QueryService.
type mockQueryService struct {
	result    *domain.QueryResult
	err       error
	sessionID string
	topK      int
}

func (m *mockQueryService) Query(_ context.Context, query, sessionID string, topK int) (*domain.QueryResult, error) {
	m.sessionID = sessionID
	m.topK = topK
	if m.err != nil {
		return nil, m.err
	}
	if m.result != nil {
		return m.result, nil
	}
	return &domain.QueryResult{Query: query, ContextualizedQuery: query, Response: "answer"}, nil
}

// mockSearchService is a mock implementation of driving.SearchService.
type mockSearchService struct {
	results []domain.SearchResult
	err     error
	limit   int
}

func (m *mockSearchService) Search(_ context.Context, _ string, topK int) ([]domain.SearchResult, error) {
	m.limit = topK
	return m.results, m.err
}

// mockSessionService is a mock implementation of driving.SessionService.
type mockSessionService struct {
	id         string
	transcript string
	summaries  []domain.SessionSummary
	err        error
}

func (m *mockSessionService) Create(_ context.Context) (string, error) {
	return m.id, m.err
}

func (m *mockSessionService) Append(_ context.Context, _ string, _ domain.Role, _ string) error {
	return m.err
}

func (m *mockSessionService) History(_ context.Context, _ string, _ int) ([]domain.Message, error) {
	return nil, m.err
}

func (m *mockSessionService) RenderForPrompt(_ context.Context, _ string, _ int) (string, error) {
	return m.transcript, m.err
}

func (m *mockSessionService) Clear(_ context.Context, _ string) error {
	return m.err
}

func (m *mockSessionService) Delete(_ context.Context, _ string) error {
	return m.err
}

func (m *mockSessionService) List(_ context.Context) ([]domain.SessionSummary, error) {
	return m.summaries, m.err
}

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	documents []domain.Document
	document  *domain.Document
	content   string
	ingest    *domain.IngestResult
	err       error
}

func (m *mockDocumentService) Upload(_ context.Context, _ string, _ []byte) (*domain.IngestResult, error) {
	return m.ingest, m.err
}

func (m *mockDocumentService) IngestText(_ context.Context, _, _ string) (*domain.IngestResult, error) {
	return m.ingest, m.err
}

func (m *mockDocumentService) IngestFile(_ context.Context, _ string) (*domain.IngestResult, error) {
	return m.ingest, m.err
}

func (m *mockDocumentService) IngestDirectory(
	_ context.Context, _ driven.Connector, _ func(string, error),
) (*domain.DirectoryResult, error) {
	return &domain.DirectoryResult{}, m.err
}

func (m *mockDocumentService) Watch(
	_ context.Context, _ driven.Connector, _ func(domain.RawDocumentChange, error),
) error {
	return m.err
}

func (m *mockDocumentService) List(_ context.Context) ([]domain.Document, error) {
	return m.documents, m.err
}

func (m *mockDocumentService) Get(_ context.Context, _ string) (*domain.Document, error) {
	return m.document, m.err
}

func (m *mockDocumentService) GetContent(_ context.Context, _ string) (string, error) {
	return m.content, m.err
}

func (m *mockDocumentService) Delete(_ context.Context, _ string) error {
	return m.err
}

func (m *mockDocumentService) ClearIndex(_ context.Context) error {
	return m.err
}

// mockMatchService is a mock implementation of driving.MatchService.
type mockMatchService struct {
	report *domain.MatchReport
	err    error
}

func (m *mockMatchService) MatchProfilesToSOW(_ context.Context, _ []string, _ string) (*domain.MatchReport, error) {
	return m.report, m.err
}

func (m *mockMatchService) MatchTexts(_ []domain.Profile, _ string) []domain.MatchResult {
	return nil
}
