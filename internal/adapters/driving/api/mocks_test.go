package api

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

type mockQueryService struct {
	result  *domain.QueryResult
	err     error
	gotTopK int
	gotSess string
}

func (m *mockQueryService) Query(_ context.Context, query, sessionID string, topK int) (*domain.QueryResult, error) {
	m.gotSess, m.gotTopK = sessionID, topK
	if m.err != nil {
		return nil, m.err
	}
	if m.result != nil {
		return m.result, nil
	}
	return &domain.QueryResult{Query: query, ContextualizedQuery: query, Response: "answer", Sources: []domain.SourceRef{}}, nil
}

type mockSessionService struct {
	driving.SessionService
	history []domain.Message
	err     error
}

func (m *mockSessionService) Create(context.Context) (string, error) {
	return "sess-1", m.err
}

func (m *mockSessionService) List(context.Context) ([]domain.SessionSummary, error) {
	return []domain.SessionSummary{{ID: "sess-1", MessageCount: 2}}, m.err
}

func (m *mockSessionService) History(context.Context, string, int) ([]domain.Message, error) {
	return m.history, m.err
}

func (m *mockSessionService) Delete(context.Context, string) error {
	return m.err
}

type mockDocumentService struct {
	driving.DocumentService
	docs      []domain.Document
	uploaded  map[string][]byte
	deleteErr error
	uploadErr error
	notStored bool
}

func (m *mockDocumentService) Upload(_ context.Context, name string, content []byte) (*domain.IngestResult, error) {
	if m.uploadErr != nil {
		return nil, m.uploadErr
	}
	if m.uploaded == nil {
		m.uploaded = map[string][]byte{}
	}
	m.uploaded[name] = content
	return &domain.IngestResult{Document: domain.Document{ID: name, Name: name}, ChunkCount: 2, Stored: !m.notStored}, nil
}

func (m *mockDocumentService) List(context.Context) ([]domain.Document, error) {
	return m.docs, nil
}

func (m *mockDocumentService) Delete(context.Context, string) error {
	return m.deleteErr
}

type mockSearchService struct {
	results []domain.SearchResult
	gotTopK int
}

func (m *mockSearchService) Search(_ context.Context, _ string, topK int) ([]domain.SearchResult, error) {
	m.gotTopK = topK
	return m.results, nil
}

type mockMatchService struct {
	driving.MatchService
	report *domain.MatchReport
	err    error
}

func (m *mockMatchService) MatchProfilesToSOW(context.Context, []string, string) (*domain.MatchReport, error) {
	return m.report, m.err
}

type mockHealthService struct {
	report domain.HealthReport
}

func (m *mockHealthService) Check(context.Context) domain.HealthReport {
	return m.report
}
