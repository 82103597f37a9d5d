package services

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockEmbeddingService implements driven.EmbeddingService for testing.
// Texts are embedded as [len(text), 1, 0, ...] so similar lengths score close.
type mockEmbeddingService struct {
	mu         sync.Mutex
	dimensions int
	embedErr   error
	batchErr   error
	failBatch  map[int]bool
	batchSizes []int
	calls      int
	vectorFn   func(text string) []float32
}

func newMockEmbedder(dims int) *mockEmbeddingService {
	return &mockEmbeddingService{dimensions: dims}
}

func (m *mockEmbeddingService) vector(text string) []float32 {
	if m.vectorFn != nil {
		return m.vectorFn(text)
	}
	v := make([]float32, m.dimensions)
	if m.dimensions > 0 {
		v[0] = float32(len(text))
	}
	if m.dimensions > 1 {
		v[1] = 1
	}
	return v
}

func (m *mockEmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return m.vector(text), nil
}

func (m *mockEmbeddingService) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	call := m.calls
	m.calls++
	m.batchSizes = append(m.batchSizes, len(texts))
	m.mu.Unlock()

	if m.batchErr != nil || m.failBatch[call] {
		return nil, errors.New("embedding batch failed")
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = m.vector(t)
	}
	return out, nil
}

func (m *mockEmbeddingService) Dimensions() int   { return m.dimensions }
func (m *mockEmbeddingService) ModelName() string { return "mock-embed" }
func (m *mockEmbeddingService) Ping(_ context.Context) error {
	return m.embedErr
}
func (m *mockEmbeddingService) Close() error { return nil }

// mockLLMService implements driven.LLMService for testing. Replies are
// returned in order; the last reply repeats.
type mockLLMService struct {
	mu       sync.Mutex
	replies  []string
	errs     []error
	requests []driven.CompletionRequest
	pingErr  error
}

func (m *mockLLMService) Complete(_ context.Context, req driven.CompletionRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := len(m.requests)
	m.requests = append(m.requests, req)

	var err error
	if i < len(m.errs) {
		err = m.errs[i]
	}
	if err != nil {
		return "", err
	}
	if len(m.replies) == 0 {
		return "", nil
	}
	if i >= len(m.replies) {
		i = len(m.replies) - 1
	}
	return m.replies[i], nil
}

func (m *mockLLMService) ModelName() string              { return "mock-llm" }
func (m *mockLLMService) Ping(_ context.Context) error    { return m.pingErr }
func (m *mockLLMService) Close() error                    { return nil }
func (m *mockLLMService) calls() []driven.CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]driven.CompletionRequest(nil), m.requests...)
}

// mockSearchService implements driving.SearchService for testing.
type mockSearchService struct {
	results []domain.SearchResult
	err     error
	queries []string
	topKs   []int
}

func (m *mockSearchService) Search(_ context.Context, query string, topK int) ([]domain.SearchResult, error) {
	m.queries = append(m.queries, query)
	m.topKs = append(m.topKs, topK)
	if m.err != nil {
		return nil, m.err
	}
	if topK < len(m.results) {
		return m.results[:topK], nil
	}
	return m.results, nil
}

// mockPromptStore implements driven.PromptStore for testing.
type mockPromptStore struct {
	prompts map[string]string
}

func (m *mockPromptStore) Load(name string) (string, error) {
	p, ok := m.prompts[name]
	if !ok {
		return "", domain.ErrNotFound
	}
	return p, nil
}

// mockNormaliserRegistry implements driven.NormaliserRegistry for testing.
// Plain text is returned as is; other types are returned with a prefix so
// tests can tell which path ran. Content "FAIL" produces an error.
type mockNormaliserRegistry struct{}

func (mockNormaliserRegistry) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	content := string(raw.Content)
	if content == "FAIL" {
		return nil, errors.New("corrupt document")
	}
	if raw.MIMEType != domain.DocumentTypeText.MIMEType() {
		content = "converted: " + content
	}
	return &driven.NormaliseResult{Title: raw.URI, Content: strings.TrimSpace(content)}, nil
}

func (mockNormaliserRegistry) Register(driven.Normaliser) {}

func (mockNormaliserRegistry) SupportedMIMETypes() []string {
	return []string{domain.DocumentTypeText.MIMEType()}
}

// mockConnector implements driven.Connector for testing.
type mockConnector struct {
	root        string
	validateErr error
	docs        []domain.RawDocument
	errs        []error
	changes     []domain.RawDocumentChange
	watchErr    error
}

func (m *mockConnector) Root() string { return m.root }

func (m *mockConnector) Validate(_ context.Context) error { return m.validateErr }

func (m *mockConnector) FullSync(_ context.Context) (<-chan domain.RawDocument, <-chan error) {
	docs := make(chan domain.RawDocument, len(m.docs))
	errs := make(chan error, len(m.errs))
	for _, d := range m.docs {
		docs <- d
	}
	for _, e := range m.errs {
		errs <- e
	}
	close(docs)
	close(errs)
	return docs, errs
}

func (m *mockConnector) Watch(_ context.Context) (<-chan domain.RawDocumentChange, error) {
	if m.watchErr != nil {
		return nil, m.watchErr
	}
	ch := make(chan domain.RawDocumentChange, len(m.changes))
	for _, c := range m.changes {
		ch <- c
	}
	close(ch)
	return ch, nil
}

func (m *mockConnector) Close() error { return nil }

// failingVectorStore wraps a VectorStore and fails Upsert.
type failingVectorStore struct {
	driven.VectorStore
	upsertErr error
}

func (f *failingVectorStore) Upsert(ctx context.Context, c string, p []driven.VectorPoint) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	return f.VectorStore.Upsert(ctx, c, p)
}
