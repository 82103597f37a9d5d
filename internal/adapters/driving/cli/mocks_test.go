package cli

import (
	"bytes"
	"context"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

var testTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// mockSessionService implements driving.SessionService for testing.
type mockSessionService struct {
	created  int
	cleared  []string
	deleted  []string
	messages map[string][]domain.Message
	err      error
}

func (m *mockSessionService) Create(_ context.Context) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.created++
	return "new-session", nil
}

func (m *mockSessionService) Append(_ context.Context, id string, role domain.Role, content string) error {
	if m.messages == nil {
		m.messages = map[string][]domain.Message{}
	}
	m.messages[id] = append(m.messages[id], domain.Message{Role: role, Content: content})
	return m.err
}

func (m *mockSessionService) History(_ context.Context, id string, _ int) ([]domain.Message, error) {
	return m.messages[id], m.err
}

func (m *mockSessionService) RenderForPrompt(_ context.Context, id string, maxMessages int) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	msgs := m.messages[id]
	if maxMessages > 0 && len(msgs) > maxMessages {
		msgs = msgs[len(msgs)-maxMessages:]
	}
	lines := make([]string, len(msgs))
	for i, msg := range msgs {
		lines[i] = msg.Role.Label() + ": " + msg.Content
	}
	return strings.Join(lines, "\n"), nil
}

func (m *mockSessionService) Clear(_ context.Context, id string) error {
	m.cleared = append(m.cleared, id)
	return m.err
}

func (m *mockSessionService) Delete(_ context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return m.err
}

func (m *mockSessionService) List(_ context.Context) ([]domain.SessionSummary, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([]domain.SessionSummary, 0, len(m.messages))
	for id, msgs := range m.messages {
		out = append(out, domain.SessionSummary{ID: id, MessageCount: len(msgs), UpdatedAt: testTime})
	}
	return out, nil
}

// mockDocumentService implements driving.DocumentService for testing.
type mockDocumentService struct {
	docs      []domain.Document
	ingested  []string
	deleted   []string
	cleared   bool
	dirResult *domain.DirectoryResult
	failPaths map[string]error
	err       error
}

func (m *mockDocumentService) Upload(_ context.Context, name string, _ []byte) (*domain.IngestResult, error) {
	return m.result(name)
}

func (m *mockDocumentService) IngestText(_ context.Context, name, _ string) (*domain.IngestResult, error) {
	return m.result(name)
}

func (m *mockDocumentService) IngestFile(_ context.Context, path string) (*domain.IngestResult, error) {
	if err, ok := m.failPaths[path]; ok {
		return nil, err
	}
	return m.result(path)
}

func (m *mockDocumentService) result(name string) (*domain.IngestResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.ingested = append(m.ingested, name)
	return &domain.IngestResult{
		Document:   domain.Document{ID: name, Name: name},
		ChunkCount: 3,
		Stored:     true,
	}, nil
}

func (m *mockDocumentService) IngestDirectory(
	ctx context.Context, connector driven.Connector, progress func(string, error),
) (*domain.DirectoryResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	if progress != nil {
		progress("a.txt", nil)
	}
	if m.dirResult != nil {
		return m.dirResult, nil
	}
	return &domain.DirectoryResult{Successful: 1, Total: 1, Failed: map[string]error{}}, nil
}

func (m *mockDocumentService) Watch(
	ctx context.Context, _ driven.Connector, _ func(domain.RawDocumentChange, error),
) error {
	<-ctx.Done()
	return nil
}

func (m *mockDocumentService) List(_ context.Context) ([]domain.Document, error) {
	return m.docs, m.err
}

func (m *mockDocumentService) Get(_ context.Context, id string) (*domain.Document, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.docs {
		if m.docs[i].ID == id {
			return &m.docs[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockDocumentService) GetContent(ctx context.Context, id string) (string, error) {
	doc, err := m.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return doc.Content, nil
}

func (m *mockDocumentService) Delete(_ context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return m.err
}

func (m *mockDocumentService) ClearIndex(_ context.Context) error {
	m.cleared = true
	return m.err
}

// mockQueryService implements driving.QueryService for testing.
type mockQueryService struct {
	result    *domain.QueryResult
	err       error
	gotQuery  string
	gotSessID string
	gotTopK   int
}

func (m *mockQueryService) Query(_ context.Context, query, sessionID string, topK int) (*domain.QueryResult, error) {
	m.gotQuery, m.gotSessID, m.gotTopK = query, sessionID, topK
	if m.err != nil {
		return nil, m.err
	}
	if m.result != nil {
		return m.result, nil
	}
	return &domain.QueryResult{Query: query, ContextualizedQuery: query, Response: "mock answer"}, nil
}

// mockSearchService implements driving.SearchService for testing.
type mockSearchService struct {
	results  []domain.SearchResult
	err      error
	gotTopK  int
	gotQuery string
}

func (m *mockSearchService) Search(_ context.Context, query string, topK int) ([]domain.SearchResult, error) {
	m.gotQuery, m.gotTopK = query, topK
	return m.results, m.err
}

// mockMatchService implements driving.MatchService for testing.
type mockMatchService struct {
	report     *domain.MatchReport
	err        error
	gotIDs     []string
	gotSOWID   string
	textResult []domain.MatchResult
}

func (m *mockMatchService) MatchProfilesToSOW(_ context.Context, ids []string, sowID string) (*domain.MatchReport, error) {
	m.gotIDs, m.gotSOWID = ids, sowID
	if m.err != nil {
		return nil, m.err
	}
	return m.report, nil
}

func (m *mockMatchService) MatchTexts(_ []domain.Profile, _ string) []domain.MatchResult {
	return m.textResult
}

// mockSettingsService implements driving.SettingsService for testing.
type mockSettingsService struct {
	settings    domain.AppSettings
	set         map[string]string
	err         error
	validateErr error
}

func newMockSettingsService() *mockSettingsService {
	return &mockSettingsService{settings: domain.DefaultAppSettings(), set: map[string]string{}}
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	if m.err != nil {
		return nil, m.err
	}
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(s *domain.AppSettings) error {
	m.settings = *s
	return m.err
}

func (m *mockSettingsService) Set(key, value string) error {
	if m.err != nil {
		return m.err
	}
	m.set[key] = value
	return nil
}

func (m *mockSettingsService) Keys() []string {
	return []string{"chunking.chunk_size", "retrieval.top_k"}
}

func (m *mockSettingsService) SetEmbeddingProvider(p domain.AIProvider, model, apiKey string) error {
	m.settings.Embedding.Provider = p
	m.settings.Embedding.Model = model
	m.settings.Embedding.APIKey = apiKey
	return m.err
}

func (m *mockSettingsService) SetLLMProvider(p domain.AIProvider, model, apiKey string) error {
	m.settings.LLM.Provider = p
	m.settings.LLM.Model = model
	m.settings.LLM.APIKey = apiKey
	return m.err
}

func (m *mockSettingsService) Validate() error                 { return m.validateErr }
func (m *mockSettingsService) GetDefaults() domain.AppSettings { return domain.DefaultAppSettings() }
func (m *mockSettingsService) ValidateEmbeddingConfig() error  { return m.validateErr }
func (m *mockSettingsService) ValidateLLMConfig() error        { return m.validateErr }

// mockHealthService implements driving.HealthService for testing.
type mockHealthService struct {
	report domain.HealthReport
}

func (m *mockHealthService) Check(_ context.Context) domain.HealthReport {
	return m.report
}

// testServices holds the mocks installed by setupTestServices.
type testServices struct {
	sessions  *mockSessionService
	documents *mockDocumentService
	query     *mockQueryService
	search    *mockSearchService
	match     *mockMatchService
	settings  *mockSettingsService
	health    *mockHealthService
}

// setupTestServices installs fresh mocks and returns them with a restore func.
func setupTestServices() (*testServices, func()) {
	ts := &testServices{
		sessions:  &mockSessionService{},
		documents: &mockDocumentService{},
		query:     &mockQueryService{},
		search:    &mockSearchService{},
		match:     &mockMatchService{},
		settings:  newMockSettingsService(),
		health: &mockHealthService{report: domain.HealthReport{
			Status: domain.HealthStatusHealthy,
			Components: []domain.ComponentHealth{
				{Name: "embedding", Configured: true, Healthy: true},
			},
		}},
	}
	SetServices(Services{
		Sessions:  ts.sessions,
		Documents: ts.documents,
		Query:     ts.query,
		Search:    ts.search,
		Match:     ts.match,
		Settings:  ts.settings,
		Health:    ts.health,
	})
	return ts, func() {
		SetServices(Services{})
	}
}

// executeCommand runs the root command with args and returns stdout and stderr.
// Flags are reset first because cobra keeps parsed values between runs.
func executeCommand(args ...string) (string, string, error) {
	resetFlags(rootCmd)

	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}
