package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// MockQueryService implements driving.QueryService for testing.
type MockQueryService struct {
	QueryFunc func(ctx context.Context, query, sessionID string, topK int) (*domain.QueryResult, error)
}

func (m *MockQueryService) Query(ctx context.Context, query, sessionID string, topK int) (*domain.QueryResult, error) {
	if m.QueryFunc != nil {
		return m.QueryFunc(ctx, query, sessionID, topK)
	}
	return &domain.QueryResult{Query: query, ContextualizedQuery: query, Response: "answer"}, nil
}

// MockSessionService implements driving.SessionService for testing.
type MockSessionService struct {
	CreateFunc  func(ctx context.Context) (string, error)
	HistoryFunc func(ctx context.Context, sessionID string, max int) ([]domain.Message, error)
}

func (m *MockSessionService) Create(ctx context.Context) (string, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx)
	}
	return "session-1", nil
}

func (m *MockSessionService) Append(context.Context, string, domain.Role, string) error {
	return nil
}

func (m *MockSessionService) History(ctx context.Context, sessionID string, max int) ([]domain.Message, error) {
	if m.HistoryFunc != nil {
		return m.HistoryFunc(ctx, sessionID, max)
	}
	return nil, nil
}

func (m *MockSessionService) RenderForPrompt(context.Context, string, int) (string, error) {
	return "", nil
}

func (m *MockSessionService) Clear(context.Context, string) error {
	return nil
}

func (m *MockSessionService) Delete(context.Context, string) error {
	return nil
}

func (m *MockSessionService) List(context.Context) ([]domain.SessionSummary, error) {
	return nil, nil
}

func newTestView(q *MockQueryService, s *MockSessionService) *View {
	v := NewView(styles.DefaultStyles(), keymap.DefaultKeyMap(), q, s)
	v.SetDimensions(100, 30)
	return v
}

// startedView returns a view whose session has been created.
func startedView(q *MockQueryService) *View {
	v := newTestView(q, &MockSessionService{})
	v.Update(messages.SessionStarted{SessionID: "session-1"})
	return v
}

func typeText(v *View, text string) {
	for _, r := range text {
		v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

// findQueryCompleted runs a batch command and returns its QueryCompleted message.
func findQueryCompleted(t *testing.T, cmd tea.Cmd) messages.QueryCompleted {
	t.Helper()
	require.NotNil(t, cmd)
	batch, ok := cmd().(tea.BatchMsg)
	require.True(t, ok, "expected a batch command")
	for _, c := range batch {
		if c == nil {
			continue
		}
		if msg, ok := c().(messages.QueryCompleted); ok {
			return msg
		}
	}
	t.Fatal("no QueryCompleted in batch")
	return messages.QueryCompleted{}
}

func TestNewView(t *testing.T) {
	v := NewView(nil, nil, nil, nil)

	require.NotNil(t, v)
	assert.Empty(t, v.SessionID())
	assert.False(t, v.Pending())
	assert.Contains(t, v.Transcript(), "Ask anything")
}

func TestView_Init_CreatesSession(t *testing.T) {
	sessions := &MockSessionService{
		CreateFunc: func(context.Context) (string, error) { return "fresh", nil },
	}
	v := newTestView(&MockQueryService{}, sessions)

	cmd := v.newSession()
	msg := cmd()

	started, ok := msg.(messages.SessionStarted)
	require.True(t, ok)
	assert.Equal(t, "fresh", started.SessionID)
	assert.NotNil(t, v.Init())
}

func TestView_Init_ResumesSession(t *testing.T) {
	sessions := &MockSessionService{
		HistoryFunc: func(_ context.Context, id string, max int) ([]domain.Message, error) {
			assert.Equal(t, "old", id)
			assert.Zero(t, max)
			return []domain.Message{
				{Role: domain.RoleUser, Content: "earlier question"},
				{Role: domain.RoleAssistant, Content: "earlier answer"},
			}, nil
		},
	}
	v := newTestView(&MockQueryService{}, sessions).WithSession("old")

	msg := v.loadHistory("old")()
	v.Update(msg)

	assert.Equal(t, "old", v.SessionID())
	assert.Equal(t, 1, v.Turns())
	assert.Contains(t, v.Transcript(), "earlier question")
	assert.Contains(t, v.Transcript(), "earlier answer")
}

func TestView_SessionStarted_Error(t *testing.T) {
	v := newTestView(&MockQueryService{}, &MockSessionService{})

	v.Update(messages.SessionStarted{Err: errors.New("disk full")})

	require.Error(t, v.Err())
	assert.Contains(t, v.Err().Error(), "disk full")
	assert.Empty(t, v.SessionID())
}

func TestView_NewSession_NoService(t *testing.T) {
	v := NewView(nil, nil, &MockQueryService{}, nil)

	msg := v.newSession()().(messages.SessionStarted)

	assert.Error(t, msg.Err)
}

func TestView_Submit_SendsQuestion(t *testing.T) {
	var gotSession string
	var gotTopK int
	q := &MockQueryService{
		QueryFunc: func(_ context.Context, query, sessionID string, topK int) (*domain.QueryResult, error) {
			gotSession = sessionID
			gotTopK = topK
			return &domain.QueryResult{Query: query, ContextualizedQuery: query, Response: "42"}, nil
		},
	}
	v := startedView(q).WithTopK(4)
	typeText(v, "meaning of life?")

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.True(t, v.Pending())
	assert.Empty(t, v.input.Value())
	assert.Equal(t, status.StateThinking, v.statusbar.State())
	assert.Contains(t, v.Transcript(), "meaning of life?")

	msg := findQueryCompleted(t, cmd)
	assert.Equal(t, "session-1", gotSession)
	assert.Equal(t, 4, gotTopK)

	v.Update(msg)
	assert.False(t, v.Pending())
	assert.Equal(t, 1, v.Turns())
	assert.Contains(t, v.Transcript(), "42")
	assert.Equal(t, status.StateReady, v.statusbar.State())
}

func TestView_Submit_IgnoresBlankInput(t *testing.T) {
	v := startedView(&MockQueryService{})
	typeText(v, "   ")

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
	assert.False(t, v.Pending())
}

func TestView_Submit_OneQuestionAtATime(t *testing.T) {
	v := startedView(&MockQueryService{})
	typeText(v, "first")
	v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	typeText(v, "second")

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
	assert.Equal(t, "second", v.input.Value())
}

func TestView_Submit_WithoutSession(t *testing.T) {
	v := newTestView(&MockQueryService{}, &MockSessionService{})
	typeText(v, "hello")

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
	assert.ErrorIs(t, v.Err(), ErrNoSession)
	assert.Equal(t, status.StateError, v.statusbar.State())
}

func TestView_QueryCompleted_ShowsRewriteAndSources(t *testing.T) {
	v := startedView(&MockQueryService{})
	v.pending = true

	v.Update(messages.QueryCompleted{
		Query: "and its salary?",
		Result: &domain.QueryResult{
			ContextualizedQuery: "what is the salary of the data engineer role?",
			Response:            "About 90k.",
			Sources:             []domain.SourceRef{{Source: "jobs.pdf", ChunkIndex: 3, Score: 0.87}},
		},
	})

	transcript := v.Transcript()
	assert.Contains(t, transcript, "Searching for: what is the salary")
	assert.Contains(t, transcript, "jobs.pdf #3 (0.87)")
}

func TestView_QueryCompleted_Degraded(t *testing.T) {
	v := startedView(&MockQueryService{})

	v.Update(messages.QueryCompleted{
		Query: "q",
		Result: &domain.QueryResult{
			Response: "no context",
			Degraded: []domain.Degradation{domain.DegradedRetrieval},
		},
	})

	assert.Contains(t, v.statusbar.Message(), "retrieval_error")
}

func TestView_QueryCompleted_Error(t *testing.T) {
	v := startedView(&MockQueryService{})
	v.pending = true

	v.Update(messages.QueryCompleted{Query: "q", Err: domain.ErrInvalidInput})

	assert.False(t, v.Pending())
	assert.ErrorIs(t, v.Err(), domain.ErrInvalidInput)
	assert.Equal(t, status.StateError, v.statusbar.State())
}

func TestView_NewSessionKey(t *testing.T) {
	v := startedView(&MockQueryService{})

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyCtrlN})

	require.NotNil(t, cmd)
	_, ok := cmd().(messages.SessionStarted)
	assert.True(t, ok)
}

func TestView_NewSession_ClearsTranscript(t *testing.T) {
	v := startedView(&MockQueryService{})
	v.Update(messages.QueryCompleted{Query: "q", Result: &domain.QueryResult{Response: "a"}})
	require.Equal(t, 1, v.Turns())

	v.Update(messages.SessionStarted{SessionID: "session-2"})

	assert.Equal(t, "session-2", v.SessionID())
	assert.Zero(t, v.Turns())
}

func TestView_SpinnerTick_IgnoredWhenIdle(t *testing.T) {
	v := startedView(&MockQueryService{})

	_, cmd := v.Update(spinner.TickMsg{})

	assert.Nil(t, cmd)
}

func TestView_ErrorOccurred(t *testing.T) {
	v := startedView(&MockQueryService{})

	v.Update(messages.ErrorOccurred{Err: errors.New("boom")})

	assert.EqualError(t, v.Err(), "boom")
}

func TestView_View(t *testing.T) {
	v := startedView(&MockQueryService{})

	out := v.View()

	assert.Contains(t, out, "sercha-rag")
	assert.Contains(t, out, "Ask")
}

func TestView_SetDimensions(t *testing.T) {
	v := NewView(nil, nil, nil, nil)

	v.SetDimensions(120, 40)

	assert.True(t, v.Ready())
	assert.Equal(t, 120, v.statusbar.Width())
	assert.Greater(t, v.viewport.Height, 3)
}

func TestView_Reset(t *testing.T) {
	v := startedView(&MockQueryService{})
	typeText(v, "draft")
	v.Update(messages.ErrorOccurred{Err: errors.New("boom")})

	v.Reset()

	assert.Empty(t, v.input.Value())
	assert.NoError(t, v.Err())
	assert.Equal(t, "session-1", v.SessionID())
}
