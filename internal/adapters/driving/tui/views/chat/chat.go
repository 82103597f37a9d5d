// Package chat provides the conversation view for the TUI.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

// ErrNoSession is reported when a question is sent before a session exists.
var ErrNoSession = errors.New("no active session")

// entry is one rendered turn of the transcript.
type entry struct {
	role      domain.Role
	text      string
	rewritten string
	sources   []domain.SourceRef
	degraded  []domain.Degradation
}

// View shows the session transcript above a question input.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.ChatInput
	viewport  viewport.Model
	spinner   spinner.Model
	statusbar *status.Bar

	queryService   driving.QueryService
	sessionService driving.SessionService
	ctx            context.Context

	sessionID string
	topK      int
	entries   []entry
	pending   bool

	width  int
	height int
	ready  bool
	err    error
}

// NewView creates a new chat view. A topK below one uses the query default.
func NewView(
	s *styles.Styles,
	km *keymap.KeyMap,
	queryService driving.QueryService,
	sessionService driving.SessionService,
) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = s.AssistantLabel

	v := &View{
		styles:         s,
		keymap:         km,
		input:          input.NewChatInput(s),
		viewport:       viewport.New(80, 16),
		spinner:        sp,
		statusbar:      status.NewBar(s, km),
		queryService:   queryService,
		sessionService: sessionService,
		ctx:            context.Background(),
		width:          80,
		height:         24,
	}
	v.refresh()
	return v
}

// WithContext sets the context for service calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// WithTopK sets the number of chunks retrieved per question.
func (v *View) WithTopK(topK int) *View {
	v.topK = topK
	return v
}

// WithSession resumes an existing session instead of creating one on Init.
func (v *View) WithSession(sessionID string) *View {
	v.sessionID = sessionID
	return v
}

// Init starts or resumes the session.
func (v *View) Init() tea.Cmd {
	if v.sessionID != "" {
		return tea.Batch(v.input.Init(), v.loadHistory(v.sessionID))
	}
	return tea.Batch(v.input.Init(), v.newSession())
}

// newSession returns a command that creates a session.
func (v *View) newSession() tea.Cmd {
	ctx := v.ctx
	sessions := v.sessionService
	return func() tea.Msg {
		if sessions == nil {
			return messages.SessionStarted{Err: fmt.Errorf("session service not available")}
		}
		id, err := sessions.Create(ctx)
		return messages.SessionStarted{SessionID: id, Err: err}
	}
}

// loadHistory returns a command that reads a resumed session.
func (v *View) loadHistory(sessionID string) tea.Cmd {
	ctx := v.ctx
	sessions := v.sessionService
	return func() tea.Msg {
		if sessions == nil {
			return messages.HistoryLoaded{SessionID: sessionID}
		}
		msgs, err := sessions.History(ctx, sessionID, 0)
		return messages.HistoryLoaded{SessionID: sessionID, Messages: msgs, Err: err}
	}
}

// ask returns a command that answers a question.
func (v *View) ask(question string) tea.Cmd {
	ctx := v.ctx
	svc := v.queryService
	sessionID := v.sessionID
	topK := v.topK
	return func() tea.Msg {
		if svc == nil {
			return messages.QueryCompleted{Query: question, Err: fmt.Errorf("query service not available")}
		}
		result, err := svc.Query(ctx, question, sessionID, topK)
		return messages.QueryCompleted{Query: question, Result: result, Err: err}
	}
}

// Update handles messages for the chat view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.SessionStarted:
		v.handleSessionStarted(msg)
		return v, nil

	case messages.HistoryLoaded:
		v.handleHistoryLoaded(msg)
		return v, nil

	case messages.QueryCompleted:
		v.handleQueryCompleted(msg)
		return v, nil

	case spinner.TickMsg:
		if !v.pending {
			return v, nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		v.refresh()
		return v, cmd

	case messages.ErrorOccurred:
		v.setError(msg.Err)
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// handleKeyMsg processes keyboard input.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keymap.Send):
		return v, v.submit()
	case key.Matches(msg, v.keymap.NewSession):
		if v.pending {
			return v, nil
		}
		return v, v.newSession()
	case key.Matches(msg, v.keymap.ScrollUp):
		v.viewport.PageUp()
		return v, nil
	case key.Matches(msg, v.keymap.ScrollDown):
		v.viewport.PageDown()
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// submit sends the typed question. One question is in flight at a time.
func (v *View) submit() tea.Cmd {
	question := strings.TrimSpace(v.input.Value())
	if question == "" || v.pending {
		return nil
	}
	if v.sessionID == "" {
		v.setError(ErrNoSession)
		return nil
	}

	v.entries = append(v.entries, entry{role: domain.RoleUser, text: question})
	v.input.Reset()
	v.pending = true
	v.err = nil
	v.statusbar.Clear()
	v.statusbar.SetState(status.StateThinking)
	v.refresh()

	return tea.Batch(v.ask(question), v.spinner.Tick)
}

func (v *View) handleSessionStarted(msg messages.SessionStarted) {
	if msg.Err != nil {
		v.setError(fmt.Errorf("starting session: %w", msg.Err))
		return
	}
	v.sessionID = msg.SessionID
	v.entries = nil
	v.err = nil
	v.statusbar.Clear()
	v.refresh()
}

func (v *View) handleHistoryLoaded(msg messages.HistoryLoaded) {
	if msg.Err != nil {
		v.setError(fmt.Errorf("loading session: %w", msg.Err))
		return
	}
	v.sessionID = msg.SessionID
	v.entries = make([]entry, 0, len(msg.Messages))
	for _, m := range msg.Messages {
		v.entries = append(v.entries, entry{role: m.Role, text: m.Content})
	}
	v.refresh()
}

func (v *View) handleQueryCompleted(msg messages.QueryCompleted) {
	v.pending = false
	if msg.Err != nil {
		v.setError(msg.Err)
		return
	}
	if msg.Result == nil {
		v.statusbar.Clear()
		v.refresh()
		return
	}

	e := entry{
		role:     domain.RoleAssistant,
		text:     msg.Result.Response,
		sources:  msg.Result.Sources,
		degraded: msg.Result.Degraded,
	}
	if msg.Result.ContextualizedQuery != "" && msg.Result.ContextualizedQuery != msg.Query {
		e.rewritten = msg.Result.ContextualizedQuery
	}
	v.entries = append(v.entries, e)

	v.statusbar.Clear()
	if len(e.degraded) > 0 {
		names := make([]string, len(e.degraded))
		for i, d := range e.degraded {
			names[i] = string(d)
		}
		v.statusbar.SetMessage("degraded: " + strings.Join(names, ", "))
	}
	v.refresh()
}

func (v *View) setError(err error) {
	v.err = err
	v.statusbar.SetState(status.StateError)
	v.statusbar.SetMessage(err.Error())
	v.refresh()
}

// turns counts answered questions.
func (v *View) turns() int {
	n := 0
	for _, e := range v.entries {
		if e.role == domain.RoleAssistant {
			n++
		}
	}
	return n
}

// refresh re-renders the transcript into the viewport and keeps it pinned to the end.
func (v *View) refresh() {
	v.statusbar.SetSession(v.sessionID, v.turns())
	v.viewport.SetContent(v.renderTranscript())
	v.viewport.GotoBottom()
}

func (v *View) renderTranscript() string {
	if len(v.entries) == 0 && !v.pending {
		return v.styles.Muted.Render("Ask anything about your uploaded documents.")
	}

	wrap := lipgloss.NewStyle().Width(max(v.viewport.Width-2, 20))
	var b strings.Builder
	for i, e := range v.entries {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(v.styles.Speaker(e.role))
		b.WriteString("\n")
		if e.rewritten != "" {
			b.WriteString(v.styles.Muted.Render(fmt.Sprintf("Searching for: %s", e.rewritten)))
			b.WriteString("\n")
		}
		b.WriteString(wrap.Render(e.text))
		b.WriteString("\n")
		for _, src := range e.sources {
			b.WriteString(v.styles.Relevance(src.Score).Render(
				fmt.Sprintf("  %s #%d (%.2f)", src.Source, src.ChunkIndex, src.Score)))
			b.WriteString("\n")
		}
	}
	if v.pending {
		b.WriteString("\n")
		b.WriteString(v.spinner.View())
		b.WriteString(v.styles.Muted.Render(" thinking"))
	}
	return b.String()
}

// View renders the chat view.
func (v *View) View() string {
	title := v.styles.Title.Render("sercha-rag")
	transcript := v.styles.Transcript.Render(v.viewport.View())
	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		transcript,
		v.input.View(),
		v.statusbar.View(),
	)
}

// SetDimensions sizes the transcript to fill what the title, input and status bar leave.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	frameW, frameH := v.styles.Transcript.GetFrameSize()
	// title + input box (3 lines) + status bar
	reserved := 1 + 3 + 1 + frameH
	v.viewport.Width = max(width-frameW, 20)
	v.viewport.Height = max(height-reserved, 3)
	v.input.SetWidth(width)
	v.statusbar.SetWidth(width)
	v.refresh()
}

// Focus returns keyboard focus to the question input.
func (v *View) Focus() tea.Cmd {
	return v.input.Focus()
}

// Reset clears the input and any error. The session is kept.
func (v *View) Reset() {
	v.input.Reset()
	v.err = nil
	v.statusbar.Clear()
}

// SessionID returns the active session id.
func (v *View) SessionID() string {
	return v.sessionID
}

// Pending reports whether a question is awaiting its answer.
func (v *View) Pending() bool {
	return v.pending
}

// Transcript returns the rendered transcript text.
func (v *View) Transcript() string {
	return v.renderTranscript()
}

// Turns returns the number of answered questions shown.
func (v *View) Turns() int {
	return v.turns()
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}

// Ready reports whether the view has been sized.
func (v *View) Ready() bool {
	return v.ready
}
