package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/views/chat"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/views/doccontent"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/views/documents"
)

// Options configures a chat session in the TUI.
type Options struct {
	// SessionID resumes an existing session. Empty starts a new one.
	SessionID string

	// TopK is the number of chunks retrieved per question. Zero uses the default.
	TopK int
}

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles *styles.Styles
	keymap *keymap.KeyMap

	chatView       *chat.View
	documentsView  *documents.View
	docContentView *doccontent.View

	currentView messages.ViewType
	// previousView is where help returns to.
	previousView messages.ViewType

	err    error
	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports, opts Options) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	return &App{
		ports:  ports,
		ctx:    context.Background(),
		styles: s,
		keymap: km,
		chatView: chat.NewView(s, km, ports.Query, ports.Sessions).
			WithSession(opts.SessionID).
			WithTopK(opts.TopK),
		documentsView:  documents.NewView(s, km, ports.Documents),
		docContentView: doccontent.NewView(s, km, ports.Documents),
		currentView:    messages.ViewChat,
	}, nil
}

// WithContext sets the context passed to every service call.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.chatView.WithContext(ctx)
	a.documentsView.WithContext(ctx)
	a.docContentView.WithContext(ctx)
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("sercha-rag"),
		a.chatView.Init(),
	)
}

// Update implements tea.Model.
//
//nolint:gocyclo // central message handler
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		return a.handleKeyMsg(msg)

	case messages.ViewChanged:
		return a, a.switchTo(msg.View)

	case messages.SessionStarted, messages.HistoryLoaded, messages.QueryCompleted:
		// Answers land in the chat even while another view is open.
		a.chatView, cmd = a.chatView.Update(msg)
		a.err = a.chatView.Err()
		return a, cmd

	case messages.DocumentsLoaded, messages.DocumentDeleted:
		a.documentsView, cmd = a.documentsView.Update(msg)
		return a, cmd

	case messages.DocumentSelected:
		a.currentView = messages.ViewDocContent
		return a, a.docContentView.SetDocument(&msg.Document)

	case messages.DocumentContentLoaded:
		a.docContentView, cmd = a.docContentView.Update(msg)
		return a, cmd

	case messages.ErrorOccurred:
		a.err = msg.Err
		switch a.currentView {
		case messages.ViewChat:
			a.chatView, cmd = a.chatView.Update(msg)
		case messages.ViewDocuments:
			a.documentsView, cmd = a.documentsView.Update(msg)
		case messages.ViewDocContent:
			a.docContentView, cmd = a.docContentView.Update(msg)
		case messages.ViewHelp:
		}
		return a, cmd

	case messages.Quit:
		return a, tea.Quit
	}

	// Spinner ticks and cursor blinks belong to the chat view.
	a.chatView, cmd = a.chatView.Update(msg)
	return a, cmd
}

// handleKeyMsg applies global bindings before forwarding keys to the active view.
func (a *App) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	if key.Matches(msg, a.keymap.Quit) {
		return a, tea.Quit
	}

	if key.Matches(msg, a.keymap.Help) {
		if a.currentView == messages.ViewHelp {
			return a, a.switchTo(a.previousView)
		}
		a.previousView = a.currentView
		a.currentView = messages.ViewHelp
		return a, nil
	}

	switch a.currentView {
	case messages.ViewChat:
		if key.Matches(msg, a.keymap.SwitchView) {
			if a.ports.Documents == nil {
				return a, nil
			}
			return a, a.switchTo(messages.ViewDocuments)
		}
		a.chatView, cmd = a.chatView.Update(msg)
		a.err = a.chatView.Err()

	case messages.ViewDocuments:
		a.documentsView, cmd = a.documentsView.Update(msg)

	case messages.ViewDocContent:
		a.docContentView, cmd = a.docContentView.Update(msg)

	case messages.ViewHelp:
		if key.Matches(msg, a.keymap.Back) {
			return a, a.switchTo(a.previousView)
		}
	}
	return a, cmd
}

// switchTo activates a view and runs its initial command.
func (a *App) switchTo(view messages.ViewType) tea.Cmd {
	a.currentView = view
	switch view {
	case messages.ViewDocuments:
		return a.documentsView.Init()
	case messages.ViewChat:
		return a.chatView.Focus()
	case messages.ViewDocContent, messages.ViewHelp:
	}
	return nil
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	switch a.currentView {
	case messages.ViewDocuments:
		return a.documentsView.View()
	case messages.ViewDocContent:
		return a.docContentView.View()
	case messages.ViewHelp:
		return a.viewHelp()
	default:
		return a.chatView.View()
	}
}

// viewHelp renders the keybinding reference.
func (a *App) viewHelp() string {
	var b strings.Builder
	b.WriteString(a.styles.Title.Render("Help"))
	b.WriteString("\n\n")

	sections := []string{"Chat", "Documents", "General"}
	for i, group := range a.keymap.FullHelp() {
		b.WriteString(a.styles.Subtitle.Render(sections[i]))
		b.WriteString("\n")
		for _, binding := range group {
			h := binding.Help()
			b.WriteString(fmt.Sprintf("  %-10s %s\n", h.Key, h.Desc))
		}
		b.WriteString("\n")
	}

	b.WriteString(a.styles.Help.Render("[esc] back"))
	return b.String()
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// SessionID returns the active chat session.
func (a *App) SessionID() string {
	return a.chatView.SessionID()
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has been sized.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions on every view.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.chatView.SetDimensions(width, height)
	a.documentsView.SetDimensions(width, height)
	a.docContentView.SetDimensions(width, height)
}
