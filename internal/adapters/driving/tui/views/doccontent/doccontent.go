// Package doccontent provides the document content view component for the TUI.
package doccontent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

// header and footer lines around the viewport.
const reservedLines = 6

var errNoService = errors.New("document service not available")

// View shows the extracted text of one document.
type View struct {
	styles *styles.Styles
	keymap *keymap.KeyMap
	svc    driving.DocumentService
	ctx    context.Context

	doc     *domain.Document
	content string
	words   int
	pager   viewport.Model
	loading bool
	err     error

	width int
	ready bool
}

// NewView creates a new document content view.
func NewView(s *styles.Styles, km *keymap.KeyMap, svc driving.DocumentService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	return &View{
		styles: s,
		keymap: km,
		svc:    svc,
		ctx:    context.Background(),
		pager:  viewport.New(80, 18),
		width:  80,
	}
}

// WithContext sets the context for service calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init implements the view contract; content loads on SetDocument.
func (v *View) Init() tea.Cmd {
	return nil
}

// SetDocument shows doc and returns the command that fetches its text.
func (v *View) SetDocument(doc *domain.Document) tea.Cmd {
	v.doc = doc
	v.setContent("")
	v.err = nil
	v.loading = true

	ctx, svc := v.ctx, v.svc
	return func() tea.Msg {
		if doc == nil || svc == nil {
			return messages.DocumentContentLoaded{Err: errNoService}
		}
		content, err := svc.GetContent(ctx, doc.ID)
		return messages.DocumentContentLoaded{DocumentID: doc.ID, Content: content, Err: err}
	}
}

// Update handles messages for the document content view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)

	case tea.KeyMsg:
		return v, v.handleKey(msg)

	case messages.DocumentContentLoaded:
		if v.doc != nil && msg.DocumentID != "" && msg.DocumentID != v.doc.ID {
			break
		}
		v.loading = false
		v.err = msg.Err
		if msg.Err == nil {
			v.setContent(msg.Content)
		}

	case messages.ErrorOccurred:
		v.err = msg.Err
	}
	return v, nil
}

func (v *View) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, v.keymap.Back):
		return func() tea.Msg { return messages.ViewChanged{View: messages.ViewDocuments} }
	case key.Matches(msg, v.keymap.Top):
		v.pager.GotoTop()
		return nil
	case key.Matches(msg, v.keymap.Bottom):
		v.pager.GotoBottom()
		return nil
	}

	var cmd tea.Cmd
	v.pager, cmd = v.pager.Update(msg)
	return cmd
}

func (v *View) setContent(content string) {
	v.content = content
	v.words = len(strings.Fields(content))
	v.rewrap()
}

// rewrap fits the content to the pager width and scrolls back to the top.
func (v *View) rewrap() {
	wrap := lipgloss.NewStyle().Width(max(v.pager.Width-2, 20))
	v.pager.SetContent(wrap.Render(v.content))
	v.pager.GotoTop()
}

func (v *View) title() string {
	switch {
	case v.doc == nil:
		return "Document Content"
	case v.doc.Name != "":
		return v.doc.Name
	default:
		return v.doc.ID
	}
}

// View renders the document content view.
func (v *View) View() string {
	header := v.styles.Title.Render(v.title())
	if v.words > 0 {
		header += v.styles.Muted.Render(fmt.Sprintf("  %s words", humanize.Comma(int64(v.words))))
	}

	var body string
	switch {
	case v.loading:
		body = v.styles.Muted.Render("Loading content...")
	case v.err != nil:
		body = v.styles.Error.Render("Error: " + v.err.Error())
	case strings.TrimSpace(v.content) == "":
		body = v.styles.Muted.Render("(No content)")
	default:
		body = v.pager.View() + "\n" +
			v.styles.Muted.Render(fmt.Sprintf("  [%3.f%%]", v.pager.ScrollPercent()*100))
	}

	return strings.Join([]string{
		header,
		strings.Repeat("─", min(max(v.width-4, 1), 60)),
		"",
		body,
		"",
		v.renderFooter(),
	}, "\n")
}

func (v *View) renderFooter() string {
	bindings := v.keymap.ContentHelp()
	parts := make([]string, len(bindings))
	for i, b := range bindings {
		h := b.Help()
		parts[i] = fmt.Sprintf("[%s] %s", h.Key, h.Desc)
	}
	return v.styles.Help.Render("[↑/↓] scroll  " + strings.Join(parts, "  "))
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.ready = true
	v.pager.Width = max(width-2, 20)
	v.pager.Height = max(height-reservedLines, 1)
	v.rewrap()
}

// Document returns the document being shown.
func (v *View) Document() *domain.Document {
	return v.doc
}

// Content returns the document text.
func (v *View) Content() string {
	return v.content
}

// Loading reports whether content is being fetched.
func (v *View) Loading() bool {
	return v.loading
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
