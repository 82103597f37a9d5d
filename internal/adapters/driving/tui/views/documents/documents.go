// Package documents provides the documents list view component for the TUI.
package documents

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

var errNoService = errors.New("document service not available")

// chrome is the number of lines used by the title, footer and padding.
const chrome = 8

// View lists uploaded documents. Enter opens a document, d deletes it after a y/N prompt.
type View struct {
	styles *styles.Styles
	keymap *keymap.KeyMap
	svc    driving.DocumentService
	ctx    context.Context

	docs   []domain.Document
	cursor int
	offset int

	// deleting holds the id awaiting confirmation.
	deleting string
	loading  bool
	err      error

	width  int
	height int
}

// NewView creates a new documents view.
func NewView(s *styles.Styles, km *keymap.KeyMap, svc driving.DocumentService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	return &View{styles: s, keymap: km, svc: svc, ctx: context.Background()}
}

// WithContext sets the context for service calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init loads the document list.
func (v *View) Init() tea.Cmd {
	v.deleting = ""
	return v.reload()
}

func (v *View) reload() tea.Cmd {
	v.loading = true
	v.err = nil
	ctx, svc := v.ctx, v.svc
	return func() tea.Msg {
		if svc == nil {
			return messages.DocumentsLoaded{Err: errNoService}
		}
		docs, err := svc.List(ctx)
		return messages.DocumentsLoaded{Documents: docs, Err: err}
	}
}

func (v *View) remove(id string) tea.Cmd {
	ctx, svc := v.ctx, v.svc
	return func() tea.Msg {
		if svc == nil {
			return messages.DocumentDeleted{DocumentID: id, Err: errNoService}
		}
		return messages.DocumentDeleted{DocumentID: id, Err: svc.Delete(ctx, id)}
	}
}

// Update handles messages for the documents view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)

	case tea.KeyMsg:
		if v.deleting != "" {
			return v, v.confirm(msg)
		}
		return v, v.handleKey(msg)

	case messages.DocumentsLoaded:
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			break
		}
		v.docs = msg.Documents
		v.move(0)

	case messages.DocumentDeleted:
		if msg.Err != nil {
			v.err = msg.Err
			break
		}
		return v, v.reload()

	case messages.ErrorOccurred:
		v.err = msg.Err
	}
	return v, nil
}

func (v *View) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, v.keymap.Up):
		v.move(-1)
	case key.Matches(msg, v.keymap.Down):
		v.move(1)
	case key.Matches(msg, v.keymap.Select):
		if doc := v.SelectedDocument(); doc != nil {
			selected := *doc
			return func() tea.Msg { return messages.DocumentSelected{Document: selected} }
		}
	case key.Matches(msg, v.keymap.Delete):
		if doc := v.SelectedDocument(); doc != nil {
			v.deleting = doc.ID
		}
	case key.Matches(msg, v.keymap.Reload):
		return v.reload()
	case key.Matches(msg, v.keymap.Back), key.Matches(msg, v.keymap.SwitchView):
		return func() tea.Msg { return messages.ViewChanged{View: messages.ViewChat} }
	}
	return nil
}

// confirm deletes on y. Any other key cancels.
func (v *View) confirm(msg tea.KeyMsg) tea.Cmd {
	id := v.deleting
	v.deleting = ""
	if msg.String() != "y" {
		return nil
	}
	return v.remove(id)
}

// move shifts the cursor by delta, clamps it to the list and scrolls it into view.
func (v *View) move(delta int) {
	v.cursor = min(max(v.cursor+delta, 0), max(len(v.docs)-1, 0))

	rows := v.rows()
	switch {
	case v.cursor < v.offset:
		v.offset = v.cursor
	case v.cursor >= v.offset+rows:
		v.offset = v.cursor - rows + 1
	}
}

func (v *View) rows() int {
	return max(v.height-chrome, 1)
}

// View renders the documents view.
func (v *View) View() string {
	var b strings.Builder
	b.WriteString(v.styles.Title.Render(fmt.Sprintf("Documents (%d)", len(v.docs))))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading documents..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	case len(v.docs) == 0:
		b.WriteString(v.styles.Muted.Render("No documents uploaded. Use `sercha-rag document upload` to add some."))
	default:
		b.WriteString(v.renderRows())
	}

	b.WriteString("\n\n")
	if v.deleting != "" {
		b.WriteString(v.styles.Warning.Render(fmt.Sprintf("Delete %s and its vectors? [y/N]", v.deleting)))
	} else {
		b.WriteString(v.renderFooter())
	}
	return b.String()
}

func (v *View) renderRows() string {
	end := min(v.offset+v.rows(), len(v.docs))
	nameWidth := max(v.width/2-4, 10)

	lines := make([]string, 0, end-v.offset+2)
	for i := v.offset; i < end; i++ {
		lines = append(lines, v.renderRow(&v.docs[i], i == v.cursor, nameWidth))
	}
	if len(v.docs) > v.rows() {
		lines = append(lines, "", v.styles.Muted.Render(
			fmt.Sprintf("  [%d-%d of %d]", v.offset+1, end, len(v.docs))))
	}
	return strings.Join(lines, "\n")
}

func (v *View) renderRow(doc *domain.Document, selected bool, nameWidth int) string {
	name := doc.ID
	if len(name) > nameWidth {
		name = name[:nameWidth-3] + "..."
	}
	meta := fmt.Sprintf("%-5s %4d chunks  %s", doc.Type, doc.ChunkCount(), humanize.IBytes(uint64(max(doc.Size, 0))))
	if !doc.CreatedAt.IsZero() {
		meta += "  " + humanize.Time(doc.CreatedAt)
	}

	if selected {
		return v.styles.Selected.Render(fmt.Sprintf("> %-*s  %s", nameWidth, name, meta))
	}
	return v.styles.Normal.Render(fmt.Sprintf("  %-*s  ", nameWidth, name)) + v.styles.Muted.Render(meta)
}

func (v *View) renderFooter() string {
	bindings := v.keymap.DocumentsHelp()
	parts := make([]string, len(bindings))
	for i, b := range bindings {
		h := b.Help()
		parts[i] = fmt.Sprintf("[%s] %s", h.Key, h.Desc)
	}
	return v.styles.Help.Render(strings.Join(parts, "  "))
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.move(0)
}

// Documents returns the current list of documents.
func (v *View) Documents() []domain.Document {
	return v.docs
}

// SelectedIndex returns the cursor position.
func (v *View) SelectedIndex() int {
	return v.cursor
}

// SelectedDocument returns the document under the cursor, or nil when the list is empty.
func (v *View) SelectedDocument() *domain.Document {
	if v.cursor < len(v.docs) {
		return &v.docs[v.cursor]
	}
	return nil
}

// IsConfirmingDelete reports whether a delete awaits confirmation.
func (v *View) IsConfirmingDelete() bool {
	return v.deleting != ""
}

// Loading reports whether the list is being fetched.
func (v *View) Loading() bool {
	return v.loading
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
