// Package status provides the chat status bar.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/styles"
)

// State is what the bar reports on its left side.
type State string

const (
	StateReady    State = "ready"
	StateThinking State = "thinking"
	StateError    State = "error"
)

// sessionIDWidth is how much of a session id the bar shows.
const sessionIDWidth = 8

// Bar shows the active session and its turn count, the chat state, and key hints.
// It is passive: the chat view drives it through the setters.
type Bar struct {
	styles *styles.Styles
	hints  string

	state     State
	message   string
	sessionID string
	turns     int
	width     int
}

// NewBar creates a status bar. Nil arguments use the defaults.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	bindings := km.ShortHelp()
	hints := make([]string, len(bindings))
	for i, b := range bindings {
		h := b.Help()
		hints[i] = h.Key + ": " + h.Desc
	}

	return &Bar{
		styles: s,
		hints:  s.Muted.Render(strings.Join(hints, " | ")),
		state:  StateReady,
		width:  80,
	}
}

// View renders the bar on one line padded to its width. Hints are dropped
// when they do not fit beside the status.
func (s *Bar) View() string {
	inner := max(s.width-s.styles.StatusBar.GetHorizontalFrameSize(), 1)
	left := s.session() + s.status()

	line := left
	if gap := inner - lipgloss.Width(left) - lipgloss.Width(s.hints); gap >= 1 {
		line += strings.Repeat(" ", gap) + s.hints
	}
	return s.styles.StatusBar.Width(s.width).MaxHeight(1).Render(line)
}

func (s *Bar) session() string {
	if s.sessionID == "" {
		return ""
	}
	id := s.sessionID
	if len(id) > sessionIDWidth {
		id = id[:sessionIDWidth]
	}
	return s.styles.Subtitle.Render(id) + s.styles.Muted.Render(fmt.Sprintf(" (%d turns) ", s.turns))
}

// status renders the state. A message in the ready state is a warning, such as a degraded answer.
func (s *Bar) status() string {
	switch s.state {
	case StateThinking:
		return s.styles.Muted.Render("Thinking...")
	case StateError:
		if s.message == "" {
			return s.styles.Error.Render("Error")
		}
		return s.styles.Error.Render("Error: " + s.message)
	default:
		if s.message == "" {
			return s.styles.Muted.Render("Ready")
		}
		return s.styles.Warning.Render(s.message)
	}
}

func (s *Bar) SetState(state State) { s.state = state }
func (s *Bar) State() State         { return s.state }

func (s *Bar) SetMessage(message string) { s.message = message }
func (s *Bar) Message() string           { return s.message }

// SetSession sets the active session id and its number of answered questions.
func (s *Bar) SetSession(id string, turns int) {
	s.sessionID = id
	s.turns = turns
}

func (s *Bar) SessionID() string { return s.sessionID }
func (s *Bar) Turns() int        { return s.turns }

func (s *Bar) SetWidth(width int) { s.width = width }
func (s *Bar) Width() int         { return s.width }

// Clear resets the state and message. The session is kept.
func (s *Bar) Clear() {
	s.state = StateReady
	s.message = ""
}
