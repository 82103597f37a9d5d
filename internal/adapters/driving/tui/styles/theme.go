// Package styles holds the lipgloss palette for the chat TUI. Colours are
// adaptive so the transcript stays readable on light and dark terminals.
package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// Relevance thresholds for colouring retrieved chunks.
const (
	StrongMatch = 0.75
	WeakMatch   = 0.5
)

// Theme is the palette. Light is used on light backgrounds, Dark otherwise.
type Theme struct {
	Accent    lipgloss.AdaptiveColor
	Secondary lipgloss.AdaptiveColor
	Text      lipgloss.AdaptiveColor
	Muted     lipgloss.AdaptiveColor
	Good      lipgloss.AdaptiveColor
	Warn      lipgloss.AdaptiveColor
	Bad       lipgloss.AdaptiveColor
	Frame     lipgloss.AdaptiveColor
	Bar       lipgloss.AdaptiveColor
}

// DefaultTheme is a purple and cyan palette.
func DefaultTheme() *Theme {
	return &Theme{
		Accent:    lipgloss.AdaptiveColor{Light: "#6D28D9", Dark: "#7C3AED"},
		Secondary: lipgloss.AdaptiveColor{Light: "#0E7490", Dark: "#06B6D4"},
		Text:      lipgloss.AdaptiveColor{Light: "#1E1E2E", Dark: "#CDD6F4"},
		Muted:     lipgloss.AdaptiveColor{Light: "#5C5F77", Dark: "#6C7086"},
		Good:      lipgloss.AdaptiveColor{Light: "#40A02B", Dark: "#A6E3A1"},
		Warn:      lipgloss.AdaptiveColor{Light: "#DF8E1D", Dark: "#F9E2AF"},
		Bad:       lipgloss.AdaptiveColor{Light: "#D20F39", Dark: "#F38BA8"},
		Frame:     lipgloss.AdaptiveColor{Light: "#ACB0BE", Dark: "#45475A"},
		Bar:       lipgloss.AdaptiveColor{Light: "#E6E9EF", Dark: "#181825"},
	}
}

// Styles are the rendered styles every view shares.
type Styles struct {
	theme *Theme

	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Normal   lipgloss.Style
	Muted    lipgloss.Style
	Selected lipgloss.Style
	Error    lipgloss.Style
	Success  lipgloss.Style
	Warning  lipgloss.Style
	Help     lipgloss.Style
	Border   lipgloss.Style

	InputField lipgloss.Style
	StatusBar  lipgloss.Style

	// Transcript frames the conversation viewport.
	Transcript     lipgloss.Style
	UserLabel      lipgloss.Style
	AssistantLabel lipgloss.Style

	// Source renders a cited chunk under an answer.
	Source lipgloss.Style
}

// NewStyles builds styles from theme, or from DefaultTheme when nil.
func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}
	fg := func(c lipgloss.TerminalColor) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(c)
	}
	framed := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(theme.Frame)

	return &Styles{
		theme:    theme,
		Title:    fg(theme.Accent).Bold(true),
		Subtitle: fg(theme.Secondary).Bold(true),
		Normal:   fg(theme.Text),
		Muted:    fg(theme.Muted),
		Selected: fg(theme.Text).Background(theme.Accent).Bold(true),
		Error:    fg(theme.Bad),
		Success:  fg(theme.Good),
		Warning:  fg(theme.Warn),
		Help:     fg(theme.Muted),
		Border:   framed,

		InputField: framed.Padding(0, 1),
		StatusBar:  fg(theme.Muted).Background(theme.Bar).Padding(0, 1),

		Transcript:     framed.Padding(0, 1),
		UserLabel:      fg(theme.Secondary).Bold(true),
		AssistantLabel: fg(theme.Accent).Bold(true),
		Source:         fg(theme.Muted).Italic(true),
	}
}

// DefaultStyles returns NewStyles(DefaultTheme()).
func DefaultStyles() *Styles {
	return NewStyles(DefaultTheme())
}

func (s *Styles) Theme() *Theme {
	return s.theme
}

// Speaker renders the transcript label for role.
func (s *Styles) Speaker(role domain.Role) string {
	if role == domain.RoleUser {
		return s.UserLabel.Render("You")
	}
	return s.AssistantLabel.Render("Assistant")
}

// Relevance picks a colour for a similarity score so weak context stands out.
func (s *Styles) Relevance(score float64) lipgloss.Style {
	switch {
	case score >= StrongMatch:
		return s.Source.Foreground(s.theme.Good)
	case score >= WeakMatch:
		return s.Source.Foreground(s.theme.Warn)
	default:
		return s.Source
	}
}
