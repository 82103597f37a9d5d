package input

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/styles"
)

func TestNewChatInput(t *testing.T) {
	input := NewChatInput(styles.DefaultStyles())

	require.NotNil(t, input)
	assert.Empty(t, input.Value())
	assert.True(t, input.Focused())
	assert.Equal(t, 50, input.Width())
}

func TestNewChatInput_NilStyles(t *testing.T) {
	input := NewChatInput(nil)

	require.NotNil(t, input)
	assert.NotNil(t, input.styles)
}

func TestChatInput_Init(t *testing.T) {
	input := NewChatInput(nil)

	assert.NotNil(t, input.Init())
}

func TestChatInput_Update_Typing(t *testing.T) {
	input := NewChatInput(nil)

	for _, r := range "why?" {
		input.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}

	assert.Equal(t, "why?", input.Value())
}

func TestChatInput_Update_Backspace(t *testing.T) {
	input := NewChatInput(nil)
	input.SetValue("test")

	input.Update(tea.KeyMsg{Type: tea.KeyBackspace})

	assert.Equal(t, "tes", input.Value())
}

func TestChatInput_CharLimit(t *testing.T) {
	input := NewChatInput(nil)

	input.SetValue(strings.Repeat("a", maxQuestionLength+10))

	assert.Len(t, input.Value(), maxQuestionLength)
}

func TestChatInput_View(t *testing.T) {
	input := NewChatInput(nil)

	assert.Contains(t, input.View(), "Ask")
}

func TestChatInput_FocusAndBlur(t *testing.T) {
	input := NewChatInput(nil)

	input.Blur()
	assert.False(t, input.Focused())

	input.Focus()
	assert.True(t, input.Focused())
}

func TestChatInput_SetWidth(t *testing.T) {
	input := NewChatInput(nil)

	input.SetWidth(100)
	assert.Equal(t, 100, input.Width())

	input.SetWidth(10)
	assert.Equal(t, 10, input.Width())
}

func TestChatInput_Reset(t *testing.T) {
	input := NewChatInput(nil)
	input.SetValue("some text")

	input.Reset()

	assert.Empty(t, input.Value())
}
