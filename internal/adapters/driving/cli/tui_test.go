package cli

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatCmd(t *testing.T) {
	assert.Equal(t, "chat", chatCmd.Use)
	assert.Contains(t, chatCmd.Aliases, "tui")
	assert.NotNil(t, chatCmd.Flags().Lookup("session"))
	assert.NotNil(t, chatCmd.Flags().Lookup("top-k"))
}

func TestNewChatApp_NotConfigured(t *testing.T) {
	SetServices(Services{})

	app, err := newChatApp(&cobra.Command{})

	assert.ErrorIs(t, err, errServiceNotConfigured)
	assert.Nil(t, app)
}

func TestNewChatApp(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	chatSession = "resume-me"
	defer func() { chatSession = "" }()

	app, err := newChatApp(&cobra.Command{})

	require.NoError(t, err)
	assert.Equal(t, "resume-me", app.SessionID())
}

func TestChatCmd_RejectsArgs(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, _, err := executeCommand("chat", "extra")

	assert.Error(t, err)
}
