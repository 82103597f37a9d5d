package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

func TestSessionCmd_Use(t *testing.T) {
	assert.Equal(t, "session", sessionCmd.Use)
	assert.Len(t, sessionCmd.Commands(), 5)
}

func TestSessionCreate(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, _, err := executeCommand("session", "create")

	require.NoError(t, err)
	assert.Equal(t, "new-session\n", out)
	assert.Equal(t, 1, ts.sessions.created)
}

func TestSessionList_Empty(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, _, err := executeCommand("session", "list")

	require.NoError(t, err)
	assert.Contains(t, out, "No sessions.")
}

func TestSessionList(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.sessions.messages = map[string][]domain.Message{
		"abc": {{Role: domain.RoleUser, Content: "hi"}, {Role: domain.RoleAssistant, Content: "hello"}},
	}

	out, _, err := executeCommand("session", "list")

	require.NoError(t, err)
	assert.Contains(t, out, "abc")
	assert.Contains(t, out, "Messages: 2")
	assert.Contains(t, out, "Total: 1 sessions")
}

func TestSessionShow(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.sessions.messages = map[string][]domain.Message{
		"abc": {
			{Role: domain.RoleUser, Content: "first"},
			{Role: domain.RoleAssistant, Content: "second"},
			{Role: domain.RoleUser, Content: "third"},
		},
	}

	out, _, err := executeCommand("session", "show", "abc", "--last", "2")

	require.NoError(t, err)
	assert.NotContains(t, out, "first")
	assert.Contains(t, out, "Assistant: second")
	assert.Contains(t, out, "Human: third")
}

func TestSessionShow_Empty(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, _, err := executeCommand("session", "show", "missing")

	require.NoError(t, err)
	assert.Contains(t, out, "Session missing has no messages.")
}

func TestSessionClearAndDelete(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, _, err := executeCommand("session", "clear", "abc")
	require.NoError(t, err)
	assert.Contains(t, out, "Cleared session abc")

	out, _, err = executeCommand("session", "delete", "abc")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted session abc")

	assert.Equal(t, []string{"abc"}, ts.sessions.cleared)
	assert.Equal(t, []string{"abc"}, ts.sessions.deleted)
}

func TestSessionCmd_ServiceError(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.sessions.err = errors.New("store closed")

	_, _, err := executeCommand("session", "create")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "store closed")
}

func TestSessionCmd_NotConfigured(t *testing.T) {
	SetServices(Services{})

	_, _, err := executeCommand("session", "list")

	assert.ErrorIs(t, err, errServiceNotConfigured)
}
