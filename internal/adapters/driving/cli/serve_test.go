package cli

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeCmd_Flags(t *testing.T) {
	addr := serveCmd.Flags().Lookup("addr")
	require.NotNil(t, addr)
	assert.Equal(t, ":8000", addr.DefValue)
	assert.NotNil(t, serveCmd.Flags().Lookup("mcp"))
}

func TestServe_NotConfigured(t *testing.T) {
	SetServices(Services{})

	_, _, err := executeCommand("serve")

	assert.ErrorIs(t, err, errServiceNotConfigured)
}

func TestNewAPIServer(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	server, err := newAPIServer()
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/sessions", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "new-session")
}

func TestNewAPIServer_WithMCP(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	serveMCP = true
	defer func() { serveMCP = false }()

	server, err := newAPIServer()

	require.NoError(t, err)
	assert.NotNil(t, server)
}
