package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMCPServe_RequiresQueryService(t *testing.T) {
	SetServices(Services{})

	_, _, err := executeCommand("mcp", "serve")

	assert.ErrorIs(t, err, errServiceNotConfigured)
}

func TestMCPServe_BadAddress(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, _, err := executeCommand("mcp", "serve", "--addr", "not-an-address")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to listen")
}

func TestMCPPorts_UsesConfiguredServices(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	ports := mcpPorts()

	assert.Same(t, ts.query, ports.Query)
	assert.Same(t, ts.match, ports.Match)
	assert.NoError(t, ports.Validate())
}
