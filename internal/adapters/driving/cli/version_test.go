package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

func withVersion(t *testing.T, v string) {
	t.Helper()
	orig := version
	version = v
	t.Cleanup(func() { version = orig })
}

func TestVersionCmd_Text(t *testing.T) {
	withVersion(t, "1.2.0")

	out, _, err := executeCommand("version")

	require.NoError(t, err)
	assert.Contains(t, out, "sercha-rag version 1.2.0 (go")
}

func TestVersionCmd_JSONIncludesBackends(t *testing.T) {
	withVersion(t, "dev")
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.settings.settings.VectorStore.Backend = domain.VectorBackendQdrant

	out, _, err := executeCommand("version", "-o", "json")
	require.NoError(t, err)

	var info buildInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, "dev", info.Version)
	assert.Equal(t, "qdrant", info.VectorStore)
	assert.NotEmpty(t, info.Sessions)
}

func TestVersionCmd_NoSettingsService(t *testing.T) {
	withVersion(t, "dev")
	SetServices(Services{})

	out, _, err := executeCommand("version", "--output", "yaml")

	require.NoError(t, err)
	assert.Contains(t, out, "version: dev")
	assert.NotContains(t, out, "vector_store")
}

func TestVersionCmd_BadOutput(t *testing.T) {
	_, _, err := executeCommand("version", "-o", "xml")
	assert.Error(t, err)
}
