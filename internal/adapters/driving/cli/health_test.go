package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

func TestHealth_OK(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, _, err := executeCommand("health")

	require.NoError(t, err)
	assert.Contains(t, out, "Status: healthy")
	assert.Contains(t, out, "embedding")
	assert.Contains(t, out, "ok")
}

func TestHealth_Unhealthy(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.health.report = domain.HealthReport{
		Status: domain.HealthStatusDegraded,
		Components: []domain.ComponentHealth{
			{Name: "embedding", Configured: true, Healthy: true},
			{Name: "llm", Configured: false},
			{Name: "vector_store", Configured: true, Healthy: false, Detail: "connection refused"},
		},
	}

	out, _, err := executeCommand("health")

	require.Error(t, err)
	assert.Contains(t, out, "not configured")
	assert.Contains(t, out, "unreachable (connection refused)")
}

func TestHealth_JSON(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, _, err := executeCommand("health", "-o", "json")

	require.NoError(t, err)
	assert.Contains(t, out, `"healthy"`)
}
