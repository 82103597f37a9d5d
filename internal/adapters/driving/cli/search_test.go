package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

func TestSearchCmd_Flags(t *testing.T) {
	limit := searchCmd.Flags().Lookup("limit")
	require.NotNil(t, limit)
	assert.Equal(t, "5", limit.DefValue)
	assert.Equal(t, "n", limit.Shorthand)
}

func TestSearch(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.search.results = []domain.SearchResult{
		{ID: "1", Source: "cv.pdf", ChunkIndex: 0, Text: "Senior Go\n\tdeveloper", Score: 0.82},
	}

	out, _, err := executeCommand("search", "golang", "-n", "3")

	require.NoError(t, err)
	assert.Equal(t, "golang", ts.search.gotQuery)
	assert.Equal(t, 3, ts.search.gotTopK)
	assert.Contains(t, out, "Results:")
	assert.Contains(t, out, "[1] cv.pdf #0 (0.82)")
	assert.Contains(t, out, "Senior Go developer")
}

func TestSearch_DefaultLimit(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, _, err := executeCommand("search", "anything")

	require.NoError(t, err)
	assert.Equal(t, 5, ts.search.gotTopK)
	assert.Contains(t, out, "No results found.")
}

func TestSearch_ArgCount(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, _, err := executeCommand("search")
	assert.Error(t, err)

	_, _, err = executeCommand("search", "a", "b")
	assert.Error(t, err)
}

func TestSearch_NotConfigured(t *testing.T) {
	SetServices(Services{})

	_, _, err := executeCommand("search", "x")

	assert.ErrorIs(t, err, errServiceNotConfigured)
}

func TestSnippet(t *testing.T) {
	assert.Equal(t, "a b c", snippet("a\n b\t\tc", 10))
	assert.Equal(t, "abc...", snippet("abcdef", 3))
	assert.Equal(t, "héllo", snippet("héllo", 5))
	assert.Len(t, []rune(snippet(strings.Repeat("x", 500), 160)), 163)
}
