package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

func TestNewPromptStore_DefaultDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	store, err := NewPromptStore("")

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".sercha-rag", "prompts"), store.Dir())
}

func TestPromptStore_Load_CreatesDefaultFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	_, err = store.Load(driven.PromptRAGSystem)
	require.NoError(t, err)

	for _, f := range []string{"contextualize_system.txt", "rag_system.txt", "README.md"} {
		_, err := os.Stat(filepath.Join(dir, f))
		assert.NoError(t, err, "expected file %s to exist", f)
	}
}

func TestPromptStore_Load_ReturnsDefaultContent(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	rag, err := store.Load(driven.PromptRAGSystem)
	require.NoError(t, err)
	assert.Equal(t, driven.DefaultRAGSystemPrompt, rag)
	assert.Contains(t, rag, "%s")

	ctx, err := store.Load(driven.PromptContextualize)
	require.NoError(t, err)
	assert.Equal(t, driven.DefaultContextualizePrompt, ctx)
}

func TestPromptStore_Load_ReturnsCustomContent(t *testing.T) {
	dir := t.TempDir()
	custom := "Answer like a pirate.\n\n%s"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rag_system.txt"), []byte(custom+"\n\n"), 0600))

	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptRAGSystem)

	require.NoError(t, err)
	assert.Equal(t, custom, prompt)
}

func TestPromptStore_Load_EmptyFileFallsBack(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "contextualize_system.txt"), []byte("  \n"), 0600))

	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptContextualize)

	require.NoError(t, err)
	assert.Equal(t, driven.DefaultContextualizePrompt, prompt)
}

func TestPromptStore_Load_DeletedFileFallsBack(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	_, _ = store.Load(driven.PromptRAGSystem)
	require.NoError(t, os.Remove(filepath.Join(dir, "rag_system.txt")))

	prompt, err := store.Load(driven.PromptRAGSystem)

	require.NoError(t, err)
	assert.Equal(t, driven.DefaultRAGSystemPrompt, prompt)
}

func TestPromptStore_Load_UnknownPrompt(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Load("nonexistent_prompt")

	assert.Error(t, err)
}

func TestPromptStore_Load_PicksUpEditsWithoutRestart(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	first, err := store.Load(driven.PromptRAGSystem)
	require.NoError(t, err)
	assert.Equal(t, driven.DefaultRAGSystemPrompt, first)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "rag_system.txt"), []byte("edited %s"), 0600))

	fresh, err := store.Load(driven.PromptRAGSystem)
	require.NoError(t, err)
	assert.Equal(t, "edited %s", fresh)
}

func TestPromptStore_Load_UnwritableDirServesBuiltins(t *testing.T) {
	parent := t.TempDir()
	blocker := filepath.Join(parent, "prompts")
	require.NoError(t, os.WriteFile(blocker, []byte("not a dir"), 0600))

	store, err := NewPromptStore(blocker)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptContextualize)
	require.NoError(t, err)
	assert.Equal(t, driven.DefaultContextualizePrompt, prompt)
	assert.Error(t, store.seedErr)
}

func TestPromptStore_DoesNotOverwriteExistingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "contextualize_system.txt")
	require.NoError(t, os.WriteFile(path, []byte("mine"), 0600))

	store, err := NewPromptStore(dir)
	require.NoError(t, err)
	_, err = store.Load(driven.PromptRAGSystem)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "mine", string(data))
}

func TestPromptStore_Load_ConcurrentAccess(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := store.Load(driven.PromptRAGSystem)
			assert.NoError(t, err)
			assert.NotEmpty(t, p)
		}()
	}
	wg.Wait()
}
