package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

var _ driven.PromptStore = (*PromptStore)(nil)

const promptReadme = `# sercha-rag prompts

contextualize_system.txt rewrites a follow-up question into a standalone
one using the chat history.

rag_system.txt answers from the retrieved excerpts. Put one %s where the
excerpts should go; without it they are appended at the end.

Edits apply to the next question, no restart needed. Empty or delete a file
to go back to the built-in prompt.
`

// cachedPrompt is a prompt file's text as of modTime.
type cachedPrompt struct {
	text    string
	modTime time.Time
	size    int64
}

// PromptStore serves prompt templates from <dir>/<name>.txt. Built-in
// defaults are written on first use so users have something to edit. A
// file is re-read whenever its modification time or size changes, so a
// running server picks up edits.
type PromptStore struct {
	dir string

	seedOnce sync.Once
	seedErr  error

	mu    sync.Mutex
	cache map[string]cachedPrompt
}

// NewPromptStore uses ~/.sercha-rag/prompts when dir is empty.
func NewPromptStore(dir string) (*PromptStore, error) {
	if dir == "" {
		home, err := DefaultDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		dir = filepath.Join(home, "prompts")
	}
	return &PromptStore{dir: dir, cache: make(map[string]cachedPrompt)}, nil
}

func (s *PromptStore) Dir() string {
	return s.dir
}

// Load returns the named template. A missing, empty or unreadable file
// falls back to the built-in prompt; only unknown names without a file fail.
func (s *PromptStore) Load(name string) (string, error) {
	s.seedOnce.Do(s.seed)
	fallback, builtin := driven.DefaultPrompts()[name]

	text, err := s.read(name)
	if err == nil && text == "" {
		err = fmt.Errorf("%s.txt is empty", name)
	}
	if err != nil {
		if builtin {
			logger.Debug("using built-in %s prompt: %v", name, err)
			return fallback, nil
		}
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	}

	if name == driven.PromptRAGSystem && strings.Count(text, "%s") > 1 {
		logger.Warn("%s.txt has more than one %%s; only the first receives the context", name)
	}
	return text, nil
}

// read returns the trimmed file content, from cache when the file is unchanged.
func (s *PromptStore) read(name string) (string, error) {
	path := filepath.Join(s.dir, name+".txt")
	info, err := os.Stat(path)
	if err != nil {
		s.forget(name)
		return "", err
	}

	s.mu.Lock()
	hit, ok := s.cache[name]
	s.mu.Unlock()
	if ok && hit.modTime.Equal(info.ModTime()) && hit.size == info.Size() {
		return hit.text, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(string(data))

	s.mu.Lock()
	s.cache[name] = cachedPrompt{text: text, modTime: info.ModTime(), size: info.Size()}
	s.mu.Unlock()
	return text, nil
}

func (s *PromptStore) forget(name string) {
	s.mu.Lock()
	delete(s.cache, name)
	s.mu.Unlock()
}

// seed writes default prompt files and the README without touching
// existing files. Failure is remembered and only costs the user the
// editable copies; Load still serves the built-ins.
func (s *PromptStore) seed() {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		s.seedErr = fmt.Errorf("create prompt directory: %w", err)
		logger.Warn("prompts: %v", s.seedErr)
		return
	}

	files := map[string]string{"README.md": promptReadme}
	for name, content := range driven.DefaultPrompts() {
		files[name+".txt"] = content
	}
	for file, content := range files {
		path := filepath.Join(s.dir, file)
		if _, err := os.Stat(path); !errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			s.seedErr = fmt.Errorf("write %s: %w", file, err)
			logger.Warn("prompts: %v", s.seedErr)
			return
		}
	}
}
