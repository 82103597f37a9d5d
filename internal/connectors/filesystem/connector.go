// Package filesystem reads supported documents from a local directory tree
// and watches it for changes.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Ensure Connector implements the interface.
var _ driven.Connector = (*Connector)(nil)

// DefaultDebounce is how long a path must be quiet before its change is emitted.
const DefaultDebounce = 100 * time.Millisecond

// ErrClosed is returned when watching a closed connector.
var ErrClosed = errors.New("connector closed")

// Option configures a Connector.
type Option func(*Connector)

// WithInclude keeps only files whose slash-separated path relative to the
// root matches one of the doublestar patterns.
func WithInclude(patterns ...string) Option {
	return func(c *Connector) { c.includes = append(c.includes, patterns...) }
}

// WithExclude drops files and directories matching any doublestar pattern.
func WithExclude(patterns ...string) Option {
	return func(c *Connector) { c.excludes = append(c.excludes, patterns...) }
}

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(c *Connector) { c.debounce = d }
}

// Connector reads .txt, .pdf and .docx files under a root directory.
// Hidden files and directories are skipped.
type Connector struct {
	rootPath string
	includes []string
	excludes []string
	debounce time.Duration

	mu      sync.Mutex
	closed  bool
	watcher *fsnotify.Watcher
}

// New creates a connector for rootPath.
func New(rootPath string, opts ...Option) *Connector {
	c := &Connector{rootPath: rootPath, debounce: DefaultDebounce}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Root returns the directory being read.
func (c *Connector) Root() string {
	return c.rootPath
}

// Validate checks the root exists and is a directory.
func (c *Connector) Validate(_ context.Context) error {
	info, err := os.Stat(c.rootPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("root path error: %s does not exist: %w", c.rootPath, domain.ErrNotFound)
		}
		return fmt.Errorf("root path error: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("root path error: %s is not a directory: %w", c.rootPath, domain.ErrInvalidInput)
	}
	return nil
}

// Files lists every matching file path in lexical order.
func (c *Connector) Files(ctx context.Context) ([]string, error) {
	if err := c.Validate(ctx); err != nil {
		return nil, err
	}

	var files []string
	err := filepath.WalkDir(c.rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if path == c.rootPath {
			return nil
		}
		if d.IsDir() {
			if isHidden(d.Name()) || c.excluded(path+"/") {
				return filepath.SkipDir
			}
			return nil
		}
		if c.accepts(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// FullSync emits every matching document. Unreadable files are reported
// on the error channel as *fs.PathError and do not stop the walk.
func (c *Connector) FullSync(ctx context.Context) (<-chan domain.RawDocument, <-chan error) {
	docs := make(chan domain.RawDocument)
	errs := make(chan error, 1)

	go func() {
		defer close(docs)
		defer close(errs)

		files, err := c.Files(ctx)
		if err != nil {
			errs <- err
			return
		}

		for _, path := range files {
			raw, err := c.read(path)
			if err != nil {
				select {
				case errs <- err:
				case <-ctx.Done():
					return
				}
				continue
			}
			select {
			case docs <- *raw:
			case <-ctx.Done():
				return
			}
		}
	}()

	return docs, errs
}

// Watch emits created, updated and deleted documents until ctx is
// cancelled or the connector is closed. Bursts of events on one path are
// coalesced into a single change.
func (c *Connector) Watch(ctx context.Context) (<-chan domain.RawDocumentChange, error) {
	if err := c.Validate(ctx); err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	if c.watcher != nil {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: already watching %s", domain.ErrInvalidInput, c.rootPath)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		c.mu.Unlock()
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	c.watcher = watcher
	c.mu.Unlock()

	if err := c.addTree(watcher, c.rootPath); err != nil {
		c.Close()
		return nil, err
	}

	changes := make(chan domain.RawDocumentChange)
	go c.watchLoop(ctx, watcher, changes)
	return changes, nil
}

func (c *Connector) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, out chan<- domain.RawDocumentChange) {
	defer close(out)

	pending := make(map[string]domain.ChangeType)
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			c.handleEvent(watcher, event, pending)
			if len(pending) > 0 {
				timer.Reset(c.debounce)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("Watcher error on %s: %v", c.rootPath, err)

		case <-timer.C:
			paths := make([]string, 0, len(pending))
			for path := range pending {
				paths = append(paths, path)
			}
			sort.Strings(paths)

			for _, path := range paths {
				change, ok := c.change(path, pending[path])
				delete(pending, path)
				if !ok {
					continue
				}
				select {
				case out <- change:
				case <-ctx.Done():
					return
				}
			}
		}
	}
}

// handleEvent records the change for a path, keeping the first creation
// unless the file is later removed.
func (c *Connector) handleEvent(watcher *fsnotify.Watcher, event fsnotify.Event, pending map[string]domain.ChangeType) {
	path := event.Name

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if !isHidden(info.Name()) && !c.excluded(path+"/") {
				if err := c.addTree(watcher, path); err != nil {
					logger.Warn("Failed to watch %s: %v", path, err)
				}
			}
			return
		}
	}
	if !c.accepts(path) {
		return
	}

	prev, seen := pending[path]
	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		pending[path] = domain.ChangeDeleted
	case event.Has(fsnotify.Create):
		pending[path] = domain.ChangeCreated
	case event.Has(fsnotify.Write):
		if !seen || prev == domain.ChangeDeleted {
			pending[path] = domain.ChangeUpdated
		}
	}
}

// change builds the emitted change. A file that vanished before it could
// be read is reported as deleted.
func (c *Connector) change(path string, kind domain.ChangeType) (domain.RawDocumentChange, bool) {
	if kind == domain.ChangeDeleted {
		return domain.RawDocumentChange{
			Type:     domain.ChangeDeleted,
			Document: domain.RawDocument{URI: path, MIMEType: mimeType(path)},
		}, true
	}

	raw, err := c.read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return c.change(path, domain.ChangeDeleted)
		}
		logger.Warn("Failed to read %s: %v", path, err)
		return domain.RawDocumentChange{}, false
	}
	return domain.RawDocumentChange{Type: kind, Document: *raw}, true
}

func (c *Connector) addTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != c.rootPath && (isHidden(d.Name()) || c.excluded(path+"/")) {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

// Close stops watching. It is safe to call more than once.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.watcher == nil {
		return nil
	}
	err := c.watcher.Close()
	c.watcher = nil
	return err
}

func (c *Connector) read(path string) (*domain.RawDocument, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		var pathErr *fs.PathError
		if errors.As(err, &pathErr) {
			return nil, pathErr
		}
		return nil, &fs.PathError{Op: "read", Path: path, Err: err}
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	return &domain.RawDocument{
		URI:      path,
		MIMEType: mimeType(path),
		Content:  content,
		Metadata: map[string]any{
			"filename":    filepath.Base(path),
			"extension":   strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."),
			"size":        info.Size(),
			"modified_at": info.ModTime().UTC(),
		},
	}, nil
}

// accepts reports whether a file path is a visible supported document
// that passes the include and exclude patterns.
func (c *Connector) accepts(path string) bool {
	if isHidden(filepath.Base(path)) {
		return false
	}
	if _, ok := domain.DocumentTypeFromPath(path); !ok {
		return false
	}
	if c.excluded(path) {
		return false
	}
	if len(c.includes) == 0 {
		return true
	}
	return matchAny(c.includes, c.rel(path))
}

func (c *Connector) excluded(path string) bool {
	return len(c.excludes) > 0 && matchAny(c.excludes, c.rel(path))
}

// rel returns the slash-separated path relative to the root, keeping a
// trailing slash used to mark directories.
func (c *Connector) rel(path string) string {
	trailing := strings.HasSuffix(path, "/")
	rel, err := filepath.Rel(c.rootPath, strings.TrimSuffix(path, "/"))
	if err != nil {
		rel = path
	}
	rel = filepath.ToSlash(rel)
	if trailing {
		rel += "/"
	}
	return rel
}

func matchAny(patterns []string, path string) bool {
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, path); err == nil && ok {
			return true
		}
	}
	return false
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

func mimeType(path string) string {
	docType, _ := domain.DocumentTypeFromPath(path)
	return docType.MIMEType()
}
