package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure BlobStore implements the interface.
var _ driven.BlobStore = (*BlobStore)(nil)

// BlobStore keeps uploaded documents as files in a single directory.
type BlobStore struct {
	dir string
}

// NewBlobStore creates a blob store rooted at dir, creating it if needed.
func NewBlobStore(dir string) (*BlobStore, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}
	return &BlobStore{dir: dir}, nil
}

// Dir returns the upload directory.
func (s *BlobStore) Dir() string {
	return s.dir
}

// Put writes content to dir/name, replacing any previous file, and returns
// the file path. The write goes through a temporary file so readers never
// see a partial document.
func (s *BlobStore) Put(_ context.Context, name string, content []byte) (string, error) {
	path, err := s.path(name)
	if err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", err
	}
	return path, nil
}

// Get reads the file stored under name.
func (s *BlobStore) Get(_ context.Context, name string) ([]byte, error) {
	path, err := s.path(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("file %s: %w", name, domain.ErrNotFound)
	}
	return data, err
}

// Delete removes the file stored under name.
func (s *BlobStore) Delete(_ context.Context, name string) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}
	err = os.Remove(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("file %s: %w", name, domain.ErrNotFound)
	}
	return err
}

func (s *BlobStore) path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("%w: invalid file name %q", domain.ErrInvalidInput, name)
	}
	return filepath.Join(s.dir, name), nil
}
