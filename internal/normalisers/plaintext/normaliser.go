// Package plaintext reads text, Markdown and CSV uploads.
package plaintext

import (
	"context"
	"fmt"
	"maps"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser decodes text files. A UTF-16 byte order mark switches the
// decoder; anything else is read as UTF-8 with invalid bytes replaced.
type Normaliser struct{}

func New() *Normaliser {
	return &Normaliser{}
}

func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/plain", "text/markdown", "text/csv"}
}

// Priority is low so any format specific normaliser wins.
func (n *Normaliser) Priority() int {
	return 5
}

func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	text, err := Decode(raw.Content)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", raw.URI, err)
	}

	metadata := maps.Clone(raw.Metadata)
	if metadata == nil {
		metadata = map[string]any{}
	}
	metadata["mime_type"] = raw.MIMEType

	title, _ := raw.Metadata["title"].(string)
	if title == "" {
		title = TitleFromURI(raw.URI)
	}
	return &driven.NormaliseResult{Title: title, Content: text, Metadata: metadata}, nil
}

// Decode converts raw bytes to a UTF-8 string with LF line endings. A
// byte order mark is consumed and selects UTF-8 or UTF-16.
func Decode(b []byte) (string, error) {
	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	out, _, err := transform.Bytes(dec, b)
	if err != nil {
		return "", err
	}
	return strings.ReplaceAll(string(out), "\r\n", "\n"), nil
}

// TitleFromURI turns a file name into a title: the extension is dropped and
// underscores and hyphens become spaces.
func TitleFromURI(uri string) string {
	name := filepath.Base(uri)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	return strings.NewReplacer("_", " ", "-", " ").Replace(name)
}
