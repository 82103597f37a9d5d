// Package pdf extracts text from PDF documents using the pdftotext tool
// from poppler.
package pdf

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/normalisers/plaintext"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

const toolName = "pdftotext"

// maxTitleLength bounds the first-line title heuristic.
const maxTitleLength = 200

// ErrPDFToolNotFound indicates pdftotext is not installed.
var ErrPDFToolNotFound = errors.New("pdftotext not found in PATH")

// CommandRunner runs an external command and returns its stdout.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Normaliser handles PDF documents.
type Normaliser struct {
	runner   CommandRunner
	lookPath func(string) (string, error)
}

// New creates a PDF normaliser that shells out to pdftotext.
func New() *Normaliser {
	return &Normaliser{runner: execRunner{}, lookPath: exec.LookPath}
}

// NewWithRunner creates a PDF normaliser with a custom command runner.
// The runner is trusted to provide pdftotext, so PATH is not checked.
func NewWithRunner(runner CommandRunner) *Normaliser {
	return &Normaliser{
		runner:   runner,
		lookPath: func(name string) (string, error) { return name, nil },
	}
}

// CheckAvailable reports whether pdftotext is installed.
func CheckAvailable() error {
	if _, err := exec.LookPath(toolName); err != nil {
		return ErrPDFToolNotFound
	}
	return nil
}

// InstallInstructions describes how to install pdftotext.
func InstallInstructions() string {
	return `PDF support requires pdftotext (poppler):
  macOS:          brew install poppler
  Debian/Ubuntu:  apt install poppler-utils
  Fedora:         dnf install poppler-utils`
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"application/pdf"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50 // Generic MIME normaliser
}

// Normalise writes the PDF to a temporary file and extracts its text.
// Pages are separated by form feeds in pdftotext output, which become
// newlines.
func (n *Normaliser) Normalise(ctx context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	if _, err := n.lookPath(toolName); err != nil {
		return nil, fmt.Errorf("%w\n%s", ErrPDFToolNotFound, InstallInstructions())
	}

	tmp, err := os.CreateTemp("", "sercha-rag-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw.Content); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("close temp file: %w", err)
	}

	out, err := n.runner.Run(ctx, toolName, "-enc", "UTF-8", tmp.Name(), "-")
	if err != nil {
		return nil, fmt.Errorf("%w: pdftotext failed for %s: %v", domain.ErrInvalidInput, filepath.Base(raw.URI), err)
	}

	content := strings.TrimSpace(strings.ReplaceAll(string(out), "\f", "\n"))

	return &driven.NormaliseResult{
		Title:    extractTitle(content, raw.URI),
		Content:  content,
		Metadata: copyMetadata(raw.Metadata, raw.MIMEType),
	}, nil
}

// extractTitle uses the first short non-empty line, falling back to the file name.
func extractTitle(content, uri string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(strings.Trim(line, "\x00"))
		if line == "" || len(line) > maxTitleLength {
			continue
		}
		return line
	}
	return plaintext.TitleFromURI(uri)
}

func copyMetadata(src map[string]any, mimeType string) map[string]any {
	dst := make(map[string]any, len(src)+2)
	for k, v := range src {
		dst[k] = v
	}
	dst["mime_type"] = mimeType
	dst["format"] = "pdf"
	return dst
}
