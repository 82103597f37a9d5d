// Package postprocessors builds text segmenters by name from configuration.
package postprocessors

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Builder creates a Segmenter from loosely typed settings, as read from
// TOML, JSON or the environment.
type Builder func(cfg map[string]any) (driven.Segmenter, error)

// Registry maps segmenter names to builders. Register before use; it is not
// guarded for concurrent writes.
type Registry map[string]Builder

func NewRegistry() Registry {
	return Registry{}
}

// Defaults returns a registry holding the built-in segmenters.
func Defaults() Registry {
	r := NewRegistry()
	r.Register("chunker", buildChunker)
	return r
}

// Register adds or replaces the builder for name.
func (r Registry) Register(name string, b Builder) {
	r[name] = b
}

// Build creates the segmenter registered under name.
func (r Registry) Build(name string, cfg map[string]any) (driven.Segmenter, error) {
	b, ok := r[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown segmenter %q (available: %s)",
			domain.ErrInvalidInput, name, strings.Join(r.Names(), ", "))
	}
	return b(cfg)
}

// Names returns the registered names, sorted.
func (r Registry) Names() []string {
	return slices.Sorted(maps.Keys(r))
}
