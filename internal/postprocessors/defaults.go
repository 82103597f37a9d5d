package postprocessors

import (
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/postprocessors/chunker"
)

// chunkerConfig is the generic config accepted by the chunker builder.
// Values may arrive as TOML integers, JSON floats or env strings.
type chunkerConfig struct {
	ChunkSize int `mapstructure:"chunk_size"`
	Overlap   int `mapstructure:"overlap"`
}

// buildChunker creates a sentence chunker from generic config.
// Supported config keys:
//   - chunk_size (int): Characters per chunk (default: 1000)
//   - overlap (int): Overlapping characters between chunks (default: 200)
//
// Unlike chunker.New, an overlap that is not smaller than the chunk size is
// rejected rather than clamped.
func buildChunker(cfg map[string]any) (driven.Segmenter, error) {
	c, err := decodeChunkerConfig(cfg)
	if err != nil {
		return nil, err
	}

	if err := chunker.Validate(c.ChunkSize, c.Overlap); err != nil {
		return nil, err
	}

	return chunker.New(chunker.WithChunkSize(c.ChunkSize), chunker.WithOverlap(c.Overlap)), nil
}

// decodeChunkerConfig fills a chunkerConfig over the defaults. Unknown keys
// and values that cannot be read as integers are rejected.
func decodeChunkerConfig(cfg map[string]any) (chunkerConfig, error) {
	c := chunkerConfig{
		ChunkSize: chunker.DefaultChunkSize,
		Overlap:   chunker.DefaultChunkOverlap,
	}
	if cfg == nil {
		return c, nil
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &c,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return c, err
	}
	if err := dec.Decode(cfg); err != nil {
		return c, fmt.Errorf("%w: chunker config: %w", domain.ErrInvalidInput, err)
	}
	return c, nil
}
