// Package chunker provides a sentence-aware text segmenter.
package chunker

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 200

// Ensure Processor implements the interface.
var _ driven.Segmenter = (*Processor)(nil)

// Processor splits text into sentence-bounded chunks with a sentence overlap
// between neighbours.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a new chunker processor with the given options.
// An overlap that is not smaller than the chunk size is clamped to a
// quarter of the chunk size. Use Validate to reject such values instead.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// ChunkSize returns the configured maximum chunk length in characters.
func (p *Processor) ChunkSize() int {
	return p.chunkSize
}

// Overlap returns the configured overlap in characters.
func (p *Processor) Overlap() int {
	return p.overlap
}

// Split segments text using the processor's settings.
func (p *Processor) Split(text string) []string {
	return split(text, p.chunkSize, p.overlap)
}

// Validate checks a chunk size and overlap pair.
func Validate(chunkSize, overlap int) error {
	if chunkSize <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", domain.ErrInvalidInput, chunkSize)
	}
	if overlap < 0 {
		return fmt.Errorf("%w: overlap must not be negative, got %d", domain.ErrInvalidInput, overlap)
	}
	if overlap >= chunkSize {
		return fmt.Errorf("%w: overlap %d must be smaller than chunk size %d",
			domain.ErrInvalidInput, overlap, chunkSize)
	}
	return nil
}

// Split segments text into chunks of at most maxChars characters, never
// breaking inside a sentence. A sentence longer than maxChars becomes its
// own chunk. Each chunk after the first starts with the trailing sentences
// of the previous one, up to overlap characters.
func Split(text string, maxChars, overlap int) ([]string, error) {
	if err := Validate(maxChars, overlap); err != nil {
		return nil, err
	}
	return split(text, maxChars, overlap), nil
}

func split(text string, maxChars, overlap int) []string {
	sentences := Sentences(text)
	if len(sentences) == 0 {
		return nil
	}

	var (
		chunks  []string
		current []string
		size    int
	)

	for _, sentence := range sentences {
		n := charLen(sentence)

		if len(current) > 0 && size+1+n > maxChars {
			chunks = append(chunks, strings.Join(current, " "))

			seed := overlapTail(current, overlap)
			for len(seed) > 0 && joinedLen(seed)+1+n > maxChars {
				seed = seed[1:]
			}

			current = append(append([]string(nil), seed...), sentence)
			size = joinedLen(current)
			continue
		}

		if len(current) > 0 {
			size++
		}
		current = append(current, sentence)
		size += n
	}

	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}

	return chunks
}

// overlapTail selects sentences from the end of chunk, walking backwards,
// while their joined length stays within limit. It stops at the first
// sentence that does not fit.
func overlapTail(chunk []string, limit int) []string {
	used := 0
	start := len(chunk)
	for i := len(chunk) - 1; i >= 0; i-- {
		n := charLen(chunk[i])
		if used+n > limit {
			break
		}
		used += n + 1
		start = i
	}
	return chunk[start:]
}

// Sentences normalises whitespace and splits text after '.', '!' or '?'
// followed by whitespace. Every returned sentence ends in terminal
// punctuation; a '.' is appended where it is missing.
func Sentences(text string) []string {
	text = strings.TrimSpace(strings.ReplaceAll(text, "\n", " "))
	if text == "" {
		return nil
	}

	var sentences []string
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" {
			return
		}
		if !endsWithTerminal(s) {
			s += "."
		}
		sentences = append(sentences, s)
	}

	start := 0
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		next := i + size
		if isTerminal(r) && next < len(text) {
			ws, _ := utf8.DecodeRuneInString(text[next:])
			if unicode.IsSpace(ws) {
				add(text[start:next])
				j := next
				for j < len(text) {
					ws, wsize := utf8.DecodeRuneInString(text[j:])
					if !unicode.IsSpace(ws) {
						break
					}
					j += wsize
				}
				start = j
				i = j
				continue
			}
		}
		i = next
	}
	add(text[start:])

	return sentences
}

func isTerminal(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

func endsWithTerminal(s string) bool {
	r, _ := utf8.DecodeLastRuneInString(s)
	return isTerminal(r)
}

func charLen(s string) int {
	return utf8.RuneCountInString(s)
}

func joinedLen(parts []string) int {
	if len(parts) == 0 {
		return 0
	}
	total := len(parts) - 1
	for _, p := range parts {
		total += charLen(p)
	}
	return total
}
