package driven

// Segmenter splits document text into bounded, sentence-aligned chunks.
// Implementations are pure: the same input always yields the same chunks.
type Segmenter interface {
	// Name returns the segmenter name for logging.
	Name() string

	// Split returns the ordered chunk texts. Empty input yields no chunks.
	Split(text string) []string
}
