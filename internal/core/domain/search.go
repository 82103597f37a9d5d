package domain

import "fmt"

// Payload keys stored alongside every vector.
const (
	PayloadText       = "text"
	PayloadSource     = "source"
	PayloadChunkIndex = "chunk_index"
	PayloadFilePath   = "file_path"
	PayloadDocumentID = "document_id"
)

// SearchResult represents a single similarity hit.
// Results are ordered by descending Score.
type SearchResult struct {
	// ID is the vector id.
	ID string `json:"id" yaml:"id"`

	// Source is the name of the source document.
	Source string `json:"source" yaml:"source"`

	// ChunkIndex is the chunk position within the source.
	ChunkIndex int `json:"chunk_index" yaml:"chunk_index"`

	// Text is the chunk text. Never empty: a placeholder naming
	// the source and chunk index is used when the payload has no text.
	Text string `json:"text" yaml:"text"`

	// Score is the cosine similarity in [-1, 1], higher is closer.
	Score float64 `json:"score" yaml:"score"`

	// Payload is the full metadata stored with the vector.
	Payload map[string]any `json:"payload,omitempty" yaml:"payload,omitempty"`
}

// PlaceholderText is the text used for a hit whose payload lost its text.
func PlaceholderText(source string, chunkIndex int) string {
	return fmt.Sprintf("Document: %s, Chunk: %d", source, chunkIndex)
}

// SearchResultFromPayload builds a SearchResult from a raw payload.
// Missing fields take the values "Unknown" and 0.
func SearchResultFromPayload(id string, score float64, payload map[string]any) SearchResult {
	source, _ := payload[PayloadSource].(string)
	if source == "" {
		source = "Unknown"
	}
	index := PayloadInt(payload, PayloadChunkIndex)

	text, _ := payload[PayloadText].(string)
	if text == "" {
		text = PlaceholderText(source, index)
	}

	return SearchResult{
		ID:         id,
		Source:     source,
		ChunkIndex: index,
		Text:       text,
		Score:      score,
		Payload:    payload,
	}
}

// PayloadInt reads an integer payload field. JSON decoding yields float64,
// TOML and bbolt round-trips may yield int64, so all numeric kinds are accepted.
func PayloadInt(payload map[string]any, key string) int {
	switch v := payload[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case int32:
		return int(v)
	case float64:
		return int(v)
	case float32:
		return int(v)
	default:
		return 0
	}
}

// VectorRecord is a stored vector read back by id.
type VectorRecord struct {
	// ID is the vector id.
	ID string

	// Payload is the metadata stored with the vector.
	Payload map[string]any

	// Vector is the embedding.
	Vector []float32
}
