package domain

// Degradation names a fallback path taken while answering a query.
type Degradation string

// Degradation paths.
const (
	// DegradedContextualize means the rewrite failed and the raw query was used.
	DegradedContextualize Degradation = "contextualize_fallback"

	// DegradedRetrieval means the vector search failed and no context was used.
	DegradedRetrieval Degradation = "retrieval_error"

	// DegradedGeneration means the response carries an error text.
	DegradedGeneration Degradation = "generation_error"
)

// SourceRef identifies a chunk used as context for a response.
type SourceRef struct {
	Source     string  `json:"source" yaml:"source"`
	ChunkIndex int     `json:"chunk_index" yaml:"chunk_index"`
	Score      float64 `json:"score" yaml:"score"`
}

// QueryResult is the outcome of a retrieval-augmented query.
// A failed query still yields a well-formed result whose Response explains the failure.
type QueryResult struct {
	// Query is the original user query.
	Query string `json:"query" yaml:"query"`

	// ContextualizedQuery is the standalone rewrite used for retrieval.
	// Equal to Query when the session had no history.
	ContextualizedQuery string `json:"contextualized_query" yaml:"contextualized_query"`

	// Response is the generated answer or an error text.
	Response string `json:"response" yaml:"response"`

	// Sources mirrors the retrieval order exactly.
	Sources []SourceRef `json:"sources" yaml:"sources"`

	// Degraded lists the fallback paths taken, if any.
	Degraded []Degradation `json:"degraded,omitempty" yaml:"degraded,omitempty"`
}

// IsDegraded reports whether the given fallback was taken.
func (r QueryResult) IsDegraded(d Degradation) bool {
	for _, got := range r.Degraded {
		if got == d {
			return true
		}
	}
	return false
}
