package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	// Validation failures are reported before any external call and never retried.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates a document format that cannot be read.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrDimensionMismatch indicates the embedding service and the vector store
	// disagree on vector size. This is a configuration error, not a per-call failure.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrLLMUnavailable indicates the LLM service is not configured or failed.
	// Contextualisation falls back to the raw query and generation to an error response.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured or failed.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrNotImplemented indicates a service was built without a required store.
	ErrNotImplemented = errors.New("not implemented")

	// ErrVectorStoreUnavailable indicates the vector database could not be reached.
	ErrVectorStoreUnavailable = errors.New("vector store unavailable")
)

// IsValidation reports whether err is a caller error that should not be retried.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrUnsupportedType) ||
		errors.Is(err, ErrDimensionMismatch)
}

// IsNotFound reports whether err refers to an unknown document or session.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsCapability reports whether err comes from an external capability
// (embedding, completion or vector database).
func IsCapability(err error) bool {
	return errors.Is(err, ErrLLMUnavailable) ||
		errors.Is(err, ErrEmbeddingUnavailable) ||
		errors.Is(err, ErrVectorStoreUnavailable)
}
