package driven

// ConfigStore holds flat, dot-keyed settings ("chunking.chunk_size").
// Typed getters coerce the stored value and return the zero value when the
// key is absent or cannot be converted; use Get to tell the two apart.
type ConfigStore interface {
	Get(key string) (any, bool)
	GetString(key string) string
	GetInt(key string) int
	GetFloat(key string) float64

	// Set stores a value and persists it immediately.
	Set(key string, value any) error

	// Path identifies the backing file, or ":memory:".
	Path() string
}
