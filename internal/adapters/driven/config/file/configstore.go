package file

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cast"

	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

// DefaultEnvPrefix is the prefix of environment variables that override
// config keys. The key "llm.api_key" is overridden by SERCHA_RAG_LLM_API_KEY.
const DefaultEnvPrefix = "SERCHA_RAG_"

// ConfigStore is a file-based implementation of driven.ConfigStore using TOML.
// Keys are flattened to dot notation ("chunking.chunk_size") in memory and
// written back as nested tables. Environment variables take precedence over
// file values but are never written to the file.
type ConfigStore struct {
	mu        sync.RWMutex
	filePath  string
	data      map[string]any
	envPrefix string
	lookupEnv func(string) (string, bool)
}

// ConfigOption configures a ConfigStore.
type ConfigOption func(*ConfigStore)

// WithEnvPrefix sets the environment override prefix. An empty prefix
// disables overrides.
func WithEnvPrefix(prefix string) ConfigOption {
	return func(s *ConfigStore) {
		s.envPrefix = prefix
	}
}

// WithEnvLookup replaces os.LookupEnv.
func WithEnvLookup(lookup func(string) (string, bool)) ConfigOption {
	return func(s *ConfigStore) {
		if lookup != nil {
			s.lookupEnv = lookup
		}
	}
}

// NewConfigStore creates a new TOML-based config store.
// If configDir is empty, defaults to ~/.sercha-rag/config.toml.
func NewConfigStore(configDir string, opts ...ConfigOption) (*ConfigStore, error) {
	if configDir == "" {
		dir, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		configDir = dir
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, err
	}

	s := &ConfigStore{
		filePath:  filepath.Join(configDir, "config.toml"),
		data:      make(map[string]any),
		envPrefix: DefaultEnvPrefix,
		lookupEnv: os.LookupEnv,
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.Load(); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	return s, nil
}

// DefaultDir returns ~/.sercha-rag.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".sercha-rag"), nil
}

// EnvName returns the environment variable that overrides key.
func (s *ConfigStore) EnvName(key string) string {
	if s.envPrefix == "" {
		return ""
	}
	name := strings.NewReplacer(".", "_", "-", "_").Replace(key)
	return s.envPrefix + strings.ToUpper(name)
}

// Get retrieves a configuration value by key. An environment override is
// returned as a string.
func (s *ConfigStore) Get(key string) (any, bool) {
	if name := s.EnvName(key); name != "" {
		if val, ok := s.lookupEnv(name); ok {
			return val, true
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	val, ok := s.data[key]
	return val, ok
}

// GetString returns the value as a string. Numbers are formatted.
func (s *ConfigStore) GetString(key string) string {
	val, _ := s.Get(key)
	return cast.ToString(val)
}

// GetInt returns the value as an int. TOML integers decode as int64 and
// environment overrides arrive as strings; both convert.
func (s *ConfigStore) GetInt(key string) int {
	val, _ := s.Get(key)
	if str, ok := val.(string); ok {
		val = strings.TrimSpace(str)
	}
	return cast.ToInt(val)
}

// GetFloat returns the value as a float64.
func (s *ConfigStore) GetFloat(key string) float64 {
	val, _ := s.Get(key)
	if str, ok := val.(string); ok {
		val = strings.TrimSpace(str)
	}
	return cast.ToFloat64(val)
}

// Set stores a configuration value and persists immediately.
func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = value
	return s.save()
}

// Keys returns every key present in the file, sorted.
func (s *ConfigStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Save persists the current configuration to disk.
func (s *ConfigStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save()
}

// save writes configuration to the TOML file (caller must hold lock).
func (s *ConfigStore) save() error {
	data, err := toml.Marshal(nestMap(s.data))
	if err != nil {
		return err
	}

	return os.WriteFile(s.filePath, data, 0600)
}

// Load reads configuration from the TOML file.
func (s *ConfigStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			s.data = make(map[string]any)
			return nil
		}
		return err
	}

	var loaded map[string]any
	if err := toml.Unmarshal(data, &loaded); err != nil {
		return err
	}

	s.data = flattenMap(loaded, "")
	return nil
}

// Path returns the configuration file path.
func (s *ConfigStore) Path() string {
	return s.filePath
}

// flattenMap converts nested maps to dot-notation keys.
// E.g., {"a": {"b": 1}} becomes {"a.b": 1}.
func flattenMap(m map[string]any, prefix string) map[string]any {
	result := make(map[string]any)

	for key, value := range m {
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}

		if nested, ok := value.(map[string]any); ok {
			for k, v := range flattenMap(nested, fullKey) {
				result[k] = v
			}
		} else {
			result[fullKey] = value
		}
	}

	return result
}

// nestMap is the inverse of flattenMap. A key that is both a value and a
// table prefix keeps the value and drops the table.
func nestMap(flat map[string]any) map[string]any {
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	root := make(map[string]any)
	for _, key := range keys {
		parts := strings.Split(key, ".")
		node := root
		ok := true
		for _, part := range parts[:len(parts)-1] {
			child, exists := node[part]
			if !exists {
				next := make(map[string]any)
				node[part] = next
				node = next
				continue
			}
			next, isMap := child.(map[string]any)
			if !isMap {
				ok = false
				break
			}
			node = next
		}
		if ok {
			node[parts[len(parts)-1]] = flat[key]
		}
	}
	return root
}
