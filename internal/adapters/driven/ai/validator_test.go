package ai

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// ollamaStub answers /api/tags and returns vectors of length dims from /api/embed.
func ollamaStub(t *testing.T, dims int) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			_, _ = w.Write([]byte(`{"models":[{"name":"nomic-embed-text:latest"}]}`))
		case "/api/embed":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"embeddings": [][]float32{make([]float32, dims)},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestNewConfigValidator_DefaultTimeout(t *testing.T) {
	assert.Equal(t, pingTimeout, NewConfigValidator(0).timeout)
	assert.Equal(t, time.Second, NewConfigValidator(time.Second).timeout)
}

func TestConfigValidator_Unconfigured(t *testing.T) {
	v := NewConfigValidator(0)

	assert.NoError(t, v.ValidateEmbedding(nil))
	assert.NoError(t, v.ValidateEmbedding(&domain.EmbeddingSettings{Model: "nomic-embed-text"}))
	assert.NoError(t, v.ValidateLLM(nil))
	assert.NoError(t, v.ValidateLLM(&domain.LLMSettings{}))
}

func TestConfigValidator_ValidateEmbedding(t *testing.T) {
	tests := []struct {
		name     string
		dims     int
		wantErr  error
		wantNone bool
	}{
		{name: "matching dimensions", dims: 768, wantNone: true},
		{name: "wrong dimensions", dims: 384, wantErr: domain.ErrDimensionMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := ollamaStub(t, tt.dims)
			err := NewConfigValidator(time.Second).ValidateEmbedding(&domain.EmbeddingSettings{
				Provider: domain.AIProviderOllama,
				Model:    "nomic-embed-text",
				BaseURL:  server.URL,
			})
			if tt.wantNone {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestConfigValidator_ValidateEmbedding_Anthropic(t *testing.T) {
	err := NewConfigValidator(0).ValidateEmbedding(&domain.EmbeddingSettings{
		Provider: domain.AIProviderAnthropic,
		APIKey:   "k",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not support embeddings")
}

func TestConfigValidator_ValidateLLM_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	err := NewConfigValidator(time.Second).ValidateLLM(&domain.LLMSettings{
		Provider: domain.AIProviderOllama,
		BaseURL:  server.URL,
	})
	assert.Error(t, err)
}
