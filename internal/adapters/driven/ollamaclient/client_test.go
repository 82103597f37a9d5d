package ollamaclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errDown = errors.New("down")

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)
	return New(server.URL+"/", time.Second, errDown)
}

func TestNew_DefaultBaseURL(t *testing.T) {
	c := New("", time.Second, errDown)
	assert.Equal(t, DefaultBaseURL, c.baseURL)
}

func TestPost(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/echo", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		_, _ = w.Write([]byte(`{"value":"ok"}`))
	})

	var out struct {
		Value string `json:"value"`
	}
	require.NoError(t, c.Post(context.Background(), "/api/echo", map[string]string{"in": "x"}, &out))
	assert.Equal(t, "ok", out.Value)
}

func TestPost_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"status", http.StatusInternalServerError, "boom", "status 500"},
		{"error field", http.StatusOK, `{"error":"out of memory"}`, "out of memory"},
		{"bad json", http.StatusOK, `not json`, "decode response"},
		{"long body truncated", http.StatusBadGateway, strings.Repeat("x", 2000), "status 502"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			var out map[string]any
			err := c.Post(context.Background(), "/api/chat", struct{}{}, &out)
			require.ErrorIs(t, err, errDown)
			assert.Contains(t, err.Error(), tt.want)
			assert.Less(t, len(err.Error()), 700)
		})
	}
}

func TestPing(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		_, _ = w.Write([]byte(`{"models":[{"name":"llama3.2:latest"},{"name":"nomic-embed-text:v1.5"}]}`))
	})
	ctx := context.Background()

	assert.NoError(t, c.Ping(ctx, "llama3.2"))
	assert.NoError(t, c.Ping(ctx, "llama3.2:latest"))
	assert.NoError(t, c.Ping(ctx, "nomic-embed-text:v1.5"))

	err := c.Ping(ctx, "mistral")
	require.ErrorIs(t, err, errDown)
	assert.Contains(t, err.Error(), "ollama pull mistral")
}

func TestPing_Unreachable(t *testing.T) {
	c := New("http://127.0.0.1:1", 200*time.Millisecond, errDown)
	assert.ErrorIs(t, c.Ping(context.Background(), "llama3.2"), errDown)
}
