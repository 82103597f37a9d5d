package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Prefix is where the document, session and query routes are mounted.
const Prefix = "/api"

// maxUploadSize caps a multipart upload body.
const maxUploadSize = 32 << 20

// Server is the HTTP API server.
type Server struct {
	ports   *Ports
	mux     *http.ServeMux
	version string
	topK    int
}

// Option configures a Server.
type Option func(*Server)

// WithVersion sets the version reported by GET /health.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// WithDefaultTopK sets the retrieval depth used when a query omits top_k.
func WithDefaultTopK(k int) Option {
	return func(s *Server) { s.topK = k }
}

// NewServer creates an API server over the given ports.
func NewServer(ports *Ports, opts ...Option) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}

	s := &Server{
		ports:   ports,
		mux:     http.NewServeMux(),
		version: "dev",
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /{$}", s.handleRoot)

	s.mux.HandleFunc("POST "+Prefix+"/sessions", s.handleCreateSession)
	s.mux.HandleFunc("GET "+Prefix+"/sessions", s.handleListSessions)
	s.mux.HandleFunc("GET "+Prefix+"/sessions/{id}", s.handleSessionHistory)
	s.mux.HandleFunc("DELETE "+Prefix+"/sessions/{id}", s.handleDeleteSession)

	s.mux.HandleFunc("POST "+Prefix+"/upload", s.handleUpload)
	s.mux.HandleFunc("GET "+Prefix+"/documents", s.handleListDocuments)
	s.mux.HandleFunc("DELETE "+Prefix+"/documents/{id}", s.handleDeleteDocument)

	s.mux.HandleFunc("POST "+Prefix+"/query", s.handleQuery)
	s.mux.HandleFunc("POST "+Prefix+"/search", s.handleSearch)
	s.mux.HandleFunc("POST "+Prefix+"/match", s.handleMatch)

	if s.ports.MCP != nil {
		s.mux.Handle("/mcp", s.ports.MCP)
	}
}

// Handler returns the routed handler with request logging.
func (s *Server) Handler() http.Handler {
	return logRequests(s.mux)
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	logger.L().Info("api listening", zap.String("addr", ln.Addr().String()))
	err := httpServer.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.L().Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}
