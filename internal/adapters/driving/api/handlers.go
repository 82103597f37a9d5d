package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

var errUnavailable = errors.New("service not available")

type queryRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id"`
	TopK      int    `json:"top_k"`
}

type searchRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

type matchRequest struct {
	ProfileIDs []string `json:"profile_ids"`
	SOWID      string   `json:"sow_id"`
}

type sessionResponse struct {
	SessionID string `json:"session_id"`
}

type sessionView struct {
	ID           string    `json:"id"`
	MessageCount int       `json:"message_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type messageView struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type documentView struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Size   int64  `json:"size"`
	Chunks int    `json:"chunks"`
}

type resultResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	DocumentID string `json:"document_id,omitempty"`
	Chunks     int    `json:"chunks,omitempty"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "sercha-rag API",
		"version": s.version,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.ports.Health == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": s.version})
		return
	}
	report := s.ports.Health.Check(r.Context())
	status := http.StatusOK
	if !report.Healthy() {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	id, err := s.ports.Sessions.Create(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{SessionID: id})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.ports.Sessions.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	views := make([]sessionView, 0, len(sessions))
	for _, ss := range sessions {
		views = append(views, sessionView(ss))
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": views})
}

func (s *Server) handleSessionHistory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	history, err := s.ports.Sessions.History(r.Context(), id, 0)
	if err != nil {
		writeError(w, err)
		return
	}
	msgs := make([]messageView, 0, len(history))
	for _, m := range history {
		msgs = append(msgs, messageView{Role: string(m.Role), Content: m.Content, Timestamp: m.Timestamp})
	}
	writeJSON(w, http.StatusOK, map[string]any{"session_id": id, "messages": msgs})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.ports.Sessions.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resultResponse{
		Success: true,
		Message: fmt.Sprintf("Session %s deleted successfully", id),
	})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if s.ports.Documents == nil {
		writeError(w, errUnavailable)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, fmt.Errorf("%w: multipart field \"file\": %w", domain.ErrInvalidInput, err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, fmt.Errorf("%w: reading upload: %w", domain.ErrInvalidInput, err))
		return
	}

	name := filepath.Base(header.Filename)
	result, err := s.ports.Documents.Upload(r.Context(), name, data)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := resultResponse{
		Success:    result.Stored,
		Message:    fmt.Sprintf("Document %s uploaded and processed successfully", name),
		DocumentID: result.Document.ID,
		Chunks:     result.ChunkCount,
	}
	if !result.Stored {
		resp.Message = fmt.Sprintf("Failed to process document %s", name)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	if s.ports.Documents == nil {
		writeError(w, errUnavailable)
		return
	}
	docs, err := s.ports.Documents.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	views := make([]documentView, 0, len(docs))
	for i := range docs {
		views = append(views, documentView{
			ID:     docs[i].ID,
			Name:   docs[i].Name,
			Type:   docs[i].Type.String(),
			Size:   docs[i].Size,
			Chunks: docs[i].ChunkCount(),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": views})
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	if s.ports.Documents == nil {
		writeError(w, errUnavailable)
		return
	}
	id := r.PathValue("id")
	if err := s.ports.Documents.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resultResponse{
		Success: true,
		Message: fmt.Sprintf("Document %s deleted successfully", id),
	})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Query) == "" || req.SessionID == "" {
		writeError(w, fmt.Errorf("%w: query and session_id are required", domain.ErrInvalidInput))
		return
	}
	if req.TopK <= 0 {
		req.TopK = s.topK
	}

	result, err := s.ports.Query.Query(r.Context(), req.Query, req.SessionID, req.TopK)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if s.ports.Search == nil {
		writeError(w, errUnavailable)
		return
	}
	var req searchRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, fmt.Errorf("%w: query is required", domain.ErrInvalidInput))
		return
	}
	if req.TopK <= 0 {
		req.TopK = s.topK
	}

	results, err := s.ports.Search.Search(r.Context(), req.Query, req.TopK)
	if err != nil {
		writeError(w, err)
		return
	}
	if results == nil {
		results = []domain.SearchResult{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	if s.ports.Match == nil {
		writeError(w, errUnavailable)
		return
	}
	var req matchRequest
	if !decode(w, r, &req) {
		return
	}
	if len(req.ProfileIDs) == 0 || req.SOWID == "" {
		writeError(w, fmt.Errorf("%w: profile_ids and sow_id are required", domain.ErrInvalidInput))
		return
	}

	report, err := s.ports.Match.MatchProfilesToSOW(r.Context(), req.ProfileIDs, req.SOWID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// decode reads a JSON body into v, writing a 400 on failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, fmt.Errorf("%w: invalid JSON body: %w", domain.ErrInvalidInput, err))
		return false
	}
	return true
}

// statusFor maps the domain error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case domain.IsValidation(err):
		return http.StatusBadRequest
	case domain.IsNotFound(err):
		return http.StatusNotFound
	case domain.IsCapability(err):
		return http.StatusBadGateway
	case errors.Is(err, errUnavailable), errors.Is(err, domain.ErrNotImplemented):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error("api: %v", err)
	}
	writeJSON(w, status, errorResponse{Detail: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Debug("api: encoding response: %v", err)
	}
}
