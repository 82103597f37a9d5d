package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// Resource URIs look like sercha-rag://documents/{id}.
const uriScheme = "sercha-rag://"

const (
	mimeJSON = "application/json"
	mimeText = "text/plain"
)

type sessionOutput struct {
	ID        string    `json:"id"`
	Messages  int       `json:"messages"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *Server) registerResources() {
	if s.ports.Documents != nil {
		s.server.AddResource(&mcp.Resource{
			URI:         uriScheme + "documents",
			Name:        "documents",
			Description: "Uploaded documents with their type, size and chunk count",
			MIMEType:    mimeJSON,
		}, s.handleDocumentsResource)
		s.server.AddResourceTemplate(&mcp.ResourceTemplate{
			URITemplate: uriScheme + "documents/{documentId}",
			Name:        "document-content",
			Description: "Extracted text of one document",
			MIMEType:    mimeText,
		}, s.handleDocumentContentResource)
	}

	if s.ports.Sessions != nil {
		s.server.AddResource(&mcp.Resource{
			URI:         uriScheme + "sessions",
			Name:        "sessions",
			Description: "Conversation sessions, most recently active first",
			MIMEType:    mimeJSON,
		}, s.handleSessionsResource)
		s.server.AddResourceTemplate(&mcp.ResourceTemplate{
			URITemplate: uriScheme + "sessions/{sessionId}",
			Name:        "session-transcript",
			Description: "Transcript of one conversation session",
			MIMEType:    mimeText,
		}, s.handleSessionResource)
	}
}

func (s *Server) handleDocumentsResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	if s.ports.Documents == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	docs, err := s.ports.Documents.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	return jsonResult(req.Params.URI, toDocumentOutputs(docs))
}

func (s *Server) handleDocumentContentResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	id := extractID(req.Params.URI, "documents/")
	if s.ports.Documents == nil || id == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	content, err := s.ports.Documents.GetContent(ctx, id)
	if err != nil {
		return nil, notFoundOr(req.Params.URI, fmt.Errorf("getting document content: %w", err))
	}
	return textResult(req.Params.URI, mimeText, content), nil
}

func (s *Server) handleSessionsResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	if s.ports.Sessions == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	summaries, err := s.ports.Sessions.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	out := make([]sessionOutput, len(summaries))
	for i, sum := range summaries {
		out[i] = sessionOutput{ID: sum.ID, Messages: sum.MessageCount, UpdatedAt: sum.UpdatedAt}
	}
	return jsonResult(req.Params.URI, out)
}

func (s *Server) handleSessionResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	id := extractID(req.Params.URI, "sessions/")
	if s.ports.Sessions == nil || id == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	transcript, err := s.ports.Sessions.RenderForPrompt(ctx, id, 0)
	if err != nil {
		return nil, notFoundOr(req.Params.URI, fmt.Errorf("reading session: %w", err))
	}
	return textResult(req.Params.URI, mimeText, transcript), nil
}

// notFoundOr reports domain.ErrNotFound as the protocol's resource-not-found error.
func notFoundOr(uri string, err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return mcp.ResourceNotFoundError(uri)
	}
	return err
}

func jsonResult(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", uri, err)
	}
	return textResult(uri, mimeJSON, string(data)), nil
}

func textResult(uri, mimeType, text string) *mcp.ReadResourceResult {
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{URI: uri, MIMEType: mimeType, Text: text}},
	}
}

// extractID returns the id after sercha-rag://{kind}. Nested paths yield "".
func extractID(uri, kind string) string {
	id, ok := strings.CutPrefix(uri, uriScheme+kind)
	if !ok || strings.Contains(id, "/") {
		return ""
	}
	return id
}
