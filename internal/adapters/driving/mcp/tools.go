package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// defaultSearchLimit is used when the search tool is called without a limit.
const defaultSearchLimit = 5

// QueryInput is the input schema for the query tool.
type QueryInput struct {
	Query     string `json:"query" jsonschema:"the question to answer from the uploaded documents"`
	SessionID string `json:"session_id,omitempty" jsonschema:"session to continue; a new one is created when empty"`
	TopK      int    `json:"top_k,omitempty" jsonschema:"number of chunks to retrieve (default 3)"`
}

// QueryOutput is the output schema for the query tool.
type QueryOutput struct {
	SessionID           string             `json:"session_id"`
	Response            string             `json:"response"`
	ContextualizedQuery string             `json:"contextualized_query"`
	Sources             []domain.SourceRef `json:"sources"`
	Degraded            []string           `json:"degraded,omitempty"`
}

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"text to find similar chunks for"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results to return (default 5)"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
}

// SearchResultOutput represents a single search result.
type SearchResultOutput struct {
	Source     string  `json:"source"`
	ChunkIndex int     `json:"chunk_index"`
	Score      float64 `json:"score"`
	Text       string  `json:"text"`
}

// CreateSessionInput is the input schema for the create_session tool.
type CreateSessionInput struct{}

// CreateSessionOutput is the output schema for the create_session tool.
type CreateSessionOutput struct {
	SessionID string `json:"session_id"`
}

// ListDocumentsInput is the input schema for the list_documents tool.
type ListDocumentsInput struct{}

// ListDocumentsOutput is the output schema for the list_documents tool.
type ListDocumentsOutput struct {
	Documents []DocumentOutput `json:"documents"`
}

// DocumentOutput describes an uploaded document.
type DocumentOutput struct {
	ID     string `json:"id"`
	Type   string `json:"type"`
	Size   int64  `json:"size"`
	Chunks int    `json:"chunks"`
}

// IngestTextInput is the input schema for the ingest_text tool.
type IngestTextInput struct {
	Name string `json:"name" jsonschema:"document name used as its id"`
	Text string `json:"text" jsonschema:"the document text"`
}

// IngestTextOutput is the output schema for the ingest_text tool.
type IngestTextOutput struct {
	DocumentID  string `json:"document_id"`
	Chunks      int    `json:"chunks"`
	ZeroVectors int    `json:"zero_vectors,omitempty"`
}

// MatchInput is the input schema for the match_profiles tool.
type MatchInput struct {
	ProfileIDs []string `json:"profile_ids" jsonschema:"document ids of the candidate profiles"`
	SOWID      string   `json:"sow_id" jsonschema:"document id of the statement of work"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "query",
		Description: "Answer a question from the uploaded documents, keeping conversation context per session",
	}, s.handleQuery)

	if s.ports.Search != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "search",
			Description: "Find the document chunks most similar to a text",
		}, s.handleSearch)
	}

	if s.ports.Sessions != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "create_session",
			Description: "Start a new conversation session",
		}, s.handleCreateSession)
	}

	if s.ports.Documents != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "list_documents",
			Description: "List uploaded documents",
		}, s.handleListDocuments)
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "ingest_text",
			Description: "Index a plain text document",
		}, s.handleIngestText)
	}

	if s.ports.Match != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "match_profiles",
			Description: "Rank candidate profiles by the skills a statement of work requires",
		}, s.handleMatch)
	}
}

// handleQuery handles the query tool invocation.
func (s *Server) handleQuery(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input QueryInput,
) (*mcp.CallToolResult, QueryOutput, error) {
	sessionID := input.SessionID
	if sessionID == "" {
		if s.ports.Sessions == nil {
			return nil, QueryOutput{}, fmt.Errorf("%w: session_id is required", domain.ErrInvalidInput)
		}
		id, err := s.ports.Sessions.Create(ctx)
		if err != nil {
			return nil, QueryOutput{}, fmt.Errorf("creating session: %w", err)
		}
		sessionID = id
	}

	result, err := s.ports.Query.Query(ctx, input.Query, sessionID, input.TopK)
	if err != nil {
		return nil, QueryOutput{}, err
	}

	output := QueryOutput{
		SessionID:           sessionID,
		Response:            result.Response,
		ContextualizedQuery: result.ContextualizedQuery,
		Sources:             result.Sources,
	}
	for _, d := range result.Degraded {
		output.Degraded = append(output.Degraded, string(d))
	}
	return nil, output, nil
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	if s.ports.Search == nil {
		return nil, SearchOutput{}, errUnavailable
	}

	limit := input.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	results, err := s.ports.Search.Search(ctx, input.Query, limit)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results: make([]SearchResultOutput, len(results)),
		Count:   len(results),
	}
	for i := range results {
		output.Results[i] = SearchResultOutput{
			Source:     results[i].Source,
			ChunkIndex: results[i].ChunkIndex,
			Score:      results[i].Score,
			Text:       results[i].Text,
		}
	}

	return nil, output, nil
}

// handleCreateSession handles the create_session tool invocation.
func (s *Server) handleCreateSession(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ CreateSessionInput,
) (*mcp.CallToolResult, CreateSessionOutput, error) {
	if s.ports.Sessions == nil {
		return nil, CreateSessionOutput{}, errUnavailable
	}

	id, err := s.ports.Sessions.Create(ctx)
	if err != nil {
		return nil, CreateSessionOutput{}, err
	}
	return nil, CreateSessionOutput{SessionID: id}, nil
}

// handleListDocuments handles the list_documents tool invocation.
func (s *Server) handleListDocuments(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ListDocumentsInput,
) (*mcp.CallToolResult, ListDocumentsOutput, error) {
	if s.ports.Documents == nil {
		return nil, ListDocumentsOutput{}, errUnavailable
	}

	docs, err := s.ports.Documents.List(ctx)
	if err != nil {
		return nil, ListDocumentsOutput{}, err
	}

	return nil, ListDocumentsOutput{Documents: toDocumentOutputs(docs)}, nil
}

// handleIngestText handles the ingest_text tool invocation.
func (s *Server) handleIngestText(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestTextInput,
) (*mcp.CallToolResult, IngestTextOutput, error) {
	if s.ports.Documents == nil {
		return nil, IngestTextOutput{}, errUnavailable
	}

	result, err := s.ports.Documents.IngestText(ctx, input.Name, input.Text)
	if result == nil {
		return nil, IngestTextOutput{}, err
	}

	// A result with an error means the record was saved but indexing failed.
	output := IngestTextOutput{
		DocumentID:  result.Document.ID,
		Chunks:      result.ChunkCount,
		ZeroVectors: result.ZeroVectors,
	}
	return nil, output, err
}

// handleMatch handles the match_profiles tool invocation.
func (s *Server) handleMatch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input MatchInput,
) (*mcp.CallToolResult, domain.MatchReport, error) {
	if s.ports.Match == nil {
		return nil, domain.MatchReport{}, errUnavailable
	}

	report, err := s.ports.Match.MatchProfilesToSOW(ctx, input.ProfileIDs, input.SOWID)
	if err != nil {
		return nil, domain.MatchReport{}, err
	}
	return nil, *report, nil
}

func toDocumentOutputs(docs []domain.Document) []DocumentOutput {
	out := make([]DocumentOutput, len(docs))
	for i := range docs {
		out[i] = DocumentOutput{
			ID:     docs[i].ID,
			Type:   docs[i].Type.String(),
			Size:   docs[i].Size,
			Chunks: docs[i].ChunkCount(),
		}
	}
	return out
}
