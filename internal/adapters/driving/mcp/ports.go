package mcp

import (
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Query answers questions. Required.
	Query driving.QueryService

	// Search provides raw similarity search.
	Search driving.SearchService

	// Sessions manages conversation sessions.
	Sessions driving.SessionService

	// Documents manages uploaded documents.
	Documents driving.DocumentService

	// Match ranks profiles against a statement of work.
	Match driving.MatchService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Query == nil {
		return ErrMissingQueryService
	}
	return nil
}
