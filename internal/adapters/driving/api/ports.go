// Package api serves the sercha-rag services over a JSON HTTP API.
package api

import (
	"errors"
	"net/http"

	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

var (
	// ErrMissingQueryService is returned when the query service is not provided.
	ErrMissingQueryService = errors.New("api: query service is required")

	// ErrMissingSessionService is returned when the session service is not provided.
	ErrMissingSessionService = errors.New("api: session service is required")
)

// Ports aggregates the driving ports served by the API.
type Ports struct {
	// Query answers questions. Required.
	Query driving.QueryService

	// Sessions manages conversation sessions. Required.
	Sessions driving.SessionService

	// Documents backs upload, listing and deletion. Routes return 503 without it.
	Documents driving.DocumentService

	// Search provides raw similarity search.
	Search driving.SearchService

	// Match ranks profiles against a statement of work.
	Match driving.MatchService

	// Health reports capability status. GET /health answers "ok" without it.
	Health driving.HealthService

	// MCP is mounted at /mcp when set.
	MCP http.Handler
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.Query == nil {
		return ErrMissingQueryService
	}
	if p.Sessions == nil {
		return ErrMissingSessionService
	}
	return nil
}
