// Package tui provides an interactive terminal chat for sercha-rag.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

// Ports aggregates the driving ports used by the TUI.
type Ports struct {
	// Query answers questions. Required.
	Query driving.QueryService

	// Sessions creates and resumes conversations. Required.
	Sessions driving.SessionService

	// Documents backs the documents view. Optional.
	Documents driving.DocumentService
}

// NewPorts creates a Ports aggregate with the required services.
func NewPorts(query driving.QueryService, sessions driving.SessionService) *Ports {
	return &Ports{
		Query:    query,
		Sessions: sessions,
	}
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Query == nil {
		return ErrMissingQueryService
	}
	if p.Sessions == nil {
		return ErrMissingSessionService
	}
	return nil
}
