// Package mcp provides an MCP (Model Context Protocol) server adapter for sercha-rag.
// It lets AI assistants ask questions about uploaded documents and manage sessions.
package mcp

import "errors"

// ErrMissingQueryService is returned when the query service is not provided.
var ErrMissingQueryService = errors.New("mcp: query service is required")

// errUnavailable is returned by tools whose port was not injected.
var errUnavailable = errors.New("mcp: tool not available")
