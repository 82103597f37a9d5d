// Package services holds the RAG pipeline itself: ingestion (normalise,
// chunk, embed, upsert), contextualised querying over session history,
// candidate matching and settings. Each service implements one driving
// port and reaches storage and AI providers only through driven ports, so
// the CLI, HTTP API, MCP server and TUI share the same behaviour.
package services
