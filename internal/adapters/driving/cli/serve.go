package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/api"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/mcp"
)

var (
	serveAddr string
	serveMCP  bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Serves sessions, uploads, questions and matching as a JSON API.

Routes:
  GET    /health
  POST   /api/sessions           create a session
  GET    /api/sessions           list sessions
  GET    /api/sessions/{id}      session history
  DELETE /api/sessions/{id}      delete a session
  POST   /api/upload             multipart upload, field "file"
  GET    /api/documents          list documents
  DELETE /api/documents/{id}     delete a document and its vectors
  POST   /api/query              {"query", "session_id", "top_k"}
  POST   /api/search             {"query", "top_k"}
  POST   /api/match              {"profile_ids", "sow_id"}

With --mcp the MCP streamable HTTP transport is also mounted at /mcp.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveAddr, "addr", "a", ":8000", "listen address")
	serveCmd.Flags().BoolVar(&serveMCP, "mcp", false, "also serve MCP at /mcp")
	rootCmd.AddCommand(serveCmd)
}

// newAPIServer builds the API server from the configured services.
func newAPIServer() (*api.Server, error) {
	if queryService == nil || sessionService == nil {
		return nil, fmt.Errorf("serve %w", errServiceNotConfigured)
	}

	ports := &api.Ports{
		Query:     queryService,
		Sessions:  sessionService,
		Documents: documentService,
		Search:    searchService,
		Match:     matchService,
		Health:    healthService,
	}
	if serveMCP {
		server, err := mcp.NewServer(mcpPorts(), mcp.WithVersion(version))
		if err != nil {
			return nil, err
		}
		ports.MCP = server.Handler()
	}

	return api.NewServer(ports, api.WithVersion(version), api.WithDefaultTopK(resolveTopK(0)))
}

func runServe(cmd *cobra.Command, _ []string) error {
	server, err := newAPIServer()
	if err != nil {
		return err
	}

	cmd.Printf("API listening on %s\n", serveAddr)
	return server.Run(commandContext(cmd), serveAddr)
}
