package cli

import (
	"fmt"
	"net"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/mcp"
)

var mcpAddr string

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Model Context Protocol server",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Expose query, search and matching to MCP clients",
	Long: `Serve the document assistant to MCP clients.

Without --addr the server speaks JSON-RPC over stdio, which is what desktop
assistants expect:

  {
    "mcpServers": {
      "sercha-rag": {"command": "/path/to/sercha-rag", "args": ["mcp", "serve"]}
    }
  }

With --addr it serves the streamable HTTP transport instead. To run MCP next
to the REST API on one port use "sercha-rag serve --mcp".`,
	Example: `  sercha-rag mcp serve
  sercha-rag mcp serve --addr 127.0.0.1:8090`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().StringVarP(&mcpAddr, "addr", "a", "", "HTTP listen address (empty = stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	if queryService == nil {
		return fmt.Errorf("mcp %w", errServiceNotConfigured)
	}
	server, err := mcp.NewServer(mcpPorts(), mcp.WithVersion(version))
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)
	if mcpAddr == "" {
		return server.Run(ctx)
	}

	ln, err := net.Listen("tcp", mcpAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", mcpAddr, err)
	}
	cmd.Printf("MCP listening on http://%s\n", ln.Addr())
	return server.Serve(ctx, ln)
}

func mcpPorts() *mcp.Ports {
	return &mcp.Ports{
		Query:     queryService,
		Search:    searchService,
		Sessions:  sessionService,
		Documents: documentService,
		Match:     matchService,
	}
}
