package cli

import (
	"fmt"
	"net"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server for AI assistant integration.

The server exposes the ask, list_documents and usage tools plus the
docqa://usage and docqa://documents/{documentId} resources. Daily usage
counters live as long as the server process.

By default, the server communicates over stdio using JSON-RPC.
Use --port to start an HTTP server instead; it also answers GET /healthz
(liveness) and GET /readyz (pings the vector store, embedding model and LLM).

Examples:
  # Stdio mode (default)
  docqa mcp serve

  # HTTP mode for a single tenant
  docqa mcp serve --port 8080 --tenant acme

Claude Desktop configuration (claude_desktop_config.json):
  {
    "mcpServers": {
      "docqa": {
        "command": "/path/to/docqa",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	RunE: runMCPServe,
}

var (
	mcpPort int
	mcpHost string
)

func init() {
	mcpServeCmd.Flags().IntVarP(&mcpPort, "port", "p", 0, "HTTP port (0 = use stdio)")
	mcpServeCmd.Flags().StringVar(&mcpHost, "host", "localhost", "HTTP bind address, used with --port")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	if mcpPort < 0 || mcpPort > 65535 {
		return fmt.Errorf("invalid --port %d", mcpPort)
	}
	if queryService == nil {
		return notConfigured("query service")
	}

	server, err := mcp.NewServer(&mcp.Ports{
		Query:    queryService,
		Document: documentService,
		Usage:    usageService,
		Health:   healthService,
		Tenant:   tenant(),
	})
	if err != nil {
		return err
	}

	if mcpPort == 0 {
		return server.Run(cmd.Context())
	}

	addr := net.JoinHostPort(mcpHost, strconv.Itoa(mcpPort))
	fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://%s (health: /healthz, readiness: /readyz)\n", addr)
	return server.RunHTTP(cmd.Context(), addr)
}
