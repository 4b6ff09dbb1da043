// ABOUTME: MCP command starts Model Context Protocol server
// ABOUTME: Enables LLM agents like Claude to search parts via stdio
package commands

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/harper/partfinder/internal/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
)

// NewMCPCmd creates the MCP command
func NewMCPCmd() *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for LLM agents",
		Long: `Start MCP server for LLM agents

Runs partfinder as an MCP (Model Context Protocol) server, enabling
LLM agents like Claude to search the parts catalog, look up and
compare products, and hold a sales conversation via stdio.

With --watch the catalog database is watched and the search index
reloads shortly after it changes.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMCP(cmd, watch)
		},
		Example: `  # Start MCP server (typically called by Claude Desktop)
  partfinder mcp

  # Reload automatically when the catalog database changes
  partfinder mcp --watch

  # Configure in claude_desktop_config.json:
  # {
  #   "mcpServers": {
  #     "partfinder": {
  #       "command": "partfinder",
  #       "args": ["mcp", "--watch"]
  #     }
  #   }
  # }`,
	}

	cmd.Flags().BoolVar(&watch, "watch", false, "Reload the search index when the catalog database changes")

	return cmd
}

// runMCP starts the MCP server
func runMCP(cmd *cobra.Command, watch bool) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	server := mcpserver.NewMCPServer(
		"partfinder",
		versionInfo.Version,
	)
	mcp.RegisterTools(server, a.Search, a.Config.DefaultTopK)

	if watch {
		a.Watch(ctx)
	}

	if !quiet {
		log.Println("partfinder MCP server starting on stdio...")
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- mcpserver.ServeStdio(server)
	}()

	select {
	case <-ctx.Done():
		if !quiet {
			log.Println("Shutdown signal received, shutting down...")
		}
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	return nil
}
