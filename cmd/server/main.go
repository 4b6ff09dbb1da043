// ABOUTME: Main entry point for the partfinder MCP server with stdio transport
// ABOUTME: Loads config, opens the catalog, and serves search tools
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/harper/partfinder/internal/bootstrap"
	"github.com/harper/partfinder/internal/config"
	"github.com/harper/partfinder/internal/mcp"
	"github.com/joho/godotenv"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

func main() {
	watch := flag.Bool("watch", false, "Reload the index when the catalog database changes")
	flag.Parse()

	// Load .env file if it exists (for API keys)
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found (this is okay for production): %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if cfg.OpenAIKey == "" {
		log.Println("Warning: OPENAI_API_KEY not set - searches will fail and replies will use templates")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := bootstrap.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to build search pipeline: %v", err)
	}
	defer svc.Close()

	if *watch {
		svc.Watch(ctx)
	}

	server := mcpserver.NewMCPServer(
		"partfinder",
		"0.1.0",
	)
	mcp.RegisterTools(server, svc.Search, cfg.DefaultTopK)

	log.Println("partfinder MCP server starting on stdio...")
	if err := mcpserver.ServeStdio(server); err != nil {
		log.Printf("Server error: %v", err)
	}
}
