// ABOUTME: MCP command starts Model Context Protocol server
// ABOUTME: Enables LLM agents like Claude to browse and sync reviews via stdio
package commands

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/harper/review-rescue/internal/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// NewMCPCmd creates the MCP command
func NewMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for LLM agents",
		Long: `Start MCP server for LLM agents

Runs Review Rescue as an MCP (Model Context Protocol) server, exposing
login, sync, review browsing, insights, and exports over stdio.

Configure in Claude Desktop's config file to enable the tools.`,
		RunE: runMCP,
		Example: `  # Start MCP server (typically called by Claude Desktop)
  reviewrescue mcp

  # Configure in claude_desktop_config.json:
  # {
  #   "mcpServers": {
  #     "reviewrescue": {
  #       "command": "reviewrescue",
  #       "args": ["mcp"]
  #     }
  #   }
  # }`,
	}

	return cmd
}

// runMCP starts the MCP server
func runMCP(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	if app.Insights == nil && !quiet {
		log.Println("Warning: no LLM API key set - the generate_insights tool will report an error")
	}

	server := mcpserver.NewMCPServer(
		"Review Rescue",
		"0.1.0",
	)

	mcp.RegisterTools(server, app.Backend, app.Reviews, app.Prefs,
		app.Sessions, app.Orchestrator, app.Insights, app.Exports)

	// Setup graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !quiet {
		log.Println("Review Rescue MCP server starting on stdio...")
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
