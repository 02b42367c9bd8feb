// ABOUTME: Main entry point for the Review Rescue MCP server with stdio transport
// ABOUTME: Initializes storage, sync orchestration, and MCP server with all tools
package main

import (
	"log"
	"net/http"

	"github.com/joho/godotenv"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/harper/review-rescue/internal/auth"
	"github.com/harper/review-rescue/internal/config"
	"github.com/harper/review-rescue/internal/export"
	"github.com/harper/review-rescue/internal/google"
	"github.com/harper/review-rescue/internal/llm"
	"github.com/harper/review-rescue/internal/mcp"
	"github.com/harper/review-rescue/internal/storage"
	syncer "github.com/harper/review-rescue/internal/sync"
)

func main() {
	// Load .env file if it exists (for API keys)
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found (this is okay for production): %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if !cfg.HasInsightProvider() {
		log.Println("Warning: no ANTHROPIC_API_KEY or OPENAI_API_KEY set - the generate_insights tool will not work")
	}

	// Initialize Charm-backed storage with local and replicated partitions
	backend, err := storage.NewCharmBackend(&storage.Config{
		Host:         cfg.CharmHost,
		LocalDB:      cfg.LocalDBName,
		ReplicatedDB: cfg.ReplicatedDBName,
		AutoSync:     true,
	})
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer backend.Close()

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	reviews := storage.NewReviewCache(backend)
	prefs := storage.NewPreferencesStore(backend)

	provider := google.NewOAuthProvider(google.OAuthConfig{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		HTTPClient:   httpClient,
	})
	sessions := auth.NewManager(storage.NewSessionStore(backend), provider)

	source := google.NewReviewsClient(google.ReviewsConfig{
		BaseURL:    cfg.ReviewsAPIBase,
		HTTPClient: httpClient,
	}, sessions)
	orchestrator := syncer.NewOrchestrator(sessions, source, reviews)
	orchestrator.SetRetryPolicy(cfg.MaxRetries, cfg.RetryDelay)

	exports := export.NewService(reviews, storage.NewExportHistoryLog(backend))

	var insights *llm.Service
	generators := map[string]llm.Generator{}
	if cfg.AnthropicKey != "" {
		gen, err := llm.NewClaudeGenerator(llm.ClaudeConfig{
			APIKey:     cfg.AnthropicKey,
			Model:      cfg.ClaudeModel,
			MaxRetries: cfg.MaxRetries,
			RetryDelay: cfg.RetryDelay,
		})
		if err != nil {
			log.Fatalf("Failed to initialize Claude generator: %v", err)
		}
		generators["claude"] = gen
	}
	if cfg.OpenAIKey != "" {
		gen, err := llm.NewOpenAIGenerator(llm.OpenAIConfig{
			APIKey:     cfg.OpenAIKey,
			Model:      cfg.OpenAIModel,
			MaxRetries: cfg.MaxRetries,
			RetryDelay: cfg.RetryDelay,
		})
		if err != nil {
			log.Fatalf("Failed to initialize OpenAI generator: %v", err)
		}
		generators["openai"] = gen
	}
	if len(generators) > 0 {
		insights = llm.NewService(generators, storage.NewInsightsCache(backend), prefs, reviews)
	}

	// Create MCP server
	server := mcpserver.NewMCPServer(
		"Review Rescue",
		"0.1.0",
	)

	mcp.RegisterTools(server, backend, reviews, prefs, sessions, orchestrator, insights, exports)

	// Start server with stdio transport
	log.Println("Review Rescue MCP server starting on stdio...")
	if err := mcpserver.ServeStdio(server); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
