// ABOUTME: Explicit dependency construction shared by the CLI subcommands
// ABOUTME: Opens the charm backend and wires stores, auth, sync, insights, and exports
package commands

import (
	"fmt"
	"log"
	"net/http"

	"github.com/joho/godotenv"

	"github.com/harper/review-rescue/internal/auth"
	"github.com/harper/review-rescue/internal/config"
	"github.com/harper/review-rescue/internal/export"
	"github.com/harper/review-rescue/internal/google"
	"github.com/harper/review-rescue/internal/llm"
	"github.com/harper/review-rescue/internal/storage"
	syncer "github.com/harper/review-rescue/internal/sync"
)

// App bundles the wired services behind each subcommand.
type App struct {
	Config       *config.Config
	Backend      *storage.CharmBackend
	Reviews      *storage.ReviewCache
	Prefs        *storage.PreferencesStore
	Sessions     *auth.Manager
	Orchestrator *syncer.Orchestrator
	Insights     *llm.Service // nil when no provider key is configured
	Exports      *export.Service
}

// newApp loads configuration and opens the storage backend. The caller
// must Close the app when done.
func newApp() (*App, error) {
	// Load .env file if it exists (for API keys)
	if err := godotenv.Load(); err != nil && verbose {
		log.Printf("No .env file found (this is okay for production): %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	backend, err := storage.NewCharmBackend(&storage.Config{
		Host:         cfg.CharmHost,
		LocalDB:      cfg.LocalDBName,
		ReplicatedDB: cfg.ReplicatedDBName,
		AutoSync:     true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	return buildApp(cfg, backend)
}

// buildApp wires the services onto an opened backend.
func buildApp(cfg *config.Config, backend *storage.CharmBackend) (*App, error) {
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	reviews := storage.NewReviewCache(backend)
	prefs := storage.NewPreferencesStore(backend)
	sessionStore := storage.NewSessionStore(backend)

	provider := google.NewOAuthProvider(google.OAuthConfig{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		HTTPClient:   httpClient,
	})
	sessions := auth.NewManager(sessionStore, provider)

	source := google.NewReviewsClient(google.ReviewsConfig{
		BaseURL:    cfg.ReviewsAPIBase,
		HTTPClient: httpClient,
	}, sessions)

	orchestrator := syncer.NewOrchestrator(sessions, source, reviews)
	orchestrator.SetRetryPolicy(cfg.MaxRetries, cfg.RetryDelay)

	app := &App{
		Config:       cfg,
		Backend:      backend,
		Reviews:      reviews,
		Prefs:        prefs,
		Sessions:     sessions,
		Orchestrator: orchestrator,
		Exports:      export.NewService(reviews, storage.NewExportHistoryLog(backend)),
	}

	generators := map[string]llm.Generator{}
	if cfg.AnthropicKey != "" {
		gen, err := llm.NewClaudeGenerator(llm.ClaudeConfig{
			APIKey:     cfg.AnthropicKey,
			Model:      cfg.ClaudeModel,
			MaxRetries: cfg.MaxRetries,
			RetryDelay: cfg.RetryDelay,
		})
		if err != nil {
			return nil, err
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
			return nil, err
		}
		generators["openai"] = gen
	}
	if len(generators) > 0 {
		app.Insights = llm.NewService(generators, storage.NewInsightsCache(backend), prefs, reviews)
	}

	return app, nil
}

// Close releases the storage backend.
func (a *App) Close() {
	if a.Backend != nil {
		if err := a.Backend.Close(); err != nil && verbose {
			log.Printf("Warning: error closing storage: %v", err)
		}
	}
}
