// ABOUTME: MCP tool definitions and registration for the review rescue server
// ABOUTME: Defines JSON schemas for every command the client can issue
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/harper/review-rescue/internal/auth"
	"github.com/harper/review-rescue/internal/export"
	"github.com/harper/review-rescue/internal/llm"
	"github.com/harper/review-rescue/internal/storage"
	syncer "github.com/harper/review-rescue/internal/sync"
)

// RegisterTools registers all MCP tools with the server
func RegisterTools(
	server *mcpserver.MCPServer,
	backend storage.Backend,
	reviews *storage.ReviewCache,
	prefs *storage.PreferencesStore,
	sessions *auth.Manager,
	orchestrator *syncer.Orchestrator,
	insights *llm.Service,
	exports *export.Service,
) *Handlers {
	handlers := &Handlers{
		backend:      backend,
		reviews:      reviews,
		prefs:        prefs,
		sessions:     sessions,
		orchestrator: orchestrator,
		insights:     insights,
		exports:      exports,
	}

	// 1. auth_login - Redeem an authorization code for a session
	server.AddTool(mcp.Tool{
		Name:        "auth_login",
		Description: "Log in with a Google authorization code. Stores the session locally; nothing is persisted on failure.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"auth_code": map[string]interface{}{
					"type":        "string",
					"description": "Authorization code from the Google consent flow",
				},
			},
			Required: []string{"auth_code"},
		},
	}, handlers.AuthLogin)

	// 2. auth_logout - Revoke the token and clear the session
	server.AddTool(mcp.Tool{
		Name:        "auth_logout",
		Description: "Log out: revoke the access token (best effort) and clear the local session.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handlers.AuthLogout)

	// 3. auth_status - Report authentication state
	server.AddTool(mcp.Tool{
		Name:        "auth_status",
		Description: "Report whether a valid session exists and when its token expires.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handlers.AuthStatus)

	// 4. get_session - Return the stored session metadata
	server.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Return the stored session metadata (identity and sync markers, never raw tokens).",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handlers.GetSession)

	// 5. get_preferences - Return the merged preference set
	server.AddTool(mcp.Tool{
		Name:        "get_preferences",
		Description: "Return user preferences, always complete: stored values merged over defaults.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handlers.GetPreferences)

	// 6. update_preferences - Merge a partial preference update
	server.AddTool(mcp.Tool{
		Name:        "update_preferences",
		Description: "Update one or more preference fields. Unspecified fields keep their current values.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"theme": map[string]interface{}{
					"type":        "string",
					"description": "UI theme: light, dark, or auto",
				},
				"default_export_format": map[string]interface{}{
					"type":        "string",
					"description": "Default export format: csv, json, or pdf",
				},
				"auto_sync_enabled": map[string]interface{}{
					"type":        "boolean",
					"description": "Whether background sync runs automatically",
				},
				"sync_interval_hours": map[string]interface{}{
					"type":        "number",
					"description": "Hours between automatic syncs",
				},
				"show_photos": map[string]interface{}{
					"type":        "boolean",
					"description": "Whether review photos are shown",
				},
				"default_view": map[string]interface{}{
					"type":        "string",
					"description": "Default review view: list or grid",
				},
				"results_per_page": map[string]interface{}{
					"type":        "number",
					"description": "Reviews per page",
				},
				"insights_cache_hours": map[string]interface{}{
					"type":        "number",
					"description": "Hours before cached insights expire",
				},
				"ai_provider": map[string]interface{}{
					"type":        "string",
					"description": "Insight provider: claude or openai",
				},
				"ai_model": map[string]interface{}{
					"type":        "string",
					"description": "Override model name for the insight provider",
				},
			},
		},
	}, handlers.UpdatePreferences)

	// 7. get_reviews - List cached reviews
	server.AddTool(mcp.Tool{
		Name:        "get_reviews",
		Description: "List cached reviews, optionally filtered by business name and paginated.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"business_name": map[string]interface{}{
					"type":        "string",
					"description": "Only return reviews for this business",
				},
				"limit": map[string]interface{}{
					"type":        "number",
					"description": "Maximum number of reviews to return (default: all)",
				},
				"offset": map[string]interface{}{
					"type":        "number",
					"description": "Number of reviews to skip",
				},
			},
		},
	}, handlers.GetReviews)

	// 8. get_storage_stats - Report storage usage
	server.AddTool(mcp.Tool{
		Name:        "get_storage_stats",
		Description: "Report local storage usage: bytes in use, quota, and estimated remaining capacity.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handlers.GetStorageStats)

	// 9. sync_reviews - Run a sync
	server.AddTool(mcp.Tool{
		Name:        "sync_reviews",
		Description: "Sync reviews from the remote source. Incremental adds and updates; full also reconciles deletions. Rejected if a sync is already running.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"mode": map[string]interface{}{
					"type":        "string",
					"description": "Sync mode: incremental (default) or full",
					"default":     "incremental",
				},
			},
		},
	}, handlers.SyncReviews)

	// 10. generate_insights - AI analysis of the cached reviews
	server.AddTool(mcp.Tool{
		Name:        "generate_insights",
		Description: "Generate AI insights over the cached reviews. Served from cache while fresh; force regenerates.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"force": map[string]interface{}{
					"type":        "boolean",
					"description": "Regenerate even if the cached insights are still fresh",
					"default":     false,
				},
			},
		},
	}, handlers.GenerateInsights)

	// 11. export_reviews - Render an export file
	server.AddTool(mcp.Tool{
		Name:        "export_reviews",
		Description: "Export reviews as CSV or JSON. Records the job in the export history.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"format": map[string]interface{}{
					"type":        "string",
					"description": "Export format: csv or json (default: the preference's default format)",
				},
				"review_ids": map[string]interface{}{
					"type":        "array",
					"description": "Specific review ids to export (default: all)",
					"items": map[string]interface{}{
						"type": "string",
					},
				},
			},
		},
	}, handlers.ExportReviews)

	// 12. export_history - List past export jobs
	server.AddTool(mcp.Tool{
		Name:        "export_history",
		Description: "List recorded export jobs, newest first.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handlers.ExportHistory)

	return handlers
}
