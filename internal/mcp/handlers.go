// ABOUTME: MCP tool handler implementations for the review rescue server
// ABOUTME: Every tool answers the structured success/data-or-error envelope

package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/harper/review-rescue/internal/auth"
	"github.com/harper/review-rescue/internal/errs"
	"github.com/harper/review-rescue/internal/export"
	"github.com/harper/review-rescue/internal/google"
	"github.com/harper/review-rescue/internal/llm"
	"github.com/harper/review-rescue/internal/models"
	"github.com/harper/review-rescue/internal/storage"
	syncer "github.com/harper/review-rescue/internal/sync"
)

// Handlers contains the handler functions for all MCP tools
type Handlers struct {
	backend      storage.Backend
	reviews      *storage.ReviewCache
	prefs        *storage.PreferencesStore
	sessions     *auth.Manager
	orchestrator *syncer.Orchestrator
	insights     *llm.Service // nil when no provider is configured
	exports      *export.Service
}

// response envelope shared by every tool
type toolError struct {
	Kind      errs.Kind `json:"kind"`
	Message   string    `json:"message"`
	Retryable bool      `json:"retryable"`
}

func respondOK(data any) (*mcp.CallToolResult, error) {
	payload, err := json.Marshal(map[string]any{
		"success": true,
		"data":    data,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(payload)), nil
}

func respondErr(err error) (*mcp.CallToolResult, error) {
	payload, merr := json.Marshal(map[string]any{
		"success": false,
		"error": toolError{
			Kind:      errs.KindOf(err),
			Message:   err.Error(),
			Retryable: errs.IsRetryable(err),
		},
	})
	if merr != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(payload)), nil
}

// AuthLogin handles the auth_login tool
func (h *Handlers) AuthLogin(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	code, err := request.RequireString("auth_code")
	if err != nil {
		return mcp.NewToolResultError("auth_code argument is required and must be a string"), nil
	}

	if _, err := h.sessions.Authenticate(google.WithAuthCode(ctx, code)); err != nil {
		return respondErr(err)
	}

	session, err := h.sessions.Session()
	if err != nil {
		return respondErr(err)
	}
	return respondOK(map[string]any{
		"user_id": session.UserID,
		"email":   session.Email,
	})
}

// AuthLogout handles the auth_logout tool
func (h *Handlers) AuthLogout(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := h.sessions.Logout(ctx); err != nil {
		return respondErr(err)
	}
	return respondOK(map[string]any{"logged_out": true})
}

// AuthStatus handles the auth_status tool
func (h *Handlers) AuthStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	authenticated, err := h.sessions.IsAuthenticated()
	if err != nil {
		return respondErr(err)
	}

	data := map[string]any{"authenticated": authenticated}
	if session, err := h.sessions.Session(); err == nil && session != nil {
		data["email"] = session.Email
		data["token_expires_at"] = session.TokenExpiresAt.Format(time.RFC3339)
	}
	return respondOK(data)
}

// GetSession handles the get_session tool
func (h *Handlers) GetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	session, err := h.sessions.Session()
	if err != nil {
		return respondErr(err)
	}
	if session == nil {
		return respondOK(nil)
	}
	// The raw tokens stay server-side
	return respondOK(map[string]any{
		"user_id":           session.UserID,
		"email":             session.Email,
		"is_authenticated":  session.IsAuthenticated,
		"token_expires_at":  session.TokenExpiresAt.Format(time.RFC3339),
		"last_sync_at":      timeOrNil(session.LastSyncAt),
		"last_full_sync_at": timeOrNil(session.LastFullSyncAt),
	})
}

// GetPreferences handles the get_preferences tool
func (h *Handlers) GetPreferences(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	prefs, err := h.prefs.Get()
	if err != nil {
		return respondErr(err)
	}
	return respondOK(prefs)
}

// UpdatePreferences handles the update_preferences tool
func (h *Handlers) UpdatePreferences(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]any)
	if !ok || len(args) == 0 {
		return mcp.NewToolResultError("at least one preference field is required"), nil
	}

	// Round-trip the arguments through JSON into the pointer-field update
	// so only the provided keys are applied
	raw, err := json.Marshal(args)
	if err != nil {
		return respondErr(errs.Wrap(errs.SerializationError, "invalid preference update", err))
	}
	var update models.PreferencesUpdate
	if err := json.Unmarshal(raw, &update); err != nil {
		return respondErr(errs.Wrap(errs.SerializationError, "invalid preference update", err))
	}

	merged, err := h.prefs.Update(update)
	if err != nil {
		return respondErr(err)
	}
	return respondOK(merged)
}

// GetReviews handles the get_reviews tool
func (h *Handlers) GetReviews(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	reviews, err := h.reviews.List()
	if err != nil {
		return respondErr(err)
	}

	if business := request.GetString("business_name", ""); business != "" {
		filtered := reviews[:0:0]
		for _, r := range reviews {
			if r.BusinessName == business {
				filtered = append(filtered, r)
			}
		}
		reviews = filtered
	}

	total := len(reviews)
	offset := request.GetInt("offset", 0)
	limit := request.GetInt("limit", 0)
	if offset > 0 {
		if offset > len(reviews) {
			offset = len(reviews)
		}
		reviews = reviews[offset:]
	}
	if limit > 0 && limit < len(reviews) {
		reviews = reviews[:limit]
	}

	return respondOK(map[string]any{
		"reviews": reviews,
		"total":   total,
	})
}

// GetStorageStats handles the get_storage_stats tool
func (h *Handlers) GetStorageStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := storage.ComputeStats(h.backend, h.reviews)
	if err != nil {
		return respondErr(err)
	}
	return respondOK(stats)
}

// SyncReviews handles the sync_reviews tool
func (h *Handlers) SyncReviews(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	mode := syncer.Mode(request.GetString("mode", string(syncer.ModeIncremental)))
	if mode != syncer.ModeIncremental && mode != syncer.ModeFull {
		return mcp.NewToolResultError(fmt.Sprintf("mode must be incremental or full, got %q", mode)), nil
	}

	result, err := h.orchestrator.Run(ctx, mode)
	if err != nil {
		return respondErr(err)
	}
	return respondOK(result)
}

// GenerateInsights handles the generate_insights tool
func (h *Handlers) GenerateInsights(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if h.insights == nil {
		return respondErr(errs.New(errs.Unknown, "no insight provider configured; set OPENAI_API_KEY or ANTHROPIC_API_KEY"))
	}

	force := request.GetBool("force", false)
	insights, err := h.insights.Insights(ctx, force)
	if err != nil {
		return respondErr(err)
	}
	return respondOK(map[string]any{
		"insights": insights,
		"count":    len(insights),
	})
}

// ExportReviews handles the export_reviews tool
func (h *Handlers) ExportReviews(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	format := request.GetString("format", "")
	if format == "" {
		prefs, err := h.prefs.Get()
		if err != nil {
			return respondErr(err)
		}
		format = prefs.DefaultExportFormat
	}

	var ids []string
	if args, ok := request.Params.Arguments.(map[string]any); ok {
		if raw, exists := args["review_ids"]; exists {
			if arr, ok := raw.([]interface{}); ok {
				for _, item := range arr {
					if id, ok := item.(string); ok {
						ids = append(ids, id)
					}
				}
			}
		}
	}

	file, job, err := h.exports.Run(format, ids)
	if err != nil {
		return respondErr(err)
	}
	return respondOK(map[string]any{
		"file_name": file.Name,
		"mime_type": file.MIMEType,
		"size":      len(file.Data),
		"content":   string(file.Data),
		"job_id":    job.ID,
	})
}

// ExportHistory handles the export_history tool
func (h *Handlers) ExportHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	jobs, err := h.exports.History()
	if err != nil {
		return respondErr(err)
	}
	return respondOK(map[string]any{
		"exports": jobs,
		"count":   len(jobs),
	})
}

func timeOrNil(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.Format(time.RFC3339)
}
