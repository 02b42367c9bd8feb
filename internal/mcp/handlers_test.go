// ABOUTME: Tests for the MCP tool handlers and their response envelope
// ABOUTME: Uses the in-memory backend and fake collaborators throughout

package mcp

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/harper/review-rescue/internal/auth"
	"github.com/harper/review-rescue/internal/export"
	"github.com/harper/review-rescue/internal/models"
	"github.com/harper/review-rescue/internal/storage"
	syncer "github.com/harper/review-rescue/internal/sync"
)

type stubProvider struct {
	authErr error
}

func (s *stubProvider) Authenticate(ctx context.Context) (*auth.ProviderToken, error) {
	if s.authErr != nil {
		return nil, s.authErr
	}
	return &auth.ProviderToken{
		AccessToken:  "tok",
		RefreshToken: "rt",
		ExpiresIn:    time.Hour,
		UserID:       "u_1",
		Email:        "harper@example.com",
	}, nil
}
func (s *stubProvider) Refresh(ctx context.Context, refreshToken string) (*auth.ProviderToken, error) {
	return &auth.ProviderToken{AccessToken: "tok2", ExpiresIn: time.Hour}, nil
}
func (s *stubProvider) Revoke(ctx context.Context, accessToken string) error { return nil }

type stubSource struct {
	reviews []models.Review
}

func (s *stubSource) FetchAll(ctx context.Context, pageToken string) (*syncer.Page, error) {
	return &syncer.Page{Reviews: s.reviews}, nil
}
func (s *stubSource) FetchSince(ctx context.Context, since time.Time) ([]models.Review, error) {
	return s.reviews, nil
}

func newTestHandlers(t *testing.T) (*Handlers, *storage.MemoryBackend) {
	t.Helper()
	backend := storage.NewMemoryBackend()
	reviews := storage.NewReviewCache(backend)
	prefs := storage.NewPreferencesStore(backend)
	sessionStore := storage.NewSessionStore(backend)
	sessions := auth.NewManager(sessionStore, &stubProvider{})
	history := storage.NewExportHistoryLog(backend)

	source := &stubSource{reviews: []models.Review{
		{ExternalID: "g_1", BusinessName: "Kuma's Corner", Rating: 5, ReviewText: "great"},
		{ExternalID: "g_2", BusinessName: "Intelligentsia", Rating: 4, ReviewText: "fine"},
	}}
	orchestrator := syncer.NewOrchestrator(sessions, source, reviews)
	orchestrator.SetRetryPolicy(1, time.Millisecond)

	return &Handlers{
		backend:      backend,
		reviews:      reviews,
		prefs:        prefs,
		sessions:     sessions,
		orchestrator: orchestrator,
		exports:      export.NewService(reviews, history),
	}, backend
}

func makeRequest(args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{Arguments: args},
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Kind      string `json:"kind"`
		Message   string `json:"message"`
		Retryable bool   `json:"retryable"`
	} `json:"error"`
}

func decodeResult(t *testing.T, result *mcp.CallToolResult) envelope {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("no content in result")
	}
	tc, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected TextContent, got %T", result.Content[0])
	}
	var env envelope
	if err := json.Unmarshal([]byte(tc.Text), &env); err != nil {
		t.Fatalf("response is not the JSON envelope: %v\n%s", err, tc.Text)
	}
	return env
}

func login(t *testing.T, h *Handlers) {
	t.Helper()
	result, err := h.AuthLogin(context.Background(), makeRequest(map[string]interface{}{
		"auth_code": "code-1",
	}))
	if err != nil {
		t.Fatal(err)
	}
	if env := decodeResult(t, result); !env.Success {
		t.Fatalf("login failed: %+v", env.Error)
	}
}

func TestAuthLoginAndStatus(t *testing.T) {
	h, _ := newTestHandlers(t)

	result, err := h.AuthStatus(context.Background(), makeRequest(nil))
	if err != nil {
		t.Fatal(err)
	}
	env := decodeResult(t, result)
	var status struct {
		Authenticated bool `json:"authenticated"`
	}
	_ = json.Unmarshal(env.Data, &status)
	if status.Authenticated {
		t.Error("authenticated before login")
	}

	login(t, h)

	result, _ = h.AuthStatus(context.Background(), makeRequest(nil))
	env = decodeResult(t, result)
	_ = json.Unmarshal(env.Data, &status)
	if !status.Authenticated {
		t.Error("not authenticated after login")
	}
}

func TestAuthLogin_MissingCode(t *testing.T) {
	h, _ := newTestHandlers(t)
	result, err := h.AuthLogin(context.Background(), makeRequest(nil))
	if err != nil {
		t.Fatal(err)
	}
	if !result.IsError {
		t.Error("missing auth_code should produce a tool error")
	}
}

func TestGetSession_None(t *testing.T) {
	h, _ := newTestHandlers(t)
	result, err := h.GetSession(context.Background(), makeRequest(nil))
	if err != nil {
		t.Fatal(err)
	}
	env := decodeResult(t, result)
	if !env.Success || string(env.Data) != "null" {
		t.Errorf("no-session response = %+v", env)
	}
}

func TestGetSession_NeverExposesTokens(t *testing.T) {
	h, _ := newTestHandlers(t)
	login(t, h)

	result, _ := h.GetSession(context.Background(), makeRequest(nil))
	env := decodeResult(t, result)

	var data map[string]any
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatal(err)
	}
	for _, forbidden := range []string{"access_token", "refresh_token"} {
		if _, ok := data[forbidden]; ok {
			t.Errorf("session response leaks %s", forbidden)
		}
	}
	if data["user_id"] != "u_1" || data["email"] != "harper@example.com" {
		t.Errorf("session data = %v", data)
	}
}

func TestPreferences_GetAndUpdate(t *testing.T) {
	h, _ := newTestHandlers(t)

	result, _ := h.GetPreferences(context.Background(), makeRequest(nil))
	env := decodeResult(t, result)
	var prefs models.UserPreferences
	if err := json.Unmarshal(env.Data, &prefs); err != nil {
		t.Fatal(err)
	}
	if prefs != models.DefaultPreferences() {
		t.Errorf("initial prefs = %+v, want defaults", prefs)
	}

	result, _ = h.UpdatePreferences(context.Background(), makeRequest(map[string]interface{}{
		"theme": "dark",
	}))
	env = decodeResult(t, result)
	if err := json.Unmarshal(env.Data, &prefs); err != nil {
		t.Fatal(err)
	}
	if prefs.Theme != "dark" {
		t.Errorf("Theme = %q", prefs.Theme)
	}
	if prefs.SyncIntervalHours != 4 {
		t.Error("unrelated fields must keep their defaults")
	}
}

func TestUpdatePreferences_EmptyArgs(t *testing.T) {
	h, _ := newTestHandlers(t)
	result, err := h.UpdatePreferences(context.Background(), makeRequest(map[string]interface{}{}))
	if err != nil {
		t.Fatal(err)
	}
	if !result.IsError {
		t.Error("empty update should produce a tool error")
	}
}

func TestSyncAndGetReviews(t *testing.T) {
	h, _ := newTestHandlers(t)
	login(t, h)

	result, err := h.SyncReviews(context.Background(), makeRequest(map[string]interface{}{
		"mode": "full",
	}))
	if err != nil {
		t.Fatal(err)
	}
	env := decodeResult(t, result)
	if !env.Success {
		t.Fatalf("sync failed: %+v", env.Error)
	}
	var syncResult models.SyncResult
	if err := json.Unmarshal(env.Data, &syncResult); err != nil {
		t.Fatal(err)
	}
	if syncResult.ReviewsAdded != 2 {
		t.Errorf("ReviewsAdded = %d", syncResult.ReviewsAdded)
	}

	result, _ = h.GetReviews(context.Background(), makeRequest(map[string]interface{}{
		"business_name": "Kuma's Corner",
	}))
	env = decodeResult(t, result)
	var listing struct {
		Reviews []models.Review `json:"reviews"`
		Total   int             `json:"total"`
	}
	if err := json.Unmarshal(env.Data, &listing); err != nil {
		t.Fatal(err)
	}
	if len(listing.Reviews) != 1 || listing.Reviews[0].BusinessName != "Kuma's Corner" {
		t.Errorf("filtered listing = %+v", listing)
	}
}

func TestSyncReviews_InvalidMode(t *testing.T) {
	h, _ := newTestHandlers(t)
	result, err := h.SyncReviews(context.Background(), makeRequest(map[string]interface{}{
		"mode": "sideways",
	}))
	if err != nil {
		t.Fatal(err)
	}
	if !result.IsError {
		t.Error("invalid mode should produce a tool error")
	}
}

func TestSyncReviews_ErrorEnvelope(t *testing.T) {
	h, _ := newTestHandlers(t)
	// No login: sync must fail with an AUTH_FAILED envelope

	result, err := h.SyncReviews(context.Background(), makeRequest(map[string]interface{}{}))
	if err != nil {
		t.Fatal(err)
	}
	env := decodeResult(t, result)
	if env.Success || env.Error == nil {
		t.Fatalf("envelope = %+v, want structured error", env)
	}
	if env.Error.Kind != "AUTH_FAILED" {
		t.Errorf("error kind = %q, want AUTH_FAILED", env.Error.Kind)
	}
}

func TestGetStorageStats(t *testing.T) {
	h, _ := newTestHandlers(t)
	login(t, h)
	if _, err := h.SyncReviews(context.Background(), makeRequest(map[string]interface{}{"mode": "full"})); err != nil {
		t.Fatal(err)
	}

	result, _ := h.GetStorageStats(context.Background(), makeRequest(nil))
	env := decodeResult(t, result)
	var stats models.StorageStats
	if err := json.Unmarshal(env.Data, &stats); err != nil {
		t.Fatal(err)
	}
	if stats.ReviewCount != 2 || stats.BytesInUse == 0 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.QuotaBytes != storage.LocalQuotaBytes {
		t.Errorf("QuotaBytes = %d", stats.QuotaBytes)
	}
}

func TestExportReviews_AndHistory(t *testing.T) {
	h, _ := newTestHandlers(t)
	login(t, h)
	if _, err := h.SyncReviews(context.Background(), makeRequest(map[string]interface{}{"mode": "full"})); err != nil {
		t.Fatal(err)
	}

	result, err := h.ExportReviews(context.Background(), makeRequest(map[string]interface{}{
		"format": "csv",
	}))
	if err != nil {
		t.Fatal(err)
	}
	env := decodeResult(t, result)
	if !env.Success {
		t.Fatalf("export failed: %+v", env.Error)
	}
	var file struct {
		FileName string `json:"file_name"`
		MIMEType string `json:"mime_type"`
		Size     int    `json:"size"`
		Content  string `json:"content"`
	}
	if err := json.Unmarshal(env.Data, &file); err != nil {
		t.Fatal(err)
	}
	if file.MIMEType != "text/csv" || file.Size == 0 || file.Content == "" {
		t.Errorf("file = %+v", file)
	}

	result, _ = h.ExportHistory(context.Background(), makeRequest(nil))
	env = decodeResult(t, result)
	var history struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(env.Data, &history); err != nil {
		t.Fatal(err)
	}
	if history.Count != 1 {
		t.Errorf("history count = %d", history.Count)
	}
}

func TestGenerateInsights_NoProvider(t *testing.T) {
	h, _ := newTestHandlers(t)
	result, err := h.GenerateInsights(context.Background(), makeRequest(nil))
	if err != nil {
		t.Fatal(err)
	}
	env := decodeResult(t, result)
	if env.Success || env.Error == nil {
		t.Errorf("envelope = %+v, want configuration error", env)
	}
}
