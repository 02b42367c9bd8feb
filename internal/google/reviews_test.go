// ABOUTME: Tests for the reviews API client against httptest servers
// ABOUTME: Covers pagination, since-filtering, and status-to-error-kind mapping

package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/harper/review-rescue/internal/errs"
)

type staticTokens string

func (s staticTokens) AccessToken(ctx context.Context) (string, error) {
	return string(s), nil
}

func reviewsJSON(next string, ids ...string) []byte {
	page := map[string]any{"next_page_token": next}
	var reviews []map[string]any
	for _, id := range ids {
		reviews = append(reviews, map[string]any{
			"id":            id,
			"business_name": "Business " + id,
			"rating":        5,
			"review_text":   "great",
			"author_name":   "Harper",
			"review_date":   "2026-01-10T00:00:00Z",
		})
	}
	page["reviews"] = reviews
	data, _ := json.Marshal(page)
	return data
}

func TestFetchAll_PaginatesWithTokens(t *testing.T) {
	var gotAuth, gotPageSize string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPageSize = r.URL.Query().Get("page_size")
		if r.URL.Query().Get("page_token") == "p2" {
			w.Write(reviewsJSON("", "r3"))
			return
		}
		w.Write(reviewsJSON("p2", "r1", "r2"))
	}))
	defer server.Close()

	client := NewReviewsClient(ReviewsConfig{BaseURL: server.URL}, staticTokens("tok-123"))

	page, err := client.FetchAll(context.Background(), "")
	if err != nil {
		t.Fatalf("FetchAll() error = %v", err)
	}
	if gotAuth != "Bearer tok-123" {
		t.Errorf("Authorization = %q, want bearer token", gotAuth)
	}
	if gotPageSize != "50" {
		t.Errorf("page_size = %q, want 50", gotPageSize)
	}
	if len(page.Reviews) != 2 || page.NextPageToken != "p2" {
		t.Fatalf("page = %d reviews, token %q; want 2 and p2", len(page.Reviews), page.NextPageToken)
	}
	if page.Reviews[0].ExternalID != "r1" {
		t.Errorf("ExternalID = %q, want r1", page.Reviews[0].ExternalID)
	}
	if page.Reviews[0].ID != "" {
		t.Error("client must not assign local ids; that is the merge's job")
	}

	page, err = client.FetchAll(context.Background(), "p2")
	if err != nil {
		t.Fatalf("FetchAll(p2) error = %v", err)
	}
	if len(page.Reviews) != 1 || page.NextPageToken != "" {
		t.Errorf("last page = %d reviews, token %q", len(page.Reviews), page.NextPageToken)
	}
}

func TestFetchSince_SendsFilterAndDrainsPages(t *testing.T) {
	var gotSince string
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		gotSince = r.URL.Query().Get("updated_since")
		if r.URL.Query().Get("page_token") == "" {
			w.Write(reviewsJSON("p2", "r1"))
			return
		}
		w.Write(reviewsJSON("", "r2"))
	}))
	defer server.Close()

	client := NewReviewsClient(ReviewsConfig{BaseURL: server.URL}, staticTokens("tok"))
	since := time.Date(2026, 2, 1, 8, 30, 0, 0, time.UTC)

	reviews, err := client.FetchSince(context.Background(), since)
	if err != nil {
		t.Fatalf("FetchSince() error = %v", err)
	}
	if gotSince != "2026-02-01T08:30:00Z" {
		t.Errorf("updated_since = %q", gotSince)
	}
	if len(reviews) != 2 || calls != 2 {
		t.Errorf("got %d reviews over %d calls, want 2 over 2", len(reviews), calls)
	}
}

func TestFetchAll_StatusClassification(t *testing.T) {
	tests := []struct {
		status        int
		wantKind      errs.Kind
		wantRetryable bool
	}{
		{http.StatusUnauthorized, errs.TokenExpired, false},
		{http.StatusForbidden, errs.PermissionDenied, false},
		{http.StatusTooManyRequests, errs.NetworkError, true},
		{http.StatusBadGateway, errs.NetworkError, true},
		{http.StatusTeapot, errs.Unknown, false},
	}

	for _, tt := range tests {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", tt.status)
		}))
		client := NewReviewsClient(ReviewsConfig{BaseURL: server.URL}, staticTokens("tok"))

		_, err := client.FetchAll(context.Background(), "")
		if errs.KindOf(err) != tt.wantKind {
			t.Errorf("status %d: kind = %v, want %v", tt.status, errs.KindOf(err), tt.wantKind)
		}
		if errs.IsRetryable(err) != tt.wantRetryable {
			t.Errorf("status %d: retryable = %v, want %v", tt.status, errs.IsRetryable(err), tt.wantRetryable)
		}
		server.Close()
	}
}

func TestFetchAll_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	defer server.Close()

	client := NewReviewsClient(ReviewsConfig{BaseURL: server.URL}, staticTokens("tok"))
	_, err := client.FetchAll(context.Background(), "")
	if errs.KindOf(err) != errs.SerializationError {
		t.Errorf("kind = %v, want SerializationError", errs.KindOf(err))
	}
}

func TestFetchAll_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // immediately, so the dial fails

	client := NewReviewsClient(ReviewsConfig{BaseURL: server.URL}, staticTokens("tok"))
	_, err := client.FetchAll(context.Background(), "")
	if errs.KindOf(err) != errs.NetworkError {
		t.Errorf("kind = %v, want NetworkError", errs.KindOf(err))
	}
	if !errs.IsRetryable(err) {
		t.Error("transport failures should be retryable")
	}
}
