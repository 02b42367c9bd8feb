// ABOUTME: SyncResult and SyncStatus reported by the sync orchestrator
// ABOUTME: StorageStats is derived per request and never persisted
package models

import "time"

// SyncResult summarizes one completed (or failed) sync run.
type SyncResult struct {
	Success        bool          `json:"success"`
	Timestamp      time.Time     `json:"timestamp"`
	ReviewsAdded   int           `json:"reviews_added"`
	ReviewsUpdated int           `json:"reviews_updated"`
	ReviewsDeleted int           `json:"reviews_deleted"`
	TotalReviews   int           `json:"total_reviews"`
	Duration       time.Duration `json:"duration"`
	Errors         []string      `json:"errors,omitempty"`
}

// SyncStatus is the observable state of the orchestrator.
type SyncStatus struct {
	IsSyncing        bool      `json:"is_syncing"`
	Progress         int       `json:"progress"` // 0-100
	CurrentOperation string    `json:"current_operation"`
	StartedAt        time.Time `json:"started_at,omitempty"`
	LastSyncAt       time.Time `json:"last_sync_at,omitempty"`
}

// StorageStats is recomputed from the review collection and raw byte usage
// on every request.
type StorageStats struct {
	BytesInUse                int64   `json:"bytes_in_use"`
	QuotaBytes                int64   `json:"quota_bytes"`
	PercentageUsed            float64 `json:"percentage_used"`
	ReviewCount               int     `json:"review_count"`
	EstimatedReviewsRemaining int     `json:"estimated_reviews_remaining"`
}
