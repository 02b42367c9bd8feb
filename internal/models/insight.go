// ABOUTME: Insight is an AI-derived analysis result over the cached reviews
// ABOUTME: Snapshots are stored wholesale with a cached_at timestamp for TTL checks
package models

import (
	"encoding/json"
	"time"
)

// Insight types produced by the generators.
const (
	InsightSentiment    = "sentiment"
	InsightCategory     = "category"
	InsightPattern      = "pattern"
	InsightPersonalized = "personalized"
)

// Insight is a single derived observation about the review set.
type Insight struct {
	ID              string          `json:"id"`
	Type            string          `json:"type"`
	Title           string          `json:"title"`
	InsightText     string          `json:"insight_text"`
	ConfidenceScore float64         `json:"confidence_score"` // 0-1
	ReviewCount     int             `json:"review_count"`
	GeneratedAt     time.Time       `json:"generated_at"`
	Metadata        json.RawMessage `json:"metadata,omitempty"`
}

// InsightSnapshot is the single stored insight set. Validity is recomputed
// from CachedAt on every check, never cached.
type InsightSnapshot struct {
	Insights []Insight `json:"insights"`
	CachedAt time.Time `json:"cached_at"`
}

// Valid reports whether the snapshot is fresher than ttlHours at now.
func (s *InsightSnapshot) Valid(now time.Time, ttlHours int) bool {
	if s == nil || s.CachedAt.IsZero() {
		return false
	}
	return now.Sub(s.CachedAt) < time.Duration(ttlHours)*time.Hour
}
