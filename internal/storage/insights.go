// ABOUTME: InsightsCache holds the single TTL-gated insight snapshot
// ABOUTME: Insights are always replaced wholesale, never updated incrementally
package storage

import (
	"time"

	"github.com/harper/review-rescue/internal/models"
)

// InsightsCache stores at most one insight snapshot in the local partition.
type InsightsCache struct {
	backend Backend
	now     func() time.Time
}

// NewInsightsCache creates an insights cache on the given backend.
func NewInsightsCache(backend Backend) *InsightsCache {
	return &InsightsCache{backend: backend, now: time.Now}
}

// SetClock overrides the cache clock for tests.
func (c *InsightsCache) SetClock(now func() time.Time) {
	c.now = now
}

// Set overwrites the snapshot with the given insights, stamped now.
func (c *InsightsCache) Set(insights []models.Insight) error {
	snapshot := models.InsightSnapshot{
		Insights: insights,
		CachedAt: c.now(),
	}
	return SetJSON(c.backend, PartitionLocal, KeyInsights, snapshot)
}

// Get returns the stored snapshot, or nil if none exists.
func (c *InsightsCache) Get() (*models.InsightSnapshot, error) {
	var snapshot models.InsightSnapshot
	ok, err := GetJSON(c.backend, PartitionLocal, KeyInsights, &snapshot)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &snapshot, nil
}

// IsValid recomputes validity from cached_at and the caller-supplied TTL
// on every call. False when no snapshot exists. Read failures degrade to
// invalid rather than erroring.
func (c *InsightsCache) IsValid(ttlHours int) bool {
	snapshot, err := c.Get()
	if err != nil {
		return false
	}
	return snapshot.Valid(c.now(), ttlHours)
}

// Invalidate removes the snapshot.
func (c *InsightsCache) Invalidate() error {
	return c.backend.Remove(PartitionLocal, KeyInsights)
}
