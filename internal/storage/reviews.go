// ABOUTME: ReviewCache is the deduplicated, indexed local review collection
// ABOUTME: The index is derived and rebuildable; reads never trust it
package storage

import (
	"time"

	"github.com/harper/review-rescue/internal/models"
)

// MigrationThreshold is the review count above which callers should move
// to a higher-capacity store. The cache only reports it; migrating is the
// caller's problem.
const MigrationThreshold = 200

// ReviewCache stores the review collection in the local partition under a
// single key, with a derived index alongside it. Every mutation writes the
// reviews first and rebuilds the index second, so an index write failure
// can never corrupt reads.
type ReviewCache struct {
	backend Backend
	now     func() time.Time
}

// NewReviewCache creates a cache on the given backend.
func NewReviewCache(backend Backend) *ReviewCache {
	return &ReviewCache{backend: backend, now: time.Now}
}

// SetClock overrides the cache clock for tests.
func (c *ReviewCache) SetClock(now func() time.Time) {
	c.now = now
}

// List returns all cached reviews.
func (c *ReviewCache) List() ([]models.Review, error) {
	var reviews []models.Review
	ok, err := GetJSON(c.backend, PartitionLocal, KeyReviews, &reviews)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []models.Review{}, nil
	}
	return reviews, nil
}

// Get returns the review with the given local id, or nil if absent.
func (c *ReviewCache) Get(id string) (*models.Review, error) {
	reviews, err := c.List()
	if err != nil {
		return nil, err
	}
	for i := range reviews {
		if reviews[i].ID == id {
			return &reviews[i], nil
		}
	}
	return nil, nil
}

// Count returns the number of cached reviews.
func (c *ReviewCache) Count() (int, error) {
	reviews, err := c.List()
	if err != nil {
		return 0, err
	}
	return len(reviews), nil
}

// ReplaceAll overwrites the entire collection and rebuilds the index.
// The collection is written in a single Set, so readers observe either the
// old set or the new one, never a mix.
func (c *ReviewCache) ReplaceAll(reviews []models.Review) error {
	return c.write(reviews)
}

// Add appends a review unless one with the same external id already
// exists, in which case it is a no-op. Idempotent by construction.
func (c *ReviewCache) Add(review models.Review) error {
	reviews, err := c.List()
	if err != nil {
		return err
	}
	for _, r := range reviews {
		if r.ExternalID == review.ExternalID {
			return nil
		}
	}
	if review.ID == "" {
		review.ID = models.NewReviewID()
	}
	return c.write(append(reviews, review))
}

// Update merges the partial fields into the review with the given local
// id. A missing id is a no-op, not an error: the caller may be updating a
// record concurrently removed.
func (c *ReviewCache) Update(id string, update models.ReviewUpdate) error {
	reviews, err := c.List()
	if err != nil {
		return err
	}
	for i := range reviews {
		if reviews[i].ID == id {
			update.Apply(&reviews[i])
			return c.write(reviews)
		}
	}
	return nil
}

// Delete removes the review with the given local id and rebuilds the index.
func (c *ReviewCache) Delete(id string) error {
	reviews, err := c.List()
	if err != nil {
		return err
	}
	filtered := reviews[:0]
	for _, r := range reviews {
		if r.ID != id {
			filtered = append(filtered, r)
		}
	}
	return c.write(filtered)
}

// Clear removes the collection and its index.
func (c *ReviewCache) Clear() error {
	if err := c.backend.Remove(PartitionLocal, KeyReviews); err != nil {
		return err
	}
	return c.backend.Remove(PartitionLocal, KeyReviewIndex)
}

// Index returns the stored derived index, or nil if absent.
func (c *ReviewCache) Index() (*models.ReviewIndex, error) {
	var idx models.ReviewIndex
	ok, err := GetJSON(c.backend, PartitionLocal, KeyReviewIndex, &idx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &idx, nil
}

// NeedsIndexRebuild reports whether the stored index is absent or
// disagrees with the underlying collection. Callers rebuild lazily via
// RebuildIndex rather than treating the index as authoritative.
func (c *ReviewCache) NeedsIndexRebuild() (bool, error) {
	idx, err := c.Index()
	if err != nil {
		// An unreadable index means a stale index
		return true, nil
	}
	if idx == nil {
		return true, nil
	}
	reviews, err := c.List()
	if err != nil {
		return false, err
	}
	if idx.TotalCount != len(reviews) || idx.LastUpdated.IsZero() {
		return true, nil
	}
	return false, nil
}

// RebuildIndex reconstructs the index from the collection alone.
func (c *ReviewCache) RebuildIndex() (*models.ReviewIndex, error) {
	reviews, err := c.List()
	if err != nil {
		return nil, err
	}
	idx := models.BuildReviewIndex(reviews, c.now())
	if err := SetJSON(c.backend, PartitionLocal, KeyReviewIndex, idx); err != nil {
		return nil, err
	}
	return idx, nil
}

// NeedsMigration reports whether the collection has outgrown this store.
func (c *ReviewCache) NeedsMigration() (bool, error) {
	count, err := c.Count()
	if err != nil {
		return false, err
	}
	return count > MigrationThreshold, nil
}

// write persists the collection, then rebuilds the index. Reviews go
// first; the index write is best-effort because a stale index is detected
// by NeedsIndexRebuild on the next read, while failing the whole mutation
// after the collection committed would lie to the caller.
func (c *ReviewCache) write(reviews []models.Review) error {
	if reviews == nil {
		reviews = []models.Review{}
	}
	if err := SetJSON(c.backend, PartitionLocal, KeyReviews, reviews); err != nil {
		return err
	}
	idx := models.BuildReviewIndex(reviews, c.now())
	_ = SetJSON(c.backend, PartitionLocal, KeyReviewIndex, idx)
	return nil
}
