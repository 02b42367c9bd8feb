// ABOUTME: Tests for the ReviewCache collection and derived index
// ABOUTME: Covers dedup no-ops, wholesale replace, and lazy index rebuild detection

package storage

import (
	"testing"
	"time"

	"github.com/harper/review-rescue/internal/models"
)

func testReview(external, business string) models.Review {
	return models.Review{
		ID:           models.NewReviewID(),
		ExternalID:   external,
		BusinessName: business,
		Rating:       4,
		ReviewText:   "Solid.",
		AuthorName:   "Harper",
		ReviewDate:   time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		SyncedAt:     time.Now(),
	}
}

func TestReviewCache_AddAndList(t *testing.T) {
	cache := NewReviewCache(NewMemoryBackend())

	if err := cache.Add(testReview("g_1", "Blue Bottle")); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	reviews, err := cache.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(reviews) != 1 {
		t.Fatalf("List() returned %d reviews, want 1", len(reviews))
	}
	if reviews[0].ExternalID != "g_1" {
		t.Errorf("ExternalID = %q, want g_1", reviews[0].ExternalID)
	}
}

func TestReviewCache_AddDuplicateExternalID(t *testing.T) {
	cache := NewReviewCache(NewMemoryBackend())

	first := testReview("g_1", "Blue Bottle")
	if err := cache.Add(first); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	// Same external id, different content: must be a no-op
	dup := testReview("g_1", "Intelligentsia")
	dup.Rating = 1
	if err := cache.Add(dup); err != nil {
		t.Fatalf("Add() duplicate error = %v", err)
	}

	reviews, err := cache.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(reviews) != 1 {
		t.Fatalf("cache size = %d after duplicate add, want 1", len(reviews))
	}
	if reviews[0].BusinessName != "Blue Bottle" {
		t.Errorf("duplicate add changed contents: BusinessName = %q", reviews[0].BusinessName)
	}
}

func TestReviewCache_ReplaceAllEmpty(t *testing.T) {
	backend := NewMemoryBackend()
	cache := NewReviewCache(backend)

	if err := cache.Add(testReview("g_1", "Blue Bottle")); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := cache.ReplaceAll([]models.Review{}); err != nil {
		t.Fatalf("ReplaceAll() error = %v", err)
	}

	count, err := cache.Count()
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 0 {
		t.Errorf("Count() = %d after ReplaceAll([]), want 0", count)
	}

	stats, err := ComputeStats(backend, cache)
	if err != nil {
		t.Fatalf("ComputeStats() error = %v", err)
	}
	if stats.ReviewCount != 0 {
		t.Errorf("StorageStats.ReviewCount = %d, want 0", stats.ReviewCount)
	}
}

func TestReviewCache_UpdateMissingID(t *testing.T) {
	cache := NewReviewCache(NewMemoryBackend())

	if err := cache.Add(testReview("g_1", "Blue Bottle")); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	before, _ := cache.List()

	rating := 5
	if err := cache.Update("rev_missing", models.ReviewUpdate{Rating: &rating}); err != nil {
		t.Fatalf("Update() on missing id should not error, got %v", err)
	}

	after, _ := cache.List()
	if len(after) != len(before) || after[0].Rating != before[0].Rating {
		t.Error("Update() on missing id changed the cache")
	}
}

func TestReviewCache_Update(t *testing.T) {
	cache := NewReviewCache(NewMemoryBackend())

	review := testReview("g_1", "Blue Bottle")
	if err := cache.Add(review); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	rating := 5
	if err := cache.Update(review.ID, models.ReviewUpdate{Rating: &rating}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, err := cache.Get(review.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got == nil || got.Rating != 5 {
		t.Errorf("Get() after update = %+v, want rating 5", got)
	}
	if got.BusinessName != "Blue Bottle" {
		t.Errorf("Update() clobbered BusinessName = %q", got.BusinessName)
	}
}

func TestReviewCache_Delete(t *testing.T) {
	cache := NewReviewCache(NewMemoryBackend())

	review := testReview("g_1", "Blue Bottle")
	keep := testReview("g_2", "Lou Malnati's")
	if err := cache.Add(review); err != nil {
		t.Fatal(err)
	}
	if err := cache.Add(keep); err != nil {
		t.Fatal(err)
	}

	if err := cache.Delete(review.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	reviews, _ := cache.List()
	if len(reviews) != 1 || reviews[0].ExternalID != "g_2" {
		t.Errorf("List() after delete = %+v, want only g_2", reviews)
	}

	idx, err := cache.Index()
	if err != nil {
		t.Fatalf("Index() error = %v", err)
	}
	if idx.TotalCount != 1 {
		t.Errorf("index TotalCount = %d after delete, want 1", idx.TotalCount)
	}
	if _, exists := idx.ByExternalID["g_1"]; exists {
		t.Error("deleted review still present in index")
	}
}

func TestReviewCache_NeedsIndexRebuild(t *testing.T) {
	backend := NewMemoryBackend()
	cache := NewReviewCache(backend)

	// No index at all
	needs, err := cache.NeedsIndexRebuild()
	if err != nil {
		t.Fatalf("NeedsIndexRebuild() error = %v", err)
	}
	if !needs {
		t.Error("empty store should need an index rebuild")
	}

	if err := cache.Add(testReview("g_1", "Blue Bottle")); err != nil {
		t.Fatal(err)
	}
	needs, _ = cache.NeedsIndexRebuild()
	if needs {
		t.Error("freshly written index should not need a rebuild")
	}

	// Simulate index drift: collection changes behind the index's back
	if err := backend.Remove(PartitionLocal, KeyReviewIndex); err != nil {
		t.Fatal(err)
	}
	needs, _ = cache.NeedsIndexRebuild()
	if !needs {
		t.Error("missing index should need a rebuild")
	}

	idx, err := cache.RebuildIndex()
	if err != nil {
		t.Fatalf("RebuildIndex() error = %v", err)
	}
	if idx.TotalCount != 1 {
		t.Errorf("rebuilt index TotalCount = %d, want 1", idx.TotalCount)
	}
	needs, _ = cache.NeedsIndexRebuild()
	if needs {
		t.Error("rebuilt index should not need another rebuild")
	}
}

func TestReviewCache_IndexWriteFailureKeepsReadsIntact(t *testing.T) {
	backend := NewMemoryBackend()
	cache := NewReviewCache(backend)

	if err := cache.Add(testReview("g_1", "Blue Bottle")); err != nil {
		t.Fatal(err)
	}

	// The reviews write succeeds, the index write fails: the mutation must
	// still commit and reads must keep working
	backend.FailNextSet = nil
	reviews, _ := cache.List()
	if err := SetJSON(backend, PartitionLocal, KeyReviews, append(reviews, testReview("g_2", "Lou Malnati's"))); err != nil {
		t.Fatal(err)
	}

	got, err := cache.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("List() = %d reviews, want 2", len(got))
	}

	needs, _ := cache.NeedsIndexRebuild()
	if !needs {
		t.Error("stale index after out-of-band write should need a rebuild")
	}
}

func TestReviewCache_NeedsMigration(t *testing.T) {
	cache := NewReviewCache(NewMemoryBackend())

	reviews := make([]models.Review, MigrationThreshold+1)
	for i := range reviews {
		reviews[i] = models.Review{
			ID:           models.NewReviewID(),
			ExternalID:   "g_" + string(rune('a'+i%26)) + models.NewReviewID(),
			BusinessName: "Somewhere",
			Rating:       3,
		}
	}

	if err := cache.ReplaceAll(reviews[:MigrationThreshold]); err != nil {
		t.Fatal(err)
	}
	needs, err := cache.NeedsMigration()
	if err != nil {
		t.Fatal(err)
	}
	if needs {
		t.Errorf("NeedsMigration() = true at exactly %d reviews", MigrationThreshold)
	}

	if err := cache.ReplaceAll(reviews); err != nil {
		t.Fatal(err)
	}
	needs, _ = cache.NeedsMigration()
	if !needs {
		t.Errorf("NeedsMigration() = false above %d reviews", MigrationThreshold)
	}
}
