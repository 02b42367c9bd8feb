// ABOUTME: StorageStats computed per request from raw byte usage and review count
// ABOUTME: Derived, never persisted
package storage

import (
	"github.com/harper/review-rescue/internal/models"
)

// fallbackReviewBytes estimates a review's size when the cache is empty.
const fallbackReviewBytes = 1000

// ComputeStats recomputes storage statistics for the local partition from
// the backend's byte usage and the review collection.
func ComputeStats(backend Backend, cache *ReviewCache) (*models.StorageStats, error) {
	bytesInUse, err := backend.BytesInUse(PartitionLocal)
	if err != nil {
		return nil, err
	}
	quota := backend.Quota(PartitionLocal)

	count, err := cache.Count()
	if err != nil {
		return nil, err
	}

	avgReviewBytes := int64(fallbackReviewBytes)
	if count > 0 {
		avgReviewBytes = bytesInUse / int64(count)
		if avgReviewBytes == 0 {
			avgReviewBytes = 1
		}
	}
	remaining := (quota - bytesInUse) / avgReviewBytes
	if remaining < 0 {
		remaining = 0
	}

	return &models.StorageStats{
		BytesInUse:                bytesInUse,
		QuotaBytes:                quota,
		PercentageUsed:            float64(bytesInUse) / float64(quota) * 100,
		ReviewCount:               count,
		EstimatedReviewsRemaining: int(remaining),
	}, nil
}
