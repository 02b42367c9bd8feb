// ABOUTME: Backend is the key/value persistence contract with two partitions
// ABOUTME: All operations are atomic per key; multi-key updates are eventually consistent
package storage

import (
	"encoding/json"

	"github.com/harper/review-rescue/internal/errs"
)

// Partition selects one of the two storage areas.
type Partition string

const (
	// PartitionLocal is device-only storage with a large quota. Reviews,
	// session, insights, and export history live here.
	PartitionLocal Partition = "local"
	// PartitionReplicated syncs across devices and has a small quota.
	// Only preferences live here.
	PartitionReplicated Partition = "replicated"
)

// Partition quotas in bytes.
const (
	LocalQuotaBytes      = 10 * 1024 * 1024
	ReplicatedQuotaBytes = 100 * 1024
)

// Storage keys. All values are JSON documents written atomically per key.
const (
	KeyReviews       = "reviews"
	KeyReviewIndex   = "reviews_index"
	KeySession       = "user_session"
	KeyPreferences   = "user_preferences"
	KeyInsights      = "insights_cache"
	KeyExportHistory = "export_history"
)

// Backend is the key/value persistence abstraction. Implementations must
// make Set atomic per key and enforce the partition quota, failing with
// errs.QuotaExceeded before mutating anything.
type Backend interface {
	Set(partition Partition, key string, value []byte) error
	// Get returns the stored value and whether the key was present.
	Get(partition Partition, key string) ([]byte, bool, error)
	Remove(partition Partition, key string) error
	Clear(partition Partition) error
	BytesInUse(partition Partition) (int64, error)
	Quota(partition Partition) int64
}

// QuotaFor returns the fixed quota for a partition.
func QuotaFor(partition Partition) int64 {
	if partition == PartitionReplicated {
		return ReplicatedQuotaBytes
	}
	return LocalQuotaBytes
}

// SetJSON marshals value and stores it under key. Marshal failures are
// classified as serialization errors.
func SetJSON(b Backend, partition Partition, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return errs.Wrap(errs.SerializationError, "failed to encode "+key, err)
	}
	return b.Set(partition, key, data)
}

// GetJSON loads and unmarshals the value under key into dest. Returns
// false without error when the key is absent.
func GetJSON(b Backend, partition Partition, key string, dest interface{}) (bool, error) {
	data, ok, err := b.Get(partition, key)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, errs.Wrap(errs.SerializationError, "failed to decode "+key, err)
	}
	return true, nil
}
