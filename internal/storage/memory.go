// ABOUTME: In-memory Backend for tests and ephemeral runs
// ABOUTME: Enforces the same quota and atomicity semantics as the charm backend
package storage

import (
	"sync"

	"github.com/harper/review-rescue/internal/errs"
)

// MemoryBackend keeps both partitions in process memory. It is the test
// double for CharmBackend and shares its quota behavior.
type MemoryBackend struct {
	mu         sync.Mutex
	partitions map[Partition]map[string][]byte

	// FailNextSet, when set, makes the next Set call fail with the given
	// error. Used by tests to exercise storage failure paths.
	FailNextSet error
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		partitions: map[Partition]map[string][]byte{
			PartitionLocal:      {},
			PartitionReplicated: {},
		},
	}
}

func (m *MemoryBackend) Set(partition Partition, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailNextSet != nil {
		err := m.FailNextSet
		m.FailNextSet = nil
		return err
	}

	part := m.partitions[partition]
	used := int64(0)
	for k, v := range part {
		if k == key {
			continue
		}
		used += int64(len(k) + len(v))
	}
	if used+int64(len(key)+len(value)) > QuotaFor(partition) {
		return errs.Newf(errs.QuotaExceeded, "%s partition quota exceeded", partition)
	}

	cp := make([]byte, len(value))
	copy(cp, value)
	part[key] = cp
	return nil
}

func (m *MemoryBackend) Get(partition Partition, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	value, ok := m.partitions[partition][key]
	if !ok {
		return nil, false, nil
	}
	cp := make([]byte, len(value))
	copy(cp, value)
	return cp, true, nil
}

func (m *MemoryBackend) Remove(partition Partition, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.partitions[partition], key)
	return nil
}

func (m *MemoryBackend) Clear(partition Partition) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.partitions[partition] = map[string][]byte{}
	return nil
}

func (m *MemoryBackend) BytesInUse(partition Partition) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	used := int64(0)
	for k, v := range m.partitions[partition] {
		used += int64(len(k) + len(v))
	}
	return used, nil
}

func (m *MemoryBackend) Quota(partition Partition) int64 {
	return QuotaFor(partition)
}
