// ABOUTME: Charm KV backed Backend with automatic SSH key auth
// ABOUTME: Local partition is a device-only DB; replicated partition syncs via Charm cloud
package storage

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/charm/client"
	"github.com/charmbracelet/charm/kv"
	"github.com/harper/review-rescue/internal/errs"
)

// Config holds charm backend configuration.
type Config struct {
	Host string
	// LocalDB and ReplicatedDB are the charm KV database names backing the
	// two partitions.
	LocalDB      string
	ReplicatedDB string
	// AutoSync pushes the replicated partition to the cloud after every
	// write and pulls it on open. The local partition never syncs.
	AutoSync bool
}

// DefaultConfig returns default configuration for the charm backend.
func DefaultConfig() *Config {
	host := os.Getenv("CHARM_HOST")
	if host == "" {
		host = "cloud.charm.sh"
	}
	return &Config{
		Host:         host,
		LocalDB:      "reviewrescue-local",
		ReplicatedDB: "reviewrescue",
		AutoSync:     true,
	}
}

// CharmBackend implements Backend on two charm KV databases.
type CharmBackend struct {
	local      *kv.KV
	replicated *kv.KV
	config     *Config
	mu         sync.Mutex
}

// NewCharmBackend opens both partitions. The replicated partition pulls
// remote data on startup when AutoSync is enabled.
func NewCharmBackend(cfg *Config) (*CharmBackend, error) {
	// Set CHARM_HOST before opening KV
	os.Setenv("CHARM_HOST", cfg.Host)

	local, err := kv.OpenWithDefaults(cfg.LocalDB)
	if err != nil {
		return nil, fmt.Errorf("failed to open local kv: %w", err)
	}

	replicated, err := kv.OpenWithDefaults(cfg.ReplicatedDB)
	if err != nil {
		local.Close()
		return nil, fmt.Errorf("failed to open replicated kv: %w", err)
	}

	b := &CharmBackend{
		local:      local,
		replicated: replicated,
		config:     cfg,
	}

	if cfg.AutoSync {
		_ = replicated.Sync()
	}

	return b, nil
}

// Close closes both KV databases.
func (b *CharmBackend) Close() error {
	var firstErr error
	if b.local != nil {
		if err := b.local.Close(); err != nil {
			firstErr = err
		}
		b.local = nil
	}
	if b.replicated != nil {
		if err := b.replicated.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		b.replicated = nil
	}
	return firstErr
}

// ID returns the charm user ID.
func (b *CharmBackend) ID() (string, error) {
	cc, err := client.NewClientWithDefaults()
	if err != nil {
		return "", fmt.Errorf("failed to create charm client: %w", err)
	}
	return cc.ID()
}

func (b *CharmBackend) db(partition Partition) *kv.KV {
	if partition == PartitionReplicated {
		return b.replicated
	}
	return b.local
}

// syncIfEnabled pushes replicated writes to the cloud.
func (b *CharmBackend) syncIfEnabled(partition Partition) {
	if partition == PartitionReplicated && b.config.AutoSync {
		_ = b.replicated.Sync()
	}
}

func (b *CharmBackend) Set(partition Partition, key string, value []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	used, err := b.bytesInUseExcluding(partition, key)
	if err != nil {
		return err
	}
	if used+int64(len(key)+len(value)) > QuotaFor(partition) {
		return errs.Newf(errs.QuotaExceeded, "%s partition quota exceeded", partition)
	}

	if err := b.db(partition).Set([]byte(key), value); err != nil {
		return errs.Wrap(errs.StorageError, "failed to set key "+key, err)
	}
	b.syncIfEnabled(partition)
	return nil
}

func (b *CharmBackend) Get(partition Partition, key string) ([]byte, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	data, err := b.db(partition).Get([]byte(key))
	if err != nil {
		// The underlying badger store reports missing keys as an error
		if isNotFound(err) {
			return nil, false, nil
		}
		return nil, false, errs.Wrap(errs.StorageError, "failed to get key "+key, err)
	}
	if data == nil {
		return nil, false, nil
	}
	return data, true, nil
}

func (b *CharmBackend) Remove(partition Partition, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.db(partition).Delete([]byte(key)); err != nil {
		if isNotFound(err) {
			return nil
		}
		return errs.Wrap(errs.StorageError, "failed to delete key "+key, err)
	}
	b.syncIfEnabled(partition)
	return nil
}

func (b *CharmBackend) Clear(partition Partition) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	db := b.db(partition)
	keys, err := db.Keys()
	if err != nil {
		return errs.Wrap(errs.StorageError, "failed to list keys", err)
	}
	for _, key := range keys {
		if err := db.Delete(key); err != nil && !isNotFound(err) {
			return errs.Wrap(errs.StorageError, "failed to delete key "+string(key), err)
		}
	}
	b.syncIfEnabled(partition)
	return nil
}

func (b *CharmBackend) BytesInUse(partition Partition) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.bytesInUseExcluding(partition, "")
}

// bytesInUseExcluding sums stored bytes, skipping excludeKey so Set can
// compute post-write usage for an overwrite. Caller holds b.mu.
func (b *CharmBackend) bytesInUseExcluding(partition Partition, excludeKey string) (int64, error) {
	db := b.db(partition)
	keys, err := db.Keys()
	if err != nil {
		return 0, errs.Wrap(errs.StorageError, "failed to list keys", err)
	}

	used := int64(0)
	for _, key := range keys {
		if string(key) == excludeKey {
			continue
		}
		value, err := db.Get(key)
		if err != nil {
			if isNotFound(err) {
				continue
			}
			return 0, errs.Wrap(errs.StorageError, "failed to read key "+string(key), err)
		}
		used += int64(len(key) + len(value))
	}
	return used, nil
}

func (b *CharmBackend) Quota(partition Partition) int64 {
	return QuotaFor(partition)
}

// Sync manually pushes the replicated partition to the cloud.
func (b *CharmBackend) Sync() error {
	return b.replicated.Sync()
}

// Reset wipes all local data in both partitions (nuclear option). Cloud
// data for the replicated partition remains and re-syncs on next open.
func (b *CharmBackend) Reset() error {
	if err := b.local.Reset(); err != nil {
		return fmt.Errorf("failed to reset local partition: %w", err)
	}
	return b.replicated.Reset()
}

// isNotFound matches badger's ErrKeyNotFound without importing badger.
func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "not found")
}
