// ABOUTME: Tests for the in-memory Backend
// ABOUTME: Verifies partition isolation, quota enforcement, and byte accounting

package storage

import (
	"bytes"
	"testing"

	"github.com/harper/review-rescue/internal/errs"
)

func TestMemoryBackend_SetGet(t *testing.T) {
	backend := NewMemoryBackend()

	if err := backend.Set(PartitionLocal, "k", []byte("v")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	value, ok, err := backend.Get(PartitionLocal, "k")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !ok {
		t.Fatal("Get() ok = false, want true")
	}
	if !bytes.Equal(value, []byte("v")) {
		t.Errorf("Get() = %q, want v", value)
	}
}

func TestMemoryBackend_GetAbsent(t *testing.T) {
	backend := NewMemoryBackend()

	_, ok, err := backend.Get(PartitionLocal, "missing")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if ok {
		t.Error("Get() on absent key should report ok = false")
	}
}

func TestMemoryBackend_PartitionsIsolated(t *testing.T) {
	backend := NewMemoryBackend()

	if err := backend.Set(PartitionLocal, "k", []byte("local")); err != nil {
		t.Fatal(err)
	}
	if err := backend.Set(PartitionReplicated, "k", []byte("replicated")); err != nil {
		t.Fatal(err)
	}

	if err := backend.Clear(PartitionLocal); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}

	_, ok, _ := backend.Get(PartitionLocal, "k")
	if ok {
		t.Error("local key should be gone after Clear(local)")
	}
	value, ok, _ := backend.Get(PartitionReplicated, "k")
	if !ok || string(value) != "replicated" {
		t.Error("replicated partition should survive Clear(local)")
	}
}

func TestMemoryBackend_QuotaExceeded(t *testing.T) {
	backend := NewMemoryBackend()

	big := make([]byte, ReplicatedQuotaBytes+1)
	err := backend.Set(PartitionReplicated, "prefs", big)
	if err == nil {
		t.Fatal("Set() over quota should fail")
	}
	if errs.KindOf(err) != errs.QuotaExceeded {
		t.Errorf("error kind = %v, want QuotaExceeded", errs.KindOf(err))
	}

	// Nothing was written
	_, ok, _ := backend.Get(PartitionReplicated, "prefs")
	if ok {
		t.Error("failed Set should not leave a value behind")
	}
}

func TestMemoryBackend_QuotaCountsOverwrite(t *testing.T) {
	backend := NewMemoryBackend()

	// Fill close to quota, then overwrite with the same size: must succeed
	// because the old value is replaced, not added to
	value := make([]byte, ReplicatedQuotaBytes-100)
	if err := backend.Set(PartitionReplicated, "k", value); err != nil {
		t.Fatalf("first Set() error = %v", err)
	}
	if err := backend.Set(PartitionReplicated, "k", value); err != nil {
		t.Errorf("overwrite at same size should fit, got %v", err)
	}
}

func TestMemoryBackend_BytesInUse(t *testing.T) {
	backend := NewMemoryBackend()

	if err := backend.Set(PartitionLocal, "key", []byte("value")); err != nil {
		t.Fatal(err)
	}

	used, err := backend.BytesInUse(PartitionLocal)
	if err != nil {
		t.Fatalf("BytesInUse() error = %v", err)
	}
	if used != int64(len("key")+len("value")) {
		t.Errorf("BytesInUse() = %d, want %d", used, len("key")+len("value"))
	}

	if err := backend.Remove(PartitionLocal, "key"); err != nil {
		t.Fatal(err)
	}
	used, _ = backend.BytesInUse(PartitionLocal)
	if used != 0 {
		t.Errorf("BytesInUse() = %d after remove, want 0", used)
	}
}
