// ABOUTME: Tests for the bounded export history log
// ABOUTME: Newest-first ordering and eviction past the 50-entry cap

package storage

import (
	"fmt"
	"testing"
	"time"

	"github.com/harper/review-rescue/internal/models"
)

func TestExportHistoryLog_AppendNewestFirst(t *testing.T) {
	log := NewExportHistoryLog(NewMemoryBackend())

	now := time.Now()
	for i := 1; i <= 3; i++ {
		job := models.NewExportJob(models.FormatJSON, nil, now)
		job.ID = fmt.Sprintf("exp_%d", i)
		if err := log.Append(job); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	history, err := log.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("List() length = %d, want 3", len(history))
	}
	if history[0].ID != "exp_3" || history[2].ID != "exp_1" {
		t.Errorf("order = [%s %s %s], want newest first", history[0].ID, history[1].ID, history[2].ID)
	}
}

func TestExportHistoryLog_CapEvictsOldest(t *testing.T) {
	log := NewExportHistoryLog(NewMemoryBackend())

	now := time.Now()
	for i := 1; i <= MaxExportHistory+1; i++ {
		job := models.NewExportJob(models.FormatCSV, nil, now)
		job.ID = fmt.Sprintf("exp_%d", i)
		if err := log.Append(job); err != nil {
			t.Fatalf("Append() #%d error = %v", i, err)
		}
	}

	history, err := log.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(history) != MaxExportHistory {
		t.Fatalf("List() length = %d after %d appends, want %d", len(history), MaxExportHistory+1, MaxExportHistory)
	}
	if history[0].ID != fmt.Sprintf("exp_%d", MaxExportHistory+1) {
		t.Errorf("first entry = %s, want the 51st job", history[0].ID)
	}
	// exp_1 evicted
	for _, job := range history {
		if job.ID == "exp_1" {
			t.Error("oldest job should have been evicted")
		}
	}
}

func TestExportHistoryLog_Update(t *testing.T) {
	log := NewExportHistoryLog(NewMemoryBackend())

	job := models.NewExportJob(models.FormatJSON, []string{"rev_1"}, time.Now())
	if err := log.Append(job); err != nil {
		t.Fatal(err)
	}

	status := models.ExportCompleted
	size := int64(2048)
	completed := time.Now()
	err := log.Update(job.ID, models.ExportJobUpdate{
		Status:      &status,
		FileSize:    &size,
		CompletedAt: &completed,
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	history, _ := log.List()
	if history[0].Status != models.ExportCompleted {
		t.Errorf("Status = %q, want completed", history[0].Status)
	}
	if history[0].FileSize != 2048 {
		t.Errorf("FileSize = %d, want 2048", history[0].FileSize)
	}
	// Untouched fields survive
	if len(history[0].ReviewIDs) != 1 || history[0].ReviewIDs[0] != "rev_1" {
		t.Errorf("ReviewIDs = %v, should be unchanged", history[0].ReviewIDs)
	}
}

func TestExportHistoryLog_UpdateMissingID(t *testing.T) {
	log := NewExportHistoryLog(NewMemoryBackend())

	status := models.ExportFailed
	if err := log.Update("exp_missing", models.ExportJobUpdate{Status: &status}); err != nil {
		t.Fatalf("Update() on missing id should be a no-op, got %v", err)
	}

	history, _ := log.List()
	if len(history) != 0 {
		t.Errorf("List() length = %d, want 0", len(history))
	}
}
