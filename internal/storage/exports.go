// ABOUTME: ExportHistoryLog is the bounded, newest-first log of export jobs
// ABOUTME: Insertion beyond the cap evicts the oldest entry
package storage

import (
	"github.com/harper/review-rescue/internal/models"
)

// MaxExportHistory caps the export history length.
const MaxExportHistory = 50

// ExportHistoryLog stores export jobs newest-first in the local partition.
type ExportHistoryLog struct {
	backend Backend
}

// NewExportHistoryLog creates an export history log on the given backend.
func NewExportHistoryLog(backend Backend) *ExportHistoryLog {
	return &ExportHistoryLog{backend: backend}
}

// List returns the history, newest first.
func (l *ExportHistoryLog) List() ([]models.ExportJob, error) {
	var history []models.ExportJob
	ok, err := GetJSON(l.backend, PartitionLocal, KeyExportHistory, &history)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []models.ExportJob{}, nil
	}
	return history, nil
}

// Append inserts the job at the front, truncating the tail past the cap.
func (l *ExportHistoryLog) Append(job models.ExportJob) error {
	history, err := l.List()
	if err != nil {
		return err
	}
	history = append([]models.ExportJob{job}, history...)
	if len(history) > MaxExportHistory {
		history = history[:MaxExportHistory]
	}
	return SetJSON(l.backend, PartitionLocal, KeyExportHistory, history)
}

// Update merges the partial fields into the matching entry. A missing id
// is a no-op.
func (l *ExportHistoryLog) Update(id string, update models.ExportJobUpdate) error {
	history, err := l.List()
	if err != nil {
		return err
	}
	for i := range history {
		if history[i].ID == id {
			update.Apply(&history[i])
			return SetJSON(l.backend, PartitionLocal, KeyExportHistory, history)
		}
	}
	return nil
}
