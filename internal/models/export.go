// ABOUTME: ExportJob tracks a single export through its lifecycle
// ABOUTME: History is newest-first and capped; jobs mutate in place as status advances
package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Export formats.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
	FormatPDF  = "pdf"
)

// Export job statuses.
const (
	ExportPending    = "pending"
	ExportProcessing = "processing"
	ExportCompleted  = "completed"
	ExportFailed     = "failed"
)

// ExportJob is one export run.
type ExportJob struct {
	ID           string    `json:"id"`
	Format       string    `json:"format"`
	ReviewIDs    []string  `json:"review_ids"`
	FileName     string    `json:"file_name"`
	FileSize     int64     `json:"file_size,omitempty"`
	Status       string    `json:"status"`
	ErrorMessage string    `json:"error_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	CompletedAt  time.Time `json:"completed_at,omitempty"`
}

// NewExportJob creates a pending job for the given reviews.
func NewExportJob(format string, reviewIDs []string, now time.Time) ExportJob {
	return ExportJob{
		ID:        "exp_" + uuid.New().String(),
		Format:    format,
		ReviewIDs: reviewIDs,
		FileName:  ExportFileName(format, now),
		Status:    ExportPending,
		CreatedAt: now,
	}
}

// ExportFileName builds the conventional file name for an export.
func ExportFileName(format string, now time.Time) string {
	return fmt.Sprintf("reviews_export_%s.%s", now.Format("2006-01-02"), format)
}

// ValidExportFormat reports whether format is one we recognize.
func ValidExportFormat(format string) bool {
	switch format {
	case FormatCSV, FormatJSON, FormatPDF:
		return true
	}
	return false
}

// ExportJobUpdate is a partial job; nil fields are left untouched.
type ExportJobUpdate struct {
	FileSize     *int64     `json:"file_size,omitempty"`
	Status       *string    `json:"status,omitempty"`
	ErrorMessage *string    `json:"error_message,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// Apply merges the set fields into j.
func (u ExportJobUpdate) Apply(j *ExportJob) {
	if u.FileSize != nil {
		j.FileSize = *u.FileSize
	}
	if u.Status != nil {
		j.Status = *u.Status
	}
	if u.ErrorMessage != nil {
		j.ErrorMessage = *u.ErrorMessage
	}
	if u.CompletedAt != nil {
		j.CompletedAt = *u.CompletedAt
	}
}
