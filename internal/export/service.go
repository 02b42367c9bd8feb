// ABOUTME: Export service: selects reviews, renders the file, records the job
// ABOUTME: Jobs advance pending, processing, then completed or failed in the history log

package export

import (
	"time"

	"github.com/harper/review-rescue/internal/errs"
	"github.com/harper/review-rescue/internal/models"
	"github.com/harper/review-rescue/internal/storage"
)

// Service runs exports against the review cache and records each job in
// the export history.
type Service struct {
	reviews *storage.ReviewCache
	history *storage.ExportHistoryLog
	now     func() time.Time
}

// NewService creates an export service.
func NewService(reviews *storage.ReviewCache, history *storage.ExportHistoryLog) *Service {
	return &Service{reviews: reviews, history: history, now: time.Now}
}

// SetClock overrides the service clock for tests.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Run exports the selected reviews in the given format. An empty ids
// slice exports everything. The job is recorded in the history whether
// it succeeds or fails; only rendering errors fail the job, history
// write failures surface directly.
func (s *Service) Run(format string, ids []string) (*File, *models.ExportJob, error) {
	if !models.ValidExportFormat(format) {
		return nil, nil, errs.Newf(errs.Unknown, "unknown export format %q", format)
	}

	job := models.NewExportJob(format, ids, s.now())
	if err := s.history.Append(job); err != nil {
		return nil, nil, err
	}

	processing := models.ExportProcessing
	if err := s.history.Update(job.ID, models.ExportJobUpdate{Status: &processing}); err != nil {
		return nil, nil, err
	}
	job.Status = processing

	file, err := s.render(format, ids)
	completedAt := s.now()
	if err != nil {
		failed := models.ExportFailed
		message := err.Error()
		update := models.ExportJobUpdate{
			Status:       &failed,
			ErrorMessage: &message,
			CompletedAt:  &completedAt,
		}
		if uerr := s.history.Update(job.ID, update); uerr != nil {
			return nil, nil, uerr
		}
		update.Apply(&job)
		return nil, &job, err
	}

	completed := models.ExportCompleted
	size := int64(len(file.Data))
	update := models.ExportJobUpdate{
		Status:      &completed,
		FileSize:    &size,
		CompletedAt: &completedAt,
	}
	if err := s.history.Update(job.ID, update); err != nil {
		return nil, nil, err
	}
	update.Apply(&job)
	return file, &job, nil
}

// History returns the recorded jobs, newest first.
func (s *Service) History() ([]models.ExportJob, error) {
	return s.history.List()
}

func (s *Service) render(format string, ids []string) (*File, error) {
	all, err := s.reviews.List()
	if err != nil {
		return nil, err
	}

	selected := all
	if len(ids) > 0 {
		wanted := make(map[string]bool, len(ids))
		for _, id := range ids {
			wanted[id] = true
		}
		selected = selected[:0:0]
		for _, r := range all {
			if wanted[r.ID] {
				selected = append(selected, r)
			}
		}
		if len(selected) == 0 {
			return nil, errs.New(errs.Unknown, "no cached reviews match the requested ids")
		}
	}

	return Export(selected, format, s.now())
}
