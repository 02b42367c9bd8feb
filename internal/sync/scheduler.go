// ABOUTME: Scheduler triggers automatic syncs from preferences and last-sync markers
// ABOUTME: Incremental by default, with a periodic forced full sync to reconcile deletions
package sync

import (
	"context"
	"log"
	"time"

	"github.com/harper/review-rescue/internal/auth"
	"github.com/harper/review-rescue/internal/errs"
	"github.com/harper/review-rescue/internal/models"
	"github.com/harper/review-rescue/internal/storage"
)

// FullSyncEvery bounds how stale deletion reconciliation may get:
// incremental syncs never observe deletions, so a full sync is forced
// once the last one is older than this.
const FullSyncEvery = 24 * time.Hour

// DefaultCheckInterval is how often the scheduler re-evaluates whether a
// sync is due.
const DefaultCheckInterval = 15 * time.Minute

// Scheduler drives automatic syncs.
type Scheduler struct {
	orchestrator *Orchestrator
	sessions     *auth.Manager
	prefs        *storage.PreferencesStore

	checkInterval time.Duration
	now           func() time.Time
}

// NewScheduler creates a scheduler with the default check interval.
func NewScheduler(orchestrator *Orchestrator, sessions *auth.Manager, prefs *storage.PreferencesStore) *Scheduler {
	return &Scheduler{
		orchestrator:  orchestrator,
		sessions:      sessions,
		prefs:         prefs,
		checkInterval: DefaultCheckInterval,
		now:           time.Now,
	}
}

// SetCheckInterval overrides how often the scheduler wakes up.
func (s *Scheduler) SetCheckInterval(d time.Duration) {
	s.checkInterval = d
}

// SetClock overrides the scheduler clock for tests.
func (s *Scheduler) SetClock(now func() time.Time) {
	s.now = now
}

// ShouldSync reports whether an automatic sync is due given the current
// preferences and session markers.
func (s *Scheduler) ShouldSync(prefs models.UserPreferences, session *models.UserSession) bool {
	if !prefs.AutoSyncEnabled {
		return false
	}
	if !session.Valid(s.now()) {
		return false
	}
	if session.LastSyncAt.IsZero() {
		return true
	}
	interval := time.Duration(prefs.SyncIntervalHours) * time.Hour
	return s.now().Sub(session.LastSyncAt) >= interval
}

// NextMode picks the sync mode: incremental by default, full when the
// last full reconciliation is too old (or never happened).
func (s *Scheduler) NextMode(session *models.UserSession) Mode {
	if session == nil || session.LastFullSyncAt.IsZero() {
		return ModeFull
	}
	if s.now().Sub(session.LastFullSyncAt) >= FullSyncEvery {
		return ModeFull
	}
	return ModeIncremental
}

// CheckAndSync runs one scheduling decision and, when due, one sync.
// Returns the result, or nil when no sync was due.
func (s *Scheduler) CheckAndSync(ctx context.Context) (*models.SyncResult, error) {
	prefs, err := s.prefs.Get()
	if err != nil {
		return nil, err
	}
	session, err := s.sessions.Session()
	if err != nil {
		return nil, err
	}
	if !s.ShouldSync(prefs, session) {
		return nil, nil
	}
	return s.orchestrator.Run(ctx, s.NextMode(session))
}

// Run loops until the context is cancelled, re-evaluating on every tick.
// A sync already in flight (e.g. user-triggered) is not an error; the
// scheduler just waits for the next tick.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			result, err := s.CheckAndSync(ctx)
			if err != nil {
				if !errs.Is(err, errs.SyncInProgress) {
					log.Printf("auto-sync failed: %v", err)
				}
				continue
			}
			if result != nil {
				log.Printf("auto-sync complete: %d added, %d updated, %d deleted",
					result.ReviewsAdded, result.ReviewsUpdated, result.ReviewsDeleted)
			}
		}
	}
}
