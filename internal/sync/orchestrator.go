// ABOUTME: SyncOrchestrator coordinates token, fetch, merge, and result reporting
// ABOUTME: Single-flight state machine; full sync reconciles deletions, incremental never deletes
package sync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/harper/review-rescue/internal/auth"
	"github.com/harper/review-rescue/internal/errs"
	"github.com/harper/review-rescue/internal/models"
	"github.com/harper/review-rescue/internal/storage"
	"github.com/harper/review-rescue/internal/util"
)

// Mode selects the sync strategy.
type Mode string

const (
	// ModeIncremental fetches records modified since the last sync and
	// applies add/update only. It never deletes: a partial "since" fetch
	// cannot determine removals.
	ModeIncremental Mode = "incremental"
	// ModeFull fetches the complete remote set and reconciles deletions
	// as the set difference against the previously cached external ids.
	ModeFull Mode = "full"
)

// State is the orchestrator's lifecycle state.
type State string

const (
	StateIdle       State = "idle"
	StateFetching   State = "fetching"
	StateMerging    State = "merging"
	StateCancelling State = "cancelling"
)

// Retry policy for network failures during fetch.
const (
	DefaultMaxAttempts = 3
	DefaultRetryDelay  = 2 * time.Second
)

// Page is one page of remote results.
type Page struct {
	Reviews       []models.Review
	NextPageToken string
}

// ReviewSource is the external review collaborator. Transport timeouts
// are its responsibility; the orchestrator only bounds retry attempts.
type ReviewSource interface {
	FetchAll(ctx context.Context, pageToken string) (*Page, error)
	FetchSince(ctx context.Context, since time.Time) ([]models.Review, error)
}

// Orchestrator is the single sync coordinator. Exactly one sync may be in
// a non-idle state; a request arriving while busy is rejected with
// SyncInProgress rather than queued.
type Orchestrator struct {
	sessions *auth.Manager
	source   ReviewSource
	cache    *storage.ReviewCache

	maxAttempts int
	retryDelay  time.Duration
	now         func() time.Time

	mu        sync.Mutex
	state     State
	cancelled bool
	progress  int
	operation string
	startedAt time.Time
}

// NewOrchestrator wires the orchestrator to its collaborators.
func NewOrchestrator(sessions *auth.Manager, source ReviewSource, cache *storage.ReviewCache) *Orchestrator {
	return &Orchestrator{
		sessions:    sessions,
		source:      source,
		cache:       cache,
		maxAttempts: DefaultMaxAttempts,
		retryDelay:  DefaultRetryDelay,
		now:         time.Now,
		state:       StateIdle,
	}
}

// SetRetryPolicy overrides the network retry policy.
func (o *Orchestrator) SetRetryPolicy(maxAttempts int, delay time.Duration) {
	o.maxAttempts = maxAttempts
	o.retryDelay = delay
}

// SetClock overrides the orchestrator clock for tests.
func (o *Orchestrator) SetClock(now func() time.Time) {
	o.now = now
}

// Status returns the observable sync state.
func (o *Orchestrator) Status() models.SyncStatus {
	o.mu.Lock()
	defer o.mu.Unlock()

	status := models.SyncStatus{
		IsSyncing:        o.state != StateIdle,
		Progress:         o.progress,
		CurrentOperation: o.operation,
		StartedAt:        o.startedAt,
	}
	if session, err := o.sessions.Session(); err == nil && session != nil {
		status.LastSyncAt = session.LastSyncAt
	}
	return status
}

// Cancel requests cooperative cancellation of the in-flight sync. The
// flag is checked between fetched pages; an in-flight page fetch is not
// aborted, but its result is discarded.
func (o *Orchestrator) Cancel() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state == StateFetching || o.state == StateMerging {
		o.cancelled = true
		o.state = StateCancelling
		o.operation = "cancelling"
	}
}

// ErrCancelled reports a sync that was cancelled cooperatively.
var ErrCancelled = errs.New(errs.Unknown, "sync cancelled")

// Run executes one sync in the given mode. On failure the previously
// cached reviews are left intact and the result carries the error list.
func (o *Orchestrator) Run(ctx context.Context, mode Mode) (*models.SyncResult, error) {
	if err := o.begin(); err != nil {
		return nil, err
	}
	start := o.now()
	result, err := o.run(ctx, mode)
	o.finish()

	if result == nil {
		result = &models.SyncResult{Timestamp: o.now()}
	}
	result.Duration = o.now().Sub(start)
	if err != nil {
		result.Success = false
		result.Errors = append(result.Errors, err.Error())
	}
	return result, err
}

func (o *Orchestrator) begin() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != StateIdle {
		return errs.New(errs.SyncInProgress, "a sync is already running")
	}
	o.state = StateFetching
	o.cancelled = false
	o.progress = 0
	o.operation = "acquiring access token"
	o.startedAt = o.now()
	return nil
}

func (o *Orchestrator) finish() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.state = StateIdle
	o.progress = 0
	o.operation = ""
	o.startedAt = time.Time{}
}

func (o *Orchestrator) setPhase(state State, progress int, operation string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	// Cancellation wins over phase updates
	if o.state != StateCancelling {
		o.state = state
	}
	o.progress = progress
	o.operation = operation
}

func (o *Orchestrator) isCancelled() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.cancelled
}

func (o *Orchestrator) run(ctx context.Context, mode Mode) (*models.SyncResult, error) {
	// Phase 1: token. Auth errors are surfaced verbatim; the caller must
	// reauthenticate.
	if _, err := o.sessions.AccessToken(ctx); err != nil {
		return nil, err
	}

	session, err := o.sessions.Session()
	if err != nil {
		return nil, err
	}

	// A never-synced store has nothing to be incremental against
	if mode == ModeIncremental && (session == nil || session.LastSyncAt.IsZero()) {
		mode = ModeFull
	}

	switch mode {
	case ModeFull:
		return o.runFull(ctx)
	case ModeIncremental:
		return o.runIncremental(ctx, session.LastSyncAt)
	default:
		return nil, errs.Newf(errs.Unknown, "unknown sync mode %q", mode)
	}
}

func (o *Orchestrator) runFull(ctx context.Context) (*models.SyncResult, error) {
	o.setPhase(StateFetching, 10, "fetching reviews")

	// Phase 2: fetch all pages, checking the cancellation flag between
	// pages. Partial results are discarded on cancellation.
	var fetched []models.Review
	pageToken := ""
	for {
		if o.isCancelled() {
			return nil, ErrCancelled
		}

		var page *Page
		err := util.Retry(ctx, o.maxAttempts, o.retryDelay, func() error {
			var fetchErr error
			page, fetchErr = o.source.FetchAll(ctx, pageToken)
			return fetchErr
		})
		if err != nil {
			return nil, fmt.Errorf("fetch failed: %w", err)
		}

		fetched = append(fetched, page.Reviews...)
		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}

	if o.isCancelled() {
		return nil, ErrCancelled
	}

	// Phase 3: prepare the full replacement collection in memory, then
	// swap it in with a single write. The remote record wins every
	// conflict; only the local id and sync bookkeeping survive a merge.
	o.setPhase(StateMerging, 70, "merging reviews")

	previous, err := o.cache.List()
	if err != nil {
		return nil, errs.Wrap(errs.StorageError, "failed to read cached reviews", err)
	}
	prevByExternal := make(map[string]models.Review, len(previous))
	for _, r := range previous {
		prevByExternal[r.ExternalID] = r
	}

	now := o.now()
	result := &models.SyncResult{Timestamp: now}
	merged := make([]models.Review, 0, len(fetched))
	seen := make(map[string]bool, len(fetched))
	for _, remote := range fetched {
		if seen[remote.ExternalID] {
			continue
		}
		seen[remote.ExternalID] = true

		if prev, ok := prevByExternal[remote.ExternalID]; ok {
			if remoteChanged(prev, remote) {
				result.ReviewsUpdated++
			}
			remote.ID = prev.ID
		} else {
			result.ReviewsAdded++
			remote.ID = models.NewReviewID()
		}
		remote.SyncedAt = now
		merged = append(merged, remote)
	}
	// Deletions are the set difference: previously cached external ids
	// absent from the fetched set
	for external := range prevByExternal {
		if !seen[external] {
			result.ReviewsDeleted++
		}
	}

	if o.isCancelled() {
		return nil, ErrCancelled
	}

	if err := o.cache.ReplaceAll(merged); err != nil {
		return nil, fmt.Errorf("merge failed: %w", err)
	}

	o.setPhase(StateMerging, 90, "recording sync")
	if err := o.sessions.MarkSynced(now, true); err != nil {
		return nil, err
	}

	result.Success = true
	result.TotalReviews = len(merged)
	return result, nil
}

func (o *Orchestrator) runIncremental(ctx context.Context, since time.Time) (*models.SyncResult, error) {
	o.setPhase(StateFetching, 10, "fetching changed reviews")

	var fetched []models.Review
	err := util.Retry(ctx, o.maxAttempts, o.retryDelay, func() error {
		var fetchErr error
		fetched, fetchErr = o.source.FetchSince(ctx, since)
		return fetchErr
	})
	if err != nil {
		return nil, fmt.Errorf("fetch failed: %w", err)
	}

	if o.isCancelled() {
		return nil, ErrCancelled
	}

	o.setPhase(StateMerging, 70, "merging reviews")

	previous, err := o.cache.List()
	if err != nil {
		return nil, errs.Wrap(errs.StorageError, "failed to read cached reviews", err)
	}
	prevByExternal := make(map[string]models.Review, len(previous))
	for _, r := range previous {
		prevByExternal[r.ExternalID] = r
	}

	now := o.now()
	result := &models.SyncResult{Timestamp: now}
	for _, remote := range fetched {
		if prev, ok := prevByExternal[remote.ExternalID]; ok {
			if !remoteChanged(prev, remote) {
				continue
			}
			if err := o.cache.Update(prev.ID, remoteUpdate(remote, now)); err != nil {
				return nil, fmt.Errorf("merge failed: %w", err)
			}
			result.ReviewsUpdated++
		} else {
			remote.ID = models.NewReviewID()
			remote.SyncedAt = now
			if err := o.cache.Add(remote); err != nil {
				return nil, fmt.Errorf("merge failed: %w", err)
			}
			result.ReviewsAdded++
		}
	}

	o.setPhase(StateMerging, 90, "recording sync")
	if err := o.sessions.MarkSynced(now, false); err != nil {
		return nil, err
	}

	result.Success = true
	total, err := o.cache.Count()
	if err != nil {
		return nil, err
	}
	result.TotalReviews = total
	return result, nil
}

// remoteChanged reports whether any remote-owned field differs between
// the cached record and the fetched one.
func remoteChanged(prev, remote models.Review) bool {
	if prev.BusinessName != remote.BusinessName ||
		prev.BusinessLocation != remote.BusinessLocation ||
		prev.Rating != remote.Rating ||
		prev.ReviewText != remote.ReviewText ||
		prev.AuthorName != remote.AuthorName ||
		prev.AuthorPhotoURL != remote.AuthorPhotoURL ||
		!prev.ReviewDate.Equal(remote.ReviewDate) ||
		!photosEqual(prev.Photos, remote.Photos) {
		return true
	}
	if (prev.Response == nil) != (remote.Response == nil) {
		return true
	}
	if prev.Response != nil && remote.Response != nil && *prev.Response != *remote.Response {
		return true
	}
	return false
}

// photosEqual compares photo lists element-wise; a same-length list with
// a changed URL or dimensions still counts as a remote change.
func photosEqual(prev, remote []models.Photo) bool {
	if len(prev) != len(remote) {
		return false
	}
	for i := range prev {
		if prev[i] != remote[i] {
			return false
		}
	}
	return true
}

// remoteUpdate builds the partial update that overwrites every
// remote-owned field, leaving only the local id untouched.
func remoteUpdate(remote models.Review, now time.Time) models.ReviewUpdate {
	return models.ReviewUpdate{
		BusinessName:     &remote.BusinessName,
		BusinessLocation: &remote.BusinessLocation,
		Rating:           &remote.Rating,
		ReviewText:       &remote.ReviewText,
		AuthorName:       &remote.AuthorName,
		AuthorPhotoURL:   &remote.AuthorPhotoURL,
		ReviewDate:       &remote.ReviewDate,
		Photos:           remote.Photos,
		Response:         remote.Response,
		SyncedAt:         &now,
	}
}
