// ABOUTME: SessionManager owns the authentication session and token lifecycle
// ABOUTME: Token refresh is single-flight; logout is two-phase with best-effort revoke
package auth

import (
	"context"
	"log"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/harper/review-rescue/internal/errs"
	"github.com/harper/review-rescue/internal/models"
	"github.com/harper/review-rescue/internal/storage"
)

// DefaultRefreshLead is how close to expiry a token may get before
// AccessToken refreshes it transparently.
const DefaultRefreshLead = 5 * time.Minute

// DefaultTokenLifetime applies when the provider does not report one.
const DefaultTokenLifetime = time.Hour

// ProviderToken is what an AuthProvider hands back.
type ProviderToken struct {
	AccessToken  string
	RefreshToken string
	// ExpiresIn is the provider-reported lifetime; zero means unreported.
	ExpiresIn time.Duration
	UserID    string
	Email     string
}

// AuthProvider is the external authentication collaborator.
type AuthProvider interface {
	Authenticate(ctx context.Context) (*ProviderToken, error)
	Refresh(ctx context.Context, refreshToken string) (*ProviderToken, error)
	Revoke(ctx context.Context, accessToken string) error
}

// Manager is the session manager. All session readers and writers go
// through it; nothing else touches the session key.
type Manager struct {
	sessions    *storage.SessionStore
	provider    AuthProvider
	refreshLead time.Duration
	refreshSF   singleflight.Group
	now         func() time.Time
}

// NewManager creates a session manager with the default refresh lead.
func NewManager(sessions *storage.SessionStore, provider AuthProvider) *Manager {
	return &Manager{
		sessions:    sessions,
		provider:    provider,
		refreshLead: DefaultRefreshLead,
		now:         time.Now,
	}
}

// SetRefreshLead overrides the refresh lead time.
func (m *Manager) SetRefreshLead(lead time.Duration) {
	m.refreshLead = lead
}

// SetClock overrides the manager clock for tests.
func (m *Manager) SetClock(now func() time.Time) {
	m.now = now
}

// Authenticate obtains a token and identity from the provider, persists a
// new session, and returns the token. Nothing is written on failure.
func (m *Manager) Authenticate(ctx context.Context) (string, error) {
	token, err := m.provider.Authenticate(ctx)
	if err != nil {
		return "", classifyAuthErr(err, "authentication failed")
	}
	if token.AccessToken == "" {
		return "", errs.New(errs.AuthFailed, "authentication failed - no token received")
	}

	session := &models.UserSession{
		UserID:          token.UserID,
		Email:           token.Email,
		AccessToken:     token.AccessToken,
		RefreshToken:    token.RefreshToken,
		TokenExpiresAt:  m.expiry(token),
		IsAuthenticated: true,
	}
	if err := m.sessions.Set(session); err != nil {
		return "", err
	}
	return token.AccessToken, nil
}

// AccessToken returns a token valid for at least the refresh lead,
// refreshing transparently when the stored one is expiring.
func (m *Manager) AccessToken(ctx context.Context) (string, error) {
	session, err := m.sessions.Get()
	if err != nil {
		return "", err
	}
	if session == nil || session.AccessToken == "" {
		return "", errs.New(errs.AuthFailed, "no active session - please authenticate")
	}

	if session.TokenExpiresWithin(m.now(), m.refreshLead) {
		return m.RefreshAccessToken(ctx)
	}
	return session.AccessToken, nil
}

// RefreshAccessToken invalidates the cached token with the provider and
// stores a fresh one. Concurrent callers collapse into one in-flight
// refresh and share its result.
func (m *Manager) RefreshAccessToken(ctx context.Context) (string, error) {
	token, err, _ := m.refreshSF.Do("refresh", func() (interface{}, error) {
		return m.refresh(ctx)
	})
	if err != nil {
		return "", err
	}
	return token.(string), nil
}

func (m *Manager) refresh(ctx context.Context) (string, error) {
	session, err := m.sessions.Get()
	if err != nil {
		return "", err
	}
	if session == nil {
		return "", errs.New(errs.AuthFailed, "no active session - please authenticate")
	}

	token, err := m.provider.Refresh(ctx, session.RefreshToken)
	if err != nil {
		return "", classifyAuthErr(err, "token refresh failed")
	}
	if token.AccessToken == "" {
		return "", errs.New(errs.TokenExpired, "token refresh failed - please re-authenticate")
	}

	err = m.sessions.Update(func(s *models.UserSession) {
		s.AccessToken = token.AccessToken
		if token.RefreshToken != "" {
			s.RefreshToken = token.RefreshToken
		}
		s.TokenExpiresAt = m.expiry(token)
	})
	if err != nil {
		return "", err
	}
	return token.AccessToken, nil
}

// Logout revokes the token remotely (best effort: failure is logged, not
// propagated) and unconditionally clears the local session. Local state
// consistency takes precedence over remote revocation success.
func (m *Manager) Logout(ctx context.Context) error {
	session, err := m.sessions.Get()
	if err == nil && session != nil && session.AccessToken != "" {
		if err := m.provider.Revoke(ctx, session.AccessToken); err != nil {
			log.Printf("Warning: remote token revocation failed: %v", err)
		}
	}
	return m.sessions.Clear()
}

// IsAuthenticated reports whether a session exists, its authenticated
// flag is set, and its expiry (if present) is in the future.
func (m *Manager) IsAuthenticated() (bool, error) {
	session, err := m.sessions.Get()
	if err != nil {
		return false, err
	}
	return session.Valid(m.now()), nil
}

// Session returns the stored session, or nil when unauthenticated.
func (m *Manager) Session() (*models.UserSession, error) {
	return m.sessions.Get()
}

// MarkSynced records a completed sync on the session. full also advances
// the full-reconciliation marker.
func (m *Manager) MarkSynced(t time.Time, full bool) error {
	return m.sessions.Update(func(s *models.UserSession) {
		s.LastSyncAt = t
		if full {
			s.LastFullSyncAt = t
		}
	})
}

func (m *Manager) expiry(token *ProviderToken) time.Time {
	lifetime := token.ExpiresIn
	if lifetime <= 0 {
		lifetime = DefaultTokenLifetime
	}
	return m.now().Add(lifetime)
}

// classifyAuthErr maps provider failures onto the closed error kinds,
// passing through errors the provider already classified.
func classifyAuthErr(err error, message string) error {
	switch errs.KindOf(err) {
	case errs.AuthFailed, errs.TokenExpired, errs.PermissionDenied, errs.NetworkError:
		return err
	}
	return errs.Wrap(errs.Unknown, message, err)
}
