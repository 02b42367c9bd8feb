// ABOUTME: UserSession holds the single authenticated session and its token
// ABOUTME: Absence of a session means unauthenticated
package models

import "time"

// UserSession is the authentication session. At most one exists.
type UserSession struct {
	UserID          string    `json:"user_id"`
	Email           string    `json:"email,omitempty"`
	AccessToken     string    `json:"access_token,omitempty"`
	RefreshToken    string    `json:"refresh_token,omitempty"`
	TokenExpiresAt  time.Time `json:"token_expires_at,omitempty"`
	IsAuthenticated bool      `json:"is_authenticated"`
	LastSyncAt      time.Time `json:"last_sync_at,omitempty"`
	LastFullSyncAt  time.Time `json:"last_full_sync_at,omitempty"`
}

// TokenExpiresWithin reports whether the token expires within lead of now.
// A zero expiry means the provider did not report one; treat as not expiring.
func (s *UserSession) TokenExpiresWithin(now time.Time, lead time.Duration) bool {
	if s.TokenExpiresAt.IsZero() {
		return false
	}
	return !s.TokenExpiresAt.After(now.Add(lead))
}

// Valid reports whether the session is authenticated and unexpired at now.
func (s *UserSession) Valid(now time.Time) bool {
	if s == nil || !s.IsAuthenticated {
		return false
	}
	if !s.TokenExpiresAt.IsZero() && !s.TokenExpiresAt.After(now) {
		return false
	}
	return true
}
