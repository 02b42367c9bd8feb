// ABOUTME: SessionStore persists the single user session in the local partition
// ABOUTME: Absence of the key means unauthenticated
package storage

import (
	"github.com/harper/review-rescue/internal/models"
)

// SessionStore owns the persisted UserSession. At most one session exists;
// all session readers and writers go through this store.
type SessionStore struct {
	backend Backend
}

// NewSessionStore creates a session store on the given backend.
func NewSessionStore(backend Backend) *SessionStore {
	return &SessionStore{backend: backend}
}

// Get returns the stored session, or nil if none exists.
func (s *SessionStore) Get() (*models.UserSession, error) {
	var session models.UserSession
	ok, err := GetJSON(s.backend, PartitionLocal, KeySession, &session)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &session, nil
}

// Set replaces the stored session.
func (s *SessionStore) Set(session *models.UserSession) error {
	return SetJSON(s.backend, PartitionLocal, KeySession, session)
}

// Update applies fn to the current session and persists the result.
// No-op when no session exists.
func (s *SessionStore) Update(fn func(*models.UserSession)) error {
	session, err := s.Get()
	if err != nil {
		return err
	}
	if session == nil {
		return nil
	}
	fn(session)
	return s.Set(session)
}

// Clear removes the session unconditionally.
func (s *SessionStore) Clear() error {
	return s.backend.Remove(PartitionLocal, KeySession)
}
