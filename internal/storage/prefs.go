// ABOUTME: PreferencesStore with default-merge reads in the replicated partition
// ABOUTME: Reads never fail outright; absence degrades to the default set
package storage

import (
	"github.com/harper/review-rescue/internal/models"
)

// PreferencesStore persists user preferences in the replicated partition
// so they follow the user across devices.
type PreferencesStore struct {
	backend Backend
}

// NewPreferencesStore creates a preferences store on the given backend.
func NewPreferencesStore(backend Backend) *PreferencesStore {
	return &PreferencesStore{backend: backend}
}

// Get returns a fully populated preferences object: stored values
// shallow-merged over the fixed defaults, so an empty or partial store
// never yields missing fields.
func (s *PreferencesStore) Get() (models.UserPreferences, error) {
	prefs := models.DefaultPreferences()
	// Unmarshals on top of the defaults: fields absent from the stored
	// document keep their default values
	if _, err := GetJSON(s.backend, PartitionReplicated, KeyPreferences, &prefs); err != nil {
		return models.DefaultPreferences(), err
	}
	return prefs, nil
}

// Set replaces the stored preferences wholesale.
func (s *PreferencesStore) Set(prefs models.UserPreferences) error {
	return SetJSON(s.backend, PartitionReplicated, KeyPreferences, prefs)
}

// Update reads current preferences, merges the partial update, and writes
// the result back, so unspecified fields are never clobbered.
func (s *PreferencesStore) Update(update models.PreferencesUpdate) (models.UserPreferences, error) {
	prefs, err := s.Get()
	if err != nil {
		return prefs, err
	}
	update.Apply(&prefs)
	if err := s.Set(prefs); err != nil {
		return prefs, err
	}
	return prefs, nil
}
