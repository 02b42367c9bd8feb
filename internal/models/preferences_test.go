// ABOUTME: Tests for preference defaults and partial updates
// ABOUTME: Verifies shallow-merge never loses unspecified fields

package models

import "testing"

func TestDefaultPreferences(t *testing.T) {
	prefs := DefaultPreferences()

	if prefs.Theme != "auto" {
		t.Errorf("Theme = %q, want auto", prefs.Theme)
	}
	if prefs.SyncIntervalHours != 4 {
		t.Errorf("SyncIntervalHours = %d, want 4", prefs.SyncIntervalHours)
	}
	if prefs.InsightsCacheHours != 24 {
		t.Errorf("InsightsCacheHours = %d, want 24", prefs.InsightsCacheHours)
	}
	if !prefs.AutoSyncEnabled {
		t.Error("AutoSyncEnabled should default to true")
	}
	if prefs.AIProvider != "claude" {
		t.Errorf("AIProvider = %q, want claude", prefs.AIProvider)
	}
}

func TestPreferencesUpdate_Apply(t *testing.T) {
	prefs := DefaultPreferences()
	theme := "dark"

	PreferencesUpdate{Theme: &theme}.Apply(&prefs)

	want := DefaultPreferences()
	want.Theme = "dark"
	if prefs != want {
		t.Errorf("update changed more than theme: got %+v, want %+v", prefs, want)
	}
}

func TestPreferencesUpdate_ApplyBool(t *testing.T) {
	prefs := DefaultPreferences()
	off := false

	PreferencesUpdate{AutoSyncEnabled: &off}.Apply(&prefs)

	if prefs.AutoSyncEnabled {
		t.Error("AutoSyncEnabled should be false after update")
	}
	// Other fields untouched
	if prefs.SyncIntervalHours != 4 {
		t.Errorf("SyncIntervalHours = %d, want 4", prefs.SyncIntervalHours)
	}
}
