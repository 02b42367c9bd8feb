// ABOUTME: UserPreferences with a fixed default set and shallow-merge semantics
// ABOUTME: Reads always yield a complete object, never missing fields
package models

// UserPreferences is the user configuration stored in the replicated
// partition so it follows the user across devices.
type UserPreferences struct {
	Theme               string `json:"theme"`                 // light, dark, auto
	DefaultExportFormat string `json:"default_export_format"` // csv, json, pdf
	AutoSyncEnabled     bool   `json:"auto_sync_enabled"`
	SyncIntervalHours   int    `json:"sync_interval_hours"`
	ShowPhotos          bool   `json:"show_photos"`
	DefaultView         string `json:"default_view"` // list, grid
	ResultsPerPage      int    `json:"results_per_page"`
	InsightsCacheHours  int    `json:"insights_cache_hours"`
	AIProvider          string `json:"ai_provider"` // claude, openai
	AIModel             string `json:"ai_model,omitempty"`
}

// DefaultPreferences returns the fixed default set.
func DefaultPreferences() UserPreferences {
	return UserPreferences{
		Theme:               "auto",
		DefaultExportFormat: "json",
		AutoSyncEnabled:     true,
		SyncIntervalHours:   4,
		ShowPhotos:          true,
		DefaultView:         "list",
		ResultsPerPage:      50,
		InsightsCacheHours:  24,
		AIProvider:          "claude",
	}
}

// PreferencesUpdate is a partial preferences object; nil fields are left
// untouched when applied.
type PreferencesUpdate struct {
	Theme               *string `json:"theme,omitempty"`
	DefaultExportFormat *string `json:"default_export_format,omitempty"`
	AutoSyncEnabled     *bool   `json:"auto_sync_enabled,omitempty"`
	SyncIntervalHours   *int    `json:"sync_interval_hours,omitempty"`
	ShowPhotos          *bool   `json:"show_photos,omitempty"`
	DefaultView         *string `json:"default_view,omitempty"`
	ResultsPerPage      *int    `json:"results_per_page,omitempty"`
	InsightsCacheHours  *int    `json:"insights_cache_hours,omitempty"`
	AIProvider          *string `json:"ai_provider,omitempty"`
	AIModel             *string `json:"ai_model,omitempty"`
}

// Apply merges the set fields into p.
func (u PreferencesUpdate) Apply(p *UserPreferences) {
	if u.Theme != nil {
		p.Theme = *u.Theme
	}
	if u.DefaultExportFormat != nil {
		p.DefaultExportFormat = *u.DefaultExportFormat
	}
	if u.AutoSyncEnabled != nil {
		p.AutoSyncEnabled = *u.AutoSyncEnabled
	}
	if u.SyncIntervalHours != nil {
		p.SyncIntervalHours = *u.SyncIntervalHours
	}
	if u.ShowPhotos != nil {
		p.ShowPhotos = *u.ShowPhotos
	}
	if u.DefaultView != nil {
		p.DefaultView = *u.DefaultView
	}
	if u.ResultsPerPage != nil {
		p.ResultsPerPage = *u.ResultsPerPage
	}
	if u.InsightsCacheHours != nil {
		p.InsightsCacheHours = *u.InsightsCacheHours
	}
	if u.AIProvider != nil {
		p.AIProvider = *u.AIProvider
	}
	if u.AIModel != nil {
		p.AIModel = *u.AIModel
	}
}
