// ABOUTME: Preferences commands for viewing and updating user settings
// ABOUTME: Updates are partial merges; unset fields keep their stored values
package commands

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/harper/review-rescue/internal/models"
)

// NewPrefsCmd creates the prefs command group
func NewPrefsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "View and change preferences",
		Long: `View and change preferences.

Preferences are replicated via Charm cloud, so they follow you across
devices. Unset fields always fall back to their defaults.`,
	}

	cmd.AddCommand(newPrefsShowCmd())
	cmd.AddCommand(newPrefsSetCmd())
	return cmd
}

func newPrefsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the current preferences",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.Close()

			prefs, err := app.Prefs.Get()
			if err != nil {
				return err
			}

			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			return encoder.Encode(prefs)
		},
	}
}

func newPrefsSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set one preference field",
		Long: `Set one preference field by its JSON key, e.g.

  reviewrescue prefs set theme dark
  reviewrescue prefs set sync_interval_hours 8
  reviewrescue prefs set auto_sync_enabled false`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			update, err := buildPrefsUpdate(args[0], args[1])
			if err != nil {
				return err
			}

			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.Close()

			merged, err := app.Prefs.Update(*update)
			if err != nil {
				return err
			}
			if !quiet {
				fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", args[0], args[1])
			}
			if verbose {
				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")
				return encoder.Encode(merged)
			}
			return nil
		},
	}
}

// buildPrefsUpdate turns a key/value pair into a partial update, with the
// value parsed according to the field's type.
func buildPrefsUpdate(key, value string) (*models.PreferencesUpdate, error) {
	update := &models.PreferencesUpdate{}
	switch key {
	case "theme":
		update.Theme = &value
	case "default_export_format":
		if !models.ValidExportFormat(value) {
			return nil, fmt.Errorf("invalid export format %q", value)
		}
		update.DefaultExportFormat = &value
	case "default_view":
		update.DefaultView = &value
	case "ai_provider":
		if value != "claude" && value != "openai" {
			return nil, fmt.Errorf("ai_provider must be claude or openai, got %q", value)
		}
		update.AIProvider = &value
	case "ai_model":
		update.AIModel = &value
	case "auto_sync_enabled", "show_photos":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("%s must be true or false, got %q", key, value)
		}
		if key == "auto_sync_enabled" {
			update.AutoSyncEnabled = &b
		} else {
			update.ShowPhotos = &b
		}
	case "sync_interval_hours", "results_per_page", "insights_cache_hours":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("%s must be a positive integer, got %q", key, value)
		}
		switch key {
		case "sync_interval_hours":
			update.SyncIntervalHours = &n
		case "results_per_page":
			update.ResultsPerPage = &n
		case "insights_cache_hours":
			update.InsightsCacheHours = &n
		}
	default:
		return nil, fmt.Errorf("unknown preference %q", key)
	}
	return update, nil
}
