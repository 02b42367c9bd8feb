// ABOUTME: Status command showing session, sync, and storage state at a glance
// ABOUTME: The quick health check before reaching for sync or export
package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harper/review-rescue/internal/storage"
)

// NewStatusCmd creates the status command
func NewStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show session, sync, and storage status",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.Close()

			session, err := app.Sessions.Session()
			if err != nil {
				return err
			}
			stats, err := storage.ComputeStats(app.Backend, app.Reviews)
			if err != nil {
				return err
			}
			syncStatus := app.Orchestrator.Status()

			if format == "json" {
				payload := map[string]any{
					"session": session,
					"storage": stats,
					"sync":    syncStatus,
				}
				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")
				return encoder.Encode(payload)
			}

			out := cmd.OutOrStdout()
			if session == nil {
				fmt.Fprintln(out, "Account:  not logged in")
			} else {
				who := session.Email
				if who == "" {
					who = session.UserID
				}
				fmt.Fprintf(out, "Account:  %s\n", who)
				fmt.Fprintf(out, "Token:    expires %s\n", formatTime(session.TokenExpiresAt))
				fmt.Fprintf(out, "Synced:   %s (full: %s)\n",
					formatTime(session.LastSyncAt), formatTime(session.LastFullSyncAt))
			}

			if syncStatus.IsSyncing {
				fmt.Fprintf(out, "Sync:     running (%s, %d%%)\n",
					syncStatus.CurrentOperation, syncStatus.Progress)
			}

			fmt.Fprintf(out, "Reviews:  %d cached\n", stats.ReviewCount)
			fmt.Fprintf(out, "Storage:  %s of %s (%.1f%%), ~%d reviews remaining\n",
				formatBytes(stats.BytesInUse), formatBytes(stats.QuotaBytes),
				stats.PercentageUsed, stats.EstimatedReviewsRemaining)
			return nil
		},
	}
}
