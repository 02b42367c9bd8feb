// ABOUTME: Sync commands pulling reviews from Google into the local cache
// ABOUTME: One-shot incremental or full syncs plus the auto-sync daemon loop
package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	syncer "github.com/harper/review-rescue/internal/sync"
)

// NewSyncCmd creates the sync command group
func NewSyncCmd() *cobra.Command {
	var full bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync reviews from Google",
		Long: `Sync reviews from Google into the local cache.

Incremental sync (the default) fetches reviews changed since the last
sync and never deletes. A full sync fetches everything and also removes
reviews that disappeared remotely. Interrupt with Ctrl-C to cancel.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.Close()

			mode := syncer.ModeIncremental
			if full {
				mode = syncer.ModeFull
			}

			// Ctrl-C cancels the sync cooperatively
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			go func() {
				<-ctx.Done()
				app.Orchestrator.Cancel()
			}()

			start := time.Now()
			if !quiet {
				fmt.Fprintf(cmd.OutOrStdout(), "Syncing (%s)...\n", mode)
			}

			result, err := app.Orchestrator.Run(ctx, mode)
			if err != nil {
				return fmt.Errorf("sync failed: %w", err)
			}

			if format == "json" {
				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")
				return encoder.Encode(result)
			}
			if !quiet {
				fmt.Fprintf(cmd.OutOrStdout(),
					"Done in %s: %d added, %d updated, %d deleted (%d total)\n",
					time.Since(start).Round(time.Millisecond),
					result.ReviewsAdded, result.ReviewsUpdated,
					result.ReviewsDeleted, result.TotalReviews)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&full, "full", false, "full sync: reconcile deletions as well")
	cmd.AddCommand(newSyncAutoCmd())
	return cmd
}

func newSyncAutoCmd() *cobra.Command {
	var checkInterval time.Duration

	cmd := &cobra.Command{
		Use:   "auto",
		Short: "Run the auto-sync loop in the foreground",
		Long: `Run the auto-sync loop in the foreground.

Honors the auto_sync_enabled and sync_interval_hours preferences, and
forces a periodic full sync so deletions are eventually reconciled.
Stops on Ctrl-C.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.Close()

			scheduler := syncer.NewScheduler(app.Orchestrator, app.Sessions, app.Prefs)
			if checkInterval > 0 {
				scheduler.SetCheckInterval(checkInterval)
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if !quiet {
				fmt.Fprintln(cmd.OutOrStdout(), "Auto-sync running; Ctrl-C to stop")
			}
			scheduler.Run(ctx)
			return nil
		},
	}

	cmd.Flags().DurationVar(&checkInterval, "check-interval", 0, "how often to re-evaluate (default 15m)")
	return cmd
}
