// ABOUTME: Export commands writing review exports to disk and listing past jobs
// ABOUTME: CSV and JSON via the export service; history is capped and newest-first
package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// NewExportCmd creates the export command group
func NewExportCmd() *cobra.Command {
	var (
		exportFormat string
		outDir       string
		ids          []string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export cached reviews to a file",
		Long: `Export the cached reviews to a file.

Supports csv and json. Every export is recorded in the export history
('reviewrescue export history').`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.Close()

			if exportFormat == "" {
				prefs, err := app.Prefs.Get()
				if err != nil {
					return err
				}
				exportFormat = prefs.DefaultExportFormat
			}

			file, _, err := app.Exports.Run(exportFormat, ids)
			if err != nil {
				return fmt.Errorf("export failed: %w", err)
			}

			path := filepath.Join(outDir, file.Name)
			if err := os.WriteFile(path, file.Data, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", path, err)
			}
			if !quiet {
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%s)\n", path, formatBytes(int64(len(file.Data))))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&exportFormat, "output-format", "", "csv or json (default: the default_export_format preference)")
	cmd.Flags().StringVar(&outDir, "dir", ".", "directory to write the export into")
	cmd.Flags().StringSliceVar(&ids, "id", nil, "export only these review ids (repeatable)")

	cmd.AddCommand(newExportHistoryCmd())
	return cmd
}

func newExportHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List past export jobs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.Close()

			jobs, err := app.Exports.History()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(jobs) == 0 {
				fmt.Fprintln(out, "No exports yet")
				return nil
			}
			for _, job := range jobs {
				line := fmt.Sprintf("%s  %-10s  %s", formatTime(job.CreatedAt), job.Status, job.FileName)
				if job.Status == "completed" {
					line += fmt.Sprintf("  (%s)", formatBytes(job.FileSize))
				} else if job.ErrorMessage != "" {
					line += "  " + truncate(job.ErrorMessage, 60)
				}
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
}
