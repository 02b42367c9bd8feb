// ABOUTME: Insights command generating AI analysis of the cached reviews
// ABOUTME: Serves from the TTL cache unless forced to regenerate
package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// NewInsightsCmd creates the insights command
func NewInsightsCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "insights",
		Short: "Generate AI insights about your reviews",
		Long: `Generate AI insights about your reviewing habits.

Insights are cached and reused until they expire (insights_cache_hours
preference, 24h by default). Requires OPENAI_API_KEY or
ANTHROPIC_API_KEY; the ai_provider preference picks between them.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.Close()

			if app.Insights == nil {
				return fmt.Errorf("no insight provider configured; set OPENAI_API_KEY or ANTHROPIC_API_KEY")
			}

			insights, err := app.Insights.Insights(cmd.Context(), force)
			if err != nil {
				return fmt.Errorf("insight generation failed: %w", err)
			}

			if format == "json" {
				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")
				return encoder.Encode(insights)
			}

			out := cmd.OutOrStdout()
			for _, insight := range insights {
				fmt.Fprintf(out, "[%s] %s\n", insight.Type, insight.Title)
				fmt.Fprintf(out, "   %s\n", insight.InsightText)
				if verbose {
					fmt.Fprintf(out, "   confidence %.2f over %d reviews\n",
						insight.ConfidenceScore, insight.ReviewCount)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "regenerate even if cached insights are still fresh")
	return cmd
}
