// ABOUTME: Reviews command listing the locally cached reviews
// ABOUTME: Supports business filtering, pagination, and JSON output
package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// NewReviewsCmd creates the reviews command
func NewReviewsCmd() *cobra.Command {
	var (
		business string
		limit    int
		page     int
	)

	cmd := &cobra.Command{
		Use:   "reviews",
		Short: "List cached reviews",
		Long: `List the locally cached reviews.

Reviews are read from the local cache; run 'reviewrescue sync' first to
pull them from Google.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if page < 1 {
				return fmt.Errorf("page must be positive, got %d", page)
			}

			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.Close()

			reviews, err := app.Reviews.List()
			if err != nil {
				return err
			}

			if business != "" {
				filtered := reviews[:0:0]
				for _, r := range reviews {
					if r.BusinessName == business {
						filtered = append(filtered, r)
					}
				}
				reviews = filtered
			}

			if limit <= 0 {
				prefs, err := app.Prefs.Get()
				if err != nil {
					return err
				}
				limit = prefs.ResultsPerPage
			}

			total := len(reviews)
			start := (page - 1) * limit
			if start > total {
				start = total
			}
			end := start + limit
			if end > total {
				end = total
			}
			pageReviews := reviews[start:end]

			if format == "json" {
				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")
				return encoder.Encode(pageReviews)
			}

			out := cmd.OutOrStdout()
			if total == 0 {
				fmt.Fprintln(out, "No reviews cached. Run 'reviewrescue sync' to fetch them.")
				return nil
			}

			for _, r := range pageReviews {
				fmt.Fprintf(out, "%s  %s  %s\n", stars(r.Rating), r.BusinessName, formatTime(r.ReviewDate))
				if r.ReviewText != "" {
					fmt.Fprintf(out, "   %s\n", truncate(r.ReviewText, 100))
				}
				if r.Response != nil && verbose {
					fmt.Fprintf(out, "   ↳ owner: %s\n", truncate(r.Response.Text, 80))
				}
			}
			fmt.Fprintf(out, "\nShowing %d-%d of %d\n", start+1, end, total)
			return nil
		},
	}

	cmd.Flags().StringVar(&business, "business", "", "only show reviews for this business")
	cmd.Flags().IntVar(&limit, "limit", 0, "reviews per page (default: the results_per_page preference)")
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	return cmd
}
