// ABOUTME: Root CLI command with global flags and subcommand wiring
// ABOUTME: Owns the verbose/quiet/format flags shared by every subcommand
package commands

import (
	"github.com/spf13/cobra"
)

var (
	verbose bool
	quiet   bool
	format  string
)

const banner = `
██████╗ ███████╗██╗   ██╗██╗███████╗██╗    ██╗
██╔══██╗██╔════╝██║   ██║██║██╔════╝██║    ██║
██████╔╝█████╗  ██║   ██║██║█████╗  ██║ █╗ ██║
██╔══██╗██╔══╝  ╚██╗ ██╔╝██║██╔══╝  ██║███╗██║
██║  ██║███████╗ ╚████╔╝ ██║███████╗╚███╔███╔╝
╚═╝  ╚═╝╚══════╝  ╚═══╝  ╚═╝╚══════╝ ╚══╝╚══╝
██████╗ ███████╗███████╗ ██████╗██╗   ██╗███████╗
██╔══██╗██╔════╝██╔════╝██╔════╝██║   ██║██╔════╝
██████╔╝█████╗  ███████╗██║     ██║   ██║█████╗
██╔══██╗██╔══╝  ╚════██║██║     ██║   ██║██╔══╝
██║  ██║███████╗███████║╚██████╗╚██████╔╝███████╗
╚═╝  ╚═╝╚══════╝╚══════╝ ╚═════╝ ╚═════╝ ╚══════╝
`

// NewRootCmd creates the root command with all subcommands attached
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reviewrescue",
		Short: "Rescue and keep your Google reviews, locally",
		Long: banner + `
Review Rescue keeps a local, offline-first copy of your Google reviews:
sync them down, browse them, export them, and analyze them with AI
insights. Preferences follow you across devices via Charm cloud.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-essential output")
	cmd.PersistentFlags().StringVar(&format, "format", "auto", "output format: auto, json, or text")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	cmd.AddCommand(NewLoginCmd())
	cmd.AddCommand(NewLogoutCmd())
	cmd.AddCommand(NewStatusCmd())
	cmd.AddCommand(NewReviewsCmd())
	cmd.AddCommand(NewSyncCmd())
	cmd.AddCommand(NewInsightsCmd())
	cmd.AddCommand(NewExportCmd())
	cmd.AddCommand(NewPrefsCmd())
	cmd.AddCommand(NewMCPCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}
