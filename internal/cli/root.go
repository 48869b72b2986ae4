package cli

import (
	"github.com/andy/timebill/internal/app"
	"github.com/spf13/cobra"
)

var appInstance *app.App

var rootCmd = &cobra.Command{
	Use:   "timebill",
	Short: "A CLI for tracking worktimes and billing them to invoices",
	Long: `Timebill records worktimes per employee and order, and turns the
billable ones into invoices with sequential per-client numbering.`,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetApp sets the app instance for commands to use
func SetApp(a *app.App) {
	appInstance = a
}

func init() {
	rootCmd.AddCommand(worktimesCmd)
	rootCmd.AddCommand(invoicesCmd)
	rootCmd.AddCommand(clientsCmd)
	rootCmd.AddCommand(absencesCmd)
	rootCmd.AddCommand(resetCmd)
}
