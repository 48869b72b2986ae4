package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset data in the database",
	Long: `Reset data in the database.

Examples:
  timebill reset worktimes   # Delete all worktimes and invoices
  timebill reset invoices    # Delete all invoices, releasing worktimes`,
}

var resetWorktimesCmd = &cobra.Command{
	Use:   "worktimes",
	Short: "Delete all worktimes and invoices",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !confirmPrompt("This will delete ALL worktimes and invoices. Continue?") {
			fmt.Println("Cancelled.")
			return nil
		}

		db := appInstance.DB

		// Release invoice references before deleting invoices
		if _, err := db.Exec("UPDATE worktimes SET invoice_id = NULL WHERE invoice_id IS NOT NULL"); err != nil {
			return fmt.Errorf("failed to release worktimes: %w", err)
		}

		// Order matters due to foreign keys
		tables := []string{
			"worktimes",
			"invoices_work_items",
			"invoices_employees",
			"invoices",
		}

		for _, table := range tables {
			if _, err := db.Exec(fmt.Sprintf("DELETE FROM %s", table)); err != nil {
				return fmt.Errorf("failed to clear %s: %w", table, err)
			}
		}

		fmt.Println("All worktimes and invoices have been deleted.")
		return nil
	},
}

var resetInvoicesCmd = &cobra.Command{
	Use:   "invoices",
	Short: "Delete all invoices and release their worktimes",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !confirmPrompt("This will delete ALL invoices and release all worktimes. Continue?") {
			fmt.Println("Cancelled.")
			return nil
		}

		db := appInstance.DB

		if _, err := db.Exec("UPDATE worktimes SET invoice_id = NULL WHERE invoice_id IS NOT NULL"); err != nil {
			return fmt.Errorf("failed to release worktimes: %w", err)
		}

		tables := []string{
			"invoices_work_items",
			"invoices_employees",
			"invoices",
		}

		for _, table := range tables {
			if _, err := db.Exec(fmt.Sprintf("DELETE FROM %s", table)); err != nil {
				return fmt.Errorf("failed to clear %s: %w", table, err)
			}
		}

		fmt.Println("All invoices have been deleted and worktimes released.")
		return nil
	},
}

func confirmPrompt(message string) bool {
	fmt.Printf("%s [y/N] ", message)
	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	input = strings.TrimSpace(strings.ToLower(input))
	return input == "y" || input == "yes"
}

func init() {
	resetCmd.AddCommand(resetWorktimesCmd)
	resetCmd.AddCommand(resetInvoicesCmd)
}
