package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/andy/timebill/internal/domain"
)

var absencesCmd = &cobra.Command{
	Use:   "absences",
	Short: "Manage absence types",
}

var absencesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List absence types",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		absences, err := appInstance.AbsenceRepo.List(ctx)
		if err != nil {
			return fmt.Errorf("failed to list absences: %w", err)
		}

		fmt.Println(headerStyle.Render(fmt.Sprintf("%-5s %-20s %-6s %-9s", "ID", "Name", "Payed", "Vacation")))
		for _, a := range absences {
			fmt.Printf("%-5d %-20s %-6t %-9t\n", a.ID, truncate(a.Name, 20), a.Payed, a.Vacation)
		}
		return nil
	},
}

var absencesAddCmd = &cobra.Command{
	Use:   "add [name]",
	Short: "Add an absence type",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		payed, _ := cmd.Flags().GetBool("payed")
		a := &domain.Absence{Name: args[0], Payed: payed}

		if err := appInstance.AbsenceRepo.Create(ctx, a); err != nil {
			return fmt.Errorf("failed to create absence: %w", err)
		}

		successf("Absence #%d created: %s", a.ID, a.Name)
		return nil
	},
}

var absencesDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete an absence type",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid absence ID: %w", err)
		}

		if err := appInstance.AbsenceRepo.Delete(ctx, id); err != nil {
			if errors.Is(err, domain.ErrProtectedRecord) {
				fmt.Println(errorStyle.Render("This absence type is built in and cannot be deleted."))
				return nil
			}
			return fmt.Errorf("failed to delete absence: %w", err)
		}

		successf("Absence #%d deleted", id)
		return nil
	},
}

func init() {
	absencesCmd.AddCommand(absencesListCmd)
	absencesCmd.AddCommand(absencesAddCmd)
	absencesCmd.AddCommand(absencesDeleteCmd)

	absencesAddCmd.Flags().Bool("payed", false, "Whether the absence is payed")
}
