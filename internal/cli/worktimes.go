package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/andy/timebill/internal/domain"
	"github.com/andy/timebill/internal/reporttype"
	"github.com/andy/timebill/internal/service"
)

var worktimesCmd = &cobra.Command{
	Use:   "worktimes",
	Short: "Record and manage worktimes",
	Long: `Record worktimes, run the start/stop timer and convert entries
between report types.`,
}

var worktimesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List worktimes",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		var employeeID *int64
		if cmd.Flags().Changed("employee") {
			id, _ := cmd.Flags().GetInt64("employee")
			employeeID = &id
		}

		var from, to *time.Time
		if cmd.Flags().Changed("from") {
			s, _ := cmd.Flags().GetString("from")
			t, err := parseDate(s)
			if err != nil {
				return fmt.Errorf("invalid from date: %w", err)
			}
			from = &t
		}
		if cmd.Flags().Changed("to") {
			s, _ := cmd.Flags().GetString("to")
			t, err := parseDate(s)
			if err != nil {
				return fmt.Errorf("invalid to date: %w", err)
			}
			to = &t
		}

		worktimes, err := appInstance.WorktimeService.List(ctx, employeeID, from, to)
		if err != nil {
			return fmt.Errorf("failed to list worktimes: %w", err)
		}

		if len(worktimes) == 0 {
			fmt.Println("No worktimes found")
			return nil
		}

		fmt.Println(headerStyle.Render(fmt.Sprintf("%-5s %-12s %-9s %-30s %-8s",
			"ID", "Date", "Employee", "Time", "Billed")))

		for _, w := range worktimes {
			rt := reporttype.Lookup(w.ReportType)
			date := w.WorkDate.Format("2006-01-02")
			timeStr := ""
			if rt != nil {
				date = rt.DateString(w.WorkDate)
				timeStr = rt.TimeString(w)
			}

			billed := ""
			if w.Billed() {
				billed = fmt.Sprintf("#%d", *w.InvoiceID)
			}

			fmt.Printf("%-5d %-12s %-9d %-30s %-8s\n",
				w.ID, date, w.EmployeeID, truncate(timeStr, 30), billed)
		}

		fmt.Printf("\nTotal: %d worktime(s)\n", len(worktimes))
		return nil
	},
}

var worktimesAddCmd = &cobra.Command{
	Use:   "add [employee_id] [work_item_id]",
	Short: "Record a worktime",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		employeeID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid employee ID: %w", err)
		}
		workItemID, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid work item ID: %w", err)
		}

		dateStr, _ := cmd.Flags().GetString("date")
		workDate, err := parseDate(dateStr)
		if err != nil {
			return fmt.Errorf("invalid date: %w", err)
		}

		typeKey, _ := cmd.Flags().GetString("type")
		hours, _ := cmd.Flags().GetFloat64("hours")
		billable, _ := cmd.Flags().GetBool("billable")

		w := &domain.Worktime{
			Kind:       domain.KindOrdertime,
			EmployeeID: employeeID,
			WorkItemID: workItemID,
			ReportType: typeKey,
			WorkDate:   workDate,
			Hours:      hours,
			Billable:   billable,
		}

		if cmd.Flags().Changed("start") {
			s, _ := cmd.Flags().GetString("start")
			t, err := parseClock(workDate, s)
			if err != nil {
				return fmt.Errorf("invalid start time: %w", err)
			}
			w.FromStartTime = &t
		}
		if cmd.Flags().Changed("end") {
			s, _ := cmd.Flags().GetString("end")
			t, err := parseClock(workDate, s)
			if err != nil {
				return fmt.Errorf("invalid end time: %w", err)
			}
			w.ToEndTime = &t
			if w.FromStartTime != nil && !cmd.Flags().Changed("hours") {
				w.Hours = t.Sub(*w.FromStartTime).Hours()
			}
		}

		if err := appInstance.WorktimeService.Create(ctx, w); err != nil {
			var ferrs domain.FieldErrors
			if errors.As(err, &ferrs) {
				printFieldErrors(ferrs)
				return nil
			}
			return fmt.Errorf("failed to create worktime: %w", err)
		}

		rt := reporttype.Lookup(w.ReportType)
		successf("Worktime #%d recorded: %s", w.ID, rt.TimeString(w))
		return nil
	},
}

var worktimesDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a worktime",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid worktime ID: %w", err)
		}

		if err := appInstance.WorktimeService.Delete(ctx, id); err != nil {
			if errors.Is(err, service.ErrWorktimeBilled) {
				fmt.Println(errorStyle.Render("Worktime is assigned to an invoice and cannot be deleted."))
				return nil
			}
			return fmt.Errorf("failed to delete worktime: %w", err)
		}

		successf("Worktime #%d deleted", id)
		return nil
	},
}

var worktimesStartCmd = &cobra.Command{
	Use:   "start [employee_id] [work_item_id]",
	Short: "Start the timer for an employee",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		employeeID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid employee ID: %w", err)
		}
		workItemID, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid work item ID: %w", err)
		}

		w, err := appInstance.WorktimeService.Start(ctx, employeeID, workItemID)
		if err != nil {
			var ferrs domain.FieldErrors
			if errors.As(err, &ferrs) {
				printFieldErrors(ferrs)
				return nil
			}
			return fmt.Errorf("failed to start timer: %w", err)
		}

		successf("Timer started: %s", reporttype.AutoStart.TimeString(w))
		return nil
	},
}

var worktimesStopCmd = &cobra.Command{
	Use:   "stop [employee_id]",
	Short: "Stop the employee's running timer",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		employeeID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid employee ID: %w", err)
		}

		w, err := appInstance.WorktimeService.Stop(ctx, employeeID)
		if err != nil {
			if errors.Is(err, service.ErrNoOpenWorktime) {
				fmt.Println("No timer is running.")
				return nil
			}
			return fmt.Errorf("failed to stop timer: %w", err)
		}

		successf("Timer stopped: %s", reporttype.StartStopDay.TimeString(w))
		return nil
	},
}

var worktimesRetypeCmd = &cobra.Command{
	Use:   "retype [id] [type]",
	Short: "Convert a worktime to another report type",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid worktime ID: %w", err)
		}

		w, err := appInstance.WorktimeService.ChangeReportType(ctx, id, args[1])
		if err != nil {
			var ferrs domain.FieldErrors
			if errors.As(err, &ferrs) {
				printFieldErrors(ferrs)
				return nil
			}
			return fmt.Errorf("failed to convert worktime: %w", err)
		}

		rt := reporttype.Lookup(w.ReportType)
		successf("Worktime #%d is now %s: %s", w.ID, rt.Label(), rt.TimeString(w))
		return nil
	},
}

var worktimesTypesCmd = &cobra.Command{
	Use:   "types",
	Short: "List the selectable report types",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(headerStyle.Render(fmt.Sprintf("%-16s %-16s %s", "Key", "Label", "Accuracy")))
		for _, rt := range reporttype.Selectable {
			fmt.Printf("%-16s %-16s %d\n", rt.Key(), rt.Label(), rt.Accuracy())
		}
		return nil
	},
}

// parseClock combines a work date with a HH:MM clock string.
func parseClock(date time.Time, s string) (time.Time, error) {
	clock, err := time.Parse("15:04", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected format: HH:MM")
	}
	return time.Date(date.Year(), date.Month(), date.Day(),
		clock.Hour(), clock.Minute(), 0, 0, date.Location()), nil
}

func init() {
	worktimesCmd.AddCommand(worktimesListCmd)
	worktimesCmd.AddCommand(worktimesAddCmd)
	worktimesCmd.AddCommand(worktimesDeleteCmd)
	worktimesCmd.AddCommand(worktimesStartCmd)
	worktimesCmd.AddCommand(worktimesStopCmd)
	worktimesCmd.AddCommand(worktimesRetypeCmd)
	worktimesCmd.AddCommand(worktimesTypesCmd)

	// List flags
	worktimesListCmd.Flags().Int64("employee", 0, "Filter by employee ID")
	worktimesListCmd.Flags().String("from", "", "Start of date range (YYYY-MM-DD)")
	worktimesListCmd.Flags().String("to", "", "End of date range (YYYY-MM-DD)")

	// Add flags
	worktimesAddCmd.Flags().String("date", "today", "Work date (YYYY-MM-DD)")
	worktimesAddCmd.Flags().String("type", "absolute_day", "Report type (see 'worktimes types')")
	worktimesAddCmd.Flags().Float64("hours", 0, "Hours worked")
	worktimesAddCmd.Flags().String("start", "", "Start time (HH:MM)")
	worktimesAddCmd.Flags().String("end", "", "End time (HH:MM)")
	worktimesAddCmd.Flags().Bool("billable", true, "Whether the time is billable")
}
