package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/andy/timebill/internal/domain"
	"github.com/andy/timebill/internal/reporttype"
)

var invoicesCmd = &cobra.Command{
	Use:   "invoices",
	Short: "Manage invoices",
	Long:  `Create, list, inspect and delete invoices.`,
}

var invoicesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List invoices",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		var orderID *int64
		if cmd.Flags().Changed("order") {
			id, _ := cmd.Flags().GetInt64("order")
			orderID = &id
		}

		var status *domain.InvoiceStatus
		if cmd.Flags().Changed("status") {
			statusStr, _ := cmd.Flags().GetString("status")
			s := domain.InvoiceStatus(statusStr)
			status = &s
		}

		invoices, err := appInstance.InvoiceService.List(ctx, orderID, status)
		if err != nil {
			return fmt.Errorf("failed to list invoices: %w", err)
		}

		if len(invoices) == 0 {
			fmt.Println("No invoices found")
			return nil
		}

		fmt.Println(headerStyle.Render(fmt.Sprintf("%-5s %-18s %-23s %-10s %-12s %-8s",
			"ID", "Reference", "Period", "Hours", "Total", "Status")))

		for _, invoice := range invoices {
			period := fmt.Sprintf("%s - %s",
				invoice.PeriodFrom.Format("2006-01-02"),
				invoice.PeriodTo.Format("2006-01-02"),
			)

			fmt.Printf("%-5d %-18s %-23s %-10s %-12s %-8s\n",
				invoice.ID,
				truncate(invoice.Reference, 18),
				period,
				reporttype.FormatHours(invoice.TotalHours),
				invoice.TotalAmount.StringFixed(2),
				invoice.Status,
			)
		}

		fmt.Printf("\nTotal: %d invoice(s)\n", len(invoices))
		return nil
	},
}

var invoicesShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show an invoice with its positions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid invoice ID: %w", err)
		}

		invoice, err := appInstance.InvoiceService.Get(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to load invoice: %w", err)
		}

		order, err := appInstance.OrderRepo.GetByID(ctx, invoice.OrderID)
		if err != nil {
			return fmt.Errorf("failed to load order: %w", err)
		}
		var contract *domain.Contract
		if order.ContractID != nil {
			contract, _ = appInstance.OrderRepo.GetContract(ctx, *order.ContractID)
		}

		fmt.Println(headerStyle.Render(invoice.Title(order, contract)))
		fmt.Printf("  Reference:    %s\n", invoice.Reference)
		fmt.Printf("  Status:       %s\n", invoice.Status)
		fmt.Printf("  Billing date: %s\n", invoice.BillingDate.Format("2006-01-02"))
		if invoice.DueDate != nil {
			fmt.Printf("  Due date:     %s\n", invoice.DueDate.Format("2006-01-02"))
		}
		fmt.Printf("  Period:       %s - %s\n",
			invoice.PeriodFrom.Format("2006-01-02"),
			invoice.PeriodTo.Format("2006-01-02"))
		if invoice.InvoicingKey != "" {
			fmt.Printf("  Remote key:   %s\n", invoice.InvoicingKey)
		}

		positions, err := appInstance.InvoiceService.Positions(ctx, invoice)
		if err != nil {
			return fmt.Errorf("failed to build positions: %w", err)
		}

		fmt.Println()
		for _, p := range positions {
			fmt.Printf("  %-40s %10s h  %12s\n",
				truncate(p.Name(), 40),
				reporttype.FormatHours(p.TotalHours()),
				p.TotalAmount().Round(2).StringFixed(2))
		}

		total, err := appInstance.InvoiceService.CalculatedTotal(ctx, invoice)
		if err != nil {
			return fmt.Errorf("failed to calculate total: %w", err)
		}
		fmt.Println()
		vat := "excl. VAT"
		if invoice.AddVAT {
			vat = "incl. VAT"
		}
		fmt.Printf("  Total (%s): %s\n", vat, total)
		return nil
	},
}

var invoicesCreateCmd = &cobra.Command{
	Use:   "create [order_id]",
	Short: "Create an invoice for an order's billable worktimes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		orderID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid order ID: %w", err)
		}

		invoice, err := invoiceFromFlags(cmd, orderID)
		if err != nil {
			return err
		}

		if err := appInstance.InvoiceService.Create(ctx, invoice); err != nil {
			var ferrs domain.FieldErrors
			if errors.As(err, &ferrs) {
				printFieldErrors(ferrs)
				return nil
			}
			return fmt.Errorf("failed to create invoice: %w", err)
		}

		successf("Invoice created: %s", invoice.Reference)
		fmt.Printf("  Hours: %s\n", reporttype.FormatHours(invoice.TotalHours))
		fmt.Printf("  Total: %s\n", invoice.TotalAmount.StringFixed(2))
		return nil
	},
}

var invoicesStatusCmd = &cobra.Command{
	Use:   "set-status [id] [status]",
	Short: "Change an invoice's status (draft, sent, paid)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid invoice ID: %w", err)
		}

		invoice, err := appInstance.InvoiceService.Get(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to load invoice: %w", err)
		}
		invoice.Status = domain.InvoiceStatus(args[1])

		if err := appInstance.InvoiceService.Update(ctx, invoice); err != nil {
			var ferrs domain.FieldErrors
			if errors.As(err, &ferrs) {
				printFieldErrors(ferrs)
				return nil
			}
			return fmt.Errorf("failed to update invoice: %w", err)
		}

		successf("Invoice %s is now %s", invoice.Reference, invoice.Status)
		return nil
	},
}

var invoicesDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete an invoice and release its worktimes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid invoice ID: %w", err)
		}

		if !confirmPrompt(fmt.Sprintf("Delete invoice #%d and release its worktimes?", id)) {
			fmt.Println("Cancelled.")
			return nil
		}

		if err := appInstance.InvoiceService.Destroy(ctx, id); err != nil {
			return fmt.Errorf("failed to delete invoice: %w", err)
		}

		successf("Invoice #%d deleted", id)
		return nil
	},
}

func invoiceFromFlags(cmd *cobra.Command, orderID int64) (*domain.Invoice, error) {
	billingStr, _ := cmd.Flags().GetString("billing-date")
	billingDate, err := parseDate(billingStr)
	if err != nil {
		return nil, fmt.Errorf("invalid billing date: %w", err)
	}

	fromStr, _ := cmd.Flags().GetString("from")
	from, err := parseDate(fromStr)
	if err != nil {
		return nil, fmt.Errorf("invalid from date: %w", err)
	}

	toStr, _ := cmd.Flags().GetString("to")
	to, err := parseDate(toStr)
	if err != nil {
		return nil, fmt.Errorf("invalid to date: %w", err)
	}

	groupingStr, _ := cmd.Flags().GetString("grouping")
	addressID, _ := cmd.Flags().GetInt64("address")
	addVAT, _ := cmd.Flags().GetBool("vat")
	key, _ := cmd.Flags().GetString("invoicing-key")
	workItemIDs, _ := cmd.Flags().GetInt64Slice("work-items")
	employeeIDs, _ := cmd.Flags().GetInt64Slice("employees")

	return &domain.Invoice{
		OrderID:          orderID,
		BillingDate:      billingDate,
		PeriodFrom:       from,
		PeriodTo:         to,
		Grouping:         domain.InvoiceGrouping(groupingStr),
		BillingAddressID: addressID,
		AddVAT:           addVAT,
		InvoicingKey:     key,
		WorkItemIDs:      workItemIDs,
		EmployeeIDs:      employeeIDs,
	}, nil
}

func init() {
	invoicesCmd.AddCommand(invoicesListCmd)
	invoicesCmd.AddCommand(invoicesShowCmd)
	invoicesCmd.AddCommand(invoicesCreateCmd)
	invoicesCmd.AddCommand(invoicesStatusCmd)
	invoicesCmd.AddCommand(invoicesDeleteCmd)

	// List flags
	invoicesListCmd.Flags().Int64("order", 0, "Filter by order ID")
	invoicesListCmd.Flags().String("status", "", "Filter by status (draft, sent, paid)")

	// Create flags
	invoicesCreateCmd.Flags().String("billing-date", "today", "Billing date (YYYY-MM-DD)")
	invoicesCreateCmd.Flags().String("from", "", "Period start (YYYY-MM-DD)")
	invoicesCreateCmd.Flags().String("to", "", "Period end (YYYY-MM-DD)")
	invoicesCreateCmd.Flags().String("grouping", string(domain.GroupingAccountingPosts),
		"Position grouping (accounting_posts, employees, manual)")
	invoicesCreateCmd.Flags().Int64("address", 0, "Billing address ID")
	invoicesCreateCmd.Flags().Bool("vat", false, "Add VAT to the calculated total")
	invoicesCreateCmd.Flags().String("invoicing-key", "", "Key in the external invoicing system")
	invoicesCreateCmd.Flags().Int64Slice("work-items", nil, "Restrict to these work item IDs")
	invoicesCreateCmd.Flags().Int64Slice("employees", nil, "Restrict to these employee IDs")
}
