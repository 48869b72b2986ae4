package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var clientsCmd = &cobra.Command{
	Use:   "clients",
	Short: "Inspect clients",
}

var clientsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List clients",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		clients, err := appInstance.ClientRepo.List(ctx)
		if err != nil {
			return fmt.Errorf("failed to list clients: %w", err)
		}

		if len(clients) == 0 {
			fmt.Println("No clients found")
			return nil
		}

		fmt.Println(headerStyle.Render(fmt.Sprintf("%-5s %-10s %-30s %s",
			"ID", "Short", "Name", "Last invoice no.")))

		for _, c := range clients {
			fmt.Printf("%-5d %-10s %-30s %d\n",
				c.ID, c.Shortname, truncate(c.Name, 30), c.LastInvoiceNumber)
		}

		fmt.Printf("\nTotal: %d client(s)\n", len(clients))
		return nil
	},
}

var clientsEmployeesCmd = &cobra.Command{
	Use:   "employees",
	Short: "List employees",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		employees, err := appInstance.EmployeeRepo.List(ctx)
		if err != nil {
			return fmt.Errorf("failed to list employees: %w", err)
		}

		if len(employees) == 0 {
			fmt.Println("No employees found")
			return nil
		}

		fmt.Println(headerStyle.Render(fmt.Sprintf("%-5s %-20s %s", "ID", "Name", "Shortname")))
		for _, e := range employees {
			fmt.Printf("%-5d %-20s %s\n", e.ID, truncate(e.String(), 20), e.Shortname)
		}
		return nil
	},
}

var clientsAddressCmd = &cobra.Command{
	Use:   "address [billing_address_id]",
	Short: "Show a billing address",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid billing address ID: %w", err)
		}

		address, err := appInstance.ClientRepo.GetBillingAddress(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to load billing address: %w", err)
		}

		fmt.Printf("Client #%d\n", address.ClientID)
		fmt.Println(address.Street)
		fmt.Printf("%s %s\n", address.Zip, address.Town)
		return nil
	},
}

func init() {
	clientsCmd.AddCommand(clientsListCmd)
	clientsCmd.AddCommand(clientsEmployeesCmd)
	clientsCmd.AddCommand(clientsAddressCmd)
}
