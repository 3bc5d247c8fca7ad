package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/export"
	"github.com/fjod/go_cart/storefront/internal/orders"
	"github.com/spf13/cobra"
)

var (
	orderStatusFilter string
	orderSearch       string
	ordersOut         string
)

var ordersCmd = &cobra.Command{
	Use:   "orders",
	Short: "Review orders and move them through their lifecycle",
	Long: `Review orders and move them through their lifecycle.

Available subcommands:
  list        - List orders, optionally filtered by status or search text
  transitions - Show the statuses an order may move to next
  set-status  - Move an order to a new status
  export      - Write every order to an xlsx workbook`,
}

var ordersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List orders",
	RunE:  runOrdersList,
}

var ordersTransitionsCmd = &cobra.Command{
	Use:   "transitions ORDER_ID",
	Short: "Show the legal next statuses of an order",
	Args:  cobra.ExactArgs(1),
	RunE:  runOrdersTransitions,
}

var ordersSetStatusCmd = &cobra.Command{
	Use:   "set-status ORDER_ID STATUS",
	Short: "Move an order to a new status",
	Long: `Move an order to a new status.

Only lifecycle moves are accepted: pending -> processing -> shipped ->
delivered, and cancellation from any non-terminal status. Illegal moves are
refused before anything is sent.`,
	Args: cobra.ExactArgs(2),
	RunE: runOrdersSetStatus,
}

var ordersExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export orders to xlsx",
	RunE:  runOrdersExport,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show dashboard figures",
	RunE:  runStats,
}

func runOrdersList(cmd *cobra.Command, _ []string) error {
	if err := requireSession(); err != nil {
		return err
	}
	var f orders.Filter
	if orderStatusFilter != "" {
		status, err := domain.ParseOrderStatus(orderStatusFilter)
		if err != nil {
			return err
		}
		f.Status = status
	}
	f.Search = orderSearch

	ctx, cancel := withTimeout(cmd)
	defer cancel()
	if _, err := current.board.Refresh(ctx); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCUSTOMER\tITEMS\tTOTAL\tSTATUS\tCREATED")
	for _, o := range current.board.Orders(f) {
		fmt.Fprintf(tw, "%s\t%s %s\t%d\t%s\t%s\t%s\n",
			o.ID,
			o.ShippingInfo.FirstName, o.ShippingInfo.LastName,
			len(o.Items),
			o.TotalAmount.StringFixed(2),
			o.Status.Label(),
			o.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
	return tw.Flush()
}

func runOrdersTransitions(cmd *cobra.Command, args []string) error {
	if err := requireSession(); err != nil {
		return err
	}
	ctx, cancel := withTimeout(cmd)
	defer cancel()
	if _, err := current.board.Refresh(ctx); err != nil {
		return err
	}

	o, ok := current.board.Order(args[0])
	if !ok {
		return fmt.Errorf("%w: %s", orders.ErrOrderNotFound, args[0])
	}
	next := domain.LegalNextStatuses(o.Status)
	if len(next) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "%s is %s; no further moves\n", o.ID, o.Status)
		return nil
	}
	names := make([]string, len(next))
	for i, s := range next {
		names[i] = string(s)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s is %s; may move to: %s\n", o.ID, o.Status, strings.Join(names, ", "))
	return nil
}

func runOrdersSetStatus(cmd *cobra.Command, args []string) error {
	if err := requireSession(); err != nil {
		return err
	}
	target, err := domain.ParseOrderStatus(args[1])
	if err != nil {
		return err
	}

	ctx, cancel := withTimeout(cmd)
	defer cancel()
	if _, err := current.board.Refresh(ctx); err != nil {
		return err
	}

	o, err := current.board.UpdateStatus(ctx, args[0], target)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", o.ID, o.Status)
	return nil
}

func runOrdersExport(cmd *cobra.Command, _ []string) error {
	if err := requireSession(); err != nil {
		return err
	}
	ctx, cancel := withTimeout(cmd)
	defer cancel()

	all, err := current.board.Refresh(ctx)
	if err != nil {
		return err
	}
	f, err := os.Create(ordersOut)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := export.WriteOrders(f, all); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d orders to %s\n", len(all), ordersOut)
	return nil
}

func runStats(cmd *cobra.Command, _ []string) error {
	if err := requireSession(); err != nil {
		return err
	}
	ctx, cancel := withTimeout(cmd)
	defer cancel()

	stats, err := current.board.Stats(ctx)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "orders:    %d\n", stats.TotalOrders)
	fmt.Fprintf(out, "revenue:   %s\n", stats.TotalRevenue.StringFixed(2))
	fmt.Fprintf(out, "products:  %d\n", stats.TotalProducts)
	fmt.Fprintf(out, "customers: %d\n", stats.TotalCustomers)
	for _, s := range domain.AllOrderStatuses {
		fmt.Fprintf(out, "  %-11s %d\n", s.Label(), stats.ByStatus[s])
	}
	return nil
}

func init() {
	ordersListCmd.Flags().StringVar(&orderStatusFilter, "status", "", "Only orders in this status")
	ordersListCmd.Flags().StringVarP(&orderSearch, "query", "q", "", "Search order id or customer name")
	ordersExportCmd.Flags().StringVarP(&ordersOut, "out", "o", "orders.xlsx", "Output file")

	ordersCmd.AddCommand(ordersListCmd)
	ordersCmd.AddCommand(ordersTransitionsCmd)
	ordersCmd.AddCommand(ordersSetStatusCmd)
	ordersCmd.AddCommand(ordersExportCmd)
}
