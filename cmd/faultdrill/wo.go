package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/fentz26/faultdrill/internal/dispatch"
	"github.com/fentz26/faultdrill/internal/models"
	"github.com/fentz26/faultdrill/internal/tui"
	"github.com/spf13/cobra"
)

var woCmd = &cobra.Command{
	Use:   "wo",
	Short: "Manage work orders",
}

var woListCmd = &cobra.Command{
	Use:   "list",
	Short: "List work orders",
	RunE:  runWOList,
}

var woShowCmd = &cobra.Command{
	Use:   "show [wo-id]",
	Short: "Show work order details",
	Args:  cobra.ExactArgs(1),
	RunE:  runWOShow,
}

var woStartCmd = &cobra.Command{
	Use:   "start [wo-id]",
	Short: "Start work on an OPEN work order",
	Args:  cobra.ExactArgs(1),
	RunE:  runWOStart,
}

var woCloseCmd = &cobra.Command{
	Use:   "close [wo-id]",
	Short: "Close a work order with close-out notes",
	Args:  cobra.ExactArgs(1),
	RunE:  runWOClose,
}

var (
	woStatus string
	woNotes  string
	woAudit  int
)

func init() {
	woCmd.AddCommand(woListCmd, woShowCmd, woStartCmd, woCloseCmd)

	woListCmd.Flags().StringVar(&woStatus, "status", "", "Filter by status (OPEN, IN_PROGRESS, BREACHED, CLOSED)")
	woShowCmd.Flags().IntVar(&woAudit, "audit", 10, "Decision records to show (sqlite backend)")
	woCloseCmd.Flags().StringVar(&woNotes, "notes", "", "Close-out notes (what was done?)")
}

func runWOList(cmd *cobra.Command, args []string) error {
	a, err := openApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	orders, err := a.svc.List(cmd.Context(), models.Status(woStatus))
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(orders) == 0 {
		fmt.Fprintln(out, "No work orders found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCREATED\tPRIORITY\tSTATUS\tFAULT\tLAST UPDATED")
	for _, wo := range orders {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			wo.ID, wo.CreatedAt, wo.Priority, statusColor(wo.Status).Sprint(wo.Status), wo.Fault, wo.LastUpdated)
	}
	return w.Flush()
}

func runWOShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	wo, err := a.svc.Get(ctx, args[0])
	if err != nil {
		return notFound(args[0], err)
	}
	out := cmd.OutOrStdout()
	fmt.Fprint(out, tui.DetailView(*wo))

	if a.sqlite == nil || woAudit <= 0 {
		return nil
	}
	records, err := a.sqlite.ListPDR(ctx, wo.ID, woAudit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}
	fmt.Fprintln(out, "\nDecision records:")
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, r := range records {
		fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n", r.Timestamp.Local().Format("2006-01-02 15:04:05"), r.Action, r.Outcome, r.Details)
	}
	return w.Flush()
}

func runWOStart(cmd *cobra.Command, args []string) error {
	a, err := openApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	wo, err := a.svc.StartWork(cmd.Context(), args[0])
	if err != nil {
		return notFound(args[0], err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s updated → %s\n", wo.ID, statusColor(wo.Status).Sprint(wo.Status))
	return nil
}

func runWOClose(cmd *cobra.Command, args []string) error {
	a, err := openApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	wo, err := a.svc.CloseWork(cmd.Context(), args[0], woNotes)
	if err != nil {
		return notFound(args[0], err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s updated → %s\n", wo.ID, statusColor(wo.Status).Sprint(wo.Status))
	return nil
}

func notFound(id string, err error) error {
	if errors.Is(err, dispatch.ErrWorkOrderNotFound) {
		return fmt.Errorf("work order %s not found", id)
	}
	return err
}

func statusColor(s models.Status) *color.Color {
	switch s {
	case models.StatusBreached:
		return color.New(color.FgRed, color.Bold)
	case models.StatusInProgress:
		return color.New(color.FgCyan)
	case models.StatusClosed:
		return color.New(color.FgGreen)
	default:
		return color.New(color.FgYellow)
	}
}
