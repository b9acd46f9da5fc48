package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/fentz26/faultdrill/internal/escalation"
	"github.com/fentz26/faultdrill/internal/models"
	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Promote overdue work orders to BREACHED",
	RunE:  runScan,
}

func runScan(cmd *cobra.Command, args []string) error {
	a, err := openApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.engine.ScanForBreaches(cmd.Context(), escalation.NewState())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(res.NewlyBreached) == 0 {
		fmt.Fprintln(out, "No new SLA breaches.")
	} else {
		color.New(color.FgRed, color.Bold).Fprintf(out, "Newly breached: %s\n", strings.Join(res.NewlyBreached, ", "))
	}
	fmt.Fprintf(out, "Breaches this scan: %d (HIGH: %d)\n", res.SLABreaches, res.HighPrioritySLABreaches)
	fmt.Fprintf(out, "Site status: %s\n", siteColor(res.SiteStatus).Sprint(res.SiteStatus))
	return nil
}

func siteColor(s models.SiteStatus) *color.Color {
	switch s {
	case models.SiteStopWork:
		return color.New(color.FgRed, color.Bold)
	case models.SiteWatch:
		return color.New(color.FgYellow, color.Bold)
	default:
		return color.New(color.FgGreen)
	}
}
