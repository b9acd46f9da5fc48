package main

import (
	"github.com/fentz26/faultdrill/internal/escalation"
	"github.com/fentz26/faultdrill/internal/tui"
	"github.com/spf13/cobra"
)

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Show the supervisor dispatch queue",
	Long:  `Runs a breach scan, then lists active work orders with breached orders first, then by priority, SLA and age.`,
	RunE:  runQueue,
}

var queueLimit int

func init() {
	queueCmd.Flags().IntVar(&queueLimit, "limit", 0, "Maximum rows (default from config)")
}

func runQueue(cmd *cobra.Command, args []string) error {
	a, err := openApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	limit := cfg.Queue.Limit
	if queueLimit > 0 {
		limit = queueLimit
	}
	entries, err := a.svc.Queue(cmd.Context(), escalation.NewState(), limit)
	if err != nil {
		return err
	}
	return tui.WriteQueue(cmd.OutOrStdout(), entries)
}
