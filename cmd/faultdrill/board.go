package main

import (
	"fmt"

	"github.com/fentz26/faultdrill/internal/escalation"
	"github.com/fentz26/faultdrill/internal/tui"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Launch the interactive supervisor board",
	RunE:  runBoard,
}

func runBoard(cmd *cobra.Command, args []string) error {
	// Log lines would tear the full-screen view.
	if cfg.Logging.Output == "" || cfg.Logging.Output == "stderr" || cfg.Logging.Output == "stdout" {
		zerolog.SetGlobalLevel(zerolog.Disabled)
	}

	a, err := openApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	board := tui.NewBoard(cmd.Context(), a.svc, escalation.NewState(), cfg.Queue.Limit, cfg.Watch.Interval)
	if err := board.Run(); err != nil {
		return fmt.Errorf("board error: %w", err)
	}
	return nil
}
