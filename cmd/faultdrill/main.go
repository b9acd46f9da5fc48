package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/fentz26/faultdrill/internal/config"
	"github.com/fentz26/faultdrill/internal/telemetry"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:     "faultdrill",
	Short:   "faultdrill - field-service fault response trainer",
	Long:    `faultdrill simulates equipment faults, scores technician responses, escalates mistakes into work orders and watches the work-order queue for SLA breaches.`,
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// config init must work before a valid config exists
		if cmd.Name() == "init" || cmd.Name() == "help" {
			return nil
		}
		c, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = c

		logger, err := telemetry.NewLogger(cfg.Logging)
		if err != nil {
			return err
		}
		log.Logger = logger
		zerolog.DefaultContextLogger = &log.Logger
		return nil
	},
	SilenceUsage: true,
	// No RunE - defaults to showing help when no subcommand is provided
}

var (
	configPath string
	cfg        *config.Config
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath, "Path to the YAML config file")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(queueCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(boardCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(woCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), shutdownSignals()...)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
