package main

import (
	"time"

	"github.com/fentz26/faultdrill/internal/escalation"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Scan the work-order queue for SLA breaches on an interval",
	Long:  `Runs a breach scan every interval until interrupted, logging new breaches and site-status changes and refreshing the metrics textfile after each scan.`,
	RunE:  runWatch,
}

var watchInterval time.Duration

func init() {
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 0, "Scan interval (default from config)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	interval := cfg.Watch.Interval
	if watchInterval > 0 {
		interval = watchInterval
	}

	a, err := openApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	logger := a.log.With().Str("component", "watch").Logger()
	logger.Info().Dur("interval", interval).Msg("watching work-order queue")

	state := escalation.NewState()
	scan := func() {
		res, err := a.engine.ScanForBreaches(ctx, state)
		if err != nil {
			if ctx.Err() == nil {
				logger.Error().Err(err).Msg("scan failed")
			}
			return
		}
		if len(res.NewlyBreached) > 0 {
			logger.Warn().Strs("work_orders", res.NewlyBreached).Msg("new SLA breaches")
		}
		if err := a.metrics.Flush(); err != nil {
			logger.Warn().Err(err).Msg("metrics flush failed")
		}
	}

	scan()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Str("site_status", string(state.SiteStatus)).Msg("shutdown complete")
			return nil
		case <-ticker.C:
			scan()
		}
	}
}
