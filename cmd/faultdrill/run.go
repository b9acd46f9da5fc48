package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/fentz26/faultdrill/internal/config"
	"github.com/fentz26/faultdrill/internal/connectors"
	"github.com/fentz26/faultdrill/internal/connectors/console"
	"github.com/fentz26/faultdrill/internal/connectors/scripted"
	"github.com/fentz26/faultdrill/internal/escalation"
	"github.com/fentz26/faultdrill/internal/simulator"
	"github.com/fentz26/faultdrill/internal/tui"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a fault-response drill",
	Long:  `Draws faults, asks the technician for an action, escalates wrong answers into work orders and writes the fault log, report summary and fault history when the drill ends or is interrupted.`,
	RunE:  runDrill,
}

var (
	runRounds     int
	runTechnician string
	runSeed       int64
	runAccuracy   float64
	runNoDelay    bool
	runNoClear    bool
)

func init() {
	runCmd.Flags().IntVar(&runRounds, "rounds", 0, "Number of faults (default from config)")
	runCmd.Flags().StringVar(&runTechnician, "technician", "", "Technician: console or scripted (default from config)")
	runCmd.Flags().Int64Var(&runSeed, "seed", 0, "Random seed; 0 picks one from the clock (default from config)")
	runCmd.Flags().Float64Var(&runAccuracy, "accuracy", -1, "Scripted technician accuracy between 0 and 1 (default from config)")
	runCmd.Flags().BoolVar(&runNoDelay, "no-delay", false, "Skip the idle gap between faults")
	runCmd.Flags().BoolVar(&runNoClear, "no-clear", false, "Do not clear the screen before each dashboard")
}

func runDrill(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	sim := cfg.Simulation
	if cmd.Flags().Changed("rounds") {
		sim.Rounds = runRounds
	}
	if runTechnician != "" {
		sim.Technician = runTechnician
	}
	if cmd.Flags().Changed("seed") {
		sim.Seed = runSeed
	}
	if cmd.Flags().Changed("accuracy") {
		sim.Accuracy = runAccuracy
	}
	if runNoDelay {
		sim.MinDelay, sim.MaxDelay = 0, 0
	}
	if sim.Rounds < 1 {
		return fmt.Errorf("rounds must be at least 1")
	}
	if sim.Seed == 0 {
		sim.Seed = time.Now().UnixNano()
	}

	a, err := openApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.store.EnsureSchema(ctx); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	state := escalation.NewState()
	printQueue := func(ctx context.Context, st *escalation.State) error {
		entries, err := a.svc.Queue(ctx, st, cfg.Queue.Limit)
		if err != nil {
			return err
		}
		return tui.WriteQueue(out, entries)
	}

	var (
		tech  connectors.Technician
		queue simulator.QueueView
	)
	switch sim.Technician {
	case "scripted":
		tech = scripted.New(sim.Seed, sim.Accuracy)
	case "console":
		tech = console.New(os.Stdin, out, func(ctx context.Context) error {
			return printQueue(ctx, state)
		})
		queue = printQueue
	default:
		return fmt.Errorf("unknown technician %q", sim.Technician)
	}

	s := simulator.New(simulator.Config{
		Rounds:         sim.Rounds,
		Seed:           sim.Seed,
		MinDelay:       sim.MinDelay,
		MaxDelay:       sim.MaxDelay,
		StopOnStopWork: sim.StopOnStopWork,
		FaultLogPath:   cfg.Path(cfg.Outputs.FaultLog),
		ReportPath:     cfg.Path(cfg.Outputs.Report),
		HistoryPath:    cfg.Path(cfg.Outputs.History),
	}, a.svc, a.engine, tech, simulator.Options{
		State:    state,
		Renderer: tui.NewDashboard(out, !runNoClear && sim.Technician == "console"),
		Recorder: a.metrics,
		Queue:    queue,
		Logger:   a.log,
		Out:      out,
	})

	bold := color.New(color.Bold)
	bold.Fprintln(out, "Starting Alarm and Troubleshooting Simulator...")
	if sim.Technician == "console" {
		fmt.Fprintln(out, "Tip: Type Q at prompts to view the Supervisor Dispatch Queue.")
	}

	res, err := s.Run(ctx)
	if res != nil {
		printRunSummary(cmd, res)
	}
	return err
}

func printRunSummary(cmd *cobra.Command, res *simulator.Result) {
	out := cmd.OutOrStdout()
	heading := color.New(color.Bold, color.FgGreen)
	if res.Reason != simulator.StopCompleted {
		heading = color.New(color.Bold, color.FgYellow)
	}

	fmt.Fprintln(out)
	heading.Fprintf(out, "Simulation %s after %d round(s), updated files:\n", res.Reason, res.Rounds)
	fmt.Fprintf(out, "- %s\n", cfg.Path(cfg.Outputs.FaultLog))
	fmt.Fprintf(out, "- %s\n", cfg.Path(cfg.Outputs.History))
	fmt.Fprintf(out, "- %s\n", cfg.Path(cfg.Outputs.Report))
	switch cfg.Store.Backend {
	case config.BackendSQLite:
		fmt.Fprintf(out, "- %s (work order queue and counter)\n", cfg.Path(cfg.Store.SQLitePath))
	default:
		fmt.Fprintf(out, "- %s (work order queue)\n", cfg.Path(cfg.Store.CSVPath))
		fmt.Fprintf(out, "- %s (persistent WO counter)\n", cfg.Path(cfg.Store.CounterPath))
	}
	fmt.Fprintf(out, "Accuracy %d%% (grade %s), site status %s\n",
		res.Summary.Accuracy, res.Summary.Grade, res.Summary.SiteStatus)
}
