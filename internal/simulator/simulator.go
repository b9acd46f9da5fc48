// Package simulator runs the fault-response training loop: it draws faults,
// asks a technician to act, scores the answer, escalates, dispatches work
// orders and keeps the site status current between rounds.
package simulator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/fentz26/faultdrill/internal/connectors"
	"github.com/fentz26/faultdrill/internal/dispatch"
	"github.com/fentz26/faultdrill/internal/escalation"
	"github.com/fentz26/faultdrill/internal/models"
	"github.com/fentz26/faultdrill/internal/report"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Config controls one simulation run.
type Config struct {
	Rounds int   `yaml:"rounds"`
	Seed   int64 `yaml:"seed"`
	// MinDelay and MaxDelay bound the idle gap after each round. The gap
	// counts as downtime.
	MinDelay       time.Duration `yaml:"min_delay"`
	MaxDelay       time.Duration `yaml:"max_delay"`
	StopOnStopWork bool          `yaml:"stop_on_stop_work"`

	FaultLogPath string `yaml:"fault_log"`
	ReportPath   string `yaml:"report"`
	HistoryPath  string `yaml:"history"`
}

// DefaultConfig returns the classic ten-round drill.
func DefaultConfig() Config {
	return Config{
		Rounds:         10,
		MinDelay:       3 * time.Second,
		MaxDelay:       7 * time.Second,
		StopOnStopWork: true,
		FaultLogPath:   "fault_log.txt",
		ReportPath:     "report_summary.txt",
		HistoryPath:    "fault_history.csv",
	}
}

// Renderer shows the dashboard after every round.
type Renderer interface {
	Render(Snapshot) error
}

// Recorder receives resolved incidents. telemetry.Metrics implements it.
type Recorder interface {
	IncidentResolved(result models.Result)
}

// QueueView prints the supervisor queue for the given run state.
type QueueView func(ctx context.Context, state *escalation.State) error

// Options holds the optional collaborators of a Simulator.
type Options struct {
	// State is shared with anything else that reads the run's escalation
	// state, such as a console technician's queue view. Nil starts fresh.
	State    *escalation.State
	Renderer Renderer
	Recorder Recorder
	Queue    QueueView
	Logger   zerolog.Logger
	// Out receives progress lines. Nil discards them.
	Out io.Writer
}

// Stop reasons reported in Result.
const (
	StopCompleted   = "completed"
	StopWork        = "stop work"
	StopInterrupted = "interrupted"
	StopFailed      = "failed"
)

// Result summarises a finished run.
type Result struct {
	RunID   string
	Rounds  int
	Reason  string
	Summary report.Summary
	Events  []report.Event
}

// Simulator drives the training loop.
type Simulator struct {
	cfg      Config
	svc      *dispatch.Service
	engine   *escalation.Engine
	tech     connectors.Technician
	state    *escalation.State
	render   Renderer
	recorder Recorder
	queue    QueueView
	log      zerolog.Logger
	out      io.Writer
	rng      *rand.Rand

	// Catalog is the set of faults drawn from.
	Catalog []Fault
	// Now stamps events. Tests replace it.
	Now func() time.Time

	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a simulator.
func New(cfg Config, svc *dispatch.Service, engine *escalation.Engine, tech connectors.Technician, opts Options) *Simulator {
	state := opts.State
	if state == nil {
		state = escalation.NewState()
	}
	out := opts.Out
	if out == nil {
		out = io.Discard
	}
	if cfg.MaxDelay < cfg.MinDelay {
		cfg.MaxDelay = cfg.MinDelay
	}
	return &Simulator{
		cfg:      cfg,
		svc:      svc,
		engine:   engine,
		tech:     tech,
		state:    state,
		render:   opts.Renderer,
		recorder: opts.Recorder,
		queue:    opts.Queue,
		log:      opts.Logger.With().Str("component", "simulator").Logger(),
		out:      out,
		rng:      rand.New(rand.NewSource(cfg.Seed)),
		Catalog:  Catalog,
		Now:      time.Now,
		sleep:    sleepCtx,
	}
}

// State returns the run's escalation state.
func (s *Simulator) State() *escalation.State {
	return s.state
}

// run is the mutable bookkeeping of one Run call.
type run struct {
	id          string
	counts      map[string]int
	totalRepair int
	downtime    time.Duration
	score       Score
	last        *LastEvent
	events      []report.Event
}

// Run plays up to cfg.Rounds faults. The report and history are written
// however the loop ends, including on cancellation.
func (s *Simulator) Run(ctx context.Context) (*Result, error) {
	r := &run{
		id:     uuid.New().String(),
		counts: make(map[string]int, len(s.Catalog)),
		score:  NewScore(),
	}
	for _, f := range s.Catalog {
		r.counts[f.Name] = 0
	}

	logger := s.log.With().Str("run_id", r.id).Logger()
	logger.Info().Int("rounds", s.cfg.Rounds).Str("technician", s.tech.Name()).Msg("simulation started")

	reason, played, runErr := s.loop(ctx, r, logger)

	res := &Result{
		RunID:   r.id,
		Rounds:  played,
		Reason:  reason,
		Summary: s.summary(r),
		Events:  r.events,
	}
	if err := s.writeOutputs(res); err != nil {
		runErr = errors.Join(runErr, err)
	}

	switch reason {
	case StopWork:
		fmt.Fprintln(s.out, "\nSTOP WORK triggered due to escalation conditions.")
	case StopInterrupted:
		fmt.Fprintln(s.out, "\nStopped early, files updated.")
	}
	if s.queue != nil {
		if err := s.queue(context.WithoutCancel(ctx), s.state); err != nil {
			logger.Warn().Err(err).Msg("final queue view failed")
		}
	}

	ev := logger.Info()
	if runErr != nil {
		ev = logger.Error().Err(runErr)
	}
	ev.Str("reason", reason).
		Int("played", played).
		Int("accuracy", r.score.Accuracy).
		Str("site_status", string(s.state.SiteStatus)).
		Msg("simulation finished")

	return res, runErr
}

func (s *Simulator) loop(ctx context.Context, r *run, logger zerolog.Logger) (string, int, error) {
	for round := 1; round <= s.cfg.Rounds; round++ {
		if ctx.Err() != nil {
			return StopInterrupted, round - 1, nil
		}

		if err := s.playRound(ctx, r, round, logger); err != nil {
			if interrupted(err) {
				return StopInterrupted, round - 1, nil
			}
			return StopFailed, round - 1, err
		}

		delay := s.delay()
		r.downtime += delay
		if err := s.sleep(ctx, delay); err != nil {
			return StopInterrupted, round, nil
		}

		if s.cfg.StopOnStopWork && s.state.SiteStatus == models.SiteStopWork {
			return StopWork, round, nil
		}
	}
	return StopCompleted, s.cfg.Rounds, nil
}

func (s *Simulator) playRound(ctx context.Context, r *run, round int, logger zerolog.Logger) error {
	fault, severity := Draw(s.rng, s.Catalog)
	choice, err := s.tech.ChooseAction(ctx, connectors.Prompt{
		Fault:    fault,
		Severity: severity,
		Actions:  Menu(fault),
	})
	if err != nil {
		return fmt.Errorf("choose action: %w", err)
	}

	outcome := Resolve(severity, choice)
	reason := s.state.ApplyEscalation(severity, outcome.Result)

	r.counts[fault]++
	r.totalRepair += outcome.RepairTimeMin
	r.score.Record(outcome.Result)
	if s.recorder != nil {
		s.recorder.IncidentResolved(outcome.Result)
	}

	stamp := models.FormatTimestamp(s.Now())
	event := report.Event{
		Timestamp:          stamp,
		Fault:              fault,
		Severity:           severity,
		Result:             outcome.Result,
		Escalation:         reason,
		Resolution:         outcome.Resolution,
		RepairTimeMin:      outcome.RepairTimeMin,
		TotalRepairTimeMin: r.totalRepair,
		TotalDowntimeSec:   seconds(r.downtime),
		AccuracyPct:        r.score.Accuracy,
		Grade:              r.score.Grade,
		SiteStatus:         s.state.SiteStatus,
	}
	if s.cfg.FaultLogPath != "" {
		if err := report.AppendFaultLog(s.cfg.FaultLogPath, event); err != nil {
			return err
		}
	}
	r.events = append(r.events, event)
	recorded := &r.events[len(r.events)-1]

	logger.Info().
		Int("round", round).
		Str("fault", fault).
		Str("severity", string(severity)).
		Str("result", string(outcome.Result)).
		Str("escalation", string(reason)).
		Msg("fault resolved")

	ref, err := s.svc.Generate(ctx, models.Incident{
		Timestamp:     stamp,
		Fault:         fault,
		Severity:      severity,
		Result:        outcome.Result,
		Escalation:    reason,
		Resolution:    outcome.Resolution,
		RepairTimeMin: outcome.RepairTimeMin,
		SiteStatus:    s.state.SiteStatus,
	})
	if err != nil {
		return fmt.Errorf("generate work order: %w", err)
	}

	r.last = &LastEvent{
		Fault:         fault,
		Severity:      severity,
		Result:        outcome.Result,
		Escalation:    reason,
		Resolution:    outcome.Resolution,
		RepairTimeMin: outcome.RepairTimeMin,
	}
	if ref != nil {
		recorded.WorkOrderFile = ref.Document
		if recorded.WorkOrderFile == "" {
			recorded.WorkOrderFile = ref.ID
		}
		r.last.WorkOrderID = ref.ID
		if err := s.followUp(ctx, ref.ID); err != nil {
			return err
		}
		if s.queue != nil {
			if err := s.queue(ctx, s.state); err != nil {
				return fmt.Errorf("queue view: %w", err)
			}
		}
	}

	if _, err := s.engine.ScanForBreaches(ctx, s.state); err != nil {
		return fmt.Errorf("scan for breaches: %w", err)
	}

	if s.render != nil {
		if err := s.render.Render(s.snapshot(r, round)); err != nil {
			logger.Warn().Err(err).Msg("dashboard render failed")
		}
	}
	return nil
}

// followUp asks the technician what to do with a fresh work order.
func (s *Simulator) followUp(ctx context.Context, id string) error {
	d, err := s.tech.DecideWorkOrder(ctx, id)
	if err != nil {
		return fmt.Errorf("decide work order: %w", err)
	}

	var wo *models.WorkOrder
	switch d.Kind {
	case connectors.DecisionStart:
		wo, err = s.svc.StartWork(ctx, id)
	case connectors.DecisionClose:
		wo, err = s.svc.CloseWork(ctx, id, d.Notes)
	default:
		wo, err = s.svc.Touch(ctx, id)
	}
	if err != nil {
		return fmt.Errorf("update %s: %w", id, err)
	}

	if d.Kind == connectors.DecisionLeave {
		fmt.Fprintf(s.out, "%s left %s\n", id, wo.Status)
	} else {
		fmt.Fprintf(s.out, "%s updated → %s\n", id, wo.Status)
	}
	return nil
}

// delay draws the idle gap, in whole seconds when the range spans at least
// one second.
func (s *Simulator) delay() time.Duration {
	lo, hi := s.cfg.MinDelay, s.cfg.MaxDelay
	span := hi - lo
	if span <= 0 {
		return lo
	}
	if span >= time.Second {
		return lo + time.Duration(s.rng.Int63n(int64(span/time.Second)+1))*time.Second
	}
	return lo + time.Duration(s.rng.Int63n(int64(span)+1))
}

func (s *Simulator) snapshot(r *run, round int) Snapshot {
	return Snapshot{
		RunID:            r.id,
		Round:            round,
		Rounds:           s.cfg.Rounds,
		UpdatedAt:        s.Now(),
		FaultCounts:      s.faultCounts(r),
		TotalRepairMin:   r.totalRepair,
		TotalDowntimeSec: seconds(r.downtime),
		LastEvent:        r.last,
		Score:            r.score,
		Escalation:       *s.state,
	}
}

func (s *Simulator) faultCounts(r *run) []report.FaultCount {
	out := make([]report.FaultCount, 0, len(s.Catalog))
	for _, f := range s.Catalog {
		out = append(out, report.FaultCount{Name: f.Name, Count: r.counts[f.Name]})
	}
	return out
}

func (s *Simulator) summary(r *run) report.Summary {
	return report.Summary{
		FaultCounts:       s.faultCounts(r),
		TotalRepairMin:    r.totalRepair,
		TotalDowntimeSec:  seconds(r.downtime),
		Correct:           r.score.Correct,
		Incorrect:         r.score.Incorrect,
		Accuracy:          r.score.Accuracy,
		Grade:             r.score.Grade,
		SafetyEscalations: s.state.SafetyEscalations,
		CriticalWrong:     s.state.CriticalWrong,
		SLABreaches:       s.state.SLABreaches,
		HighSLABreaches:   s.state.HighPrioritySLABreaches,
		SiteStatus:        s.state.SiteStatus,
	}
}

func (s *Simulator) writeOutputs(res *Result) error {
	var errs []error
	if s.cfg.ReportPath != "" {
		errs = append(errs, report.WriteSummary(s.cfg.ReportPath, res.Summary))
	}
	if s.cfg.HistoryPath != "" {
		errs = append(errs, report.WriteHistory(s.cfg.HistoryPath, res.Events))
	}
	return errors.Join(errs...)
}

func interrupted(err error) bool {
	return errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, connectors.ErrInputClosed)
}

func seconds(d time.Duration) int {
	return int(d / time.Second)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
