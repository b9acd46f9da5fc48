package escalation

import (
	"context"
	"fmt"
	"time"

	"github.com/fentz26/faultdrill/internal/models"
	"github.com/fentz26/faultdrill/internal/store"
	"github.com/rs/zerolog"
)

// Recorder receives scan outcomes. telemetry.Metrics implements it.
type Recorder interface {
	BreachDetected(priority models.Priority)
	ObserveScan(breaches int, site models.SiteStatus)
}

// ScanResult summarises one breach scan.
type ScanResult struct {
	NewlyBreached           []string          `json:"newly_breached"`
	SLABreaches             int               `json:"sla_breaches"`
	HighPrioritySLABreaches int               `json:"high_priority_sla_breaches"`
	SiteStatus              models.SiteStatus `json:"site_status"`
	PreviousSiteStatus      models.SiteStatus `json:"previous_site_status"`
}

// Changed reports whether the scan moved the site status.
func (r *ScanResult) Changed() bool {
	return r.SiteStatus != r.PreviousSiteStatus
}

// Engine runs SLA breach scans against a work-order store.
type Engine struct {
	store    store.Store
	log      zerolog.Logger
	recorder Recorder

	// Now is the scan clock. Tests replace it.
	Now func() time.Time
}

// NewEngine creates an engine. rec may be nil.
func NewEngine(st store.Store, logger zerolog.Logger, rec Recorder) *Engine {
	return &Engine{
		store:    st,
		log:      logger.With().Str("component", "escalation").Logger(),
		recorder: rec,
		Now:      time.Now,
	}
}

// ScanForBreaches promotes every OPEN or IN_PROGRESS order whose age exceeds
// its SLA to BREACHED, then recomputes the breach counters and site status on
// state. Orders with an unknown age or an unreadable SLA never breach.
//
// The breach counters count only the orders promoted by this scan. Orders
// already BREACHED are left untouched and do not count again.
func (e *Engine) ScanForBreaches(ctx context.Context, state *State) (*ScanResult, error) {
	orders, err := e.store.ScanAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan work orders: %w", err)
	}

	now := e.Now()
	res := &ScanResult{PreviousSiteStatus: state.SiteStatus}
	total, high := 0, 0

	for _, wo := range orders {
		if wo.Status != models.StatusOpen && wo.Status != models.StatusInProgress {
			continue
		}

		age := wo.AgeMinutes(now)
		if age < 0 || wo.SLAMinutes == models.SLAUnbounded || age <= wo.SLAMinutes {
			continue
		}

		_, err := e.store.Update(ctx, wo.ID, store.Fields{
			store.ColStatus:       string(models.StatusBreached),
			store.ColEscalation:   string(models.EscalationSLABreach),
			store.ColSiteStatus:   string(models.SiteWatch),
			store.ColBreachReason: fmt.Sprintf("SLA exceeded (AGE %dm > SLA %dm)", age, wo.SLAMinutes),
			store.ColLastUpdated:  models.FormatTimestamp(now),
		})
		if err != nil {
			return nil, fmt.Errorf("mark %s breached: %w", wo.ID, err)
		}

		total++
		if wo.Priority == models.PriorityHigh {
			high++
		}
		res.NewlyBreached = append(res.NewlyBreached, wo.ID)
		e.log.Warn().
			Str("work_order", wo.ID).
			Str("priority", string(wo.Priority)).
			Int("age_min", age).
			Int("sla_min", wo.SLAMinutes).
			Msg("SLA breach detected")
		if e.recorder != nil {
			e.recorder.BreachDetected(wo.Priority)
		}
	}

	state.applyBreaches(total, high)
	res.SLABreaches = state.SLABreaches
	res.HighPrioritySLABreaches = state.HighPrioritySLABreaches
	res.SiteStatus = state.SiteStatus

	if res.Changed() {
		e.log.Info().
			Str("from", string(res.PreviousSiteStatus)).
			Str("to", string(res.SiteStatus)).
			Msg("site status changed")
	}
	e.log.Debug().
		Int("orders", len(orders)).
		Int("newly_breached", len(res.NewlyBreached)).
		Int("sla_breaches", res.SLABreaches).
		Int("high_priority_breaches", res.HighPrioritySLABreaches).
		Str("site_status", string(res.SiteStatus)).
		Msg("breach scan complete")
	if e.recorder != nil {
		e.recorder.ObserveScan(res.SLABreaches, res.SiteStatus)
	}
	return res, nil
}
