// Package dispatch turns escalated incidents into work orders and moves
// them through their lifecycle.
package dispatch

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fentz26/faultdrill/internal/audit"
	"github.com/fentz26/faultdrill/internal/escalation"
	"github.com/fentz26/faultdrill/internal/models"
	"github.com/fentz26/faultdrill/internal/sla"
	"github.com/fentz26/faultdrill/internal/store"
	"github.com/rs/zerolog"
)

// DefaultQueueLimit is the number of rows shown by Queue when no limit is set.
const DefaultQueueLimit = 15

// IDSource hands out work-order identifiers. counter.File and
// store.SQLiteStore both satisfy it.
type IDSource interface {
	NextID(ctx context.Context) (string, error)
}

// Recorder receives work-order events. telemetry.Metrics implements it.
type Recorder interface {
	WorkOrderCreated(priority models.Priority)
	WorkOrderTransition(to models.Status)
}

// Options configures optional collaborators of a Service.
type Options struct {
	// Documents renders detail documents; nil skips them.
	Documents  *DocumentWriter
	Logger     zerolog.Logger
	Recorder   Recorder
	QueueLimit int
}

// Service provides the work-order business logic.
type Service struct {
	store    store.Store
	ids      IDSource
	engine   *escalation.Engine
	pdr      *audit.PDRWriter
	docs     *DocumentWriter
	log      zerolog.Logger
	recorder Recorder
	limit    int

	// Now stamps creation and update times. Tests replace it.
	Now func() time.Time
}

// NewService creates a new work-order service.
func NewService(st store.Store, ids IDSource, engine *escalation.Engine, pdr *audit.PDRWriter, opts Options) *Service {
	limit := opts.QueueLimit
	if limit <= 0 {
		limit = DefaultQueueLimit
	}
	return &Service{
		store:    st,
		ids:      ids,
		engine:   engine,
		pdr:      pdr,
		docs:     opts.Documents,
		log:      opts.Logger.With().Str("component", "dispatch").Logger(),
		recorder: opts.Recorder,
		limit:    limit,
		Now:      time.Now,
	}
}

// Reference points at a freshly generated work order.
type Reference struct {
	ID        string           `json:"id"`
	Document  string           `json:"document,omitempty"`
	WorkOrder models.WorkOrder `json:"work_order"`
}

// Generate creates a work order for an escalated incident. Incidents whose
// escalation is "None" produce nothing and consume no identifier.
func (s *Service) Generate(ctx context.Context, inc models.Incident) (*Reference, error) {
	if strings.TrimSpace(string(inc.Escalation)) == string(models.EscalationNone) {
		return nil, nil
	}

	if err := s.store.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	id, err := s.ids.NextID(ctx)
	if err != nil {
		return nil, fmt.Errorf("next work order id: %w", err)
	}

	now := s.Now()
	priority := sla.PriorityFor(inc.Severity)
	created := strings.TrimSpace(inc.Timestamp)
	if created == "" {
		created = models.FormatTimestamp(now)
	}

	wo := models.WorkOrder{
		ID:               id,
		CreatedAt:        created,
		Fault:            inc.Fault,
		Severity:         inc.Severity,
		Priority:         priority,
		Status:           models.StatusOpen,
		SLAMinutes:       sla.MinutesFor(priority),
		Result:           inc.Result,
		Escalation:       inc.Escalation,
		SiteStatus:       inc.SiteStatus,
		TechnicianAction: inc.Resolution,
		RepairTimeMin:    inc.RepairTimeMin,
		LastUpdated:      models.FormatTimestamp(now),
	}

	if s.docs != nil {
		path, err := s.docs.Write(wo, inc, now)
		if err != nil {
			return nil, err
		}
		wo.WorkOrderFile = path
	}

	if err := s.store.Append(ctx, wo); err != nil {
		if wo.WorkOrderFile != "" {
			if rmErr := os.Remove(wo.WorkOrderFile); rmErr != nil && !os.IsNotExist(rmErr) {
				s.log.Warn().Err(rmErr).Str("document", wo.WorkOrderFile).Msg("remove orphaned document")
			}
		}
		return nil, fmt.Errorf("append work order: %w", err)
	}

	s.record(ctx, "wo.generate", inc, wo.ID, string(wo.Priority))
	if s.recorder != nil {
		s.recorder.WorkOrderCreated(wo.Priority)
	}
	s.log.Info().
		Str("work_order", wo.ID).
		Str("fault", wo.Fault).
		Str("priority", string(wo.Priority)).
		Int("sla_min", wo.SLAMinutes).
		Msg("work order created")

	return &Reference{ID: wo.ID, Document: wo.WorkOrderFile, WorkOrder: wo}, nil
}

// Get returns the work order with the given ID.
func (s *Service) Get(ctx context.Context, id string) (*models.WorkOrder, error) {
	orders, err := s.store.ScanAll(ctx)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		if orders[i].ID == id {
			return &orders[i], nil
		}
	}
	return nil, ErrWorkOrderNotFound
}

// List returns every work order, or only those with the given status.
func (s *Service) List(ctx context.Context, status models.Status) ([]models.WorkOrder, error) {
	orders, err := s.store.ScanAll(ctx)
	if err != nil {
		return nil, err
	}
	if status == "" {
		return orders, nil
	}
	want := models.Status(models.Normalize(string(status)))
	var out []models.WorkOrder
	for _, wo := range orders {
		if wo.Status == want {
			out = append(out, wo)
		}
	}
	return out, nil
}

// StartWork moves an OPEN order to IN_PROGRESS.
func (s *Service) StartWork(ctx context.Context, id string) (*models.WorkOrder, error) {
	wo, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if wo.Status != models.StatusOpen {
		return nil, fmt.Errorf("%w: %s is %s", ErrInvalidTransition, id, wo.Status)
	}

	wo.Status = models.StatusInProgress
	wo.LastUpdated = models.FormatTimestamp(s.Now())
	if err := s.apply(ctx, id, store.Fields{
		store.ColStatus:      string(wo.Status),
		store.ColLastUpdated: wo.LastUpdated,
	}); err != nil {
		return nil, err
	}

	s.record(ctx, "wo.start", map[string]string{"id": id}, id, "")
	s.transitioned(id, wo.Status)
	return wo, nil
}

// CloseWork closes an active order with closeout notes. CLOSED is terminal.
func (s *Service) CloseWork(ctx context.Context, id, notes string) (*models.WorkOrder, error) {
	wo, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !wo.Status.Active() {
		return nil, fmt.Errorf("%w: %s is %s", ErrInvalidTransition, id, wo.Status)
	}

	stamp := models.FormatTimestamp(s.Now())
	wo.Status = models.StatusClosed
	wo.ClosedAt = stamp
	wo.CloseoutNotes = strings.TrimSpace(notes)
	wo.LastUpdated = stamp
	if err := s.apply(ctx, id, store.Fields{
		store.ColStatus:        string(wo.Status),
		store.ColClosed:        wo.ClosedAt,
		store.ColCloseoutNotes: wo.CloseoutNotes,
		store.ColLastUpdated:   wo.LastUpdated,
	}); err != nil {
		return nil, err
	}

	s.record(ctx, "wo.close", map[string]string{"id": id, "notes": wo.CloseoutNotes}, id, wo.CloseoutNotes)
	s.transitioned(id, wo.Status)
	return wo, nil
}

// Touch stamps Last_Updated on an order that stays in its current state.
func (s *Service) Touch(ctx context.Context, id string) (*models.WorkOrder, error) {
	wo, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if wo.Status == models.StatusClosed {
		return nil, fmt.Errorf("%w: %s is %s", ErrInvalidTransition, id, wo.Status)
	}

	wo.LastUpdated = models.FormatTimestamp(s.Now())
	if err := s.apply(ctx, id, store.Fields{store.ColLastUpdated: wo.LastUpdated}); err != nil {
		return nil, err
	}
	s.log.Debug().Str("work_order", id).Msg("work order left as is")
	return wo, nil
}

func (s *Service) apply(ctx context.Context, id string, fields store.Fields) error {
	ok, err := s.store.Update(ctx, id, fields)
	if err != nil {
		return fmt.Errorf("update work order: %w", err)
	}
	if !ok {
		return ErrWorkOrderNotFound
	}
	return nil
}

func (s *Service) transitioned(id string, to models.Status) {
	if s.recorder != nil {
		s.recorder.WorkOrderTransition(to)
	}
	s.log.Info().Str("work_order", id).Str("status", string(to)).Msg("work order updated")
}

// record writes an audit entry. Failures are logged, not returned.
func (s *Service) record(ctx context.Context, action string, inputs interface{}, id, details string) {
	if _, err := s.pdr.Record(ctx, action, inputs, "success", id, details); err != nil {
		s.log.Error().Err(err).Str("action", action).Str("work_order", id).Msg("audit record failed")
	}
}
