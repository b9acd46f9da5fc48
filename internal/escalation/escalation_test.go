package escalation

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/fentz26/faultdrill/internal/models"
	"github.com/fentz26/faultdrill/internal/store"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2026, time.February, 9, 8, 0, 0, 0, time.Local)

type fakeRecorder struct {
	breaches []models.Priority
	scans    int
	last     models.SiteStatus
}

func (f *fakeRecorder) BreachDetected(p models.Priority) { f.breaches = append(f.breaches, p) }
func (f *fakeRecorder) ObserveScan(_ int, site models.SiteStatus) {
	f.scans++
	f.last = site
}

func newEngine(t *testing.T, now time.Time) (*Engine, store.Store, *fakeRecorder) {
	t.Helper()
	st := store.NewCSV(filepath.Join(t.TempDir(), "work_orders.csv"))
	rec := &fakeRecorder{}
	e := NewEngine(st, zerolog.Nop(), rec)
	e.Now = func() time.Time { return now }
	return e, st, rec
}

func order(id string, status models.Status, pr models.Priority, sla int, created time.Time) models.WorkOrder {
	return models.WorkOrder{
		ID:         id,
		CreatedAt:  models.FormatTimestamp(created),
		Fault:      "Motor Overload",
		Severity:   models.SeverityMajor,
		Priority:   pr,
		Status:     status,
		SLAMinutes: sla,
		Result:     models.ResultIncorrect,
		Escalation: models.EscalationSupervisor,
		SiteStatus: models.SiteNormal,
	}
}

func TestApplyEscalation(t *testing.T) {
	tests := []struct {
		name     string
		severity models.Severity
		result   models.Result
		want     models.Escalation
		safety   int
		critical int
	}{
		{"correct critical", models.SeverityCritical, models.ResultCorrect, models.EscalationNone, 0, 0},
		{"incorrect critical", models.SeverityCritical, models.ResultIncorrect, models.EscalationSafety, 1, 1},
		{"incorrect major", models.SeverityMajor, models.ResultIncorrect, models.EscalationSupervisor, 1, 0},
		{"incorrect minor", models.SeverityMinor, models.ResultIncorrect, models.EscalationSupervisor, 1, 0},
		{"lowercase inputs", "critical", "incorrect", models.EscalationSafety, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewState()
			got := s.ApplyEscalation(tt.severity, tt.result)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.safety, s.SafetyEscalations)
			assert.Equal(t, tt.critical, s.CriticalWrong)
			assert.Equal(t, models.SiteNormal, s.SiteStatus)
		})
	}
}

func TestApplyEscalationThresholds(t *testing.T) {
	s := NewState()
	s.ApplyEscalation(models.SeverityMinor, models.ResultIncorrect)
	s.ApplyEscalation(models.SeverityMajor, models.ResultIncorrect)
	assert.Equal(t, models.SiteNormal, s.SiteStatus)

	s.ApplyEscalation(models.SeverityMinor, models.ResultIncorrect)
	assert.Equal(t, models.SiteWatch, s.SiteStatus, "three escalations move the site to WATCH")

	s.ApplyEscalation(models.SeverityMinor, models.ResultCorrect)
	assert.Equal(t, models.SiteWatch, s.SiteStatus, "correct results never relax the site")
}

func TestApplyEscalationNeverDowngradesStopWork(t *testing.T) {
	s := NewState()
	s.SiteStatus = models.SiteStopWork
	s.SafetyEscalations = 5

	s.ApplyEscalation(models.SeverityMinor, models.ResultIncorrect)
	assert.Equal(t, models.SiteStopWork, s.SiteStatus)
}

func TestBreachBoundary(t *testing.T) {
	ctx := context.Background()
	now := base.Add(time.Hour)
	e, st, rec := newEngine(t, now)

	require.NoError(t, st.Append(ctx, order("WO-000001", models.StatusOpen, models.PriorityHigh, 15, now.Add(-15*time.Minute))))
	require.NoError(t, st.Append(ctx, order("WO-000002", models.StatusOpen, models.PriorityHigh, 15, now.Add(-16*time.Minute))))

	state := NewState()
	res, err := e.ScanForBreaches(ctx, state)
	require.NoError(t, err)

	assert.Equal(t, []string{"WO-000002"}, res.NewlyBreached)
	assert.Equal(t, 1, res.SLABreaches)
	assert.Equal(t, 1, res.HighPrioritySLABreaches)
	assert.Equal(t, models.SiteWatch, state.SiteStatus)
	assert.Equal(t, []models.Priority{models.PriorityHigh}, rec.breaches)

	orders, err := st.ScanAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.StatusOpen, orders[0].Status, "age equal to SLA does not breach")

	breached := orders[1]
	assert.Equal(t, models.StatusBreached, breached.Status)
	assert.Equal(t, models.EscalationSLABreach, breached.Escalation)
	assert.Equal(t, models.SiteWatch, breached.SiteStatus)
	assert.Equal(t, "SLA exceeded (AGE 16m > SLA 15m)", breached.BreachReason)
	assert.Equal(t, models.FormatTimestamp(now), breached.LastUpdated)
}

func TestScanIsIdempotent(t *testing.T) {
	ctx := context.Background()
	now := base.Add(2 * time.Hour)
	e, st, rec := newEngine(t, now)

	require.NoError(t, st.Append(ctx, order("WO-000001", models.StatusOpen, models.PriorityMedium, 60, base)))
	require.NoError(t, st.Append(ctx, order("WO-000002", models.StatusInProgress, models.PriorityLow, 240, base)))

	state := NewState()
	first, err := e.ScanForBreaches(ctx, state)
	require.NoError(t, err)
	before, err := st.ScanAll(ctx)
	require.NoError(t, err)

	second, err := e.ScanForBreaches(ctx, state)
	require.NoError(t, err)
	after, err := st.ScanAll(ctx)
	require.NoError(t, err)

	assert.Equal(t, []string{"WO-000001"}, first.NewlyBreached)
	assert.Equal(t, 1, first.SLABreaches)
	assert.Equal(t, models.SiteWatch, first.SiteStatus)

	assert.Empty(t, second.NewlyBreached)
	assert.Equal(t, 0, second.SLABreaches, "already breached orders do not count again")
	assert.Equal(t, models.SiteNormal, second.SiteStatus)
	assert.Equal(t, before, after, "second scan must not rewrite breached orders")
	assert.Len(t, rec.breaches, 1)
	assert.Equal(t, 2, rec.scans)
}

func TestHighBreachesInSeparateScansStayWatch(t *testing.T) {
	ctx := context.Background()
	now := base.Add(time.Hour)
	e, st, _ := newEngine(t, now)
	state := NewState()

	require.NoError(t, st.Append(ctx, order("WO-000001", models.StatusOpen, models.PriorityHigh, 15, base)))
	res, err := e.ScanForBreaches(ctx, state)
	require.NoError(t, err)
	assert.Equal(t, 1, res.HighPrioritySLABreaches)
	assert.Equal(t, models.SiteWatch, state.SiteStatus)

	require.NoError(t, st.Append(ctx, order("WO-000002", models.StatusOpen, models.PriorityHigh, 15, base)))
	res, err = e.ScanForBreaches(ctx, state)
	require.NoError(t, err)
	assert.Equal(t, []string{"WO-000002"}, res.NewlyBreached)
	assert.Equal(t, 1, res.SLABreaches)
	assert.Equal(t, 1, res.HighPrioritySLABreaches)
	assert.Equal(t, models.SiteWatch, state.SiteStatus)

	res, err = e.ScanForBreaches(ctx, state)
	require.NoError(t, err)
	assert.Empty(t, res.NewlyBreached)
	assert.Equal(t, 0, res.HighPrioritySLABreaches)
	assert.Equal(t, models.SiteNormal, state.SiteStatus)

	orders, err := st.ScanAll(ctx)
	require.NoError(t, err)
	for _, wo := range orders {
		assert.Equal(t, models.StatusBreached, wo.Status, wo.ID)
	}
}

func TestScanSkipsUnknownAgeAndUnboundedSLA(t *testing.T) {
	ctx := context.Background()
	now := base.Add(24 * time.Hour)
	e, st, _ := newEngine(t, now)

	bad := order("WO-000001", models.StatusOpen, models.PriorityHigh, 15, base)
	bad.CreatedAt = "sometime last week"
	require.NoError(t, st.Append(ctx, bad))
	require.NoError(t, st.Append(ctx, order("WO-000002", models.StatusOpen, models.PriorityHigh, models.SLAUnbounded, base)))
	require.NoError(t, st.Append(ctx, order("WO-000003", models.StatusClosed, models.PriorityHigh, 15, base)))

	state := NewState()
	res, err := e.ScanForBreaches(ctx, state)
	require.NoError(t, err)
	assert.Empty(t, res.NewlyBreached)
	assert.Equal(t, 0, res.SLABreaches)
	assert.Equal(t, models.SiteNormal, state.SiteStatus)
}

func TestTwoHighBreachesStopWork(t *testing.T) {
	ctx := context.Background()
	now := base.Add(time.Hour)
	e, st, _ := newEngine(t, now)

	require.NoError(t, st.Append(ctx, order("WO-000001", models.StatusOpen, models.PriorityHigh, 15, base)))
	require.NoError(t, st.Append(ctx, order("WO-000002", models.StatusInProgress, models.PriorityHigh, 15, base)))

	state := NewState()
	res, err := e.ScanForBreaches(ctx, state)
	require.NoError(t, err)
	assert.Equal(t, 2, res.HighPrioritySLABreaches)
	assert.Equal(t, models.SiteStopWork, state.SiteStatus)
	assert.True(t, res.Changed())
}

func TestStopWorkScenario(t *testing.T) {
	ctx := context.Background()
	e, _, _ := newEngine(t, base)

	state := NewState()
	state.ApplyEscalation(models.SeverityCritical, models.ResultIncorrect)
	assert.Equal(t, models.SiteNormal, state.SiteStatus)
	state.ApplyEscalation(models.SeverityCritical, models.ResultIncorrect)
	assert.Equal(t, 2, state.CriticalWrong)
	assert.Equal(t, models.SiteStopWork, state.SiteStatus)

	res, err := e.ScanForBreaches(ctx, state)
	require.NoError(t, err)
	assert.Equal(t, 0, res.SLABreaches)
	assert.Equal(t, models.SiteStopWork, state.SiteStatus, "clean scan keeps STOP WORK while critical wrongs stand")
	assert.False(t, res.Changed())
}

func TestScanFallbackOrdering(t *testing.T) {
	ctx := context.Background()
	e, _, _ := newEngine(t, base)

	// STOP WORK raised by breaches relaxes to WATCH once they clear if
	// only the escalation count remains high.
	state := &State{SafetyEscalations: 3, SiteStatus: models.SiteStopWork}
	_, err := e.ScanForBreaches(ctx, state)
	require.NoError(t, err)
	assert.Equal(t, models.SiteWatch, state.SiteStatus)

	state = &State{SafetyEscalations: 1, SiteStatus: models.SiteWatch}
	_, err = e.ScanForBreaches(ctx, state)
	require.NoError(t, err)
	assert.Equal(t, models.SiteNormal, state.SiteStatus, "clean scan restores NORMAL")
}

func TestScanStoreError(t *testing.T) {
	dir := t.TempDir()
	// A directory where the table should be makes every read fail.
	st := store.NewCSV(dir)
	e := NewEngine(st, zerolog.Nop(), nil)

	_, err := e.ScanForBreaches(context.Background(), NewState())
	assert.Error(t, err)
}
