package simulator

import (
	"time"

	"github.com/fentz26/faultdrill/internal/escalation"
	"github.com/fentz26/faultdrill/internal/models"
	"github.com/fentz26/faultdrill/internal/report"
)

// LastEvent describes the most recently resolved fault.
type LastEvent struct {
	Fault         string
	Severity      models.Severity
	Result        models.Result
	Escalation    models.Escalation
	Resolution    string
	RepairTimeMin int
	WorkOrderID   string
}

// Snapshot is everything the dashboard shows after a round.
type Snapshot struct {
	RunID            string
	Round            int
	Rounds           int
	UpdatedAt        time.Time
	FaultCounts      []report.FaultCount
	TotalRepairMin   int
	TotalDowntimeSec int
	LastEvent        *LastEvent
	Score            Score
	Escalation       escalation.State
}
