// Package escalation tracks safety escalations and SLA breaches and derives
// the aggregate site status from them.
package escalation

import "github.com/fentz26/faultdrill/internal/models"

// Thresholds for the site-status rules.
const (
	CriticalWrongStopWork    = 2
	SafetyEscalationsWatch   = 3
	HighPriorityBreachesStop = 2
	BreachesWatch            = 1
)

// State is the escalation bookkeeping for one simulation run. Create one at
// run start and pass it to every operation that reads or changes it.
type State struct {
	SafetyEscalations       int               `json:"safety_escalations"`
	CriticalWrong           int               `json:"critical_wrong"`
	SLABreaches             int               `json:"sla_breaches"`
	HighPrioritySLABreaches int               `json:"high_priority_sla_breaches"`
	SiteStatus              models.SiteStatus `json:"site_status"`
}

// NewState returns a state with every counter at zero and the site NORMAL.
func NewState() *State {
	return &State{SiteStatus: models.SiteNormal}
}

// ApplyEscalation records a resolved incident and returns its escalation
// reason. Correct results change nothing and return EscalationNone.
//
// The site status only ever tightens here; a breach scan is the only path
// back to NORMAL.
func (s *State) ApplyEscalation(severity models.Severity, result models.Result) models.Escalation {
	reason := models.EscalationNone
	if models.Result(models.Normalize(string(result))) == models.ResultIncorrect {
		s.SafetyEscalations++
		if isCritical(severity) {
			s.CriticalWrong++
			reason = models.EscalationSafety
		} else {
			reason = models.EscalationSupervisor
		}
	}

	switch {
	case s.CriticalWrong >= CriticalWrongStopWork:
		s.SiteStatus = models.SiteStopWork
	case s.SafetyEscalations >= SafetyEscalationsWatch:
		if s.SiteStatus != models.SiteStopWork {
			s.SiteStatus = models.SiteWatch
		}
	}
	return reason
}

// applyBreaches recomputes the site status after a scan. Breach rules win;
// the safety rules are only consulted when the scan found no new breaches.
func (s *State) applyBreaches(total, high int) {
	s.SLABreaches = total
	s.HighPrioritySLABreaches = high

	switch {
	case s.HighPrioritySLABreaches >= HighPriorityBreachesStop:
		s.SiteStatus = models.SiteStopWork
	case s.SLABreaches >= BreachesWatch:
		if s.SiteStatus != models.SiteStopWork {
			s.SiteStatus = models.SiteWatch
		}
	case s.CriticalWrong >= CriticalWrongStopWork:
		s.SiteStatus = models.SiteStopWork
	case s.SafetyEscalations >= SafetyEscalationsWatch:
		s.SiteStatus = models.SiteWatch
	default:
		s.SiteStatus = models.SiteNormal
	}
}

func isCritical(sev models.Severity) bool {
	return models.Normalize(string(sev)) == "CRITICAL"
}
