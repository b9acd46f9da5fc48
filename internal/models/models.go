// Package models defines the core domain types for faultdrill.
package models

import (
	"strings"
	"time"
)

// Severity is the seriousness of a simulated fault.
type Severity string

const (
	SeverityMinor    Severity = "Minor"
	SeverityMajor    Severity = "Major"
	SeverityCritical Severity = "Critical"
)

// Priority is the dispatch priority derived from severity.
type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
)

// Status represents the lifecycle state of a work order.
type Status string

const (
	StatusOpen       Status = "OPEN"
	StatusInProgress Status = "IN_PROGRESS"
	StatusBreached   Status = "BREACHED"
	StatusClosed     Status = "CLOSED"
)

// Active reports whether the order still needs attention.
func (s Status) Active() bool {
	return s == StatusOpen || s == StatusInProgress || s == StatusBreached
}

// Result is the outcome of a technician decision.
type Result string

const (
	ResultCorrect   Result = "CORRECT"
	ResultIncorrect Result = "INCORRECT"
)

// SiteStatus is the aggregate plant condition.
type SiteStatus string

const (
	SiteNormal   SiteStatus = "NORMAL"
	SiteWatch    SiteStatus = "WATCH"
	SiteStopWork SiteStatus = "STOP WORK"
)

// Escalation is the escalation reason attached to an incident or order.
type Escalation string

const (
	EscalationNone       Escalation = "None"
	EscalationSafety     Escalation = "AUTO ESCALATE: SAFETY / SUPERVISOR"
	EscalationSupervisor Escalation = "ESCALATE: SUPERVISOR NOTIFY"
	EscalationSLABreach  Escalation = "AUTO ESCALATE: SLA BREACH"
)

// SLAUnbounded marks an SLA that could not be read. Orders carrying it never breach.
const SLAUnbounded = 999999

// WorkOrder is one record of the work-order queue.
type WorkOrder struct {
	ID               string     `json:"id"`
	CreatedAt        string     `json:"created_at"`
	Fault            string     `json:"fault"`
	Severity         Severity   `json:"severity"`
	Priority         Priority   `json:"priority"`
	Status           Status     `json:"status"`
	SLAMinutes       int        `json:"sla_minutes"`
	Result           Result     `json:"result"`
	Escalation       Escalation `json:"escalation"`
	SiteStatus       SiteStatus `json:"site_status"`
	TechnicianAction string     `json:"technician_action"`
	RepairTimeMin    int        `json:"repair_time_min"`
	WorkOrderFile    string     `json:"work_order_file"`
	LastUpdated      string     `json:"last_updated"`
	ClosedAt         string     `json:"closed_at,omitempty"`
	CloseoutNotes    string     `json:"closeout_notes,omitempty"`
	BreachReason     string     `json:"breach_reason,omitempty"`
}

// AgeMinutes returns whole minutes elapsed since creation, or -1 when the
// creation timestamp cannot be read.
func (w WorkOrder) AgeMinutes(now time.Time) int {
	return AgeMinutes(w.CreatedAt, now)
}

// Incident is a resolved fault handed to the work-order generator.
type Incident struct {
	Timestamp     string     `json:"timestamp"`
	Fault         string     `json:"fault"`
	Severity      Severity   `json:"severity"`
	Result        Result     `json:"result"`
	Escalation    Escalation `json:"escalation"`
	Resolution    string     `json:"resolution"`
	RepairTimeMin int        `json:"repair_time_min"`
	SiteStatus    SiteStatus `json:"site_status"`
}

// PDREntry represents a Process Decision Record for audit.
type PDREntry struct {
	ID          string    `json:"id"`
	Action      string    `json:"action"`
	InputsHash  string    `json:"inputs_hash"`
	Outcome     string    `json:"outcome"`
	WorkOrderID string    `json:"work_order_id,omitempty"`
	Details     string    `json:"details,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// Normalize upper-cases and trims an enum-like cell.
func Normalize(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
