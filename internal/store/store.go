// Package store provides durable persistence for the work-order queue.
//
// Two backends share one contract: a CSV table whose header row is the
// canonical column list, and a SQLite database with the same column names.
// Both rewrite legacy layouts to the canonical schema on first access.
package store

import (
	"context"
	"strconv"
	"strings"

	"github.com/fentz26/faultdrill/internal/models"
)

// Canonical work-order columns.
const (
	ColID               = "WO_ID"
	ColCreated          = "Created_Timestamp"
	ColFault            = "Fault"
	ColSeverity         = "Severity"
	ColPriority         = "Priority"
	ColStatus           = "Status"
	ColSLAMinutes       = "SLA_Minutes"
	ColResult           = "Result"
	ColEscalation       = "Escalation"
	ColSiteStatus       = "Site_Status"
	ColTechnicianAction = "Technician_Action"
	ColRepairTimeMin    = "Repair_Time_Min"
	ColWorkOrderFile    = "Work_Order_File"
	ColLastUpdated      = "Last_Updated"
	ColClosed           = "Closed_Timestamp"
	ColCloseoutNotes    = "Closeout_Notes"
	ColBreachReason     = "Breach_Reason"
)

// Columns is the canonical column order.
var Columns = []string{
	ColID,
	ColCreated,
	ColFault,
	ColSeverity,
	ColPriority,
	ColStatus,
	ColSLAMinutes,
	ColResult,
	ColEscalation,
	ColSiteStatus,
	ColTechnicianAction,
	ColRepairTimeMin,
	ColWorkOrderFile,
	ColLastUpdated,
	ColClosed,
	ColCloseoutNotes,
	ColBreachReason,
}

// Fields maps column names to replacement values for Update.
// Names outside Columns are ignored.
type Fields map[string]string

// Store is the work-order table.
type Store interface {
	// EnsureSchema creates the table or migrates an older layout to Columns.
	// It is a no-op when the schema already matches.
	EnsureSchema(ctx context.Context) error

	// Append writes one record to the end of the table.
	Append(ctx context.Context, wo models.WorkOrder) error

	// Update applies fields to the first record with the given ID and
	// reports whether one was found.
	Update(ctx context.Context, id string, fields Fields) (bool, error)

	// ScanAll returns every record in insertion order.
	ScanAll(ctx context.Context) ([]models.WorkOrder, error)

	Close() error
}

func isColumn(name string) bool {
	for _, c := range Columns {
		if c == name {
			return true
		}
	}
	return false
}

func sameColumns(cols []string) bool {
	if len(cols) != len(Columns) {
		return false
	}
	for i := range cols {
		if cols[i] != Columns[i] {
			return false
		}
	}
	return true
}

// encode renders a work order as a row in canonical column order.
func encode(wo models.WorkOrder) []string {
	return []string{
		wo.ID,
		wo.CreatedAt,
		wo.Fault,
		string(wo.Severity),
		string(wo.Priority),
		string(wo.Status),
		strconv.Itoa(wo.SLAMinutes),
		string(wo.Result),
		string(wo.Escalation),
		string(wo.SiteStatus),
		wo.TechnicianAction,
		strconv.Itoa(wo.RepairTimeMin),
		wo.WorkOrderFile,
		wo.LastUpdated,
		wo.ClosedAt,
		wo.CloseoutNotes,
		wo.BreachReason,
	}
}

// decode builds a work order from a column-name keyed record. Cells that do
// not parse fall back to safe defaults.
func decode(rec map[string]string) models.WorkOrder {
	return models.WorkOrder{
		ID:               rec[ColID],
		CreatedAt:        rec[ColCreated],
		Fault:            rec[ColFault],
		Severity:         models.Severity(strings.TrimSpace(rec[ColSeverity])),
		Priority:         models.Priority(models.Normalize(rec[ColPriority])),
		Status:           models.Status(models.Normalize(rec[ColStatus])),
		SLAMinutes:       atoiOr(rec[ColSLAMinutes], models.SLAUnbounded),
		Result:           models.Result(models.Normalize(rec[ColResult])),
		Escalation:       models.Escalation(rec[ColEscalation]),
		SiteStatus:       models.SiteStatus(rec[ColSiteStatus]),
		TechnicianAction: rec[ColTechnicianAction],
		RepairTimeMin:    atoiOr(rec[ColRepairTimeMin], 0),
		WorkOrderFile:    rec[ColWorkOrderFile],
		LastUpdated:      rec[ColLastUpdated],
		ClosedAt:         rec[ColClosed],
		CloseoutNotes:    rec[ColCloseoutNotes],
		BreachReason:     rec[ColBreachReason],
	}
}

func atoiOr(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return n
}

// zip keys a row by header, padding missing cells with "".
func zip(header, row []string) map[string]string {
	rec := make(map[string]string, len(header))
	for i, name := range header {
		if i < len(row) {
			rec[name] = row[i]
		} else {
			rec[name] = ""
		}
	}
	return rec
}
