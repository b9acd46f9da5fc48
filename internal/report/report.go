// Package report writes the simulator's run artifacts: the append-only fault
// log, the end-of-run summary and the fault history table.
package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/template"

	"github.com/fentz26/faultdrill/internal/models"
)

// Event is one resolved fault as recorded in the log and history.
type Event struct {
	Timestamp          string            `json:"timestamp"`
	Fault              string            `json:"fault"`
	Severity           models.Severity   `json:"severity"`
	Result             models.Result     `json:"result"`
	Escalation         models.Escalation `json:"escalation"`
	Resolution         string            `json:"resolution"`
	RepairTimeMin      int               `json:"repair_time_min"`
	TotalRepairTimeMin int               `json:"total_repair_time_min"`
	TotalDowntimeSec   int               `json:"total_downtime_sec"`
	AccuracyPct        int               `json:"accuracy_pct"`
	Grade              string            `json:"grade"`
	SiteStatus         models.SiteStatus `json:"site_status"`
	WorkOrderFile      string            `json:"work_order_file,omitempty"`
}

// HistoryColumns is the header of the fault history table.
var HistoryColumns = []string{
	"Timestamp",
	"Fault",
	"Severity",
	"Result",
	"Escalation",
	"Resolution",
	"Repair_Time_Min",
	"Total_Repair_Time_Min",
	"Total_Downtime_Sec",
	"Accuracy_Pct",
	"Grade",
	"Site_Status",
	"Work_Order_File",
}

// FaultLogLine formats an event as one fault-log line, without the newline.
func FaultLogLine(e Event) string {
	return fmt.Sprintf("%s | %s (%s) | %s | %s | %s | Time: %d min",
		e.Timestamp, e.Fault, e.Severity, e.Result, e.Escalation, e.Resolution, e.RepairTimeMin)
}

// AppendFaultLog adds one line to the fault log at path.
func AppendFaultLog(path string, e Event) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open fault log: %w", err)
	}
	defer f.Close()

	if _, err := fmt.Fprintln(f, FaultLogLine(e)); err != nil {
		return fmt.Errorf("append fault log: %w", err)
	}
	return f.Close()
}

// WriteHistory replaces the history table at path with events.
func WriteHistory(path string, events []Event) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create history: %w", err)
	}
	defer f.Close()

	rows := make([][]string, 0, len(events)+1)
	rows = append(rows, HistoryColumns)
	for _, e := range events {
		rows = append(rows, []string{
			e.Timestamp,
			e.Fault,
			string(e.Severity),
			string(e.Result),
			string(e.Escalation),
			e.Resolution,
			strconv.Itoa(e.RepairTimeMin),
			strconv.Itoa(e.TotalRepairTimeMin),
			strconv.Itoa(e.TotalDowntimeSec),
			strconv.Itoa(e.AccuracyPct),
			e.Grade,
			string(e.SiteStatus),
			e.WorkOrderFile,
		})
	}

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	return f.Close()
}

// FaultCount is the number of times one catalog fault occurred.
type FaultCount struct {
	Name  string
	Count int
}

// Summary is the end-of-run report.
type Summary struct {
	FaultCounts       []FaultCount
	TotalRepairMin    int
	TotalDowntimeSec  int
	Correct           int
	Incorrect         int
	Accuracy          int
	Grade             string
	SafetyEscalations int
	CriticalWrong     int
	SLABreaches       int
	HighSLABreaches   int
	SiteStatus        models.SiteStatus
}

const summaryTemplate = `End-of-Day Fault Simulation Report
{{ rule }}

Fault Count:
{{ range .FaultCounts }}{{ .Name }}: {{ .Count }} occurrences
{{ end }}
Totals:
Total repair time: {{ .TotalRepairMin }} minutes
Total downtime (between faults): {{ .TotalDowntimeSec }} seconds

Technician Performance:
Correct actions: {{ .Correct }}
Incorrect actions: {{ .Incorrect }}
Accuracy: {{ .Accuracy }}%
Grade: {{ .Grade }}

Escalations / Status:
Escalations (safety): {{ .SafetyEscalations }}
Critical wrong actions: {{ .CriticalWrong }}
SLA breaches: {{ .SLABreaches }}
HIGH SLA breaches: {{ .HighSLABreaches }}
Site status: {{ .SiteStatus }}

{{ rule }}
End of Report
`

var summaryTmpl = template.Must(template.New("summary").Funcs(template.FuncMap{
	"rule": func() string { return strings.Repeat("=", 60) },
}).Parse(summaryTemplate))

// WriteSummary renders s to path, replacing any previous report.
func WriteSummary(path string, s Summary) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	defer f.Close()

	if err := summaryTmpl.Execute(f, s); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return f.Close()
}

func ensureDir(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	return nil
}
