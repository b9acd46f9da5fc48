package tui

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fentz26/faultdrill/internal/models"
	"github.com/fentz26/faultdrill/internal/report"
	"github.com/fentz26/faultdrill/internal/simulator"
)

const (
	labelWidth = 34
	ruleWidth  = 60
	clearHome  = "\x1b[H\x1b[2J"
)

// Dashboard prints a full status screen after every simulation round.
type Dashboard struct {
	out   io.Writer
	clear bool
}

// NewDashboard creates a dashboard writing to out. With clear set, each
// render starts on a fresh screen.
func NewDashboard(out io.Writer, clear bool) *Dashboard {
	return &Dashboard{out: out, clear: clear}
}

// Render implements simulator.Renderer.
func (d *Dashboard) Render(s simulator.Snapshot) error {
	screen := View(s)
	if d.clear {
		screen = clearHome + screen
	}
	_, err := io.WriteString(d.out, screen)
	return err
}

// View lays out a snapshot as the dashboard text.
func View(s simulator.Snapshot) string {
	var b strings.Builder
	rule := strings.Repeat("-", ruleWidth)

	b.WriteString(titleStyle.Render("FIELD SERVICE FAULT DASHBOARD") + "\n")
	b.WriteString(strings.Repeat("=", ruleWidth) + "\n")
	b.WriteString(row("Status", "RUNNING"))
	b.WriteString(row("Round", fmt.Sprintf("%d/%d", s.Round, s.Rounds)))
	b.WriteString(row("Last update", models.FormatTimestamp(s.UpdatedAt)))
	b.WriteString(rule + "\n")

	esc := s.Escalation
	b.WriteString(sectionStyle.Render("SITE STATUS") + "\n")
	b.WriteString(row("Plant condition", siteStyle(esc.SiteStatus).Render(string(esc.SiteStatus))))
	b.WriteString(row("Escalations", fmt.Sprint(esc.SafetyEscalations)))
	b.WriteString(row("Critical wrong actions", fmt.Sprint(esc.CriticalWrong)))
	b.WriteString(row("SLA breaches", fmt.Sprint(esc.SLABreaches)))
	b.WriteString(row("HIGH SLA breaches", fmt.Sprint(esc.HighPrioritySLABreaches)))
	b.WriteString(rule + "\n")

	b.WriteString(sectionStyle.Render("LAST EVENT") + "\n")
	if e := s.LastEvent; e != nil {
		b.WriteString(row("Fault", e.Fault))
		b.WriteString(row("Severity", string(e.Severity)))
		b.WriteString(row("Result", resultStyle(e.Result).Render(string(e.Result))))
		b.WriteString(row("Escalation", string(e.Escalation)))
		b.WriteString(row("Resolution", e.Resolution))
		b.WriteString(row("Repair time (min)", fmt.Sprint(e.RepairTimeMin)))
		if e.WorkOrderID != "" {
			b.WriteString(row("Work order", e.WorkOrderID))
		}
	} else {
		b.WriteString("No events yet.\n")
	}
	b.WriteString(rule + "\n")

	b.WriteString(sectionStyle.Render("TOTALS") + "\n")
	b.WriteString(row("Total repair time (min)", fmt.Sprint(s.TotalRepairMin)))
	b.WriteString(row("Total downtime (sec)", fmt.Sprint(s.TotalDowntimeSec)))
	b.WriteString(row("Correct actions", fmt.Sprint(s.Score.Correct)))
	b.WriteString(row("Incorrect actions", fmt.Sprint(s.Score.Incorrect)))
	b.WriteString(row("Accuracy", fmt.Sprintf("%d%%", s.Score.Accuracy)))
	b.WriteString(row("Technician grade", s.Score.Grade))
	b.WriteString(rule + "\n")

	b.WriteString(sectionStyle.Render("FAULT COUNTS") + "\n")
	counts := append([]report.FaultCount(nil), s.FaultCounts...)
	sort.Slice(counts, func(i, j int) bool { return counts[i].Name < counts[j].Name })
	for _, c := range counts {
		b.WriteString(row(c.Name, fmt.Sprint(c.Count)))
	}
	b.WriteString(strings.Repeat("=", ruleWidth) + "\n")
	b.WriteString(helpStyle.Render("Tip: Press Ctrl+C in terminal to stop.") + "\n")
	return b.String()
}

// row pads label to a fixed column, eliding labels that do not fit.
func row(label, value string) string {
	if len([]rune(label)) > labelWidth {
		label = clip(label, labelWidth-1) + "…"
	}
	return fmt.Sprintf("%-*s %s\n", labelWidth, label, value)
}
