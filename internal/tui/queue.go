package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fentz26/faultdrill/internal/dispatch"
	"github.com/fentz26/faultdrill/internal/models"
)

const (
	queueRuleWidth = 92
	breachFlag     = "⚠ SLA BREACH"
)

// QueueView formats the supervisor dispatch queue as plain rows.
func QueueView(entries []dispatch.QueueEntry) string {
	var b strings.Builder
	rule := strings.Repeat("-", queueRuleWidth) + "\n"

	b.WriteString("\n" + titleStyle.Render("SUPERVISOR DISPATCH QUEUE (OPEN / IN_PROGRESS / BREACHED)") + "\n")
	b.WriteString(rule)
	if len(entries) == 0 {
		b.WriteString("No active work orders. ✅\n")
		b.WriteString(rule)
		return b.String()
	}

	fmt.Fprintf(&b, "%-10s %-7s %-10s %-6s %-6s %-26s %s\n", "WO_ID", "PRIORITY", "STATUS", "SLA", "AGE", "FAULT", "FLAG")
	b.WriteString(rule)
	for _, e := range entries {
		flag := ""
		if e.Status == models.StatusBreached {
			flag = flagStyle.Render(breachFlag)
		}
		fmt.Fprintf(&b, "%-10s %-7s %-10s %-6s %-6s %-26s %s\n",
			clip(e.ID, 10),
			clip(string(e.Priority), 7),
			clip(string(e.Status), 10),
			slaText(e.SLAMinutes),
			ageText(e.AgeMinutes),
			clip(e.Fault, 26),
			flag)
	}
	b.WriteString(rule)
	b.WriteString(helpStyle.Render("Tip: Type Q at any prompt to view this queue.") + "\n")
	return b.String()
}

// WriteQueue prints QueueView(entries) to w.
func WriteQueue(w io.Writer, entries []dispatch.QueueEntry) error {
	_, err := io.WriteString(w, QueueView(entries))
	return err
}

func slaText(minutes int) string {
	if minutes == models.SLAUnbounded {
		return "-"
	}
	return fmt.Sprint(minutes)
}

func ageText(minutes int) string {
	if minutes < 0 {
		return "-"
	}
	return fmt.Sprintf("%dm", minutes)
}
