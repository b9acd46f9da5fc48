package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fentz26/faultdrill/internal/models"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(lipgloss.Color("240"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	detailSectionStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("99")).
				MarginTop(1)
)

// DetailView renders every field of one work order.
func DetailView(wo models.WorkOrder) string {
	var b strings.Builder

	b.WriteString(headerStyle.Render(fmt.Sprintf("%s  %s", wo.ID, wo.Fault)) + "\n")
	field(&b, "Status", string(wo.Status))
	field(&b, "Priority", string(wo.Priority))
	field(&b, "SLA", fmt.Sprintf("%s min", slaText(wo.SLAMinutes)))
	field(&b, "Created", wo.CreatedAt)
	field(&b, "Last updated", wo.LastUpdated)

	b.WriteString(detailSectionStyle.Render("Incident") + "\n")
	field(&b, "Severity", string(wo.Severity))
	field(&b, "Result", string(wo.Result))
	field(&b, "Escalation", string(wo.Escalation))
	field(&b, "Site status", string(wo.SiteStatus))
	field(&b, "Action taken", wo.TechnicianAction)
	field(&b, "Repair estimate", fmt.Sprintf("%d min", wo.RepairTimeMin))
	if wo.WorkOrderFile != "" {
		field(&b, "Document", wo.WorkOrderFile)
	}

	if wo.BreachReason != "" || wo.ClosedAt != "" {
		b.WriteString(detailSectionStyle.Render("Follow-up") + "\n")
	}
	if wo.BreachReason != "" {
		field(&b, "Breach", flagStyle.Render(wo.BreachReason))
	}
	if wo.ClosedAt != "" {
		field(&b, "Closed", wo.ClosedAt)
		field(&b, "Notes", wo.CloseoutNotes)
	}
	return b.String()
}

func field(b *strings.Builder, label, value string) {
	if value == "" {
		value = "-"
	}
	fmt.Fprintf(b, "  %s %s\n", labelStyle.Render(fmt.Sprintf("%-16s", label+":")), valueStyle.Render(value))
}
