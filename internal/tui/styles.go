// Package tui renders faultdrill's terminal views: the per-round dashboard,
// the supervisor dispatch queue and the interactive supervisor board.
package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/fentz26/faultdrill/internal/models"
)

var (
	// Colors
	primaryColor = lipgloss.Color("#7C3AED")
	successColor = lipgloss.Color("#10B981")
	warningColor = lipgloss.Color("#F59E0B")
	errorColor   = lipgloss.Color("#EF4444")
	mutedColor   = lipgloss.Color("#6B7280")
	fgColor      = lipgloss.Color("#F9FAFB")
	cyanColor    = lipgloss.Color("#06B6D4")

	// Styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(cyanColor)

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#374151")).
			Foreground(fgColor).
			Padding(0, 1)

	inputBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(0, 1)

	helpStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	flagStyle = lipgloss.NewStyle().
			Foreground(warningColor).
			Bold(true)
)

func siteStyle(s models.SiteStatus) lipgloss.Style {
	switch s {
	case models.SiteStopWork:
		return lipgloss.NewStyle().Foreground(errorColor).Bold(true)
	case models.SiteWatch:
		return lipgloss.NewStyle().Foreground(warningColor).Bold(true)
	default:
		return lipgloss.NewStyle().Foreground(successColor).Bold(true)
	}
}

func resultStyle(r models.Result) lipgloss.Style {
	if r == models.ResultCorrect {
		return lipgloss.NewStyle().Foreground(successColor)
	}
	return lipgloss.NewStyle().Foreground(errorColor)
}

// clip shortens s to at most n runes.
func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
