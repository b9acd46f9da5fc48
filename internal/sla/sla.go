// Package sla maps fault severity to dispatch priority and SLA durations.
//
// Every function is total: unrecognised or empty input falls through to the
// least urgent branch.
package sla

import (
	"strings"

	"github.com/fentz26/faultdrill/internal/models"
)

// SLA durations in minutes by priority.
const (
	HighMinutes   = 15
	MediumMinutes = 60
	LowMinutes    = 240
)

// PriorityFor maps a severity to a dispatch priority.
func PriorityFor(severity models.Severity) models.Priority {
	switch strings.ToLower(strings.TrimSpace(string(severity))) {
	case "critical":
		return models.PriorityHigh
	case "major":
		return models.PriorityMedium
	default:
		return models.PriorityLow
	}
}

// MinutesFor returns the SLA duration for a priority.
func MinutesFor(priority models.Priority) int {
	switch models.Priority(models.Normalize(string(priority))) {
	case models.PriorityHigh:
		return HighMinutes
	case models.PriorityMedium:
		return MediumMinutes
	default:
		return LowMinutes
	}
}

// Rank orders priorities for dispatch; lower sorts first.
func Rank(priority models.Priority) int {
	switch models.Priority(models.Normalize(string(priority))) {
	case models.PriorityHigh:
		return 0
	case models.PriorityMedium:
		return 1
	default:
		return 2
	}
}
