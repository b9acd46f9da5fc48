package dispatch

import (
	"context"
	"fmt"
	"sort"

	"github.com/fentz26/faultdrill/internal/escalation"
	"github.com/fentz26/faultdrill/internal/models"
	"github.com/fentz26/faultdrill/internal/sla"
)

// unknownAgeKey sorts orders with an unreadable creation time as the youngest.
const unknownAgeKey = 999999

// QueueEntry is one row of the supervisor queue.
type QueueEntry struct {
	models.WorkOrder
	// AgeMinutes is -1 when the creation time cannot be read.
	AgeMinutes int `json:"age_minutes"`
}

// Queue runs a breach scan, then returns the active orders most urgent first:
// breached before the rest, then by priority rank, tightest SLA and oldest.
// limit <= 0 uses the configured default.
func (s *Service) Queue(ctx context.Context, state *escalation.State, limit int) ([]QueueEntry, error) {
	if s.engine != nil {
		if _, err := s.engine.ScanForBreaches(ctx, state); err != nil {
			return nil, err
		}
	}

	orders, err := s.store.ScanAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan work orders: %w", err)
	}

	now := s.Now()
	var entries []QueueEntry
	for _, wo := range orders {
		if !wo.Status.Active() {
			continue
		}
		entries = append(entries, QueueEntry{WorkOrder: wo, AgeMinutes: wo.AgeMinutes(now)})
	}

	SortQueue(entries)

	if limit <= 0 {
		limit = s.limit
	}
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// SortQueue orders entries in place by dispatch urgency. Ties keep their
// store order.
func SortQueue(entries []QueueEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := queueKey(entries[i]), queueKey(entries[j])
		for k := range a {
			if a[k] != b[k] {
				return a[k] < b[k]
			}
		}
		return false
	})
}

func queueKey(e QueueEntry) [4]int {
	breached := 1
	if e.Status == models.StatusBreached {
		breached = 0
	}
	age := unknownAgeKey
	if e.AgeMinutes >= 0 {
		age = -e.AgeMinutes
	}
	return [4]int{breached, sla.Rank(e.Priority), e.SLAMinutes, age}
}
