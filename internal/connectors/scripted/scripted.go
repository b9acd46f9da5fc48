// Package scripted provides a non-interactive technician for demos, CI runs
// and load testing the work-order pipeline.
package scripted

import (
	"context"
	"math/rand"

	"github.com/fentz26/faultdrill/internal/connectors"
)

// Scripted picks actions at random with a fixed probability of being right.
type Scripted struct {
	rng      *rand.Rand
	accuracy float64
}

// New creates a scripted technician. accuracy is clamped to [0, 1].
func New(seed int64, accuracy float64) *Scripted {
	if accuracy < 0 {
		accuracy = 0
	}
	if accuracy > 1 {
		accuracy = 1
	}
	return &Scripted{rng: rand.New(rand.NewSource(seed)), accuracy: accuracy}
}

// Name returns the connector identifier.
func (s *Scripted) Name() string {
	return "scripted"
}

// ChooseAction picks a correct action with probability accuracy, otherwise a
// random incorrect one.
func (s *Scripted) ChooseAction(ctx context.Context, p connectors.Prompt) (connectors.Choice, error) {
	if err := ctx.Err(); err != nil {
		return connectors.Choice{}, err
	}

	var right, wrong []int
	for i, a := range p.Actions {
		if a.Correct {
			right = append(right, i)
		} else {
			wrong = append(wrong, i)
		}
	}

	pool := wrong
	if len(wrong) == 0 || (len(right) > 0 && s.rng.Float64() < s.accuracy) {
		pool = right
	}
	if len(pool) == 0 {
		return connectors.Invalid(), nil
	}

	i := pool[s.rng.Intn(len(pool))]
	return connectors.Choice{Index: i, Action: p.Actions[i].Text, Correct: p.Actions[i].Correct}, nil
}

// DecideWorkOrder starts, closes or leaves the order with equal odds.
func (s *Scripted) DecideWorkOrder(ctx context.Context, id string) (connectors.Decision, error) {
	if err := ctx.Err(); err != nil {
		return connectors.Decision{}, err
	}
	switch s.rng.Intn(3) {
	case 0:
		return connectors.Decision{Kind: connectors.DecisionStart}, nil
	case 1:
		return connectors.Decision{Kind: connectors.DecisionClose, Notes: "Resolved during drill " + id}, nil
	default:
		return connectors.Decision{Kind: connectors.DecisionLeave}, nil
	}
}
