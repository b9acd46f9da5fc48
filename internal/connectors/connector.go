// Package connectors defines how the simulator talks to a technician.
package connectors

import (
	"context"
	"errors"

	"github.com/fentz26/faultdrill/internal/models"
)

// ErrInputClosed is returned when an interactive technician has no more input.
var ErrInputClosed = errors.New("technician input closed")

// InvalidChoice is recorded when a technician picks something off the menu.
const InvalidChoice = "Invalid choice → No action taken"

// Action is one remediation offered for a fault.
type Action struct {
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

// Prompt is a fault awaiting a technician decision.
type Prompt struct {
	Fault    string          `json:"fault"`
	Severity models.Severity `json:"severity"`
	Actions  []Action        `json:"actions"`
}

// Choice is the action a technician took. Index is -1 for an invalid pick.
type Choice struct {
	Index   int    `json:"index"`
	Action  string `json:"action"`
	Correct bool   `json:"correct"`
}

// Invalid returns the choice recorded for an off-menu answer.
func Invalid() Choice {
	return Choice{Index: -1, Action: InvalidChoice}
}

// DecisionKind is what to do with a freshly created work order.
type DecisionKind string

const (
	DecisionStart DecisionKind = "start"
	DecisionClose DecisionKind = "close"
	DecisionLeave DecisionKind = "leave"
)

// Decision is a technician's follow-up on a new work order.
type Decision struct {
	Kind  DecisionKind `json:"kind"`
	Notes string       `json:"notes,omitempty"`
}

// Technician picks remediations and follows up on work orders.
type Technician interface {
	// Name returns the technician identifier.
	Name() string

	// ChooseAction picks one of the prompt's actions.
	ChooseAction(ctx context.Context, p Prompt) (Choice, error)

	// DecideWorkOrder says whether to start, close or leave a new order.
	DecideWorkOrder(ctx context.Context, id string) (Decision, error)
}
