package simulator

import (
	"fmt"

	"github.com/fentz26/faultdrill/internal/connectors"
	"github.com/fentz26/faultdrill/internal/models"
)

// Outcome is how a technician choice resolved a fault.
type Outcome struct {
	Result        models.Result
	Resolution    string
	RepairTimeMin int
}

// Resolve grades a technician choice against the fault severity.
func Resolve(severity models.Severity, c connectors.Choice) Outcome {
	if c.Correct {
		return Outcome{
			Result:        models.ResultCorrect,
			Resolution:    "Correct Action: " + c.Action,
			RepairTimeMin: RepairMinutes(severity, true),
		}
	}
	return Outcome{
		Result:        models.ResultIncorrect,
		Resolution:    fmt.Sprintf("Incorrect Action: %s → Escalation Required", c.Action),
		RepairTimeMin: RepairMinutes(severity, false),
	}
}

// RepairMinutes is the repair estimate for a fault of the given severity.
func RepairMinutes(severity models.Severity, correct bool) int {
	sev := models.Severity(models.Normalize(string(severity)))
	if correct {
		switch sev {
		case "MINOR":
			return 2
		case "MAJOR":
			return 5
		default:
			return 7
		}
	}
	if sev == "MAJOR" {
		return 8
	}
	return 12
}

// Score tracks technician performance over a run.
type Score struct {
	Correct   int    `json:"correct"`
	Incorrect int    `json:"incorrect"`
	Accuracy  int    `json:"accuracy"`
	Grade     string `json:"grade"`
}

// NewScore returns an empty score. The grade reads "-" until the first result.
func NewScore() Score {
	return Score{Grade: "-"}
}

// Record counts one result and refreshes accuracy and grade.
func (s *Score) Record(r models.Result) {
	if r == models.ResultCorrect {
		s.Correct++
	} else {
		s.Incorrect++
	}
	total := s.Correct + s.Incorrect
	s.Accuracy = s.Correct * 100 / total
	s.Grade = Grade(s.Accuracy)
}

// Grade maps an accuracy percentage to a letter.
func Grade(accuracy int) string {
	switch {
	case accuracy >= 90:
		return "A"
	case accuracy >= 80:
		return "B"
	case accuracy >= 70:
		return "C"
	default:
		return "D"
	}
}
