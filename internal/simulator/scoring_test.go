package simulator

import (
	"math/rand"
	"testing"

	"github.com/fentz26/faultdrill/internal/connectors"
	"github.com/fentz26/faultdrill/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepairMinutes(t *testing.T) {
	tests := []struct {
		severity models.Severity
		correct  bool
		want     int
	}{
		{models.SeverityMinor, true, 2},
		{models.SeverityMajor, true, 5},
		{models.SeverityCritical, true, 7},
		{models.SeverityMinor, false, 12},
		{models.SeverityMajor, false, 8},
		{models.SeverityCritical, false, 12},
		{"major", false, 8},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RepairMinutes(tt.severity, tt.correct), "%s correct=%v", tt.severity, tt.correct)
	}
}

func TestResolve(t *testing.T) {
	ok := Resolve(models.SeverityMajor, connectors.Choice{Action: "Ignore stall", Correct: true})
	assert.Equal(t, Outcome{models.ResultCorrect, "Correct Action: Ignore stall", 5}, ok)

	bad := Resolve(models.SeverityCritical, connectors.Invalid())
	assert.Equal(t, models.ResultIncorrect, bad.Result)
	assert.Equal(t, "Incorrect Action: Invalid choice → No action taken → Escalation Required", bad.Resolution)
	assert.Equal(t, 12, bad.RepairTimeMin)
}

func TestGrade(t *testing.T) {
	for acc, want := range map[int]string{100: "A", 90: "A", 89: "B", 80: "B", 79: "C", 70: "C", 69: "D", 0: "D"} {
		assert.Equal(t, want, Grade(acc), "accuracy %d", acc)
	}
}

func TestScoreRecord(t *testing.T) {
	s := NewScore()
	assert.Equal(t, "-", s.Grade)

	s.Record(models.ResultCorrect)
	s.Record(models.ResultIncorrect)
	s.Record(models.ResultIncorrect)
	assert.Equal(t, Score{Correct: 1, Incorrect: 2, Accuracy: 33, Grade: "D"}, s)
}

func TestMenu(t *testing.T) {
	for _, f := range Catalog {
		menu := Menu(f.Name)
		require.Len(t, menu, 3, f.Name)
		correct := 0
		for _, a := range menu {
			if a.Correct {
				correct++
			}
		}
		assert.Equal(t, 1, correct, f.Name)
	}

	generic := Menu("Hydraulic Leak")
	assert.Equal(t, "Perform standard troubleshooting steps", generic[0].Text)

	generic[0].Text = "changed"
	assert.Equal(t, "Perform standard troubleshooting steps", Menu("Hydraulic Leak")[0].Text)
}

func TestDraw(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	allowed := map[string][]models.Severity{}
	for _, f := range Catalog {
		allowed[f.Name] = f.Severities
	}
	for i := 0; i < 200; i++ {
		name, sev := Draw(rng, Catalog)
		require.Contains(t, allowed, name)
		assert.Contains(t, allowed[name], sev)
	}
}
