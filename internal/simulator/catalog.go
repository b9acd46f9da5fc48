package simulator

import (
	"math/rand"

	"github.com/fentz26/faultdrill/internal/connectors"
	"github.com/fentz26/faultdrill/internal/models"
)

// Fault is one entry of the fault catalog.
type Fault struct {
	Name       string            `yaml:"name" json:"name"`
	Severities []models.Severity `yaml:"severities" json:"severities"`
}

const (
	minor    = models.SeverityMinor
	major    = models.SeverityMajor
	critical = models.SeverityCritical
)

// Catalog lists the faults a run can draw, in report order.
var Catalog = []Fault{
	{Name: "Motor Overload", Severities: []models.Severity{minor, major, critical}},
	{Name: "Sensor Failure", Severities: []models.Severity{minor, major, critical}},
	{Name: "E-stop Triggered", Severities: []models.Severity{critical}},
	{Name: "Power Outage", Severities: []models.Severity{major, critical}},
	{Name: "Communication Error", Severities: []models.Severity{minor, major}},
	{Name: "Motor Stalling", Severities: []models.Severity{major, critical}},
	{Name: "Sensor Calibration Error", Severities: []models.Severity{major}},
	{Name: "Power Surge", Severities: []models.Severity{critical}},
}

var menus = map[string][]connectors.Action{
	"Motor Overload": {
		{Text: "Reset overload relay and restart motor", Correct: true},
		{Text: "Ignore fault and continue running"},
		{Text: "Replace sensor (incorrect)"},
	},
	"Sensor Failure": {
		{Text: "Check wiring and replace sensor", Correct: true},
		{Text: "Restart motor (incorrect)"},
		{Text: "Ignore alarm"},
	},
	"E-stop Triggered": {
		{Text: "Inspect safety circuit and reset E-stop", Correct: true},
		{Text: "Bypass E-stop (unsafe)"},
		{Text: "Ignore alarm"},
	},
	"Power Outage": {
		{Text: "Verify power supply and restore service", Correct: true},
		{Text: "Replace sensor (incorrect)"},
		{Text: "Ignore outage"},
	},
	"Communication Error": {
		{Text: "Check network connection and reboot equipment", Correct: true},
		{Text: "Replace motor (incorrect)"},
		{Text: "Ignore fault"},
	},
	"Motor Stalling": {
		{Text: "Diagnose load/binding and reset motor", Correct: true},
		{Text: "Ignore stall"},
		{Text: "Replace sensor (incorrect)"},
	},
	"Sensor Calibration Error": {
		{Text: "Recalibrate sensor and validate readings", Correct: true},
		{Text: "Restart PLC blindly"},
		{Text: "Ignore fault"},
	},
	"Power Surge": {
		{Text: "Check UPS/power source and stabilize equipment", Correct: true},
		{Text: "Ignore surge"},
		{Text: "Replace sensor (incorrect)"},
	},
}

var genericMenu = []connectors.Action{
	{Text: "Perform standard troubleshooting steps", Correct: true},
	{Text: "Ignore fault"},
	{Text: "Replace random part (incorrect)"},
}

// Menu returns the technician actions offered for fault. Unknown faults get
// a generic troubleshooting menu. The returned slice is a copy.
func Menu(fault string) []connectors.Action {
	src, ok := menus[fault]
	if !ok {
		src = genericMenu
	}
	return append([]connectors.Action(nil), src...)
}

// Draw picks a fault uniformly from catalog, then one of its severities.
func Draw(rng *rand.Rand, catalog []Fault) (string, models.Severity) {
	f := catalog[rng.Intn(len(catalog))]
	return f.Name, f.Severities[rng.Intn(len(f.Severities))]
}
