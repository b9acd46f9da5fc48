package report

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fentz26/faultdrill/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEvent() Event {
	return Event{
		Timestamp:          "2026-02-09 00:13:12",
		Fault:              "E-stop Triggered",
		Severity:           models.SeverityCritical,
		Result:             models.ResultIncorrect,
		Escalation:         models.EscalationSafety,
		Resolution:         "Incorrect Action: Bypass E-stop (unsafe) → Escalation Required",
		RepairTimeMin:      12,
		TotalRepairTimeMin: 19,
		TotalDowntimeSec:   4,
		AccuracyPct:        50,
		Grade:              "D",
		SiteStatus:         models.SiteNormal,
	}
}

func TestFaultLogLine(t *testing.T) {
	want := "2026-02-09 00:13:12 | E-stop Triggered (Critical) | INCORRECT | AUTO ESCALATE: SAFETY / SUPERVISOR | " +
		"Incorrect Action: Bypass E-stop (unsafe) → Escalation Required | Time: 12 min"
	assert.Equal(t, want, FaultLogLine(sampleEvent()))
}

func TestAppendFaultLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "fault_log.txt")

	require.NoError(t, AppendFaultLog(path, sampleEvent()))
	second := sampleEvent()
	second.Fault = "Power Surge"
	require.NoError(t, AppendFaultLog(path, second))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "Power Surge (Critical)")
}

func TestWriteHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fault_history.csv")
	withDoc := sampleEvent()
	withDoc.WorkOrderFile = "work_orders/work_order_WO-000001_2026-02-09_00-13-12.txt"

	require.NoError(t, WriteHistory(path, []Event{withDoc, sampleEvent()}))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	require.Len(t, rows, 3)
	assert.Equal(t, HistoryColumns, rows[0])
	assert.Len(t, rows[1], 13)
	assert.Equal(t, "12", rows[1][6])
	assert.Equal(t, "50", rows[1][9])
	assert.Equal(t, withDoc.WorkOrderFile, rows[1][12])
	assert.Equal(t, "", rows[2][12])
}

func TestWriteHistoryEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fault_history.csv")
	require.NoError(t, WriteHistory(path, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, strings.Join(HistoryColumns, ",")+"\n", string(data))
}

func TestWriteSummary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report_summary.txt")
	s := Summary{
		FaultCounts:       []FaultCount{{"Motor Overload", 2}, {"Power Surge", 0}},
		TotalRepairMin:    19,
		TotalDowntimeSec:  11,
		Correct:           1,
		Incorrect:         1,
		Accuracy:          50,
		Grade:             "D",
		SafetyEscalations: 1,
		CriticalWrong:     1,
		SLABreaches:       0,
		HighSLABreaches:   0,
		SiteStatus:        models.SiteNormal,
	}
	require.NoError(t, WriteSummary(path, s))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.True(t, strings.HasPrefix(out, "End-of-Day Fault Simulation Report\n"+strings.Repeat("=", 60)+"\n"))
	assert.Contains(t, out, "Fault Count:\nMotor Overload: 2 occurrences\nPower Surge: 0 occurrences\n\nTotals:")
	assert.Contains(t, out, "Total downtime (between faults): 11 seconds")
	assert.Contains(t, out, "Accuracy: 50%\nGrade: D")
	assert.Contains(t, out, "Site status: NORMAL")
	assert.True(t, strings.HasSuffix(out, "End of Report\n"))
}
