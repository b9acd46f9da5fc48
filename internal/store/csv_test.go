package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fentz26/faultdrill/internal/models"
)

func newTestCSV(t *testing.T) *CSVStore {
	t.Helper()
	return NewCSV(filepath.Join(t.TempDir(), "work_orders.csv"))
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

func TestCSVScanMissingFile(t *testing.T) {
	s := newTestCSV(t)

	orders, err := s.ScanAll(context.Background())
	if err != nil {
		t.Fatalf("ScanAll failed: %v", err)
	}
	if len(orders) != 0 {
		t.Errorf("Expected no orders, got %d", len(orders))
	}
	if _, err := os.Stat(s.Path()); !os.IsNotExist(err) {
		t.Error("ScanAll should not create the file")
	}
}

func TestCSVEnsureSchemaCreatesHeader(t *testing.T) {
	s := newTestCSV(t)

	if err := s.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema failed: %v", err)
	}
	lines := readLines(t, s.Path())
	if len(lines) != 1 || lines[0] != strings.Join(Columns, ",") {
		t.Errorf("Unexpected file contents: %q", lines)
	}
}

func TestCSVEnsureSchemaEmptyFile(t *testing.T) {
	s := newTestCSV(t)
	if err := os.WriteFile(s.Path(), nil, 0644); err != nil {
		t.Fatal(err)
	}

	if err := s.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema failed: %v", err)
	}
	lines := readLines(t, s.Path())
	if lines[0] != strings.Join(Columns, ",") {
		t.Errorf("Expected canonical header, got %q", lines[0])
	}
}

func TestCSVAppendAndScan(t *testing.T) {
	s := newTestCSV(t)
	ctx := context.Background()

	want := sampleOrder("WO-000001")
	want.CloseoutNotes = "replaced seal, \"tested\""
	if err := s.Append(ctx, want); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := s.Append(ctx, sampleOrder("WO-000002")); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	orders, err := s.ScanAll(ctx)
	if err != nil {
		t.Fatalf("ScanAll failed: %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("Expected 2 orders, got %d", len(orders))
	}
	if orders[0] != want {
		t.Errorf("Round trip mismatch:\n got %+v\nwant %+v", orders[0], want)
	}
	if orders[1].ID != "WO-000002" {
		t.Errorf("Expected file order, got %s second", orders[1].ID)
	}
}

func TestCSVUpdate(t *testing.T) {
	s := newTestCSV(t)
	ctx := context.Background()

	s.Append(ctx, sampleOrder("WO-000001"))
	s.Append(ctx, sampleOrder("WO-000002"))

	ok, err := s.Update(ctx, "WO-000002", Fields{
		ColStatus:       "BREACHED",
		ColBreachReason: "SLA exceeded (AGE 20m > SLA 15m)",
		"Unknown":       "dropped",
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if !ok {
		t.Fatal("Expected update to find WO-000002")
	}

	orders, _ := s.ScanAll(ctx)
	if orders[0].Status != models.StatusOpen {
		t.Errorf("First order should be untouched, got %s", orders[0].Status)
	}
	if orders[1].Status != models.StatusBreached {
		t.Errorf("Expected BREACHED, got %s", orders[1].Status)
	}
	if orders[1].BreachReason != "SLA exceeded (AGE 20m > SLA 15m)" {
		t.Errorf("Unexpected breach reason %q", orders[1].BreachReason)
	}

	ok, err = s.Update(ctx, "WO-404", Fields{ColStatus: "CLOSED"})
	if err != nil || ok {
		t.Errorf("Expected (false, nil) for a missing order, got (%v, %v)", ok, err)
	}
}

func TestCSVUpdateKeepsUnparseableCells(t *testing.T) {
	s := newTestCSV(t)
	ctx := context.Background()

	header := strings.Join(Columns, ",")
	row := "WO-000001,2026-02-09 00:13:12,Overheat,Major,MEDIUM,OPEN,soon,CORRECT,None,NORMAL,Cool down,n/a,,,,,"
	if err := os.WriteFile(s.Path(), []byte(header+"\n"+row+"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Update(ctx, "WO-000001", Fields{ColStatus: "IN_PROGRESS"}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	lines := readLines(t, s.Path())
	if !strings.Contains(lines[1], ",soon,") || !strings.Contains(lines[1], ",n/a,") {
		t.Errorf("Expected raw cells preserved, got %q", lines[1])
	}

	orders, _ := s.ScanAll(ctx)
	if orders[0].SLAMinutes != models.SLAUnbounded {
		t.Errorf("Expected unparseable SLA to decode unbounded, got %d", orders[0].SLAMinutes)
	}
	if orders[0].RepairTimeMin != 0 {
		t.Errorf("Expected unparseable repair time to decode 0, got %d", orders[0].RepairTimeMin)
	}
}

func TestCSVMigratesLegacyHeader(t *testing.T) {
	s := newTestCSV(t)
	ctx := context.Background()

	legacy := "WO_ID,Created_Timestamp,Fault,Severity,Priority,Status,SLA_Minutes,Retired\n" +
		"WO-000001,2026-02-09 00:13:12,Overheat,Major,MEDIUM,OPEN,60,gone\n" +
		"WO-000002,2026-02-09 00:20:00,Belt slip\n"
	if err := os.WriteFile(s.Path(), []byte(legacy), 0644); err != nil {
		t.Fatal(err)
	}

	if err := s.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema failed: %v", err)
	}

	lines := readLines(t, s.Path())
	if len(lines) != 3 {
		t.Fatalf("Expected header plus 2 rows, got %d lines", len(lines))
	}
	if lines[0] != strings.Join(Columns, ",") {
		t.Errorf("Expected canonical header, got %q", lines[0])
	}
	if strings.Contains(lines[1], "gone") {
		t.Errorf("Dropped column leaked into %q", lines[1])
	}

	orders, _ := s.ScanAll(ctx)
	if orders[0].SLAMinutes != 60 || orders[0].Priority != models.PriorityMedium {
		t.Errorf("Unexpected migrated row: %+v", orders[0])
	}
	if orders[1].Fault != "Belt slip" || orders[1].Status != "" {
		t.Errorf("Expected short row padded with blanks, got %+v", orders[1])
	}

	before, _ := os.ReadFile(s.Path())
	if err := s.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema rerun failed: %v", err)
	}
	after, _ := os.ReadFile(s.Path())
	if string(before) != string(after) {
		t.Error("Expected EnsureSchema rerun to leave the file unchanged")
	}
}
