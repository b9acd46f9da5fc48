package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fentz26/faultdrill/internal/config"
	"github.com/fentz26/faultdrill/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T, backend string) *config.Config {
	t.Helper()
	c := config.Default()
	c.DataDir = t.TempDir()
	c.Store.Backend = backend
	c.Metrics.Textfile = "metrics/faultdrill.prom"
	require.NoError(t, c.Validate())
	return c
}

func TestOpenAppBackends(t *testing.T) {
	ctx := context.Background()
	for _, backend := range []string{config.BackendCSV, config.BackendSQLite} {
		t.Run(backend, func(t *testing.T) {
			c := testConfig(t, backend)
			a, err := openApp(c)
			require.NoError(t, err)

			ref, err := a.svc.Generate(ctx, models.Incident{
				Fault:      "Power Surge",
				Severity:   models.SeverityCritical,
				Result:     models.ResultIncorrect,
				Escalation: models.EscalationSafety,
			})
			require.NoError(t, err)
			assert.Equal(t, "WO-000001", ref.ID)
			assert.FileExists(t, ref.Document)

			_, err = a.svc.CloseWork(ctx, ref.ID, "reset")
			require.NoError(t, err)

			if backend == config.BackendSQLite {
				require.NotNil(t, a.sqlite)
				records, err := a.sqlite.ListPDR(ctx, ref.ID, 0)
				require.NoError(t, err)
				assert.Len(t, records, 2)
			} else {
				assert.Nil(t, a.sqlite)
				assert.FileExists(t, filepath.Join(c.DataDir, "wo_counter.txt"))
			}

			a.Close()
			assert.FileExists(t, filepath.Join(c.DataDir, "metrics", "faultdrill.prom"))
		})
	}
}

func TestRunScriptedDrill(t *testing.T) {
	c := testConfig(t, config.BackendCSV)
	path := filepath.Join(c.DataDir, "faultdrill.yaml")
	require.NoError(t, config.Save(path, c))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"run", "--config", path, "--technician", "scripted", "--rounds", "3", "--seed", "5", "--no-delay"})
	t.Cleanup(func() { rootCmd.SetArgs(nil); rootCmd.SetOut(nil) })

	require.NoError(t, rootCmd.ExecuteContext(context.Background()))

	assert.Contains(t, out.String(), "FIELD SERVICE FAULT DASHBOARD")
	assert.Contains(t, out.String(), "updated files:")
	report, err := os.ReadFile(filepath.Join(c.DataDir, "report_summary.txt"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(report), "End-of-Day Fault Simulation Report"))
	assert.FileExists(t, filepath.Join(c.DataDir, "fault_history.csv"))
}
