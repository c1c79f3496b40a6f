package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rustyeddy/cfdsim/config"
	"github.com/rustyeddy/cfdsim/journal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBars = `date,price,signal
2024-01-02,100,long
2024-01-03,102,long
2024-01-04,104,flat
2024-01-05,103,short
2024-01-08,99,short
2024-01-09,98,flat
`

func TestDayBounds(t *testing.T) {
	t.Parallel()

	start, end, err := dayBounds(time.UTC, "2024-01-15")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC), end)

	_, _, err = dayBounds(time.UTC, "15/01/2024")
	assert.Error(t, err)
}

// writeFixture lays out a config and bars file journaling to SQLite in dir.
func writeFixture(t *testing.T, dir string) (cfgPath, dbPath string) {
	t.Helper()

	barsPath := filepath.Join(dir, "bars.csv")
	require.NoError(t, os.WriteFile(barsPath, []byte(testBars), 0o644))

	dbPath = filepath.Join(dir, "runs.sqlite")
	cfg := config.Default()
	cfg.Data.BarsFile = barsPath
	cfg.Journal.DBPath = dbPath
	cfg.Log.Level = "error"
	cfg.Sweep.Leverages = []float64{2, 5}
	cfg.Sweep.StopOutLevels = []float64{0.25}

	cfgPath = filepath.Join(dir, "simulation.yaml")
	require.NoError(t, cfg.SaveToFile(cfgPath))
	return cfgPath, dbPath
}

// The commands share package-level flag state, so these run serially.

func TestRunCommand(t *testing.T) {
	dir := t.TempDir()
	cfgPath, dbPath := writeFixture(t, dir)
	history := filepath.Join(dir, "history.csv")
	org := filepath.Join(dir, "run.org")
	prom := filepath.Join(dir, "cfdsim.prom")

	rootCmd.SetArgs([]string{"run", "-f", cfgPath, "--history", history, "--org", org, "--metrics", prom})
	require.NoError(t, rootCmd.Execute())

	for _, p := range []string{history, org, prom} {
		info, err := os.Stat(p)
		require.NoError(t, err, p)
		assert.NotZero(t, info.Size(), p)
	}

	j, err := journal.NewSQLite(dbPath)
	require.NoError(t, err)
	defer j.Close()

	runs, err := j.ListRuns(context.Background())
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 6, runs[0].Bars)
	assert.Equal(t, "bars.csv", runs[0].Dataset)

	trades, err := j.ListTradesByRun(context.Background(), runs[0].RunID)
	require.NoError(t, err)
	assert.Len(t, trades, runs[0].Trades)

	curve, err := j.ListEquityByRun(context.Background(), runs[0].RunID)
	require.NoError(t, err)
	assert.Len(t, curve, 6)
}

func TestSweepCommandRecords(t *testing.T) {
	dir := t.TempDir()
	cfgPath, dbPath := writeFixture(t, dir)

	rootCmd.SetArgs([]string{"sweep", "-f", cfgPath, "--workers", "2", "--record"})
	require.NoError(t, rootCmd.Execute())

	j, err := journal.NewSQLite(dbPath)
	require.NoError(t, err)
	defer j.Close()

	runs, err := j.ListRuns(context.Background())
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestRunCommandMissingBars(t *testing.T) {
	dir := t.TempDir()
	cfgPath, _ := writeFixture(t, dir)

	rootCmd.SetArgs([]string{"run", "-f", cfgPath, "--bars", filepath.Join(dir, "nope.csv")})
	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load bars")
}
