package cmd

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	runConfigPath, runDataPath, runFrom, runTo = "", "", "", ""
	runTrigger, runDBPath, runOrgDir = "", "", ""
	runNoProgress = false
	configInitOutput, configValidatePath = "bandtrader.yaml", ""
	journalDBPath, journalLimit = "./bandtrader.sqlite", 20

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

// writeCandles writes a swinging 5 minute series wide enough to cross the
// bands in both directions.
func writeCandles(t *testing.T, n int) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("time,open,high,low,close\n")
	start := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	prev := 2000.0
	for i := 0; i < n; i++ {
		c := 2000 + 15*math.Sin(float64(i)/7) + 4*math.Sin(float64(i)*1.3)
		fmt.Fprintf(&b, "%s,%.2f,%.2f,%.2f,%.2f\n",
			start.Add(time.Duration(i)*5*time.Minute).Format(time.RFC3339),
			prev, math.Max(prev, c)+0.5, math.Min(prev, c)-0.5, c)
		prev = c
	}
	path := filepath.Join(t.TempDir(), "xau_m5.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0644))
	return path
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "bandtrader version "+version)
}

func TestConfigInitValidateSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "xau.yaml")

	out, err := execute(t, "config", "init", "-o", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Created default configuration")

	out, err = execute(t, "config", "validate", "-f", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration valid")
	assert.Contains(t, out, "XAU_USD")

	out, err = execute(t, "config", "schema")
	require.NoError(t, err)
	assert.Contains(t, out, `"margin_ratio"`)
}

func TestRunRequiresData(t *testing.T) {
	_, err := execute(t, "run", "--no-progress")
	assert.ErrorContains(t, err, "no candle file")
}

func TestRunAndJournal(t *testing.T) {
	dir := t.TempDir()
	data := writeCandles(t, 600)
	db := filepath.Join(dir, "runs.sqlite")
	orgDir := filepath.Join(dir, "reports")

	out, err := execute(t, "run", "--no-progress", "--data", data, "--db", db, "--org-dir", orgDir)
	require.NoError(t, err)
	assert.Contains(t, out, "Backtest Result")
	assert.Contains(t, out, "Instrument:    XAU_USD")
	assert.Contains(t, out, "Trigger:       close")
	assert.Contains(t, out, "Timeframe:     M5")
	assert.Contains(t, out, "Dataset:       "+data)

	m := regexp.MustCompile(`Run ID:\s+(\S+)`).FindStringSubmatch(out)
	require.Len(t, m, 2)
	runID := m[1]

	reports, err := filepath.Glob(filepath.Join(orgDir, "*.org"))
	require.NoError(t, err)
	assert.Len(t, reports, 1)

	out, err = execute(t, "journal", "runs", "-d", db)
	require.NoError(t, err)
	assert.Contains(t, out, runID)

	out, err = execute(t, "journal", "show", runID, "-d", db)
	require.NoError(t, err)
	assert.Contains(t, out, "* BACKTEST:")

	out, err = execute(t, "journal", "trades", runID, "-d", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Profit factor:")
}

func TestRunCSVJournal(t *testing.T) {
	dir := t.TempDir()
	data := writeCandles(t, 600)
	trades := filepath.Join(dir, "trades.csv")
	equity := filepath.Join(dir, "equity.csv")
	cfgPath := filepath.Join(dir, "csv.yaml")
	yml := fmt.Sprintf("journal:\n  type: csv\n  trades_file: %s\n  equity_file: %s\n", trades, equity)
	require.NoError(t, os.WriteFile(cfgPath, []byte(yml), 0644))

	out, err := execute(t, "run", "--no-progress", "-c", cfgPath, "--data", data)
	require.NoError(t, err)
	assert.Contains(t, out, "Backtest Result")

	// both files are flushed and closed by the time run returns
	raw, err := os.ReadFile(trades)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "run_id,trade_id,"))

	raw, err = os.ReadFile(equity)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "run_id,time,balance,"))
}

func TestRunBadTrigger(t *testing.T) {
	data := writeCandles(t, 100)
	_, err := execute(t, "run", "--no-progress", "--data", data, "--trigger", "tick")
	assert.ErrorContains(t, err, "invalid config")
}

func TestDayBounds(t *testing.T) {
	start, end, err := dayBounds(time.UTC, "2024-01-15")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, 24*time.Hour, end.Sub(start))

	_, _, err = dayBounds(time.UTC, "15/01/2024")
	assert.Error(t, err)
}
