package journal

import (
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCSV(t *testing.T) (*CSVJournal, string, string) {
	t.Helper()

	dir := t.TempDir()
	tradesPath := filepath.Join(dir, "trades.csv")
	equityPath := filepath.Join(dir, "equity.csv")

	j, err := NewCSV(tradesPath, equityPath)
	require.NoError(t, err)
	return j, tradesPath, equityPath
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	rows, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestCSVJournalHeaders(t *testing.T) {
	t.Parallel()

	j, tradesPath, equityPath := newTestCSV(t)
	assert.NoError(t, j.Close())

	trades := readCSV(t, tradesPath)
	require.Len(t, trades, 1)
	assert.Equal(t, csvTradeHeader, trades[0])

	equity := readCSV(t, equityPath)
	require.Len(t, equity, 1)
	assert.Equal(t, []string{"run_id", "time", "balance", "equity", "margin_used", "free_margin"}, equity[0])
}

func TestCSVJournalRecordTrade(t *testing.T) {
	t.Parallel()

	j, tradesPath, _ := newTestCSV(t)

	open := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	closeT := time.Date(2024, 1, 2, 4, 5, 6, 0, time.UTC)

	err := j.RecordTrade(TradeRecord{
		RunID:      "R1",
		TradeID:    "T1",
		Instrument: "XAU_USD",
		Side:       "long",
		Units:      0.249981,
		Margin:     25,
		EntryPrice: 2000.15,
		ExitPrice:  1996.1,
		StopLoss:   1996.149,
		OpenTime:   open,
		CloseTime:  closeT,
		RealizedPL: -1.0124,
		Balance:    48.9876,
		Reason:     "stop",
	})
	assert.NoError(t, err)
	assert.NoError(t, j.Close())

	rows := readCSV(t, tradesPath)
	require.Len(t, rows, 2)

	want := []string{
		"R1",
		"T1",
		"XAU_USD",
		"long",
		"0.249981",
		"25.000000",
		"2000.150000",
		"1996.100000",
		"1996.149000",
		open.Format(time.RFC3339),
		closeT.Format(time.RFC3339),
		"-1.012400",
		"48.987600",
		"stop",
	}
	assert.Equal(t, want, rows[1])
}

func TestCSVJournalRecordEquity(t *testing.T) {
	t.Parallel()

	j, _, equityPath := newTestCSV(t)

	ts := time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)

	err := j.RecordEquity(EquitySnapshot{
		RunID:      "R1",
		Time:       ts,
		Balance:    25,
		Equity:     49.7,
		MarginUsed: 25,
		FreeMargin: 25,
	})
	assert.NoError(t, err)
	assert.NoError(t, j.Close())

	rows := readCSV(t, equityPath)
	require.Len(t, rows, 2)

	want := []string{
		"R1",
		ts.Format(time.RFC3339),
		"25.000000",
		"49.700000",
		"25.000000",
		"25.000000",
	}
	assert.Equal(t, want, rows[1])
}

func TestCSVJournalCloseClosesBothFiles(t *testing.T) {
	t.Parallel()

	j, _, _ := newTestCSV(t)
	require.NoError(t, j.tf.Close())

	err := j.Close()
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrClosed))

	// the equity file was closed even though the trades file failed
	assert.True(t, errors.Is(j.ef.Close(), os.ErrClosed))
}

func TestNewCSVBadPath(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	_, err := NewCSV(filepath.Join(dir, "missing", "trades.csv"), filepath.Join(dir, "equity.csv"))
	assert.Error(t, err)

	_, err = NewCSV(filepath.Join(dir, "trades.csv"), filepath.Join(dir, "missing", "equity.csv"))
	assert.Error(t, err)
}

func TestNopJournal(t *testing.T) {
	var j Journal = Nop{}
	assert.NoError(t, j.RecordTrade(TradeRecord{}))
	assert.NoError(t, j.RecordEquity(EquitySnapshot{}))
	assert.NoError(t, j.Close())
}
