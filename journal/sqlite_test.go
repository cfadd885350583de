package journal

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) (*SQLite, string) {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")

	j, err := NewSQLite(path)
	require.NoError(t, err)

	return j, path
}

func sampleTrade(runID, tradeID string, closeT time.Time, pl float64) TradeRecord {
	return TradeRecord{
		RunID:      runID,
		TradeID:    tradeID,
		Instrument: "XAU_USD",
		Side:       "short",
		Units:      0.25,
		Margin:     25,
		EntryPrice: 2000.15,
		ExitPrice:  1990.15,
		StopLoss:   2004.15,
		OpenTime:   closeT.Add(-time.Hour),
		CloseTime:  closeT,
		RealizedPL: pl,
		Balance:    50 + pl,
		Reason:     "signal",
	}
}

func TestSQLiteSchemaCreated(t *testing.T) {
	t.Parallel()

	j, path := newTestSQLite(t)
	assert.NoError(t, j.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type='table' AND name IN ('trades','equity','backtest_runs')`)
	require.NoError(t, err)
	defer rows.Close()

	found := map[string]bool{}
	for rows.Next() {
		var name string
		assert.NoError(t, rows.Scan(&name))
		found[name] = true
	}
	assert.NoError(t, rows.Err())

	assert.True(t, found["trades"])
	assert.True(t, found["equity"])
	assert.True(t, found["backtest_runs"])
}

func TestSQLiteReopen(t *testing.T) {
	t.Parallel()

	j, path := newTestSQLite(t)
	closeT := time.Date(2024, 1, 2, 4, 0, 0, 0, time.UTC)
	require.NoError(t, j.RecordTrade(sampleTrade("R1", "T1", closeT, 2.5)))
	require.NoError(t, j.Close())

	j, err := NewSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })

	rec, err := j.GetTrade("T1")
	require.NoError(t, err)
	assert.Equal(t, 2.5, rec.RealizedPL)
}

func TestSQLiteRecordTradeRoundTrip(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	t.Cleanup(func() { _ = j.Close() })

	closeT := time.Date(2024, 1, 2, 4, 5, 6, 0, time.UTC)
	want := sampleTrade("R1", "T1", closeT, 2.5)
	require.NoError(t, j.RecordTrade(want))

	got, err := j.GetTrade("T1")
	require.NoError(t, err)

	assert.True(t, want.OpenTime.Equal(got.OpenTime))
	assert.True(t, want.CloseTime.Equal(got.CloseTime))
	got.OpenTime, got.CloseTime = want.OpenTime, want.CloseTime
	assert.Equal(t, want, got)

	_, err = j.GetTrade("missing")
	assert.ErrorContains(t, err, "not found")
}

func TestSQLiteSameTradeIDAcrossRuns(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	t.Cleanup(func() { _ = j.Close() })

	closeT := time.Date(2024, 1, 2, 4, 0, 0, 0, time.UTC)
	require.NoError(t, j.RecordTrade(sampleTrade("R1", "T1", closeT, 1)))
	require.NoError(t, j.RecordTrade(sampleTrade("R2", "T1", closeT, 2)))

	// duplicate within a run is rejected
	assert.Error(t, j.RecordTrade(sampleTrade("R2", "T1", closeT, 3)))

	got, err := j.GetTrade("T1")
	require.NoError(t, err)
	assert.Equal(t, "R2", got.RunID)
}

func TestSQLiteListTradesByRunID(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	t.Cleanup(func() { _ = j.Close() })
	ctx := context.Background()

	base := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	require.NoError(t, j.RecordTrade(sampleTrade("R1", "B", base.Add(2*time.Hour), 1)))
	require.NoError(t, j.RecordTrade(sampleTrade("R1", "A", base.Add(time.Hour), -1)))
	require.NoError(t, j.RecordTrade(sampleTrade("R2", "C", base.Add(time.Hour), 4)))

	recs, err := j.ListTradesByRunID(ctx, "R1")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "A", recs[0].TradeID)
	assert.Equal(t, "B", recs[1].TradeID)

	recs, err = j.ListTradesByRunID(ctx, "nope")
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestSQLiteListTradesClosedBetween(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	t.Cleanup(func() { _ = j.Close() })

	day := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	require.NoError(t, j.RecordTrade(sampleTrade("R1", "before", day.Add(-time.Minute), 1)))
	require.NoError(t, j.RecordTrade(sampleTrade("R1", "start", day, 1)))
	require.NoError(t, j.RecordTrade(sampleTrade("R1", "mid", day.Add(12*time.Hour), 1)))
	require.NoError(t, j.RecordTrade(sampleTrade("R1", "end", day.Add(24*time.Hour), 1)))

	recs, err := j.ListTradesClosedBetween(day, day.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "start", recs[0].TradeID)
	assert.Equal(t, "mid", recs[1].TradeID)
}

func TestSQLiteEquity(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	t.Cleanup(func() { _ = j.Close() })
	ctx := context.Background()

	t0 := time.Date(2024, 2, 3, 4, 0, 0, 0, time.UTC)
	snaps := []EquitySnapshot{
		{RunID: "R1", Time: t0, Balance: 25, Equity: 49.7, MarginUsed: 25, FreeMargin: 25},
		{RunID: "R1", Time: t0.Add(time.Hour), Balance: 51, Equity: 51, FreeMargin: 51},
		{RunID: "R2", Time: t0.Add(2 * time.Hour), Balance: 10, Equity: 10, FreeMargin: 10},
	}
	for _, s := range snaps {
		require.NoError(t, j.RecordEquity(s))
	}

	got, err := j.ListEquityByRunID(ctx, "R1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 25.0, got[0].MarginUsed)
	assert.Equal(t, 51.0, got[1].Balance)
	assert.True(t, got[1].Time.Equal(t0.Add(time.Hour)))

	got, err = j.ListEquityBetween(t0.Add(time.Hour), t0.Add(3*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "R2", got[1].RunID)
}

func TestSQLiteBacktestRuns(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	t.Cleanup(func() { _ = j.Close() })
	ctx := context.Background()

	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	run := BacktestRun{
		RunID:        NewRunID(),
		Created:      created,
		Timeframe:    "M5",
		Dataset:      "xauusd.tsv",
		Instrument:   "XAU_USD",
		Strategy:     "band-reversion",
		Config:       []byte(`{"leverage":20}`),
		Leverage:     20,
		MarginRatio:  0.5,
		Spread:       0.3,
		StopPolicy:   "fixed 0.2%",
		Trigger:      "close",
		Start:        created.AddDate(0, -1, 0),
		End:          created,
		Trades:       3,
		Wins:         2,
		Losses:       1,
		Skipped:      0,
		StartBalance: 50,
		EndBalance:   53,
		NetPL:        3,
		ReturnPct:    6,
		WinRate:      66.67,
		ProfitFactor: 2.5,
		MaxDDPct:     1.2,
		Notes:        []string{"first", "second"},
	}
	require.NoError(t, j.RecordBacktest(ctx, run))

	got, err := j.GetBacktestRun(ctx, run.RunID)
	require.NoError(t, err)
	assert.True(t, got.Created.Equal(run.Created))
	assert.True(t, got.Start.Equal(run.Start))
	got.Created, got.Start, got.End = run.Created, run.Start, run.End
	assert.Equal(t, run, got)

	// replacing keeps a single row
	run.EndBalance = 60
	require.NoError(t, j.RecordBacktest(ctx, run))

	older := run
	older.RunID = NewRunID()
	older.Created = created.Add(-time.Hour)
	older.Notes = nil
	require.NoError(t, j.RecordBacktest(ctx, older))

	runs, err := j.ListBacktestRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, run.RunID, runs[0].RunID)
	assert.Equal(t, 60.0, runs[0].EndBalance)
	assert.Nil(t, runs[1].Notes)

	runs, err = j.ListBacktestRuns(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, runs, 1)

	_, err = j.GetBacktestRun(ctx, "missing")
	assert.ErrorContains(t, err, "not found")
}

func TestSQLiteExportBacktestOrg(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	t.Cleanup(func() { _ = j.Close() })
	ctx := context.Background()

	run := BacktestRun{RunID: "R1", Strategy: "band-reversion", Instrument: "XAU_USD", Trades: 1}
	require.NoError(t, j.RecordBacktest(ctx, run))
	require.NoError(t, j.RecordTrade(sampleTrade("R1", "T1", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), 5)))

	org, err := j.ExportBacktestOrg(ctx, "R1")
	require.NoError(t, err)
	assert.Contains(t, org, "* BACKTEST: band-reversion XAU_USD")
	assert.Contains(t, org, ":RUN_ID:      R1")
	assert.Contains(t, org, "** Trades")
	assert.Contains(t, org, ":TRADE_ID: T1")

	_, err = j.ExportBacktestOrg(ctx, "R9")
	assert.Error(t, err)
}

func TestSQLiteRunTradeStats(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	t.Cleanup(func() { _ = j.Close() })

	base := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	require.NoError(t, j.RecordTrade(sampleTrade("R1", "A", base, 3)))
	require.NoError(t, j.RecordTrade(sampleTrade("R1", "B", base.Add(time.Hour), 2)))
	require.NoError(t, j.RecordTrade(sampleTrade("R1", "C", base.Add(2*time.Hour), -2)))

	s, err := j.RunTradeStats("R1")
	require.NoError(t, err)
	assert.Equal(t, 3, s.Trades)
	assert.InDelta(t, 5.0, s.GrossProfit, 1e-9)
	assert.InDelta(t, 2.0, s.GrossLoss, 1e-9)
	assert.InDelta(t, 2.5, s.ProfitFactor(), 1e-9)

	s, err = j.RunTradeStats("empty")
	require.NoError(t, err)
	assert.Equal(t, 0, s.Trades)
	assert.Equal(t, 0.0, s.ProfitFactor())
}
