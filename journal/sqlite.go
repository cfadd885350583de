package journal

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"
)

type SQLite struct {
	db *sql.DB
	sq squirrel.StatementBuilderType
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLite{
		db: db,
		sq: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}, nil
}

var tradeColumns = []string{
	"run_id", "trade_id", "instrument", "side", "units", "margin",
	"entry_price", "exit_price", "stop_loss", "open_time", "close_time",
	"realized_pl", "balance", "reason",
}

var equityColumns = []string{
	"run_id", "time", "balance", "equity", "margin_used", "free_margin",
}

var runColumns = []string{
	"run_id", "created", "timeframe", "dataset", "instrument", "strategy", "config",
	"leverage", "margin_ratio", "spread", "stop_policy", "trigger_mode",
	"start_time", "end_time", "trades", "wins", "losses", "skipped",
	"start_balance", "end_balance", "net_pl", "return_pct", "win_rate",
	"profit_factor", "max_dd_pct", "git_commit", "org_path", "notes",
}

func (j *SQLite) RecordTrade(t TradeRecord) error {
	_, err := j.sq.
		Insert("trades").
		Columns(tradeColumns...).
		Values(
			t.RunID, t.TradeID, t.Instrument, t.Side, t.Units, t.Margin,
			t.EntryPrice, t.ExitPrice, t.StopLoss, t.OpenTime.UTC(), t.CloseTime.UTC(),
			t.RealizedPL, t.Balance, t.Reason,
		).
		RunWith(j.db).
		Exec()
	if err != nil {
		return fmt.Errorf("insert trade %s: %w", t.TradeID, err)
	}
	return nil
}

func (j *SQLite) RecordEquity(e EquitySnapshot) error {
	_, err := j.sq.
		Insert("equity").
		Columns(equityColumns...).
		Values(e.RunID, e.Time.UTC(), e.Balance, e.Equity, e.MarginUsed, e.FreeMargin).
		RunWith(j.db).
		Exec()
	if err != nil {
		return fmt.Errorf("insert equity: %w", err)
	}
	return nil
}

// RecordBacktest stores a run summary, replacing any earlier row for the
// same run ID.
func (j *SQLite) RecordBacktest(ctx context.Context, r BacktestRun) error {
	_, err := j.sq.
		Insert("backtest_runs").
		Options("OR REPLACE").
		Columns(runColumns...).
		Values(
			r.RunID, r.Created.UTC(), r.Timeframe, r.Dataset, r.Instrument, r.Strategy, r.Config,
			r.Leverage, r.MarginRatio, r.Spread, r.StopPolicy, r.Trigger,
			r.Start.UTC(), r.End.UTC(), r.Trades, r.Wins, r.Losses, r.Skipped,
			r.StartBalance, r.EndBalance, r.NetPL, r.ReturnPct, r.WinRate,
			r.ProfitFactor, r.MaxDDPct, r.GitCommit, r.OrgPath, strings.Join(r.Notes, "\n"),
		).
		RunWith(j.db).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("insert backtest run %s: %w", r.RunID, err)
	}
	return nil
}

func (j *SQLite) GetBacktestRun(ctx context.Context, runID string) (BacktestRun, error) {
	row := j.sq.
		Select(runColumns...).
		From("backtest_runs").
		Where(squirrel.Eq{"run_id": runID}).
		RunWith(j.db).
		QueryRowContext(ctx)

	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return BacktestRun{}, fmt.Errorf("backtest run %q not found", runID)
	}
	return r, err
}

// ListBacktestRuns returns the most recent runs first. limit <= 0 returns all.
func (j *SQLite) ListBacktestRuns(ctx context.Context, limit int) ([]BacktestRun, error) {
	q := j.sq.
		Select(runColumns...).
		From("backtest_runs").
		OrderBy("created DESC", "run_id ASC")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}

	rows, err := q.RunWith(j.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("query backtest runs: %w", err)
	}
	defer rows.Close()

	var out []BacktestRun
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (j *SQLite) ListTradesByRunID(ctx context.Context, runID string) ([]TradeRecord, error) {
	rows, err := j.sq.
		Select(tradeColumns...).
		From("trades").
		Where(squirrel.Eq{"run_id": runID}).
		OrderBy("close_time ASC", "trade_id ASC").
		RunWith(j.db).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("query trades: %w", err)
	}
	defer rows.Close()
	return scanTrades(rows)
}

func (j *SQLite) ListEquityByRunID(ctx context.Context, runID string) ([]EquitySnapshot, error) {
	rows, err := j.sq.
		Select(equityColumns...).
		From("equity").
		Where(squirrel.Eq{"run_id": runID}).
		OrderBy("time ASC", "rowid ASC").
		RunWith(j.db).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("query equity: %w", err)
	}
	defer rows.Close()
	return scanEquity(rows)
}

// ExportBacktestOrg loads a run with its trades and returns the Org block.
func (j *SQLite) ExportBacktestOrg(ctx context.Context, runID string) (string, error) {
	r, err := j.GetBacktestRun(ctx, runID)
	if err != nil {
		return "", err
	}
	trades, err := j.ListTradesByRunID(ctx, runID)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := r.RenderOrg(&buf); err != nil {
		return "", err
	}
	if len(trades) > 0 {
		buf.WriteString("\n** Trades\n")
		buf.WriteString(FormatTradesOrg(trades))
	}
	return buf.String(), nil
}

func (j *SQLite) Close() error {
	return j.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (BacktestRun, error) {
	var (
		r     BacktestRun
		notes string
	)
	err := s.Scan(
		&r.RunID, &r.Created, &r.Timeframe, &r.Dataset, &r.Instrument, &r.Strategy, &r.Config,
		&r.Leverage, &r.MarginRatio, &r.Spread, &r.StopPolicy, &r.Trigger,
		&r.Start, &r.End, &r.Trades, &r.Wins, &r.Losses, &r.Skipped,
		&r.StartBalance, &r.EndBalance, &r.NetPL, &r.ReturnPct, &r.WinRate,
		&r.ProfitFactor, &r.MaxDDPct, &r.GitCommit, &r.OrgPath, &notes,
	)
	if err != nil {
		return BacktestRun{}, err
	}
	if notes != "" {
		r.Notes = strings.Split(notes, "\n")
	}
	return r, nil
}

func scanTrades(rows *sql.Rows) ([]TradeRecord, error) {
	var out []TradeRecord
	for rows.Next() {
		var rec TradeRecord
		if err := rows.Scan(
			&rec.RunID,
			&rec.TradeID,
			&rec.Instrument,
			&rec.Side,
			&rec.Units,
			&rec.Margin,
			&rec.EntryPrice,
			&rec.ExitPrice,
			&rec.StopLoss,
			&rec.OpenTime,
			&rec.CloseTime,
			&rec.RealizedPL,
			&rec.Balance,
			&rec.Reason,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func scanEquity(rows *sql.Rows) ([]EquitySnapshot, error) {
	var out []EquitySnapshot
	for rows.Next() {
		var e EquitySnapshot
		if err := rows.Scan(&e.RunID, &e.Time, &e.Balance, &e.Equity, &e.MarginUsed, &e.FreeMargin); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
