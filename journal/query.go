package journal

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
)

// GetTrade returns a single trade record by ID. When several runs share the
// ID the most recently recorded one wins.
func (j *SQLite) GetTrade(tradeID string) (TradeRecord, error) {
	rows, err := j.sq.
		Select(tradeColumns...).
		From("trades").
		Where(squirrel.Eq{"trade_id": tradeID}).
		OrderBy("rowid DESC").
		Limit(1).
		RunWith(j.db).
		Query()
	if err != nil {
		return TradeRecord{}, err
	}
	defer rows.Close()

	recs, err := scanTrades(rows)
	if err != nil {
		return TradeRecord{}, err
	}
	if len(recs) == 0 {
		return TradeRecord{}, fmt.Errorf("trade %q not found", tradeID)
	}
	return recs[0], nil
}

// ListTradesClosedBetween returns trades whose close_time is within [start, end).
func (j *SQLite) ListTradesClosedBetween(start, end time.Time) ([]TradeRecord, error) {
	rows, err := j.sq.
		Select(tradeColumns...).
		From("trades").
		Where(squirrel.GtOrEq{"close_time": start.UTC()}).
		Where(squirrel.Lt{"close_time": end.UTC()}).
		OrderBy("close_time ASC").
		RunWith(j.db).
		Query()
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTrades(rows)
}

// ListEquityBetween returns snapshots whose time is within [start, end).
func (j *SQLite) ListEquityBetween(start, end time.Time) ([]EquitySnapshot, error) {
	rows, err := j.sq.
		Select(equityColumns...).
		From("equity").
		Where(squirrel.GtOrEq{"time": start.UTC()}).
		Where(squirrel.Lt{"time": end.UTC()}).
		OrderBy("time ASC").
		RunWith(j.db).
		Query()
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEquity(rows)
}

// TradeStats aggregates realized PnL over a run.
type TradeStats struct {
	Trades      int
	GrossProfit float64
	GrossLoss   float64
}

func (s TradeStats) ProfitFactor() float64 {
	if s.GrossLoss == 0 {
		return 0
	}
	return s.GrossProfit / s.GrossLoss
}

func (j *SQLite) RunTradeStats(runID string) (TradeStats, error) {
	var (
		s      TradeStats
		profit sql.NullFloat64
		loss   sql.NullFloat64
	)
	err := j.sq.
		Select(
			"COUNT(*)",
			"SUM(CASE WHEN realized_pl > 0 THEN realized_pl END)",
			"SUM(CASE WHEN realized_pl < 0 THEN -realized_pl END)",
		).
		From("trades").
		Where(squirrel.Eq{"run_id": runID}).
		RunWith(j.db).
		QueryRow().
		Scan(&s.Trades, &profit, &loss)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return TradeStats{}, fmt.Errorf("trade stats: %w", err)
	}
	s.GrossProfit = profit.Float64
	s.GrossLoss = loss.Float64
	return s, nil
}
