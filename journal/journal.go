// Package journal records closed trades, balance snapshots and run
// summaries of a backtest.
package journal

import "time"

// TradeRecord is one closed position.
type TradeRecord struct {
	RunID      string
	TradeID    string
	Instrument string
	Side       string // "long" or "short"
	Units      float64
	Margin     float64
	EntryPrice float64
	ExitPrice  float64
	StopLoss   float64
	OpenTime   time.Time
	CloseTime  time.Time
	RealizedPL float64
	Balance    float64 // balance after the close
	Reason     string
}

// EquitySnapshot is the account after an open or a close.
type EquitySnapshot struct {
	RunID      string
	Time       time.Time
	Balance    float64
	Equity     float64
	MarginUsed float64
	FreeMargin float64
}

type Journal interface {
	RecordTrade(TradeRecord) error
	RecordEquity(EquitySnapshot) error
	Close() error
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordTrade(TradeRecord) error     { return nil }
func (Nop) RecordEquity(EquitySnapshot) error { return nil }
func (Nop) Close() error                      { return nil }
