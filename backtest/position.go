package backtest

import (
	"time"

	"github.com/rustyeddy/bandtrader/market"
	"github.com/rustyeddy/bandtrader/sim"
)

// Account is the running balance. Margin of an open position is carved out
// of Balance at open and handed back at close.
type Account struct {
	Balance     float64
	Leverage    float64
	MarginRatio float64
}

// Position is the single open position. The engine holds it as *Position;
// nil means flat.
type Position struct {
	ID         string
	Side       market.Side
	EntryPrice float64 // spread-adjusted fill
	StopLoss   float64
	Margin     float64
	Units      float64
	EntryTime  time.Time
	EntryIndex int
}

// PnL is the profit of closing p at exit.
func (p *Position) PnL(exit float64) float64 {
	return sim.PnL(p.Side, p.EntryPrice, exit, p.Units)
}

const (
	ReasonStopLoss   = "stop-loss"
	ReasonTakeProfit = "take-profit"
)

// Trade is one closed position.
type Trade struct {
	ID         string
	Side       market.Side
	EntryPrice float64
	ExitPrice  float64
	StopLoss   float64
	Units      float64
	Margin     float64
	PnL        float64
	Reason     string
	EntryTime  time.Time
	ExitTime   time.Time
	EntryIndex int
	ExitIndex  int
}

// Result is the outcome of a run.
type Result struct {
	FinalBalance   float64
	TotalPnL       float64
	TradeCount     int
	PnLs           []float64
	Trades         []Trade
	BalanceHistory []float64 // balance after each close
	Skipped        int       // entries refused by the margin guard

	// Start and End are the times of the first and last bar processed.
	Start time.Time
	End   time.Time

	// Open is the position still held when the bars ran out, if any.
	// Its margin is not part of FinalBalance.
	Open *Position
}
