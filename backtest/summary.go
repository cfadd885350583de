package backtest

import (
	"github.com/shopspring/decimal"

	"github.com/rustyeddy/bandtrader/journal"
)

// Summary is the headline statistics of a run.
type Summary struct {
	StartBalance float64
	EndBalance   float64
	NetPL        float64
	GrossProfit  float64
	GrossLoss    float64 // positive

	Trades  int
	Wins    int
	Losses  int
	Skipped int

	WinRate      float64 // percent of trades with positive PnL
	ProfitFactor float64 // 0 when there are no losses
	ReturnPct    float64
	MaxDDPct     float64 // peak-to-trough over the closed-trade balance curve
}

// Summarize reduces a result. Sums are accumulated in decimal so long runs
// of small PnLs do not drift.
func Summarize(startBalance float64, r Result) Summary {
	s := Summary{
		StartBalance: startBalance,
		EndBalance:   r.FinalBalance,
		Trades:       len(r.PnLs),
		Skipped:      r.Skipped,
	}

	profit, loss := decimal.Zero, decimal.Zero
	for _, pnl := range r.PnLs {
		d := decimal.NewFromFloat(pnl)
		switch {
		case d.IsPositive():
			s.Wins++
			profit = profit.Add(d)
		case d.IsNegative():
			s.Losses++
			loss = loss.Add(d.Neg())
		}
	}
	s.GrossProfit = profit.InexactFloat64()
	s.GrossLoss = loss.InexactFloat64()
	s.NetPL = profit.Sub(loss).InexactFloat64()

	hundred := decimal.NewFromInt(100)
	if s.Trades > 0 {
		s.WinRate = decimal.NewFromInt(int64(s.Wins)).Mul(hundred).
			Div(decimal.NewFromInt(int64(s.Trades))).InexactFloat64()
	}
	if loss.IsPositive() {
		s.ProfitFactor = profit.Div(loss).InexactFloat64()
	}
	if startBalance > 0 {
		start := decimal.NewFromFloat(startBalance)
		s.ReturnPct = decimal.NewFromFloat(r.FinalBalance).Sub(start).
			Div(start).Mul(hundred).InexactFloat64()
	}
	s.MaxDDPct = maxDrawdownPct(startBalance, r.BalanceHistory)
	return s
}

func maxDrawdownPct(start float64, curve []float64) float64 {
	peak := start
	maxDD := 0.0
	for _, v := range curve {
		if v > peak {
			peak = v
		}
		if peak <= 0 {
			continue
		}
		if dd := (peak - v) / peak * 100; dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

// BacktestRun fills the journal row for this run from the summary, the
// engine config and the result's period. Dataset, Timeframe, Config JSON,
// Created and OrgPath are left to the caller.
func (s Summary) BacktestRun(cfg Config, r Result) journal.BacktestRun {
	run := journal.BacktestRun{
		RunID:        cfg.RunID,
		Instrument:   cfg.Instrument,
		Leverage:     cfg.Leverage,
		MarginRatio:  cfg.MarginRatio,
		Spread:       cfg.Spread.Width,
		Trigger:      cfg.Trigger.String(),
		Start:        r.Start,
		End:          r.End,
		Trades:       s.Trades,
		Wins:         s.Wins,
		Losses:       s.Losses,
		Skipped:      s.Skipped,
		StartBalance: s.StartBalance,
		EndBalance:   s.EndBalance,
		NetPL:        s.NetPL,
		ReturnPct:    s.ReturnPct,
		WinRate:      s.WinRate,
		ProfitFactor: s.ProfitFactor,
		MaxDDPct:     s.MaxDDPct,
	}
	if cfg.Strategy != nil {
		run.Strategy = cfg.Strategy.Name()
	}
	if cfg.Stop != nil {
		run.StopPolicy = cfg.Stop.Name()
	}
	if r.Open != nil {
		run.Notes = append(run.Notes, "position still open at end of data: "+r.Open.Side.String()+" "+r.Open.ID)
	}
	return run
}
