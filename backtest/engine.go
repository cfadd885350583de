// Package backtest replays enriched bars through a single-position
// long/short state machine with margin accounting.
package backtest

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/rustyeddy/bandtrader/internal/id"
	"github.com/rustyeddy/bandtrader/journal"
	"github.com/rustyeddy/bandtrader/market"
	"github.com/rustyeddy/bandtrader/risk"
	"github.com/rustyeddy/bandtrader/sim"
	"github.com/rustyeddy/bandtrader/strategies"
)

// Engine runs one backtest. It is single-threaded. Repeated calls to Run
// continue the same run: balance, position, trade log and bar indexes carry
// over, and Result.Start stays at the first bar ever processed.
//
// Per bar, in order:
//   - flat: evaluate short entry, then long entry; open at the spread-adjusted
//     close if one fires and the margin guard allows it
//   - open: test the stop first, then the strategy exit; close if either hits
//
// A bar causes at most one transition, so the bar that closes a position
// never opens the next one.
type Engine struct {
	cfg     Config
	log     zerolog.Logger
	journal journal.Journal
	ids     *id.Generator

	target strategies.Targeter // nil when the strategy has no take-profit level

	acct Account
	pos  *Position
	res  Result
	seen int // bars processed across all Run calls
}

func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("backtest config: %w", err)
	}
	j := cfg.Journal
	if j == nil {
		j = journal.Nop{}
	}
	e := &Engine{
		cfg:     cfg,
		log:     cfg.Logger.With().Str("component", "backtest").Logger(),
		journal: j,
		ids:     id.NewGenerator(cfg.Seed),
		acct: Account{
			Balance:     cfg.StartingBalance,
			Leverage:    cfg.Leverage,
			MarginRatio: cfg.MarginRatio,
		},
	}
	if t, ok := cfg.Strategy.(strategies.Targeter); ok {
		e.target = t
	} else if cfg.MinRR > 0 {
		e.log.Warn().
			Str("strategy", cfg.Strategy.Name()).
			Float64("min_rr", cfg.MinRR).
			Msg("strategy has no take-profit level, min RR ignored")
	}
	return e, nil
}

// Run is a convenience for NewEngine(cfg) followed by Engine.Run.
func Run(ctx context.Context, cfg Config, bars []market.Bar) (Result, error) {
	e, err := NewEngine(cfg)
	if err != nil {
		return Result{}, err
	}
	return e.Run(ctx, bars)
}

// Run folds bars left to right. ctx is checked before every bar; on
// cancellation the partial result is returned with ctx.Err(). Journal errors
// abort the run.
func (e *Engine) Run(ctx context.Context, bars []market.Bar) (Result, error) {
	for _, b := range bars {
		if err := ctx.Err(); err != nil {
			return e.result(), err
		}
		i := e.seen
		e.seen++
		if i == 0 {
			e.res.Start = b.Time
		}
		e.res.End = b.Time

		var err error
		if e.pos != nil {
			err = e.manage(i, b)
		} else {
			err = e.maybeOpen(i, b)
		}
		if err != nil {
			return e.result(), err
		}

		if e.cfg.Progress != nil {
			e.cfg.Progress(e.seen)
		}
	}
	return e.result(), nil
}

func (e *Engine) result() Result {
	r := e.res
	r.FinalBalance = e.acct.Balance
	r.TradeCount = len(r.Trades)
	if e.pos != nil {
		p := *e.pos
		r.Open = &p
	}
	return r
}

// Position returns a copy of the open position, or nil when flat.
func (e *Engine) Position() *Position {
	if e.pos == nil {
		return nil
	}
	p := *e.pos
	return &p
}

func (e *Engine) Balance() float64 {
	return e.acct.Balance
}

func (e *Engine) maybeOpen(i int, b market.Bar) error {
	var side market.Side
	switch {
	case e.cfg.Strategy.ShortEntry(b):
		side = market.Short
	case e.cfg.Strategy.LongEntry(b):
		side = market.Long
	default:
		return nil
	}

	entry := e.cfg.Spread.ExecutionPrice(b.Close, side, market.Entry)
	stop := e.cfg.Stop.Stop(side, entry, b, e.cfg.Spread)

	d := risk.Evaluate(risk.Policy{
		MarginRatio: e.acct.MarginRatio,
		Leverage:    e.acct.Leverage,
		MaxRiskPct:  e.cfg.MaxRiskPct,
		MinRR:       e.cfg.MinRR,
	}, risk.TradeIntent{Entry: entry, Stop: stop, TakeProfit: e.takeProfit(side, b)}, e.acct.Balance)
	if !d.Allowed {
		e.res.Skipped++
		e.log.Warn().
			Time("time", b.Time).
			Stringer("side", side).
			Float64("balance", e.acct.Balance).
			Err(d.Error()).
			Msg("insufficient funds, entry skipped")
		return nil
	}

	p := &Position{
		ID:         e.ids.At(b.Time),
		Side:       side,
		EntryPrice: entry,
		StopLoss:   stop,
		Margin:     d.Sizing.Margin,
		Units:      d.Sizing.Units,
		EntryTime:  b.Time,
		EntryIndex: i,
	}
	e.acct.Balance -= p.Margin
	e.pos = p

	e.log.Debug().
		Str("id", p.ID).
		Time("time", b.Time).
		Stringer("side", side).
		Float64("entry", entry).
		Float64("stop", stop).
		Float64("units", p.Units).
		Float64("margin", p.Margin).
		Msg("position opened")

	mark := e.cfg.Spread.ExecutionPrice(b.Close, side, market.Exit)
	return e.recordEquity(b, p.Margin, p.Margin+p.PnL(mark))
}

// takeProfit is the strategy's target level on the entry bar, or 0 when it
// has none.
func (e *Engine) takeProfit(side market.Side, b market.Bar) float64 {
	if e.target == nil {
		return 0
	}
	if level, ok := e.target.TakeProfit(side, b); ok {
		return level
	}
	return 0
}

func (e *Engine) manage(i int, b market.Bar) error {
	p := e.pos

	if exit, hit := e.stopHit(p, b); hit {
		return e.close(i, b, exit, ReasonStopLoss)
	}

	var exitSignal bool
	if p.Side.Sign() > 0 {
		exitSignal = e.cfg.Strategy.LongExit(b)
	} else {
		exitSignal = e.cfg.Strategy.ShortExit(b)
	}
	if exitSignal {
		exit := e.cfg.Spread.ExecutionPrice(b.Close, p.Side, market.Exit)
		return e.close(i, b, exit, ReasonTakeProfit)
	}
	return nil
}

// stopHit reports whether the stop is hit on b and the fill price.
func (e *Engine) stopHit(p *Position, b market.Bar) (float64, bool) {
	switch e.cfg.Trigger {
	case TriggerIntrabar:
		if sim.HitStop(p.Side, sim.AdverseExtreme(p.Side, b.Candle()), p.StopLoss) {
			return p.StopLoss, true
		}
	default:
		exec := e.cfg.Spread.ExecutionPrice(b.Close, p.Side, market.Exit)
		if sim.HitStop(p.Side, exec, p.StopLoss) {
			return exec, true
		}
	}
	return 0, false
}

func (e *Engine) close(i int, b market.Bar, exit float64, reason string) error {
	p := e.pos
	pnl := p.PnL(exit)

	e.acct.Balance += p.Margin
	e.acct.Balance += pnl
	e.pos = nil

	t := Trade{
		ID:         p.ID,
		Side:       p.Side,
		EntryPrice: p.EntryPrice,
		ExitPrice:  exit,
		StopLoss:   p.StopLoss,
		Units:      p.Units,
		Margin:     p.Margin,
		PnL:        pnl,
		Reason:     reason,
		EntryTime:  p.EntryTime,
		ExitTime:   b.Time,
		EntryIndex: p.EntryIndex,
		ExitIndex:  i,
	}
	e.res.Trades = append(e.res.Trades, t)
	e.res.PnLs = append(e.res.PnLs, pnl)
	e.res.TotalPnL += pnl
	e.res.BalanceHistory = append(e.res.BalanceHistory, e.acct.Balance)

	e.log.Info().
		Str("id", t.ID).
		Time("time", b.Time).
		Stringer("side", t.Side).
		Str("reason", reason).
		Float64("entry", t.EntryPrice).
		Float64("exit", exit).
		Float64("pnl", pnl).
		Float64("balance", e.acct.Balance).
		Msg("position closed")

	if err := e.journal.RecordTrade(journal.TradeRecord{
		RunID:      e.cfg.RunID,
		TradeID:    t.ID,
		Instrument: e.cfg.Instrument,
		Side:       t.Side.String(),
		Units:      t.Units,
		Margin:     t.Margin,
		EntryPrice: t.EntryPrice,
		ExitPrice:  t.ExitPrice,
		StopLoss:   t.StopLoss,
		OpenTime:   t.EntryTime,
		CloseTime:  t.ExitTime,
		RealizedPL: pnl,
		Balance:    e.acct.Balance,
		Reason:     reason,
	}); err != nil {
		return fmt.Errorf("journal trade: %w", err)
	}
	return e.recordEquity(b, 0, 0)
}

// recordEquity snapshots the account. positionValue is margin plus
// unrealized PnL of the open position.
func (e *Engine) recordEquity(b market.Bar, marginUsed, positionValue float64) error {
	if err := e.journal.RecordEquity(journal.EquitySnapshot{
		RunID:      e.cfg.RunID,
		Time:       b.Time,
		Balance:    e.acct.Balance,
		Equity:     e.acct.Balance + positionValue,
		MarginUsed: marginUsed,
		FreeMargin: e.acct.Balance,
	}); err != nil {
		return fmt.Errorf("journal equity: %w", err)
	}
	return nil
}
