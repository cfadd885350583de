package backtest

import (
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog"

	"github.com/rustyeddy/bandtrader/journal"
	"github.com/rustyeddy/bandtrader/sim"
	"github.com/rustyeddy/bandtrader/strategies"
)

// Trigger selects how the stop-loss is tested against a bar.
type Trigger int8

const (
	// TriggerOnClose compares the exit execution price at the close (close
	// minus half the spread for longs, plus for shorts) with the stop and
	// fills at that execution price.
	TriggerOnClose Trigger = iota

	// TriggerIntrabar compares the bar low (longs) or high (shorts) with the
	// stop and fills exactly at the stop.
	TriggerIntrabar
)

func (t Trigger) String() string {
	switch t {
	case TriggerOnClose:
		return "close"
	case TriggerIntrabar:
		return "intrabar"
	default:
		return fmt.Sprintf("Trigger(%d)", int8(t))
	}
}

func ParseTrigger(s string) (Trigger, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "close", "on-close":
		return TriggerOnClose, nil
	case "intrabar", "high-low":
		return TriggerIntrabar, nil
	default:
		return 0, fmt.Errorf("unknown trigger %q (supported: close, intrabar)", s)
	}
}

// Config is the immutable engine configuration. It is passed by value.
type Config struct {
	Instrument      string
	StartingBalance float64
	Leverage        float64
	MarginRatio     float64
	Spread          sim.Spread

	Stop     StopPolicy
	Trigger  Trigger
	Strategy strategies.Strategy

	// Optional pre-entry limits; zero disables them.
	MaxRiskPct float64
	MinRR      float64

	// RunID tags journal rows. Seed drives trade ID entropy.
	RunID string
	Seed  int64

	// Journal receives closed trades and balance snapshots. Nil discards.
	Journal journal.Journal

	// Logger defaults to a disabled logger.
	Logger zerolog.Logger

	// Progress, when set, is called after each bar with the number of bars
	// processed so far.
	Progress func(done int)
}

// DefaultConfig returns the reference setup: 50 account units, 20x
// leverage, half the balance committed per trade and a 0.2% stop.
func DefaultConfig() Config {
	return Config{
		Instrument:      "XAU_USD",
		StartingBalance: 50,
		Leverage:        20,
		MarginRatio:     0.5,
		Stop:            FixedPercentStop{Percent: 0.002},
		Trigger:         TriggerOnClose,
		Strategy:        strategies.NewBandReversion(),
		Logger:          zerolog.Nop(),
	}
}

func (c Config) Validate() error {
	if math.IsNaN(c.StartingBalance) || math.IsInf(c.StartingBalance, 0) {
		return fmt.Errorf("starting balance must be finite, got %g", c.StartingBalance)
	}
	if c.Leverage <= 0 {
		return fmt.Errorf("leverage must be positive, got %g", c.Leverage)
	}
	if c.MarginRatio <= 0 || c.MarginRatio > 1 {
		return fmt.Errorf("margin ratio must be in (0, 1], got %g", c.MarginRatio)
	}
	if c.Spread.Width < 0 {
		return fmt.Errorf("spread must not be negative, got %g", c.Spread.Width)
	}
	if c.Stop == nil {
		return fmt.Errorf("stop policy is required")
	}
	if c.Strategy == nil {
		return fmt.Errorf("strategy is required")
	}
	if c.Trigger != TriggerOnClose && c.Trigger != TriggerIntrabar {
		return fmt.Errorf("invalid trigger %s", c.Trigger)
	}
	return nil
}
