package strategies

import (
	"fmt"
	"strings"

	"github.com/rustyeddy/bandtrader/market"
)

// Strategy answers the four entry/exit questions for one enriched bar.
// Implementations are pure: the same bar always yields the same answers.
type Strategy interface {
	Name() string
	LongEntry(b market.Bar) bool
	ShortEntry(b market.Bar) bool
	LongExit(b market.Bar) bool
	ShortExit(b market.Bar) bool
}

// Config selects and parameterizes a strategy by name.
type Config struct {
	Name       string
	Oversold   float64
	Overbought float64

	// Target is "mid", "lagged-mid" or "band".
	Target       string
	TargetOffset float64

	// TrendFilter enables the fast/slow moving average filter.
	TrendFilter bool
}

func DefaultConfig() Config {
	return Config{
		Name:       "band-reversion",
		Oversold:   30,
		Overbought: 70,
		Target:     "mid",
	}
}

// ByName builds the strategy described by cfg.
func ByName(cfg Config) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Name)) {
	case "noop", "none":
		return NoopStrategy{}, nil

	case "band-reversion", "bandreversion", "rsi-bb":
		target, err := TargetByName(cfg.Target, cfg.TargetOffset)
		if err != nil {
			return nil, err
		}
		br := &BandReversion{
			Oversold:   cfg.Oversold,
			Overbought: cfg.Overbought,
			Target:     target,
		}
		if cfg.TrendFilter {
			br.Trend = SMATrend{}
		}
		if err := br.Validate(); err != nil {
			return nil, err
		}
		return br, nil

	default:
		return nil, fmt.Errorf("unknown strategy %q (supported: band-reversion, noop)", cfg.Name)
	}
}

func crossesUp(prev, cur, level float64) bool {
	return prev < level && cur > level
}

func crossesDown(prev, cur, level float64) bool {
	return prev > level && cur < level
}
