// Package indicators provides technical analysis indicators for trading
package indicators

import "github.com/rustyeddy/bandtrader/market"

// Indicator computes a single streaming value from candles.
// It is deterministic and safe to use in replay and backtests.
type Indicator interface {
	// Name returns a stable identifier like "SMA(20)" or "RSI(13)".
	Name() string

	// Warmup returns how many updates are needed before Ready() can be true.
	Warmup() int

	// Reset clears all internal state.
	Reset()

	// Update consumes the next *closed* candle and updates internal state.
	Update(c market.Candle)

	// Ready reports whether Value() is meaningful (warmup completed).
	Ready() bool
}

type ValueF64 interface {
	// Value returns the current indicator value. If !Ready(), it should return 0
	// (or the last computed value); check Ready() first.
	Value() float64
}

// Series is an Indicator with a single float value.
type Series interface {
	Indicator
	ValueF64
}
