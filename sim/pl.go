package sim

import "github.com/rustyeddy/bandtrader/market"

// PnL is the profit of units moved from entry to exit on side, in quote
// currency. Positive is profit.
func PnL(side market.Side, entry, exit, units float64) float64 {
	return side.Sign() * (exit - entry) * units
}
