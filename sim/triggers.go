package sim

import "github.com/rustyeddy/bandtrader/market"

// HitStop reports whether price has reached stop against side.
func HitStop(side market.Side, price, stop float64) bool {
	if side.Sign() > 0 {
		return price <= stop
	}
	return price >= stop
}

// HitTarget reports whether price has reached target in favour of side.
func HitTarget(side market.Side, price, target float64) bool {
	if side.Sign() > 0 {
		return price >= target
	}
	return price <= target
}

// AdverseExtreme is the bar price that tests a stop for side: the low for
// longs and the high for shorts.
func AdverseExtreme(side market.Side, c market.Candle) float64 {
	if side.Sign() > 0 {
		return c.Low
	}
	return c.High
}
