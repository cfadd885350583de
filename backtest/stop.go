package backtest

import (
	"fmt"

	"github.com/rustyeddy/bandtrader/market"
	"github.com/rustyeddy/bandtrader/sim"
)

// StopPolicy fixes the stop-loss of a position when it opens.
type StopPolicy interface {
	Name() string
	Stop(side market.Side, entry float64, b market.Bar, spread sim.Spread) float64
}

// FixedPercentStop sits Percent away from the entry fill.
type FixedPercentStop struct {
	Percent float64
}

func (s FixedPercentStop) Name() string {
	return fmt.Sprintf("fixed %g%%", s.Percent*100)
}

func (s FixedPercentStop) Stop(side market.Side, entry float64, _ market.Bar, _ sim.Spread) float64 {
	return entry * (1 - side.Sign()*s.Percent)
}

// BandStop sits Offset (a fraction) beyond the entry bar's band on the losing
// side, widened by half the spread: below the lower band for longs and above
// the upper band for shorts.
type BandStop struct {
	Offset float64
}

func (s BandStop) Name() string {
	return fmt.Sprintf("band %g%%", s.Offset*100)
}

func (s BandStop) Stop(side market.Side, _ float64, b market.Bar, spread sim.Spread) float64 {
	if side.Sign() > 0 {
		return b.BBLower*(1-s.Offset) - spread.Half()
	}
	return b.BBUpper*(1+s.Offset) + spread.Half()
}
