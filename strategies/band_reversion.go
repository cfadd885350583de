package strategies

import (
	"fmt"

	"github.com/rustyeddy/bandtrader/market"
)

// BandReversion fades excursions outside the Bollinger bands once RSI
// confirms the turn.
//
//   - long entry: RSI crosses up through Oversold, the previous close was
//     below the previous lower band and the close is back above the lower band
//   - short entry: the mirror image on Overbought and the upper band
//   - long exit: RSI crosses down through Overbought or close reaches the target
//   - short exit: RSI crosses up through Oversold or close reaches the target
//
// A nil Target uses the Bollinger midline. A nil Trend admits every entry.
type BandReversion struct {
	Oversold   float64
	Overbought float64
	Target     TargetPolicy
	Trend      TrendFilter
}

func NewBandReversion() *BandReversion {
	return &BandReversion{
		Oversold:   30,
		Overbought: 70,
		Target:     MidTarget{},
	}
}

func (s *BandReversion) Validate() error {
	if s.Oversold <= 0 || s.Overbought >= 100 || s.Oversold >= s.Overbought {
		return fmt.Errorf("rsi thresholds must satisfy 0 < oversold < overbought < 100, got %g/%g",
			s.Oversold, s.Overbought)
	}
	return nil
}

func (s *BandReversion) Name() string {
	name := fmt.Sprintf("band-reversion(%g/%g,%s)", s.Oversold, s.Overbought, s.target().Name())
	if s.Trend != nil {
		name += "+" + s.Trend.Name()
	}
	return name
}

func (s *BandReversion) target() TargetPolicy {
	if s.Target == nil {
		return MidTarget{}
	}
	return s.Target
}

func (s *BandReversion) LongEntry(b market.Bar) bool {
	if !crossesUp(b.PrevRSI, b.RSI, s.Oversold) {
		return false
	}
	if !(b.PrevClose < b.PrevBBLower && b.Close > b.BBLower) {
		return false
	}
	return s.Trend == nil || s.Trend.AllowLong(b)
}

func (s *BandReversion) ShortEntry(b market.Bar) bool {
	if !crossesDown(b.PrevRSI, b.RSI, s.Overbought) {
		return false
	}
	if !(b.PrevClose > b.PrevBBUpper && b.Close < b.BBUpper) {
		return false
	}
	return s.Trend == nil || s.Trend.AllowShort(b)
}

func (s *BandReversion) LongExit(b market.Bar) bool {
	if crossesDown(b.PrevRSI, b.RSI, s.Overbought) {
		return true
	}
	target, ok := s.target().Long(b)
	return ok && b.Close >= target
}

func (s *BandReversion) ShortExit(b market.Bar) bool {
	if crossesUp(b.PrevRSI, b.RSI, s.Oversold) {
		return true
	}
	target, ok := s.target().Short(b)
	return ok && b.Close <= target
}

// TakeProfit is the take-profit level for a position of side opened on b.
func (s *BandReversion) TakeProfit(side market.Side, b market.Bar) (float64, bool) {
	if side.Sign() > 0 {
		return s.target().Long(b)
	}
	return s.target().Short(b)
}
