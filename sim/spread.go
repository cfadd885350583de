package sim

import "github.com/rustyeddy/bandtrader/market"

// Price is a two-sided quote around a signal price.
type Price struct {
	Bid float64
	Ask float64
}

func (p Price) Mid() float64 {
	return (p.Bid + p.Ask) / 2
}

// Spread is a fixed bid/ask width in price units. The signal price is the
// midpoint; buys fill on the ask and sells on the bid.
type Spread struct {
	Width float64
}

// Half is the distance from the mid to either side of the quote.
func (s Spread) Half() float64 {
	return s.Width / 2
}

func (s Spread) Quote(signal float64) Price {
	return Price{
		Bid: signal - s.Half(),
		Ask: signal + s.Half(),
	}
}

// ExecutionPrice is the fill for a market order at signal. Long entries and
// short exits buy at the ask; short entries and long exits sell at the bid.
func (s Spread) ExecutionPrice(signal float64, side market.Side, leg market.Leg) float64 {
	q := s.Quote(signal)
	if market.Buys(side, leg) {
		return q.Ask
	}
	return q.Bid
}
