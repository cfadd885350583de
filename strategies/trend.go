package strategies

import "github.com/rustyeddy/bandtrader/market"

// TrendFilter vetoes entries against the prevailing trend.
type TrendFilter interface {
	Name() string
	AllowLong(b market.Bar) bool
	AllowShort(b market.Bar) bool
}

// SMATrend admits longs when FastMA >= SlowMA and shorts when FastMA < SlowMA.
// A bar without both averages admits nothing.
type SMATrend struct{}

func (SMATrend) Name() string { return "sma-trend" }

func (SMATrend) AllowLong(b market.Bar) bool {
	fast, slow, ok := movingAverages(b)
	return ok && fast >= slow
}

func (SMATrend) AllowShort(b market.Bar) bool {
	fast, slow, ok := movingAverages(b)
	return ok && fast < slow
}

func movingAverages(b market.Bar) (fast, slow float64, ok bool) {
	if b.FastMA.IsNone() || b.SlowMA.IsNone() {
		return 0, 0, false
	}
	return b.FastMA.Unwrap(), b.SlowMA.Unwrap(), true
}
