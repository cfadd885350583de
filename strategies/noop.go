package strategies

import "github.com/rustyeddy/bandtrader/market"

// NoopStrategy never signals.
type NoopStrategy struct{}

func (NoopStrategy) Name() string               { return "noop" }
func (NoopStrategy) LongEntry(market.Bar) bool  { return false }
func (NoopStrategy) ShortEntry(market.Bar) bool { return false }
func (NoopStrategy) LongExit(market.Bar) bool   { return false }
func (NoopStrategy) ShortExit(market.Bar) bool  { return false }
