package strategies

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rustyeddy/bandtrader/market"
)

func TestNoopStrategy(t *testing.T) {
	strat := NoopStrategy{}
	b := longSetup()

	// NoopStrategy should never signal
	assert.Equal(t, "noop", strat.Name())
	assert.False(t, strat.LongEntry(b))
	assert.False(t, strat.ShortEntry(b))
	assert.False(t, strat.LongExit(b))
	assert.False(t, strat.ShortExit(market.Bar{}))
}
