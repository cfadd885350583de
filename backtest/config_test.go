package backtest

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/bandtrader/market"
	"github.com/rustyeddy/bandtrader/sim"
)

func TestParseTrigger(t *testing.T) {
	cases := map[string]Trigger{
		"":         TriggerOnClose,
		"close":    TriggerOnClose,
		"on-close": TriggerOnClose,
		"intrabar": TriggerIntrabar,
		"high-low": TriggerIntrabar,
	}
	for in, want := range cases {
		got, err := ParseTrigger(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseTrigger("tick")
	assert.Error(t, err)

	assert.Equal(t, "close", TriggerOnClose.String())
	assert.Equal(t, "intrabar", TriggerIntrabar.String())
}

func TestConfig_Validate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"nan balance", func(c *Config) { c.StartingBalance = math.NaN() }},
		{"inf balance", func(c *Config) { c.StartingBalance = math.Inf(1) }},
		{"zero leverage", func(c *Config) { c.Leverage = 0 }},
		{"zero ratio", func(c *Config) { c.MarginRatio = 0 }},
		{"ratio above one", func(c *Config) { c.MarginRatio = 1.5 }},
		{"negative spread", func(c *Config) { c.Spread = sim.Spread{Width: -1} }},
		{"no stop", func(c *Config) { c.Stop = nil }},
		{"no strategy", func(c *Config) { c.Strategy = nil }},
		{"bad trigger", func(c *Config) { c.Trigger = Trigger(9) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	// a broke account is a valid config; the engine just never trades
	cfg := DefaultConfig()
	cfg.StartingBalance = 0
	assert.NoError(t, cfg.Validate())
}

func TestFixedPercentStop(t *testing.T) {
	s := FixedPercentStop{Percent: 0.002}
	assert.Equal(t, "fixed 0.2%", s.Name())
	assert.InDelta(t, 998.0, s.Stop(market.Long, 1000, market.Bar{}, sim.Spread{}), 1e-9)
	assert.InDelta(t, 1002.0, s.Stop(market.Short, 1000, market.Bar{}, sim.Spread{}), 1e-9)
}

func TestBandStop(t *testing.T) {
	s := BandStop{Offset: 0.001}
	b := market.Bar{BBLower: 1990, BBUpper: 2010}
	spread := sim.Spread{Width: 0.4}

	assert.Equal(t, "band 0.1%", s.Name())
	assert.InDelta(t, 1990*0.999-0.2, s.Stop(market.Long, 2000, b, spread), 1e-9)
	assert.InDelta(t, 2010*1.001+0.2, s.Stop(market.Short, 2000, b, spread), 1e-9)
}
