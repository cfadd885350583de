package indicators

import (
	"fmt"
	"math"

	"github.com/moznion/go-optional"

	"github.com/rustyeddy/bandtrader/market"
)

// PipelineConfig selects the indicators attached to each bar.
type PipelineConfig struct {
	RSIPeriod int
	BBPeriod  int
	BBStdDev  float64

	// MidLag > 0 attaches the Bollinger midline from MidLag bars earlier.
	MidLag int

	// FastMA and SlowMA > 0 attach trend moving averages of MAKind.
	FastMA int
	SlowMA int
	MAKind string
}

func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		RSIPeriod: 13,
		BBPeriod:  30,
		BBStdDev:  2,
		MAKind:    "sma",
	}
}

func (c PipelineConfig) Validate() error {
	if c.RSIPeriod <= 0 {
		return fmt.Errorf("rsi period must be positive, got %d", c.RSIPeriod)
	}
	if c.BBPeriod < 2 {
		return fmt.Errorf("bollinger period must be at least 2, got %d", c.BBPeriod)
	}
	if c.BBStdDev <= 0 {
		return fmt.Errorf("bollinger stddev must be positive, got %g", c.BBStdDev)
	}
	if c.MidLag < 0 {
		return fmt.Errorf("mid lag must not be negative, got %d", c.MidLag)
	}
	if (c.FastMA > 0) != (c.SlowMA > 0) {
		return fmt.Errorf("fast and slow MA must be set together (fast=%d slow=%d)", c.FastMA, c.SlowMA)
	}
	if c.FastMA > 0 && c.FastMA >= c.SlowMA {
		return fmt.Errorf("fast MA period %d must be below slow MA period %d", c.FastMA, c.SlowMA)
	}
	return nil
}

// Pipeline turns ordered candles into enriched bars.
type Pipeline struct {
	cfg PipelineConfig
}

func NewPipeline(cfg PipelineConfig) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Pipeline{cfg: cfg}, nil
}

// row is the per-candle indicator state before previous-bar fields are joined.
type row struct {
	rsi   float64
	rsiOK bool
	bands Bands
	bbOK  bool
	fast  float64
	slow  float64
	maOK  bool
}

// Enrich computes indicators over candles and returns one bar per candle
// whose current and previous indicator values are all defined. Previous-bar
// fields come from the immediately preceding candle, so a candle following an
// undefined reading is dropped too.
func (p *Pipeline) Enrich(candles []market.Candle) ([]market.Bar, error) {
	cfg := p.cfg
	rsi := NewRSI(cfg.RSIPeriod)
	bb := NewBollinger(cfg.BBPeriod, cfg.BBStdDev)

	var fast, slow Series
	if cfg.FastMA > 0 {
		var err error
		if fast, err = NewMovingAverage(cfg.MAKind, cfg.FastMA); err != nil {
			return nil, err
		}
		if slow, err = NewMovingAverage(cfg.MAKind, cfg.SlowMA); err != nil {
			return nil, err
		}
	}

	rows := make([]row, len(candles))
	for i, c := range candles {
		rsi.Update(c)
		bb.Update(c)

		r := &rows[i]
		if rsi.Ready() {
			r.rsi = rsi.Value()
			r.rsiOK = !math.IsNaN(r.rsi)
		}
		if bb.Ready() {
			r.bands = bb.Bands()
			r.bbOK = true
		}
		if fast != nil {
			fast.Update(c)
			slow.Update(c)
			if fast.Ready() && slow.Ready() {
				r.fast = fast.Value()
				r.slow = slow.Value()
				r.maOK = true
			}
		}
	}

	bars := make([]market.Bar, 0, len(candles))
	for i := 1; i < len(candles); i++ {
		cur, prev := rows[i], rows[i-1]
		if !cur.rsiOK || !prev.rsiOK || !cur.bbOK || !prev.bbOK {
			continue
		}
		if fast != nil && !cur.maOK {
			continue
		}
		if cfg.MidLag > 0 && (i < cfg.MidLag || !rows[i-cfg.MidLag].bbOK) {
			continue
		}

		c := candles[i]
		bar := market.Bar{
			Time:        c.Time,
			Open:        c.Open,
			High:        c.High,
			Low:         c.Low,
			Close:       c.Close,
			PrevClose:   candles[i-1].Close,
			RSI:         cur.rsi,
			PrevRSI:     prev.rsi,
			BBMid:       cur.bands.Mid,
			BBUpper:     cur.bands.Upper,
			BBLower:     cur.bands.Lower,
			PrevBBMid:   prev.bands.Mid,
			PrevBBUpper: prev.bands.Upper,
			PrevBBLower: prev.bands.Lower,
			LaggedMid:   optional.None[float64](),
			FastMA:      optional.None[float64](),
			SlowMA:      optional.None[float64](),
		}
		if cfg.MidLag > 0 {
			bar.LaggedMid = optional.Some(rows[i-cfg.MidLag].bands.Mid)
		}
		if fast != nil {
			bar.FastMA = optional.Some(cur.fast)
			bar.SlowMA = optional.Some(cur.slow)
		}
		bars = append(bars, bar)
	}
	return bars, nil
}
