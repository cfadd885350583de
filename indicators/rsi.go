package indicators

import (
	"fmt"
	"math"

	"github.com/rustyeddy/bandtrader/market"
)

// RSI is a streaming Relative Strength Index over a simple rolling mean of
// gains and losses (not Wilder smoothing). The first value needs period+1
// closes, i.e. period real price changes. Rolling-window implementations that
// zero-fill the first difference report one bar earlier, with that first
// window averaging only period-1 changes; those early values are not produced
// here.
//
// When both average gain and average loss are zero the value is NaN; a window
// with no losses reads 100.
type RSI struct {
	period int
	prev   float64
	seen   int
	gains  []float64
	losses []float64
}

func NewRSI(period int) *RSI {
	return &RSI{
		period: period,
		gains:  make([]float64, 0, period),
		losses: make([]float64, 0, period),
	}
}

func (r *RSI) Name() string {
	return fmt.Sprintf("RSI(%d)", r.period)
}

func (r *RSI) Warmup() int {
	return r.period + 1
}

func (r *RSI) Reset() {
	r.prev = 0
	r.seen = 0
	r.gains = r.gains[:0]
	r.losses = r.losses[:0]
}

func (r *RSI) Update(c market.Candle) {
	r.seen++
	if r.seen == 1 {
		r.prev = c.Close
		return
	}

	delta := c.Close - r.prev
	r.prev = c.Close

	gain, loss := 0.0, 0.0
	if delta > 0 {
		gain = delta
	} else {
		loss = -delta
	}

	r.gains = append(r.gains, gain)
	r.losses = append(r.losses, loss)
	if len(r.gains) > r.period {
		r.gains = r.gains[1:]
		r.losses = r.losses[1:]
	}
}

func (r *RSI) Ready() bool {
	return len(r.gains) >= r.period
}

func (r *RSI) Value() float64 {
	if !r.Ready() {
		return 0
	}
	g, l := 0.0, 0.0
	for i := range r.gains {
		g += r.gains[i]
		l += r.losses[i]
	}
	return rsiFrom(g/float64(r.period), l/float64(r.period))
}

func rsiFrom(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain == 0 {
			return math.NaN()
		}
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// RSIValue calculates the RSI of the last period+1 candles.
func RSIValue(candles []market.Candle, period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("period must be positive, got %d", period)
	}
	if len(candles) < period+1 {
		return 0, fmt.Errorf("not enough candles: need %d, got %d", period+1, len(candles))
	}

	g, l := 0.0, 0.0
	start := len(candles) - period
	for i := start; i < len(candles); i++ {
		d := candles[i].Close - candles[i-1].Close
		if d > 0 {
			g += d
		} else {
			l -= d
		}
	}
	return rsiFrom(g/float64(period), l/float64(period)), nil
}
