package indicators

import (
	"fmt"
	"math"

	"github.com/rustyeddy/bandtrader/market"
)

// Bands is one Bollinger reading.
type Bands struct {
	Mid   float64
	Upper float64
	Lower float64
}

// Bollinger is a streaming Bollinger Band indicator: SMA midline and
// mid ± k sample standard deviations.
type Bollinger struct {
	period int
	k      float64
	closes []float64
}

func NewBollinger(period int, k float64) *Bollinger {
	return &Bollinger{
		period: period,
		k:      k,
		closes: make([]float64, 0, period),
	}
}

func (b *Bollinger) Name() string {
	return fmt.Sprintf("BB(%d,%g)", b.period, b.k)
}

func (b *Bollinger) Warmup() int {
	return b.period
}

func (b *Bollinger) Reset() {
	b.closes = b.closes[:0]
}

func (b *Bollinger) Update(c market.Candle) {
	b.closes = append(b.closes, c.Close)
	if len(b.closes) > b.period {
		b.closes = b.closes[1:]
	}
}

func (b *Bollinger) Ready() bool {
	return len(b.closes) >= b.period
}

// Value returns the midline.
func (b *Bollinger) Value() float64 {
	return b.Bands().Mid
}

func (b *Bollinger) Bands() Bands {
	if !b.Ready() {
		return Bands{}
	}
	return bandsOf(b.closes, b.k)
}

func bandsOf(closes []float64, k float64) Bands {
	n := float64(len(closes))
	sum := 0.0
	for _, v := range closes {
		sum += v
	}
	mean := sum / n

	// sample standard deviation (n-1)
	sd := 0.0
	if len(closes) > 1 {
		ss := 0.0
		for _, v := range closes {
			d := v - mean
			ss += d * d
		}
		sd = math.Sqrt(ss / (n - 1))
	}

	return Bands{
		Mid:   mean,
		Upper: mean + k*sd,
		Lower: mean - k*sd,
	}
}

// BollingerBands calculates the bands of the last period candles.
func BollingerBands(candles []market.Candle, period int, k float64) (Bands, error) {
	if period <= 0 {
		return Bands{}, fmt.Errorf("period must be positive, got %d", period)
	}
	if len(candles) < period {
		return Bands{}, fmt.Errorf("not enough candles: need %d, got %d", period, len(candles))
	}
	closes := make([]float64, 0, period)
	for _, c := range candles[len(candles)-period:] {
		closes = append(closes, c.Close)
	}
	return bandsOf(closes, k), nil
}
