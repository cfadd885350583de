package indicators

import (
	"fmt"

	"github.com/rustyeddy/bandtrader/market"
)

// MA calculates the Simple Moving Average of the closes of the last period
// candles.
func MA(candles []market.Candle, period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("period must be positive, got %d", period)
	}
	if len(candles) < period {
		return 0, fmt.Errorf("not enough candles: need %d, got %d", period, len(candles))
	}

	sum := 0.0
	for i := len(candles) - period; i < len(candles); i++ {
		sum += candles[i].Close
	}
	return sum / float64(period), nil
}

// EMA calculates the Exponential Moving Average for the given period,
// seeded with the SMA of the first period closes.
func EMA(candles []market.Candle, period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("period must be positive, got %d", period)
	}
	if len(candles) < period {
		return 0, fmt.Errorf("not enough candles: need %d, got %d", period, len(candles))
	}

	multiplier := 2.0 / float64(period+1)

	// Start with SMA for first value
	sma := 0.0
	for i := 0; i < period; i++ {
		sma += candles[i].Close
	}
	ema := sma / float64(period)

	for i := period; i < len(candles); i++ {
		ema = (candles[i].Close-ema)*multiplier + ema
	}

	return ema, nil
}

// NewMovingAverage returns a streaming moving average of the given kind
// ("sma" or "ema").
func NewMovingAverage(kind string, period int) (Series, error) {
	if period <= 0 {
		return nil, fmt.Errorf("period must be positive, got %d", period)
	}
	switch kind {
	case "", "sma":
		return NewMA(period), nil
	case "ema":
		return NewEMA(period), nil
	default:
		return nil, fmt.Errorf("unknown moving average kind %q (supported: sma, ema)", kind)
	}
}
