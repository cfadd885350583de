package market

import (
	"fmt"
	"time"
)

func SecondsToTFString(sec int32) (string, error) {
	if sec <= 0 {
		return "", fmt.Errorf("invalid timeframe seconds: %d", sec)
	}

	// Minutes
	if sec < 3600 && sec%60 == 0 {
		return fmt.Sprintf("M%d", sec/60), nil
	}

	// Hours
	if sec < 86400 && sec%3600 == 0 {
		return fmt.Sprintf("H%d", sec/3600), nil
	}

	// Days
	if sec%86400 == 0 {
		days := sec / 86400
		if days == 7 {
			return "W1", nil
		}
		return fmt.Sprintf("D%d", days), nil
	}

	return "", fmt.Errorf("cannot map timeframe: %d seconds", sec)
}

// InferTimeframe guesses the bar timeframe from the smallest spacing
// between consecutive candles. Weekend and overnight gaps are larger than
// the real spacing, so the minimum is the right pick.
func InferTimeframe(candles []Candle) (string, error) {
	if len(candles) < 2 {
		return "", fmt.Errorf("need at least 2 candles to infer a timeframe, got %d", len(candles))
	}

	var best time.Duration
	for i := 1; i < len(candles); i++ {
		d := candles[i].Time.Sub(candles[i-1].Time)
		if d <= 0 {
			continue
		}
		if best == 0 || d < best {
			best = d
		}
	}
	return SecondsToTFString(int32(best / time.Second))
}
