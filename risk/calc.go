package risk

import (
	"math"

	"github.com/rustyeddy/bandtrader/market"
)

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// PlannedRisk is the quote-currency loss of units if price travels from
// entry to stop.
func PlannedRisk(units, entry, stop float64) float64 {
	return units * abs(entry-stop)
}

func RR(entry, stop, takeProfit float64) float64 {
	risk := abs(entry - stop)
	reward := abs(takeProfit - entry)
	if risk == 0 {
		return 0
	}
	return reward / risk
}

func RiskPct(plannedRisk, equity float64) float64 {
	if equity <= 0 {
		return math.Inf(1)
	}
	return plannedRisk / equity
}

// RMultiple expresses a realized exit in units of the initial risk:
// +1R made what the stop would have lost, -1R is a full stop.
func RMultiple(side market.Side, entry, stop, exit float64) float64 {
	risk := abs(entry - stop)
	if risk == 0 {
		return 0
	}
	return side.Sign() * (exit - entry) / risk
}
