package risk

// Sizing is the margin-based size of a new position.
type Sizing struct {
	Margin   float64 // carved out of the balance while the position is open
	Notional float64 // Margin × leverage
	Units    float64 // Notional ÷ entry
}

// Size commits ratio of balance as margin and levers it up.
// entry must be positive.
func Size(balance, ratio, leverage, entry float64) Sizing {
	margin := balance * ratio
	notional := margin * leverage
	return Sizing{
		Margin:   margin,
		Notional: notional,
		Units:    notional / entry,
	}
}

// HasMarginCapacity reports whether balance can fund a new position at ratio.
// A non-positive balance never can.
func HasMarginCapacity(balance, ratio float64) bool {
	return balance > 0 && balance >= balance*ratio
}
