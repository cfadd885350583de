package strategies

import (
	"fmt"
	"strings"

	"github.com/rustyeddy/bandtrader/market"
)

// TargetPolicy gives the take-profit price level for an open position on a
// bar. ok is false when the bar carries no usable level.
type TargetPolicy interface {
	Name() string
	Long(b market.Bar) (level float64, ok bool)
	Short(b market.Bar) (level float64, ok bool)
}

// Targeter is implemented by strategies that exit at a price level. The
// engine reads it on the entry bar to check reward against risk.
type Targeter interface {
	TakeProfit(side market.Side, b market.Bar) (level float64, ok bool)
}

// MidTarget exits at the current Bollinger midline.
type MidTarget struct{}

func (MidTarget) Name() string                       { return "mid" }
func (MidTarget) Long(b market.Bar) (float64, bool)  { return b.BBMid, true }
func (MidTarget) Short(b market.Bar) (float64, bool) { return b.BBMid, true }

// LaggedMidTarget exits at the midline from a few bars back.
type LaggedMidTarget struct{}

func (LaggedMidTarget) Name() string { return "lagged-mid" }

func (LaggedMidTarget) Long(b market.Bar) (float64, bool) {
	v, err := b.LaggedMid.Take()
	return v, err == nil
}

func (LaggedMidTarget) Short(b market.Bar) (float64, bool) {
	v, err := b.LaggedMid.Take()
	return v, err == nil
}

// BandTarget exits beyond the opposite band: upper + Offset for longs,
// lower - Offset for shorts.
type BandTarget struct {
	Offset float64
}

func (t BandTarget) Name() string                       { return fmt.Sprintf("band%+g", t.Offset) }
func (t BandTarget) Long(b market.Bar) (float64, bool)  { return b.BBUpper + t.Offset, true }
func (t BandTarget) Short(b market.Bar) (float64, bool) { return b.BBLower - t.Offset, true }

// TargetByName maps a config name to a policy.
func TargetByName(name string, offset float64) (TargetPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "mid", "midline":
		return MidTarget{}, nil
	case "lagged-mid":
		return LaggedMidTarget{}, nil
	case "band":
		return BandTarget{Offset: offset}, nil
	default:
		return nil, fmt.Errorf("unknown target %q (supported: mid, lagged-mid, band)", name)
	}
}
