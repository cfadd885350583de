package market

import (
	"fmt"
	"strings"
)

// Side: +1 long, -1 short
type Side int8

const (
	Long  Side = +1
	Short Side = -1
)

// ParseSide maps "long"/"short" (any case) to a Side.
func ParseSide(s string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "long":
		return Long, nil
	case "short":
		return Short, nil
	default:
		return 0, fmt.Errorf("direction must be 'long' or 'short', got %q", s)
	}
}

// Sign returns +1 for Long and -1 for Short. It panics for any other value,
// which can only come from a conversion bug.
func (s Side) Sign() float64 {
	switch s {
	case Long:
		return 1
	case Short:
		return -1
	}
	panic(fmt.Sprintf("market: invalid side %d", int8(s)))
}

// Opposite returns the other direction.
func (s Side) Opposite() Side {
	if s.Sign() > 0 {
		return Short
	}
	return Long
}

func (s Side) String() string {
	switch s {
	case Long:
		return "long"
	case Short:
		return "short"
	default:
		return fmt.Sprintf("Side(%d)", int8(s))
	}
}

// Leg tells whether a fill opens or closes a position.
type Leg int8

const (
	Entry Leg = iota
	Exit
)

func (l Leg) String() string {
	if l == Entry {
		return "entry"
	}
	return "exit"
}

// Buys reports whether a fill on this side and leg takes the ask.
// Long entries and short exits buy; short entries and long exits sell.
func Buys(s Side, l Leg) bool {
	switch l {
	case Entry:
		return s.Sign() > 0
	case Exit:
		return s.Sign() < 0
	}
	panic(fmt.Sprintf("market: invalid leg %d", int8(l)))
}
