package risk

import "fmt"

// Policy holds the pre-entry limits. Zero MaxRiskPct and MinRR disable
// their checks.
type Policy struct {
	MarginRatio float64 // 0.5
	Leverage    float64 // 20

	MaxRiskPct float64 // e.g. 0.05
	MinRR      float64 // e.g. 1.0
}

type TradeIntent struct {
	Entry      float64
	Stop       float64
	TakeProfit float64 // 0 when the exit is signal driven
}

type Violation struct {
	Code string
	Msg  string
}

type Decision struct {
	Allowed    bool
	Violations []Violation

	Sizing         Sizing
	PlannedRisk    float64
	PlannedRiskPct float64
	PlannedRR      float64
}

func (d *Decision) add(code, msg string) {
	d.Violations = append(d.Violations, Violation{Code: code, Msg: msg})
	d.Allowed = false
}

// Error joins the violation messages, or returns nil when allowed.
func (d Decision) Error() error {
	if d.Allowed {
		return nil
	}
	msg := ""
	for i, v := range d.Violations {
		if i > 0 {
			msg += "; "
		}
		msg += v.Code + ": " + v.Msg
	}
	return fmt.Errorf("entry refused: %s", msg)
}

// Evaluate sizes a prospective position from balance and checks it against p.
func Evaluate(p Policy, intent TradeIntent, balance float64) Decision {
	d := Decision{Allowed: true}

	if !HasMarginCapacity(balance, p.MarginRatio) {
		d.add("INSUFFICIENT_MARGIN",
			fmt.Sprintf("balance %.2f cannot fund margin ratio %.2f", balance, p.MarginRatio))
		return d
	}
	if intent.Entry <= 0 {
		d.add("NO_ENTRY", fmt.Sprintf("entry price must be positive, got %g", intent.Entry))
		return d
	}

	d.Sizing = Size(balance, p.MarginRatio, p.Leverage, intent.Entry)
	d.PlannedRisk = PlannedRisk(d.Sizing.Units, intent.Entry, intent.Stop)
	d.PlannedRiskPct = RiskPct(d.PlannedRisk, balance)
	if intent.TakeProfit != 0 {
		d.PlannedRR = RR(intent.Entry, intent.Stop, intent.TakeProfit)
	}

	if p.MaxRiskPct > 0 && d.PlannedRiskPct > p.MaxRiskPct {
		d.add("RISK_TOO_HIGH",
			fmt.Sprintf("planned risk %.2f%% exceeds max %.2f%%",
				100*d.PlannedRiskPct, 100*p.MaxRiskPct))
	}
	if p.MinRR > 0 && intent.TakeProfit != 0 && d.PlannedRR < p.MinRR {
		d.add("RR_TOO_LOW",
			fmt.Sprintf("RR %.2f below minimum %.2f", d.PlannedRR, p.MinRR))
	}

	return d
}
