package ledger

import (
	"github.com/shopspring/decimal"

	"bilancio/internal/core"
)

// GoalProgress describes how far a balance is from the monthly target.
// When Applicable is false no target is set and the other fields are zero;
// callers should hide the indicator rather than show 0%.
type GoalProgress struct {
	Applicable     bool
	Target         core.Money
	ClampedCurrent core.Money
	Ratio          float64 // in [0, 1]
	Percent        int     // Ratio as a whole percentage, rounded down
	Achieved       bool
}

var one = decimal.NewFromInt(1)

// EvaluateGoalProgress compares the period balance with the target. Negative
// balances count as zero and the ratio is capped at 1.
func EvaluateGoalProgress(target, balance core.Money) GoalProgress {
	if target.Cents <= 0 {
		return GoalProgress{}
	}
	clamped := balance
	if clamped.IsNegative() {
		clamped = core.Money{}
	}

	ratio := decimal.NewFromInt(clamped.Cents).Div(decimal.NewFromInt(target.Cents))
	if ratio.GreaterThan(one) {
		ratio = one
	}
	return GoalProgress{
		Applicable:     true,
		Target:         target,
		ClampedCurrent: clamped,
		Ratio:          ratio.InexactFloat64(),
		Percent:        int(ratio.Shift(2).Floor().IntPart()),
		Achieved:       clamped.Cents >= target.Cents,
	}
}

// Remaining is what is still missing to reach the target.
func (g GoalProgress) Remaining() core.Money {
	if !g.Applicable || g.Achieved {
		return core.Money{}
	}
	return g.Target.Sub(g.ClampedCurrent)
}
