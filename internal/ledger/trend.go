package ledger

import (
	"fmt"

	"bilancio/internal/core"
)

// DefaultTrendMonths is how many months before the selected one the
// comparison chart shows.
const DefaultTrendMonths = 5

type TrendPoint struct {
	Period  core.PeriodKey
	Income  core.Money
	Expense core.Money
}

// TrailingMonthlySeries returns monthsBack+1 points ending at period, oldest
// first. Months without transactions are present with zero values.
func TrailingMonthlySeries(txns []core.Transaction, period core.PeriodKey, monthsBack int) ([]TrendPoint, error) {
	if monthsBack < 0 {
		return nil, fmt.Errorf("months back must not be negative, got %d", monthsBack)
	}
	first, err := period.Shift(-monthsBack)
	if err != nil {
		return nil, err
	}

	series := make([]TrendPoint, 0, monthsBack+1)
	for i := 0; i <= monthsBack; i++ {
		p, err := first.Shift(i)
		if err != nil {
			return nil, err
		}
		totals := ComputeMonthlyTotals(txns, p)
		series = append(series, TrendPoint{Period: p, Income: totals.Income, Expense: totals.Expense})
	}
	return series, nil
}
