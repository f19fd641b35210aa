package ledger

import "bilancio/internal/core"

// MonthlyTotals is the summary of one period.
type MonthlyTotals struct {
	Period  core.PeriodKey
	Income  core.Money
	Expense core.Money
	Balance core.Money // Income - Expense, may be negative
	// Matched holds the transactions of the period in their input order.
	Matched []core.Transaction
}

// ComputeMonthlyTotals filters txns to the target period and sums them by
// type. No matches is a valid result with zero sums and an empty Matched.
func ComputeMonthlyTotals(txns []core.Transaction, period core.PeriodKey) MonthlyTotals {
	out := MonthlyTotals{
		Period:  period,
		Matched: make([]core.Transaction, 0),
	}
	for _, tx := range txns {
		if tx.Date.PeriodKey() != period {
			continue
		}
		out.Matched = append(out.Matched, tx)
		switch tx.Type {
		case core.Income:
			out.Income = out.Income.Add(tx.Amount)
		case core.Expense:
			out.Expense = out.Expense.Add(tx.Amount)
		}
	}
	out.Balance = out.Income.Sub(out.Expense)
	return out
}
