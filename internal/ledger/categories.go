package ledger

import "bilancio/internal/core"

// CategoryTotal is one slice of the expense breakdown.
type CategoryTotal struct {
	Category core.Category
	Amount   core.Money
}

// CategoryExpenseTotals sums expenses per category in the order of
// categories. Categories whose total is zero are left out.
func CategoryExpenseTotals(matched []core.Transaction, categories []core.Category) []CategoryTotal {
	sums := make(map[core.Category]core.Money, len(categories))
	for _, tx := range matched {
		if tx.Type != core.Expense {
			continue
		}
		sums[tx.Category] = sums[tx.Category].Add(tx.Amount)
	}

	out := make([]CategoryTotal, 0, len(categories))
	for _, c := range categories {
		total := sums[c]
		if total.IsZero() {
			continue
		}
		out = append(out, CategoryTotal{Category: c, Amount: total})
	}
	return out
}
