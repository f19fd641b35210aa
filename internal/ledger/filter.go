package ledger

import (
	"slices"
	"strings"

	"bilancio/internal/core"
)

// Filter narrows a transaction list. Zero values match everything.
type Filter struct {
	Category core.Category
	Type     core.TransactionType
}

func (f Filter) IsZero() bool {
	return f.Category == "" && f.Type == ""
}

// FilterTransactions returns the transactions matching f, keeping order.
func FilterTransactions(txns []core.Transaction, f Filter) []core.Transaction {
	out := make([]core.Transaction, 0, len(txns))
	for _, tx := range txns {
		if f.Category != "" && tx.Category != f.Category {
			continue
		}
		if f.Type != "" && tx.Type != f.Type {
			continue
		}
		out = append(out, tx)
	}
	return out
}

// SortByDateDesc returns a copy of txns, newest first. Same-day entries are
// ordered by id so the listing is stable across reloads.
func SortByDateDesc(txns []core.Transaction) []core.Transaction {
	out := slices.Clone(txns)
	slices.SortStableFunc(out, func(a, b core.Transaction) int {
		if c := b.Date.Compare(a.Date.Time); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

// FindTransaction looks a transaction up by id.
func FindTransaction(txns []core.Transaction, id string) (core.Transaction, bool) {
	for _, tx := range txns {
		if tx.ID == id {
			return tx, true
		}
	}
	return core.Transaction{}, false
}
