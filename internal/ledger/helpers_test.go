package ledger

import (
	"bilancio/internal/core"
)

func tx(id string, typ core.TransactionType, cat core.Category, cents int64, date string) core.Transaction {
	d, err := core.ParseDate(date)
	if err != nil {
		panic(err)
	}
	return core.Transaction{
		ID:          id,
		Type:        typ,
		Amount:      core.Money{Cents: cents},
		Date:        d,
		Category:    cat,
		Description: "test " + id,
	}
}

func day(s string) core.Date {
	d, err := core.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func cents(c int64) core.Money { return core.Money{Cents: c} }
