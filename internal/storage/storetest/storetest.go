// Package storetest holds behaviour checks shared by every storage backend.
package storetest

import (
	"context"
	"testing"

	"bilancio/internal/core"
	"bilancio/internal/ports"
)

// Run exercises the Store contract against a fresh provider.
func Run(t *testing.T, newProvider func(t *testing.T) ports.StoreProvider) {
	t.Helper()

	t.Run("empty store", func(t *testing.T) {
		s := newProvider(t).StoreFor("u1")
		ctx := context.Background()
		txns, err := s.ListTransactions(ctx)
		if err != nil || len(txns) != 0 {
			t.Fatalf("expected no transactions, got %v (err=%v)", txns, err)
		}
		g, err := s.GetGoal(ctx)
		if err != nil || !g.Amount.IsZero() {
			t.Fatalf("expected zero goal, got %+v (err=%v)", g, err)
		}
		rs, err := s.ListReminders(ctx)
		if err != nil || len(rs) != 0 {
			t.Fatalf("expected no reminders, got %v (err=%v)", rs, err)
		}
	})

	t.Run("transaction upsert replaces by id", func(t *testing.T) {
		s := newProvider(t).StoreFor("u1")
		ctx := context.Background()
		orig := Transaction("t1", core.Expense, core.CategoryFood, 1250, "2024-03-10", "lunch")
		if err := s.UpsertTransaction(ctx, orig); err != nil {
			t.Fatal(err)
		}
		edited := Transaction("t1", core.Income, core.CategoryOther, 9900, "2024-04-01", "refund")
		if err := s.UpsertTransaction(ctx, edited); err != nil {
			t.Fatal(err)
		}
		txns, err := s.ListTransactions(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(txns) != 1 {
			t.Fatalf("expected a single transaction, got %d", len(txns))
		}
		got := txns[0]
		if got.ID != "t1" || got.Type != core.Income || got.Category != core.CategoryOther ||
			got.Amount.Cents != 9900 || got.Date.String() != "2024-04-01" || got.Description != "refund" {
			t.Fatalf("unexpected stored transaction %+v", got)
		}
	})

	t.Run("transaction delete is idempotent", func(t *testing.T) {
		s := newProvider(t).StoreFor("u1")
		ctx := context.Background()
		if err := s.UpsertTransaction(ctx, Transaction("t1", core.Expense, core.CategoryFood, 100, "2024-03-10", "a")); err != nil {
			t.Fatal(err)
		}
		if err := s.UpsertTransaction(ctx, Transaction("t2", core.Expense, core.CategoryFood, 200, "2024-03-11", "b")); err != nil {
			t.Fatal(err)
		}
		for i := 0; i < 2; i++ {
			if err := s.DeleteTransaction(ctx, "t1"); err != nil {
				t.Fatalf("delete #%d: %v", i+1, err)
			}
		}
		if err := s.DeleteTransaction(ctx, "missing"); err != nil {
			t.Fatalf("deleting a missing id should be a no-op, got %v", err)
		}
		txns, _ := s.ListTransactions(ctx)
		if len(txns) != 1 || txns[0].ID != "t2" {
			t.Fatalf("expected only t2, got %+v", txns)
		}
	})

	t.Run("goal overwrite", func(t *testing.T) {
		s := newProvider(t).StoreFor("u1")
		ctx := context.Background()
		for _, c := range []int64{50000, 75000, 0} {
			if err := s.SetGoal(ctx, core.Goal{Amount: core.Money{Cents: c}}); err != nil {
				t.Fatal(err)
			}
			g, err := s.GetGoal(ctx)
			if err != nil || g.Amount.Cents != c {
				t.Fatalf("expected goal %d, got %+v (err=%v)", c, g, err)
			}
		}
	})

	t.Run("reminders", func(t *testing.T) {
		s := newProvider(t).StoreFor("u1")
		ctx := context.Background()
		r := core.Reminder{ID: "r1", Name: "Rent", Amount: core.Money{Cents: 80000}, DueDate: Day("2024-07-01"), Notes: "bank transfer"}
		if err := s.UpsertReminder(ctx, r); err != nil {
			t.Fatal(err)
		}
		if err := s.UpsertReminder(ctx, core.Reminder{ID: "r2", Name: "Gym", DueDate: Day("2024-07-05")}); err != nil {
			t.Fatal(err)
		}
		rs, err := s.ListReminders(ctx)
		if err != nil || len(rs) != 2 {
			t.Fatalf("expected 2 reminders, got %v (err=%v)", rs, err)
		}
		var found bool
		for _, x := range rs {
			if x.ID == "r1" {
				found = true
				if x.Name != r.Name || x.Amount != r.Amount || x.DueDate.String() != "2024-07-01" || x.Notes != r.Notes {
					t.Fatalf("unexpected reminder %+v", x)
				}
			}
		}
		if !found {
			t.Fatalf("r1 not listed")
		}
		if err := s.DeleteReminder(ctx, "r1"); err != nil {
			t.Fatal(err)
		}
		if err := s.DeleteReminder(ctx, "r1"); err != nil {
			t.Fatalf("second delete should be a no-op, got %v", err)
		}
		rs, _ = s.ListReminders(ctx)
		if len(rs) != 1 || rs[0].ID != "r2" {
			t.Fatalf("expected only r2, got %+v", rs)
		}
	})
}

// RunMultiUser checks that stores of different users do not see each other.
func RunMultiUser(t *testing.T, p ports.StoreProvider) {
	t.Helper()
	ctx := context.Background()
	a, b := p.StoreFor("alice"), p.StoreFor("bob")
	if err := a.UpsertTransaction(ctx, Transaction("t1", core.Income, core.CategoryOther, 100, "2024-01-01", "salary")); err != nil {
		t.Fatal(err)
	}
	if err := a.SetGoal(ctx, core.Goal{Amount: core.Money{Cents: 500}}); err != nil {
		t.Fatal(err)
	}
	txns, err := b.ListTransactions(ctx)
	if err != nil || len(txns) != 0 {
		t.Fatalf("bob should see no transactions, got %v (err=%v)", txns, err)
	}
	g, err := b.GetGoal(ctx)
	if err != nil || !g.Amount.IsZero() {
		t.Fatalf("bob should have no goal, got %+v (err=%v)", g, err)
	}
	// same id under another user is a different record
	if err := b.DeleteTransaction(ctx, "t1"); err != nil {
		t.Fatal(err)
	}
	if txns, _ := a.ListTransactions(ctx); len(txns) != 1 {
		t.Fatalf("alice's transaction must survive bob's delete")
	}
}

func Transaction(id string, typ core.TransactionType, cat core.Category, cents int64, date, desc string) core.Transaction {
	return core.Transaction{
		ID:          id,
		Type:        typ,
		Amount:      core.Money{Cents: cents},
		Date:        Day(date),
		Category:    cat,
		Description: desc,
	}
}

func Day(s string) core.Date {
	d, err := core.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}
