package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"bilancio/internal/amqp"
	"bilancio/internal/core"
	"bilancio/internal/ports"
	"bilancio/internal/storage/memory"
)

type mockPublisher struct {
	mu       sync.Mutex
	messages []*amqp.ChangeMessage
	err      error
}

func (m *mockPublisher) Publish(_ context.Context, msg *amqp.ChangeMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.messages = append(m.messages, msg)
	return nil
}

func newTestFinance(pub Publisher) (*FinanceService, *SnapshotLoader, *memory.Store) {
	store := memory.New()
	loader := NewSnapshotLoader(store, time.Minute)
	svc := NewFinanceService(store, loader, pub)
	n := 0
	svc.newID = func() string {
		n++
		return "id-" + string(rune('0'+n))
	}
	return svc, loader, store
}

func validInput() TransactionInput {
	return TransactionInput{
		Type:        "expense",
		Amount:      "12.50",
		Date:        "2024-03-10",
		Category:    "Food",
		Description: "Groceries",
	}
}

func TestSaveTransactionCreatesAndPublishes(t *testing.T) {
	pub := &mockPublisher{}
	svc, _, store := newTestFinance(pub)
	ctx := context.Background()

	tx, err := svc.SaveTransaction(ctx, "u1", validInput())
	if err != nil {
		t.Fatalf("SaveTransaction() error = %v", err)
	}
	if tx.ID != "id-1" {
		t.Errorf("ID = %q, want id-1", tx.ID)
	}
	if tx.Amount.Cents != 1250 || tx.Category != core.CategoryFood || tx.Type != core.Expense {
		t.Errorf("unexpected transaction %+v", tx)
	}

	got, _ := store.StoreFor("u1").ListTransactions(ctx)
	if len(got) != 1 {
		t.Fatalf("stored %d transactions, want 1", len(got))
	}
	if len(pub.messages) != 1 {
		t.Fatalf("published %d messages, want 1", len(pub.messages))
	}
	msg := pub.messages[0]
	if msg.UserID != "u1" || msg.Entity != amqp.EntityTransaction || msg.EntityID != "id-1" || msg.Op != amqp.OpUpsert {
		t.Errorf("unexpected message %+v", msg)
	}
}

func TestSaveTransactionValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*TransactionInput)
		field  string
		want   error
	}{
		{"bad type", func(in *TransactionInput) { in.Type = "transfer" }, "type", core.ErrInvalidEnumValue},
		{"zero amount", func(in *TransactionInput) { in.Amount = "0" }, "amount", nil},
		{"negative amount", func(in *TransactionInput) { in.Amount = "-3" }, "amount", nil},
		{"bad date", func(in *TransactionInput) { in.Date = "2024-02-30" }, "date", core.ErrInvalidDate},
		{"bad category", func(in *TransactionInput) { in.Category = "Pets" }, "category", core.ErrInvalidEnumValue},
		{"blank description", func(in *TransactionInput) { in.Description = "   " }, "description", core.ErrEmptyDescription},
		{"long description", func(in *TransactionInput) { in.Description = strings.Repeat("a", 61) }, "description", core.ErrTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &mockPublisher{}
			svc, _, store := newTestFinance(pub)
			in := validInput()
			tt.mutate(&in)

			_, err := svc.SaveTransaction(context.Background(), "u1", in)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("error = %v, want ValidationError", err)
			}
			if ve.Field != tt.field {
				t.Errorf("Field = %q, want %q", ve.Field, tt.field)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
			got, _ := store.StoreFor("u1").ListTransactions(context.Background())
			if len(got) != 0 {
				t.Error("invalid input was stored")
			}
			if len(pub.messages) != 0 {
				t.Error("invalid input was published")
			}
		})
	}
}

func TestEditRoundTrip(t *testing.T) {
	svc, loader, _ := newTestFinance(nil)
	dash := NewDashboardService(loader, func() time.Time {
		return time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	})
	ctx := context.Background()

	created, err := svc.SaveTransaction(ctx, "u1", validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	before, err := dash.Build(ctx, "u1", DashboardQuery{})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if before.Totals.Expense.Cents != 1250 {
		t.Fatalf("expense before edit = %d", before.Totals.Expense.Cents)
	}

	edit := TransactionInput{
		ID:          created.ID,
		Type:        "income",
		Amount:      "100",
		Date:        "2024-03-01",
		Category:    "Other",
		Description: "Refund",
	}
	if _, err := svc.SaveTransaction(ctx, "u1", edit); err != nil {
		t.Fatalf("edit: %v", err)
	}

	after, err := dash.Build(ctx, "u1", DashboardQuery{EditID: created.ID})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(after.Transactions) != 1 {
		t.Fatalf("got %d transactions, want 1", len(after.Transactions))
	}
	if after.Totals.Income.Cents != 10000 || after.Totals.Expense.Cents != 0 {
		t.Errorf("totals = %+v", after.Totals)
	}
	if after.Editing == nil || after.Editing.Description != "Refund" || after.Editing.ID != created.ID {
		t.Errorf("Editing = %+v", after.Editing)
	}
}

func TestDeleteTransaction(t *testing.T) {
	pub := &mockPublisher{}
	svc, _, store := newTestFinance(pub)
	ctx := context.Background()

	tx, _ := svc.SaveTransaction(ctx, "u1", validInput())
	if err := svc.DeleteTransaction(ctx, "u1", tx.ID); err != nil {
		t.Fatalf("DeleteTransaction() error = %v", err)
	}
	got, _ := store.StoreFor("u1").ListTransactions(ctx)
	if len(got) != 0 {
		t.Errorf("transaction still stored")
	}
	if last := pub.messages[len(pub.messages)-1]; last.Op != amqp.OpDelete || last.EntityID != tx.ID {
		t.Errorf("last message = %+v", last)
	}

	if err := svc.DeleteTransaction(ctx, "u1", ""); !errors.Is(err, core.ErrMissingID) {
		t.Errorf("empty id error = %v", err)
	}
}

func TestPublishFailureDoesNotFailWrite(t *testing.T) {
	svc, _, store := newTestFinance(&mockPublisher{err: errors.New("broker down")})
	ctx := context.Background()

	if _, err := svc.SaveTransaction(ctx, "u1", validInput()); err != nil {
		t.Fatalf("SaveTransaction() error = %v", err)
	}
	got, _ := store.StoreFor("u1").ListTransactions(ctx)
	if len(got) != 1 {
		t.Errorf("stored %d transactions, want 1", len(got))
	}
}

func TestSetGoal(t *testing.T) {
	tests := []struct {
		input   string
		want    int64
		wantErr bool
	}{
		{"500", 50000, false},
		{"0", 0, false},
		{"", 0, false},
		{"-1", 0, true},
		{"abc", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			svc, _, store := newTestFinance(nil)
			g, err := svc.SetGoal(context.Background(), "u1", tt.input)
			if tt.wantErr {
				if !IsValidation(err) {
					t.Fatalf("error = %v, want validation error", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("SetGoal() error = %v", err)
			}
			if g.Amount.Cents != tt.want {
				t.Errorf("goal = %d, want %d", g.Amount.Cents, tt.want)
			}
			stored, _ := store.StoreFor("u1").GetGoal(context.Background())
			if stored != g {
				t.Errorf("stored goal = %+v, want %+v", stored, g)
			}
		})
	}
}

func TestReminders(t *testing.T) {
	svc, _, store := newTestFinance(nil)
	ctx := context.Background()

	r, err := svc.AddReminder(ctx, "u1", ReminderInput{Name: "Rent", Amount: "800", DueDate: "2024-04-01"})
	if err != nil {
		t.Fatalf("AddReminder() error = %v", err)
	}
	if r.ID == "" || r.Amount.Cents != 80000 {
		t.Errorf("reminder = %+v", r)
	}

	if _, err := svc.AddReminder(ctx, "u1", ReminderInput{Name: "Gym", DueDate: "2024-04-05"}); err != nil {
		t.Errorf("reminder without amount: %v", err)
	}

	_, err = svc.AddReminder(ctx, "u1", ReminderInput{Name: "Tax", DueDate: "2024-04-05", Notes: strings.Repeat("n", 81)})
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Field != "notes" {
		t.Errorf("long notes error = %v", err)
	}
	_, err = svc.AddReminder(ctx, "u1", ReminderInput{Name: " ", DueDate: "2024-04-05"})
	if !errors.As(err, &ve) || ve.Field != "name" {
		t.Errorf("blank name error = %v", err)
	}

	if err := svc.DeleteReminder(ctx, "u1", r.ID); err != nil {
		t.Fatalf("DeleteReminder() error = %v", err)
	}
	got, _ := store.StoreFor("u1").ListReminders(ctx)
	if len(got) != 1 || got[0].Name != "Gym" {
		t.Errorf("reminders = %+v", got)
	}
}

func TestWritesInvalidateSnapshot(t *testing.T) {
	svc, loader, _ := newTestFinance(nil)
	ctx := context.Background()

	if _, err := loader.Load(ctx, "u1"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.SaveTransaction(ctx, "u1", validInput()); err != nil {
		t.Fatal(err)
	}
	snap, err := loader.Load(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Transactions) != 1 {
		t.Errorf("snapshot has %d transactions after write, want 1", len(snap.Transactions))
	}
}

func TestReminderValidationNamesField(t *testing.T) {
	tests := []struct {
		name  string
		in    ReminderInput
		field string
	}{
		{"long name", ReminderInput{Name: strings.Repeat("n", 61), DueDate: "2024-04-05"}, "name"},
		{"long name and notes", ReminderInput{Name: strings.Repeat("n", 61), DueDate: "2024-04-05", Notes: strings.Repeat("x", 81)}, "name"},
		{"accented name at limit, long notes", ReminderInput{Name: strings.Repeat("è", core.MaxReminderName), DueDate: "2024-04-05", Notes: strings.Repeat("x", 81)}, "notes"},
		{"negative-looking amount", ReminderInput{Name: "Rent", Amount: "-5", DueDate: "2024-04-05"}, "amount"},
		{"bad due date", ReminderInput{Name: "Rent", DueDate: "2024-04-05garbage"}, "due_date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.in.Build("r1")
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("Build() error = %v, want ValidationError", err)
			}
			if ve.Field != tt.field {
				t.Errorf("Field = %q, want %q (err %v)", ve.Field, tt.field, err)
			}
		})
	}
}

func TestEditUnknownTransactionIsRejected(t *testing.T) {
	pub := &mockPublisher{}
	svc, _, store := newTestFinance(pub)
	ctx := context.Background()

	owned, err := svc.SaveTransaction(ctx, "u2", validInput())
	if err != nil {
		t.Fatal(err)
	}

	in := validInput()
	in.ID = "missing"
	if _, err := svc.SaveTransaction(ctx, "u1", in); !errors.Is(err, ErrTransactionNotFound) {
		t.Fatalf("edit of unknown id error = %v, want ErrTransactionNotFound", err)
	}

	// another user's id is unknown too
	in.ID = owned.ID
	in.Description = "Hijack"
	if _, err := svc.SaveTransaction(ctx, "u1", in); !errors.Is(err, ErrTransactionNotFound) {
		t.Fatalf("edit of foreign id error = %v, want ErrTransactionNotFound", err)
	}

	if got, _ := store.StoreFor("u1").ListTransactions(ctx); len(got) != 0 {
		t.Errorf("u1 transactions = %+v, want none", got)
	}
	got, _ := store.StoreFor("u2").ListTransactions(ctx)
	if len(got) != 1 || got[0].Description != "Groceries" {
		t.Errorf("u2 transactions = %+v", got)
	}
	if len(pub.messages) != 1 {
		t.Errorf("published %d messages, want 1", len(pub.messages))
	}
}

// gatedStores holds the first ListTransactions call open, after it has read
// the store, until release is closed.
type gatedStores struct {
	*memory.Store
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (g *gatedStores) StoreFor(userID string) ports.Store {
	return &gatedStore{Store: g.Store.StoreFor(userID), gate: g}
}

type gatedStore struct {
	ports.Store
	gate *gatedStores
}

func (s *gatedStore) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	txns, err := s.Store.ListTransactions(ctx)
	first := false
	s.gate.once.Do(func() { first = true })
	if first {
		close(s.gate.entered)
		<-s.gate.release
	}
	return txns, err
}

func TestWriteDuringLoadIsNotCachedStale(t *testing.T) {
	stores := &gatedStores{
		Store:   memory.New(),
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	loader := NewSnapshotLoader(stores, time.Minute)
	svc := NewFinanceService(stores, loader, nil)
	ctx := context.Background()

	loaded := make(chan Snapshot)
	go func() {
		snap, err := loader.Load(ctx, "u1")
		if err != nil {
			t.Errorf("Load() error = %v", err)
		}
		loaded <- snap
	}()

	<-stores.entered
	if _, err := svc.SaveTransaction(ctx, "u1", validInput()); err != nil {
		t.Fatal(err)
	}
	close(stores.release)

	if stale := <-loaded; len(stale.Transactions) != 0 {
		t.Fatalf("read started before the write saw %d transactions", len(stale.Transactions))
	}

	snap, err := loader.Load(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Transactions) != 1 {
		t.Errorf("snapshot after write has %d transactions, want 1", len(snap.Transactions))
	}
}
