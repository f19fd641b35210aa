package core

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && !errors.Is(err, ErrInvalidDate) {
			t.Fatalf("case %d expected ErrInvalidDate, got %v", i, err)
		}
	}
}

func TestParseDate(t *testing.T) {
	cases := []struct {
		in   string
		want Date
		ok   bool
	}{
		{"2024-03-17", NewDate(2024, 3, 17), true},
		{" 2024-03-17 ", NewDate(2024, 3, 17), true},
		{"2024-03-17T10:00:00Z", NewDate(2024, 3, 17), true},
		{"2024-03-17T23:30:00+02:00", NewDate(2024, 3, 17), true},
		{"2024-03-17 08:15:00", NewDate(2024, 3, 17), true},
		{"2024-03-17garbage", Date{}, false},
		{"2024-03-17T", Date{}, false},
		{"2024-03-17 not a time", Date{}, false},
		{"2024-02-30", Date{}, false},
		{"17/03/2024", Date{}, false},
		{"", Date{}, false},
	}
	for _, tc := range cases {
		got, err := ParseDate(tc.in)
		if !tc.ok {
			if !errors.Is(err, ErrInvalidDate) {
				t.Fatalf("%q: expected ErrInvalidDate, got %v", tc.in, err)
			}
			continue
		}
		if err != nil || !got.Equal(tc.want.Time) {
			t.Fatalf("%q: expected %v, got %v (err=%v)", tc.in, tc.want, got, err)
		}
	}
}

func TestDateOfDropsTimeOfDay(t *testing.T) {
	rome := time.FixedZone("CET", 3600)
	got := DateOf(time.Date(2024, 12, 31, 23, 30, 0, 0, rome))
	if got.String() != "2024-12-31" {
		t.Fatalf("expected local calendar day, got %s", got)
	}
	if got.Location() != time.UTC || got.Hour() != 0 {
		t.Fatalf("expected UTC midnight, got %v", got.Time)
	}
}

func TestDateJSON(t *testing.T) {
	b, err := json.Marshal(struct{ D Date }{NewDate(2024, 5, 2)})
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `{"D":"2024-05-02"}` {
		t.Fatalf("unexpected encoding %s", b)
	}
	var out struct{ D Date }
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatal(err)
	}
	if out.D.String() != "2024-05-02" {
		t.Fatalf("unexpected decoding %v", out.D)
	}
}

func TestParseTransactionType(t *testing.T) {
	for _, in := range []string{"income", "Expense", " INCOME "} {
		if _, err := ParseTransactionType(in); err != nil {
			t.Fatalf("%q: unexpected error %v", in, err)
		}
	}
	if _, err := ParseTransactionType("transfer"); !errors.Is(err, ErrInvalidEnumValue) {
		t.Fatalf("expected ErrInvalidEnumValue, got %v", err)
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		ID:          "a",
		Type:        Expense,
		Amount:      Money{Cents: 100},
		Date:        NewDate(2025, 1, 1),
		Category:    CategoryFood,
		Description: "groceries",
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name string
		mod  func(*Transaction)
		want error
	}{
		{"bad type", func(tx *Transaction) { tx.Type = "transfer" }, ErrInvalidEnumValue},
		{"bad category", func(tx *Transaction) { tx.Category = "Travel" }, ErrInvalidEnumValue},
		{"zero amount", func(tx *Transaction) { tx.Amount = Money{} }, ErrInvalidAmount},
		{"negative amount", func(tx *Transaction) { tx.Amount = Money{Cents: -5} }, ErrInvalidAmount},
		{"zero date", func(tx *Transaction) { tx.Date = Date{} }, ErrInvalidDate},
		{"blank description", func(tx *Transaction) { tx.Description = "   " }, ErrEmptyDescription},
		{"long description", func(tx *Transaction) { tx.Description = strings.Repeat("x", 61) }, ErrTooLong},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tx := good
			tc.mod(&tx)
			if err := tx.Validate(); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestDescriptionLimitCountsRunes(t *testing.T) {
	tx := Transaction{
		Type:        Income,
		Amount:      Money{Cents: 1},
		Date:        NewDate(2025, 1, 1),
		Category:    CategoryOther,
		Description: strings.Repeat("è", MaxDescriptionLen),
	}
	if err := tx.Validate(); err != nil {
		t.Fatalf("60 accented runes should be accepted, got %v", err)
	}
}

func TestReminderValidate(t *testing.T) {
	good := Reminder{Name: "Rent", DueDate: NewDate(2025, 2, 1)}
	if err := good.Validate(); err != nil {
		t.Fatalf("zero amount and empty notes should be ok, got %v", err)
	}

	bads := []struct {
		r    Reminder
		want error
	}{
		{Reminder{Name: "", DueDate: NewDate(2025, 2, 1)}, ErrEmptyName},
		{Reminder{Name: strings.Repeat("n", 61), DueDate: NewDate(2025, 2, 1)}, ErrTooLong},
		{Reminder{Name: "Rent", DueDate: NewDate(2025, 2, 1), Notes: strings.Repeat("n", 81)}, ErrTooLong},
		{Reminder{Name: "Rent", DueDate: NewDate(2025, 2, 1), Amount: Money{Cents: -1}}, ErrInvalidAmount},
		{Reminder{Name: "Rent"}, ErrInvalidDate},
	}
	for i, tc := range bads {
		if err := tc.r.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("case %d expected %v, got %v", i, tc.want, err)
		}
	}
}

func TestGoalValidate(t *testing.T) {
	if err := (Goal{}).Validate(); err != nil {
		t.Fatalf("zero goal should be valid, got %v", err)
	}
	if (Goal{}).IsSet() {
		t.Fatalf("zero goal should not be set")
	}
	if err := (Goal{Amount: Money{Cents: -1}}).Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}
