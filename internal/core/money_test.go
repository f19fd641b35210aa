package core

import (
	"errors"
	"testing"
)

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{"12.344", 1234, true},
		{" 2.50 ", 250, true},
		{"-1", 0, false},
		{"+1", 0, false},
		{"1e3", 0, false},
		{"0", 0, false},
		{"0.004", 0, false}, // rounds to zero
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if !errors.Is(err, ErrInvalidAmount) {
				t.Fatalf("%q expected ErrInvalidAmount, got %v", tc.in, err)
			}
		}
	}
}

func TestParseAmountAllowsZero(t *testing.T) {
	m, err := ParseAmount("0")
	if err != nil || !m.IsZero() {
		t.Fatalf("expected zero amount, got %v (err=%v)", m, err)
	}
	if _, err := ParseAmount("99999999999999999999"); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected overflow to be rejected, got %v", err)
	}
}

func TestMoneySumIsExact(t *testing.T) {
	tenth, err := ParseAmount("0.10")
	if err != nil {
		t.Fatal(err)
	}
	var sum Money
	for i := 0; i < 3; i++ {
		sum = sum.Add(tenth)
	}
	want, _ := ParseAmount("0.30")
	if sum != want {
		t.Fatalf("expected %v, got %v", want, sum)
	}
	if sum.String() != "0.30" {
		t.Fatalf("expected 0.30, got %s", sum.String())
	}
}

func TestMoneyFormatting(t *testing.T) {
	cases := []struct {
		m    Money
		want string
	}{
		{Money{Cents: 0}, "0.00"},
		{Money{Cents: 5}, "0.05"},
		{Money{Cents: 123456}, "1234.56"},
		{Money{Cents: -250}, "-2.50"},
	}
	for _, tc := range cases {
		if got := tc.m.String(); got != tc.want {
			t.Fatalf("%d cents: expected %s, got %s", tc.m.Cents, tc.want, got)
		}
	}
	if (Money{Cents: 150}).Euros() != 1.5 {
		t.Fatalf("unexpected euros")
	}
}
