// Package core provides money parsing and handling utilities.
//
// Amounts are kept as integer cents so that sums are exact. Parsing and
// display go through shopspring/decimal.
package core

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var maxCents = decimal.NewFromInt(math.MaxInt64)

// ParseDecimalToCents converts a decimal string to cents with proper rounding.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and performs
// half-up rounding on the third decimal place. Zero and negative values are
// rejected.
//
// Examples:
//
//	ParseDecimalToCents("12.34") -> 1234, nil
//	ParseDecimalToCents("12,34") -> 1234, nil
//	ParseDecimalToCents("12.345") -> 1235, nil
//	ParseDecimalToCents("12.344") -> 1234, nil
func ParseDecimalToCents(s string) (int64, error) {
	m, err := ParseAmount(s)
	if err != nil {
		return 0, err
	}
	if err := m.Validate(); err != nil {
		return 0, err
	}
	return m.Cents, nil
}

// ParseAmount is like ParseDecimalToCents but allows zero.
func ParseAmount(s string) (Money, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return Money{}, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}
	dots := 0
	for _, r := range s {
		switch {
		case r == '.':
			dots++
		case r < '0' || r > '9':
			// rejects signs and exponents
			return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
		}
	}
	if dots > 1 || s == "." {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	cents := d.Shift(2).Round(0)
	if cents.GreaterThan(maxCents) {
		return Money{}, fmt.Errorf("%w: %q out of range", ErrInvalidAmount, s)
	}
	return Money{Cents: cents.IntPart()}, nil
}

// FromDecimal converts a decimal amount into cents, rounding half away from zero.
func FromDecimal(d decimal.Decimal) Money {
	return Money{Cents: d.Shift(2).Round(0).IntPart()}
}

// Validate requires a strictly positive amount.
func (m Money) Validate() error {
	if m.Cents <= 0 {
		return fmt.Errorf("%w: must be at least 0.01", ErrInvalidAmount)
	}
	return nil
}

func (m Money) ValidateNonNegative() error {
	if m.Cents < 0 {
		return fmt.Errorf("%w: must not be negative", ErrInvalidAmount)
	}
	return nil
}

func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }
func (m Money) Sub(o Money) Money { return Money{Cents: m.Cents - o.Cents} }
func (m Money) IsZero() bool      { return m.Cents == 0 }
func (m Money) IsNegative() bool  { return m.Cents < 0 }

// Decimal returns the exact decimal value of the amount.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// Euros returns the value as a float64 for charts. Use cents for calculations.
func (m Money) Euros() float64 {
	return m.Decimal().InexactFloat64()
}

// String formats the amount with two decimals and a dot separator.
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}
