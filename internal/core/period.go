package core

import (
	"fmt"
	"time"
)

const periodLayout = "2006-01"

// PeriodKey identifies a calendar month as "YYYY-MM". It is the only
// grouping unit used for aggregation.
type PeriodKey string

// PeriodKeyOf returns the YYYY-MM prefix of a date-shaped string. Both
// "2024-03" and "2024-03-17" yield "2024-03", byte-identical to
// Date.PeriodKey for the same day.
func PeriodKeyOf(s string) (PeriodKey, error) {
	if len(s) < len(periodLayout) || (len(s) > len(periodLayout) && s[len(periodLayout)] != '-') {
		return "", fmt.Errorf("%w: %q is not a period or date", ErrInvalidDate, s)
	}
	k := PeriodKey(s[:len(periodLayout)])
	if err := k.Validate(); err != nil {
		return "", err
	}
	return k, nil
}

// PeriodKey returns the month the date belongs to.
func (d Date) PeriodKey() PeriodKey {
	return PeriodKey(d.Format(periodLayout))
}

// CurrentPeriod returns the period containing t.
func CurrentPeriod(t time.Time) PeriodKey {
	return DateOf(t).PeriodKey()
}

func (k PeriodKey) Validate() error {
	_, err := k.Start()
	return err
}

// Start returns the first day of the period.
func (k PeriodKey) Start() (Date, error) {
	t, err := time.Parse(periodLayout, string(k))
	if err != nil {
		return Date{}, fmt.Errorf("%w: period %q", ErrInvalidDate, string(k))
	}
	return Date{Time: t}, nil
}

// Shift moves the period by delta whole months, crossing year boundaries
// as needed.
func (k PeriodKey) Shift(delta int) (PeriodKey, error) {
	start, err := k.Start()
	if err != nil {
		return "", err
	}
	// anchored to the 1st, so AddDate never normalises into a later month
	return Date{Time: start.AddDate(0, delta, 0)}.PeriodKey(), nil
}

// ShiftPeriod is Shift as a free function.
func ShiftPeriod(k PeriodKey, delta int) (PeriodKey, error) {
	return k.Shift(delta)
}

func (k PeriodKey) String() string {
	return string(k)
}
