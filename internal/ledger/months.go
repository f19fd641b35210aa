package ledger

import "bilancio/internal/core"

// MonthSelectorSpan is how many months either side of today the selector offers.
const MonthSelectorSpan = 12

// MonthOptions lists the periods from center-span to center+span, ascending.
func MonthOptions(center core.PeriodKey, span int) ([]core.PeriodKey, error) {
	if span < 0 {
		span = 0
	}
	first, err := center.Shift(-span)
	if err != nil {
		return nil, err
	}
	out := make([]core.PeriodKey, 0, 2*span+1)
	for i := 0; i <= 2*span; i++ {
		p, err := first.Shift(i)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
