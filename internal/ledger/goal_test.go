package ledger

import "testing"

func TestEvaluateGoalProgress(t *testing.T) {
	cases := []struct {
		name       string
		target     int64
		balance    int64
		applicable bool
		ratio      float64
		percent    int
		achieved   bool
		clamped    int64
	}{
		{"negative balance", 100000, -20000, true, 0, 0, false, 0},
		{"surplus capped", 100000, 150000, true, 1, 100, true, 150000},
		{"exactly reached", 100000, 100000, true, 1, 100, true, 100000},
		{"partial", 100000, 25000, true, 0.25, 25, false, 25000},
		{"one cent short", 100000, 99999, true, 0.99999, 99, false, 99999},
		{"zero balance", 5000, 0, true, 0, 0, false, 0},
		{"no target", 0, 50000, false, 0, 0, false, 0},
		{"negative target", -100, 50000, false, 0, 0, false, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := EvaluateGoalProgress(cents(tc.target), cents(tc.balance))
			if got.Applicable != tc.applicable {
				t.Fatalf("applicable: expected %v, got %v", tc.applicable, got.Applicable)
			}
			if got.Ratio != tc.ratio || got.Percent != tc.percent || got.Achieved != tc.achieved || got.ClampedCurrent.Cents != tc.clamped {
				t.Fatalf("expected ratio=%v percent=%d achieved=%v clamped=%d, got %+v",
					tc.ratio, tc.percent, tc.achieved, tc.clamped, got)
			}
			if got.Ratio < 0 || got.Ratio > 1 {
				t.Fatalf("ratio out of range: %v", got.Ratio)
			}
		})
	}
}

func TestGoalRemaining(t *testing.T) {
	if r := EvaluateGoalProgress(cents(1000), cents(400)).Remaining(); r.Cents != 600 {
		t.Fatalf("expected 600 remaining, got %d", r.Cents)
	}
	if r := EvaluateGoalProgress(cents(1000), cents(4000)).Remaining(); !r.IsZero() {
		t.Fatalf("expected nothing remaining, got %d", r.Cents)
	}
	if r := EvaluateGoalProgress(cents(0), cents(4000)).Remaining(); !r.IsZero() {
		t.Fatalf("expected nothing remaining without a goal, got %d", r.Cents)
	}
}
