// Package ledger holds the pure computations behind the dashboard: monthly
// totals, the category breakdown, trailing trend series, goal progress and
// reminder urgency.
//
// Every function takes a snapshot and returns a newly built value. Inputs
// are never mutated and nothing is retained between calls, so the same
// inputs always give the same outputs. Records are expected to have passed
// core validation before they get here.
package ledger
