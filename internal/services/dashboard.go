package services

import (
	"context"
	"time"

	"bilancio/internal/core"
	"bilancio/internal/ledger"
)

// DashboardQuery is what the presentation layer asks for. Zero values mean
// the current month, no filter and no transaction being edited.
type DashboardQuery struct {
	Period core.PeriodKey
	Filter ledger.Filter
	EditID string
}

// Dashboard is the view model of one month.
type Dashboard struct {
	Today      core.Date
	Period     core.PeriodKey
	PrevPeriod core.PeriodKey
	NextPeriod core.PeriodKey
	Months     []core.PeriodKey

	Totals     ledger.MonthlyTotals
	Categories []ledger.CategoryTotal
	Trend      []ledger.TrendPoint

	Goal     core.Goal
	Progress ledger.GoalProgress

	Filter       ledger.Filter
	Transactions []core.Transaction // filtered, newest first
	Editing      *core.Transaction

	Reminders []ledger.ReminderStatus
}

type DashboardService struct {
	loader *SnapshotLoader
	now    func() time.Time
}

// NewDashboardService builds dashboards against now for "today".
func NewDashboardService(loader *SnapshotLoader, now func() time.Time) *DashboardService {
	if now == nil {
		now = time.Now
	}
	return &DashboardService{loader: loader, now: now}
}

func (s *DashboardService) Today() core.Date {
	return core.DateOf(s.now())
}

func (s *DashboardService) Build(ctx context.Context, userID string, q DashboardQuery) (Dashboard, error) {
	today := s.Today()
	period := q.Period
	if period == "" {
		period = today.PeriodKey()
	}
	if err := period.Validate(); err != nil {
		return Dashboard{}, err
	}

	snap, err := s.loader.Load(ctx, userID)
	if err != nil {
		return Dashboard{}, err
	}
	return Compose(snap, period, today, q)
}

// Compose derives the dashboard from a snapshot without touching storage.
func Compose(snap Snapshot, period core.PeriodKey, today core.Date, q DashboardQuery) (Dashboard, error) {
	prev, err := period.Shift(-1)
	if err != nil {
		return Dashboard{}, err
	}
	next, err := period.Shift(1)
	if err != nil {
		return Dashboard{}, err
	}
	months, err := ledger.MonthOptions(today.PeriodKey(), ledger.MonthSelectorSpan)
	if err != nil {
		return Dashboard{}, err
	}
	trend, err := ledger.TrailingMonthlySeries(snap.Transactions, period, ledger.DefaultTrendMonths)
	if err != nil {
		return Dashboard{}, err
	}

	totals := ledger.ComputeMonthlyTotals(snap.Transactions, period)
	d := Dashboard{
		Today:        today,
		Period:       period,
		PrevPeriod:   prev,
		NextPeriod:   next,
		Months:       months,
		Totals:       totals,
		Categories:   ledger.CategoryExpenseTotals(totals.Matched, core.Categories()),
		Trend:        trend,
		Goal:         snap.Goal,
		Progress:     ledger.EvaluateGoalProgress(snap.Goal.Amount, totals.Balance),
		Filter:       q.Filter,
		Transactions: ledger.SortByDateDesc(ledger.FilterTransactions(totals.Matched, q.Filter)),
		Reminders:    ledger.ScheduleReminders(snap.Reminders, today),
	}
	if q.EditID != "" {
		if tx, ok := ledger.FindTransaction(snap.Transactions, q.EditID); ok {
			d.Editing = &tx
		}
	}
	return d, nil
}
