package http

import (
	"bilancio/internal/core"
	"bilancio/internal/ledger"
	"bilancio/internal/services"
)

type transactionForm struct {
	Action      string
	Editing     bool
	ID          string
	Type        core.TransactionType
	Amount      string
	Date        string
	Category    core.Category
	Description string
}

// chartPoint and chartSlice are the JSON the charts in app.js read from
// data attributes.
type chartPoint struct {
	Label   string  `json:"label"`
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
}

type chartSlice struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Color string  `json:"color"`
}

type dashboardView struct {
	services.Dashboard
	Query           string
	CategoryOptions []core.Category
	TypeOptions     []core.TransactionType
	Form            transactionForm
	TrendChart      []chartPoint
	PieChart        []chartSlice
}

type pageView struct {
	Hosted    bool
	Dashboard dashboardView
}

type authView struct {
	Title  string
	Action string
	Email  string
	Error  string
}

func newDashboardView(d services.Dashboard) dashboardView {
	v := dashboardView{
		Dashboard:       d,
		Query:           encodeDashboardQuery(d.Period, d.Filter),
		CategoryOptions: core.Categories(),
		TypeOptions:     []core.TransactionType{core.Income, core.Expense},
		Form:            newTransactionForm(d),
	}
	for _, p := range d.Trend {
		v.TrendChart = append(v.TrendChart, chartPoint{
			Label:   shortMonthLabel(p.Period),
			Income:  p.Income.Euros(),
			Expense: p.Expense.Euros(),
		})
	}
	for _, c := range d.Categories {
		v.PieChart = append(v.PieChart, chartSlice{
			Label: c.Category.String(),
			Value: c.Amount.Euros(),
			Color: c.Category.Color(),
		})
	}
	return v
}

// newTransactionForm pre-fills the form with the transaction being edited,
// or with defaults: an expense dated today when today is in the selected
// month, otherwise the first day of that month.
func newTransactionForm(d services.Dashboard) transactionForm {
	if tx := d.Editing; tx != nil {
		return transactionForm{
			Action:      "/transactions/" + tx.ID,
			Editing:     true,
			ID:          tx.ID,
			Type:        tx.Type,
			Amount:      tx.Amount.String(),
			Date:        tx.Date.String(),
			Category:    tx.Category,
			Description: tx.Description,
		}
	}

	date := d.Today
	if date.PeriodKey() != d.Period {
		if start, err := d.Period.Start(); err == nil {
			date = start
		}
	}
	return transactionForm{
		Action:   "/transactions",
		Type:     core.Expense,
		Date:     date.String(),
		Category: core.Categories()[0],
	}
}

// summaryJSON is the body of GET /api/summary.
type summaryJSON struct {
	Period     core.PeriodKey `json:"period"`
	Income     string         `json:"income"`
	Expense    string         `json:"expense"`
	Balance    string         `json:"balance"`
	Categories []categoryJSON `json:"categories"`
	Goal       *goalJSON      `json:"goal,omitempty"`
	Reminders  []reminderJSON `json:"reminders"`
}

type categoryJSON struct {
	Category core.Category `json:"category"`
	Color    string        `json:"color"`
	Amount   string        `json:"amount"`
}

type goalJSON struct {
	Target   string `json:"target"`
	Current  string `json:"current"`
	Percent  int    `json:"percent"`
	Achieved bool   `json:"achieved"`
}

type reminderJSON struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Amount   string    `json:"amount,omitempty"`
	DueDate  core.Date `json:"due_date"`
	Notes    string    `json:"notes,omitempty"`
	Urgency  string    `json:"urgency"`
	DaysLeft int       `json:"days_left"`
}

type trendJSON struct {
	Period core.PeriodKey   `json:"period"`
	Points []trendPointJSON `json:"points"`
}

type trendPointJSON struct {
	Period  core.PeriodKey `json:"period"`
	Income  string         `json:"income"`
	Expense string         `json:"expense"`
}

type transactionJSON struct {
	ID          string               `json:"id"`
	Type        core.TransactionType `json:"type"`
	Amount      string               `json:"amount"`
	Date        core.Date            `json:"date"`
	Category    core.Category        `json:"category"`
	Description string               `json:"description"`
}

func newSummaryJSON(d services.Dashboard) summaryJSON {
	out := summaryJSON{
		Period:     d.Period,
		Income:     d.Totals.Income.String(),
		Expense:    d.Totals.Expense.String(),
		Balance:    d.Totals.Balance.String(),
		Categories: make([]categoryJSON, 0, len(d.Categories)),
		Reminders:  make([]reminderJSON, 0, len(d.Reminders)),
	}
	for _, c := range d.Categories {
		out.Categories = append(out.Categories, categoryJSON{
			Category: c.Category,
			Color:    c.Category.Color(),
			Amount:   c.Amount.String(),
		})
	}
	if p := d.Progress; p.Applicable {
		out.Goal = &goalJSON{
			Target:   p.Target.String(),
			Current:  p.ClampedCurrent.String(),
			Percent:  p.Percent,
			Achieved: p.Achieved,
		}
	}
	for _, st := range d.Reminders {
		out.Reminders = append(out.Reminders, newReminderJSON(st))
	}
	return out
}

func newReminderJSON(st ledger.ReminderStatus) reminderJSON {
	r := st.Reminder
	out := reminderJSON{
		ID:       r.ID,
		Name:     r.Name,
		DueDate:  r.DueDate,
		Notes:    r.Notes,
		Urgency:  st.Urgency.String(),
		DaysLeft: st.DaysLeft,
	}
	if !r.Amount.IsZero() {
		out.Amount = r.Amount.String()
	}
	return out
}

func newTrendJSON(period core.PeriodKey, points []ledger.TrendPoint) trendJSON {
	out := trendJSON{Period: period, Points: make([]trendPointJSON, 0, len(points))}
	for _, p := range points {
		out.Points = append(out.Points, trendPointJSON{
			Period:  p.Period,
			Income:  p.Income.String(),
			Expense: p.Expense.String(),
		})
	}
	return out
}

func newTransactionJSON(tx core.Transaction) transactionJSON {
	return transactionJSON{
		ID:          tx.ID,
		Type:        tx.Type,
		Amount:      tx.Amount.String(),
		Date:        tx.Date,
		Category:    tx.Category,
		Description: tx.Description,
	}
}
