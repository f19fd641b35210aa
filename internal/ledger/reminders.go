package ledger

import (
	"slices"
	"strings"

	"bilancio/internal/core"
)

type ReminderStatus struct {
	Reminder core.Reminder
	Urgency  Urgency
	DaysLeft int
}

// ScheduleReminders classifies each reminder against today and orders them
// by due date, earliest first.
func ScheduleReminders(reminders []core.Reminder, today core.Date) []ReminderStatus {
	out := make([]ReminderStatus, 0, len(reminders))
	for _, r := range reminders {
		out = append(out, ReminderStatus{
			Reminder: r,
			Urgency:  ClassifyUrgency(r.DueDate, today),
			DaysLeft: DaysUntil(r.DueDate, today),
		})
	}
	slices.SortStableFunc(out, func(a, b ReminderStatus) int {
		if c := a.Reminder.DueDate.Compare(b.Reminder.DueDate.Time); c != 0 {
			return c
		}
		return strings.Compare(a.Reminder.Name, b.Reminder.Name)
	})
	return out
}
