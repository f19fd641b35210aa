package ledger

import (
	"time"

	"bilancio/internal/core"
)

// DueSoonDays is the inclusive window, in days from today, of DueSoon.
const DueSoonDays = 7

type Urgency int

const (
	Overdue Urgency = iota
	DueSoon
	OnTrack
)

func (u Urgency) String() string {
	switch u {
	case Overdue:
		return "overdue"
	case DueSoon:
		return "due-soon"
	case OnTrack:
		return "on-track"
	default:
		return "unknown"
	}
}

// DaysUntil counts calendar days from today to due; negative when due is past.
func DaysUntil(due, today core.Date) int {
	d := core.DateOf(due.Time)
	t := core.DateOf(today.Time)
	return int(d.Sub(t.Time) / (24 * time.Hour))
}

// ClassifyUrgency maps a due date to Overdue (in the past), DueSoon (today up
// to DueSoonDays ahead, both ends included) or OnTrack.
func ClassifyUrgency(due, today core.Date) Urgency {
	diff := DaysUntil(due, today)
	switch {
	case diff < 0:
		return Overdue
	case diff <= DueSoonDays:
		return DueSoon
	default:
		return OnTrack
	}
}
