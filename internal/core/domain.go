package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

const (
	MaxDescriptionLen = 60
	MaxReminderName   = 60
	MaxReminderNotes  = 80
)

const dateLayout = "2006-01-02"

type (
	TransactionType string

	// Date is a calendar day in UTC. The time-of-day part is always midnight.
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	Transaction struct {
		ID          string
		Type        TransactionType
		Amount      Money
		Date        Date
		Category    Category
		Description string
	}

	// Goal is the single monthly savings target of a user. A zero amount means no goal.
	Goal struct {
		Amount Money
	}

	Reminder struct {
		ID      string
		Name    string
		Amount  Money // zero when not tracked
		DueDate Date
		Notes   string
	}

	User struct {
		ID        string
		Email     string
		CreatedAt time.Time
	}
)

var (
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidEnumValue = errors.New("invalid enum value")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyName        = errors.New("empty name")
	ErrTooLong          = errors.New("text too long")
	ErrMissingID        = errors.New("missing id")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day, as seen in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// timestampLayouts are the longer forms ParseDate accepts; SQLite hands
// DATE columns back as RFC 3339 timestamps.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
}

// ParseDate parses a YYYY-MM-DD string or a full timestamp, keeping the
// calendar day as written.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if len(s) <= len(dateLayout) {
		t, err := time.Parse(dateLayout, s)
		if err != nil {
			return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
		}
		return Date{Time: t}, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOf(t), nil
		}
	}
	return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return fmt.Errorf("%w: date cannot be zero", ErrInvalidDate)
	}
	return nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

// AddDays returns the date n days later (earlier when n is negative).
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalJSON shadows time.Time's RFC 3339 encoding.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	return d.UnmarshalText([]byte(s))
}

// ParseTransactionType accepts "income" or "expense", case-insensitively.
func ParseTransactionType(s string) (TransactionType, error) {
	t := TransactionType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: transaction type %q", ErrInvalidEnumValue, s)
	}
	return t, nil
}

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

func (t TransactionType) String() string {
	return string(t)
}

func (tx Transaction) Validate() error {
	if !tx.Type.Valid() {
		return fmt.Errorf("%w: transaction type %q", ErrInvalidEnumValue, tx.Type)
	}
	if err := tx.Amount.Validate(); err != nil {
		return err
	}
	if err := tx.Date.Validate(); err != nil {
		return err
	}
	if !tx.Category.Valid() {
		return fmt.Errorf("%w: category %q", ErrInvalidEnumValue, tx.Category)
	}
	return ValidateDescription(tx.Description)
}

// ValidateDescription checks a transaction description.
func ValidateDescription(s string) error {
	return validateText(s, MaxDescriptionLen, ErrEmptyDescription, true)
}

func (g Goal) Validate() error {
	return g.Amount.ValidateNonNegative()
}

// IsSet reports whether a positive target has been saved.
func (g Goal) IsSet() bool {
	return g.Amount.Cents > 0
}

func (r Reminder) Validate() error {
	if err := ValidateReminderName(r.Name); err != nil {
		return err
	}
	if err := r.Amount.ValidateNonNegative(); err != nil {
		return err
	}
	if err := r.DueDate.Validate(); err != nil {
		return err
	}
	return ValidateReminderNotes(r.Notes)
}

func ValidateReminderName(s string) error {
	return validateText(s, MaxReminderName, ErrEmptyName, true)
}

// ValidateReminderNotes allows empty notes.
func ValidateReminderNotes(s string) error {
	return validateText(s, MaxReminderNotes, nil, false)
}

func validateText(s string, max int, emptyErr error, required bool) error {
	trimmed := strings.TrimSpace(s)
	if required && trimmed == "" {
		return emptyErr
	}
	if n := utf8.RuneCountInString(trimmed); n > max {
		return fmt.Errorf("%w: %d characters (max %d)", ErrTooLong, n, max)
	}
	return nil
}
