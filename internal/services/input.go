package services

import (
	"errors"
	"fmt"
	"strings"

	"bilancio/internal/core"
)

// ValidationError names the form field that failed boundary validation.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// IsValidation reports whether err came from input validation.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func invalid(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}

// TransactionInput is a transaction as submitted by a form or JSON body.
// An empty ID creates a new transaction.
type TransactionInput struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Amount      string `json:"amount"`
	Date        string `json:"date"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

// Build validates the input and returns the transaction it describes.
func (in TransactionInput) Build(id string) (core.Transaction, error) {
	typ, err := core.ParseTransactionType(in.Type)
	if err != nil {
		return core.Transaction{}, invalid("type", err)
	}
	cents, err := core.ParseDecimalToCents(in.Amount)
	if err != nil {
		return core.Transaction{}, invalid("amount", err)
	}
	date, err := core.ParseDate(in.Date)
	if err != nil {
		return core.Transaction{}, invalid("date", err)
	}
	cat, err := core.ParseCategory(in.Category)
	if err != nil {
		return core.Transaction{}, invalid("category", err)
	}
	desc := strings.TrimSpace(in.Description)
	if err := core.ValidateDescription(desc); err != nil {
		return core.Transaction{}, invalid("description", err)
	}
	tx := core.Transaction{
		ID:          id,
		Type:        typ,
		Amount:      core.Money{Cents: cents},
		Date:        date,
		Category:    cat,
		Description: desc,
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, invalid("transaction", err)
	}
	return tx, nil
}

type ReminderInput struct {
	Name    string `json:"name"`
	Amount  string `json:"amount"`
	DueDate string `json:"due_date"`
	Notes   string `json:"notes"`
}

func (in ReminderInput) Build(id string) (core.Reminder, error) {
	name := strings.TrimSpace(in.Name)
	if err := core.ValidateReminderName(name); err != nil {
		return core.Reminder{}, invalid("name", err)
	}
	amount := core.Money{}
	if strings.TrimSpace(in.Amount) != "" {
		var err error
		if amount, err = core.ParseAmount(in.Amount); err != nil {
			return core.Reminder{}, invalid("amount", err)
		}
	}
	due, err := core.ParseDate(in.DueDate)
	if err != nil {
		return core.Reminder{}, invalid("due_date", err)
	}
	notes := strings.TrimSpace(in.Notes)
	if err := core.ValidateReminderNotes(notes); err != nil {
		return core.Reminder{}, invalid("notes", err)
	}
	r := core.Reminder{
		ID:      id,
		Name:    name,
		Amount:  amount,
		DueDate: due,
		Notes:   notes,
	}
	if err := r.Validate(); err != nil {
		return core.Reminder{}, invalid("reminder", err)
	}
	return r, nil
}

// ParseGoalAmount accepts an empty string as "no goal".
func ParseGoalAmount(s string) (core.Goal, error) {
	if strings.TrimSpace(s) == "" {
		return core.Goal{}, nil
	}
	m, err := core.ParseAmount(s)
	if err != nil {
		return core.Goal{}, invalid("goal", err)
	}
	return core.Goal{Amount: m}, nil
}
