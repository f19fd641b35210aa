// Package ports declares the storage contracts shared by every backend.
package ports

import (
	"context"
	"errors"

	"bilancio/internal/core"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")
)

type (
	TransactionStore interface {
		ListTransactions(ctx context.Context) ([]core.Transaction, error)
		// UpsertTransaction inserts tx, or replaces the stored one with the same ID.
		UpsertTransaction(ctx context.Context, tx core.Transaction) error
		// DeleteTransaction is a no-op for unknown ids.
		DeleteTransaction(ctx context.Context, id string) error
	}

	GoalStore interface {
		// GetGoal returns a zero Goal when none was saved.
		GetGoal(ctx context.Context) (core.Goal, error)
		SetGoal(ctx context.Context, g core.Goal) error
	}

	ReminderStore interface {
		ListReminders(ctx context.Context) ([]core.Reminder, error)
		UpsertReminder(ctx context.Context, r core.Reminder) error
		DeleteReminder(ctx context.Context, id string) error
	}

	// Store is the data of one user.
	Store interface {
		TransactionStore
		GoalStore
		ReminderStore
	}

	// StoreProvider hands out per-user stores. Single-user backends return
	// the same data for every id.
	StoreProvider interface {
		StoreFor(userID string) Store
	}

	// UserDirectory keeps accounts for the hosted mode.
	UserDirectory interface {
		CreateUser(ctx context.Context, email, passwordHash string) (core.User, error)
		// UserByEmail returns the user and the stored password hash.
		UserByEmail(ctx context.Context, email string) (core.User, string, error)
	}
)
