// Package services composes storage, the ledger computations and change
// notifications into the operations the HTTP layer exposes.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"bilancio/internal/amqp"
	"bilancio/internal/core"
	"bilancio/internal/ledger"
	"bilancio/internal/ports"
)

// ErrTransactionNotFound is returned when an edit names a transaction the
// user does not own.
var ErrTransactionNotFound = errors.New("transaction not found")

// Publisher announces changes to other processes.
type Publisher interface {
	Publish(ctx context.Context, msg *amqp.ChangeMessage) error
}

// FinanceService is the write side: it validates input, persists it and
// announces the change. Publishing is best effort.
type FinanceService struct {
	stores    ports.StoreProvider
	snapshots *SnapshotLoader
	publisher Publisher
	newID     func() string
}

// NewFinanceService wires the write path. publisher may be nil.
func NewFinanceService(stores ports.StoreProvider, snapshots *SnapshotLoader, publisher Publisher) *FinanceService {
	return &FinanceService{
		stores:    stores,
		snapshots: snapshots,
		publisher: publisher,
		newID:     uuid.NewString,
	}
}

// SaveTransaction creates a transaction when in.ID is empty and replaces the
// user's transaction with that id otherwise. Ids are only ever assigned here.
func (s *FinanceService) SaveTransaction(ctx context.Context, userID string, in TransactionInput) (core.Transaction, error) {
	id := in.ID
	if id == "" {
		id = s.newID()
	}
	tx, err := in.Build(id)
	if err != nil {
		return core.Transaction{}, err
	}
	store := s.stores.StoreFor(userID)
	if in.ID != "" {
		existing, err := store.ListTransactions(ctx)
		if err != nil {
			return core.Transaction{}, fmt.Errorf("load transactions: %w", err)
		}
		if _, ok := ledger.FindTransaction(existing, in.ID); !ok {
			return core.Transaction{}, fmt.Errorf("%w: %s", ErrTransactionNotFound, in.ID)
		}
	}
	if err := store.UpsertTransaction(ctx, tx); err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}
	s.changed(ctx, userID, amqp.EntityTransaction, tx.ID, amqp.OpUpsert)
	return tx, nil
}

func (s *FinanceService) DeleteTransaction(ctx context.Context, userID, id string) error {
	if id == "" {
		return invalid("id", core.ErrMissingID)
	}
	if err := s.stores.StoreFor(userID).DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	s.changed(ctx, userID, amqp.EntityTransaction, id, amqp.OpDelete)
	return nil
}

// SetGoal overwrites the monthly target; an empty amount clears it.
func (s *FinanceService) SetGoal(ctx context.Context, userID, amount string) (core.Goal, error) {
	g, err := ParseGoalAmount(amount)
	if err != nil {
		return core.Goal{}, err
	}
	if err := g.Validate(); err != nil {
		return core.Goal{}, invalid("goal", err)
	}
	if err := s.stores.StoreFor(userID).SetGoal(ctx, g); err != nil {
		return core.Goal{}, fmt.Errorf("save goal: %w", err)
	}
	s.changed(ctx, userID, amqp.EntityGoal, "", amqp.OpUpsert)
	return g, nil
}

// AddReminder always creates; reminders are not edited in place.
func (s *FinanceService) AddReminder(ctx context.Context, userID string, in ReminderInput) (core.Reminder, error) {
	r, err := in.Build(s.newID())
	if err != nil {
		return core.Reminder{}, err
	}
	if err := s.stores.StoreFor(userID).UpsertReminder(ctx, r); err != nil {
		return core.Reminder{}, fmt.Errorf("save reminder: %w", err)
	}
	s.changed(ctx, userID, amqp.EntityReminder, r.ID, amqp.OpUpsert)
	return r, nil
}

func (s *FinanceService) DeleteReminder(ctx context.Context, userID, id string) error {
	if id == "" {
		return invalid("id", core.ErrMissingID)
	}
	if err := s.stores.StoreFor(userID).DeleteReminder(ctx, id); err != nil {
		return fmt.Errorf("delete reminder: %w", err)
	}
	s.changed(ctx, userID, amqp.EntityReminder, id, amqp.OpDelete)
	return nil
}

func (s *FinanceService) changed(ctx context.Context, userID, entity, id, op string) {
	if s.snapshots != nil {
		s.snapshots.Invalidate(userID)
	}
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, amqp.NewChangeMessage(userID, entity, id, op)); err != nil {
		// the record is saved; the mirror catches up on the next change
		level := slog.LevelError
		if errors.Is(err, amqp.ErrCircuitOpen) {
			level = slog.LevelWarn
		}
		slog.Log(ctx, level, "Failed to publish change message",
			"component", "finance",
			"user_id", userID,
			"entity", entity,
			"entity_id", id,
			"op", op,
			"error", err)
	}
}
