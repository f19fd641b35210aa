// Package worker applies change messages to the spreadsheet mirror.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"bilancio/internal/amqp"
	"bilancio/internal/ledger"
	"bilancio/internal/ports"
	"bilancio/internal/sheets"
)

// SyncWorker mirrors transactions from storage into a spreadsheet.
type SyncWorker struct {
	stores ports.StoreProvider
	mirror sheets.TransactionMirror
}

func NewSyncWorker(stores ports.StoreProvider, mirror sheets.TransactionMirror) *SyncWorker {
	return &SyncWorker{stores: stores, mirror: mirror}
}

// HandleChange processes a single change message from AMQP. Messages about
// goals and reminders are acknowledged without work; only transactions are
// mirrored.
func (w *SyncWorker) HandleChange(ctx context.Context, msg *amqp.ChangeMessage) error {
	if msg.Entity != amqp.EntityTransaction {
		slog.DebugContext(ctx, "Ignoring change message",
			"id", msg.ID,
			"entity", msg.Entity,
			"op", msg.Op)
		return nil
	}

	slog.InfoContext(ctx, "Processing change message",
		"id", msg.ID,
		"user_id", msg.UserID,
		"transaction_id", msg.EntityID,
		"op", msg.Op)

	switch msg.Op {
	case amqp.OpDelete:
		return w.deleteRow(ctx, msg.UserID, msg.EntityID)
	case amqp.OpUpsert:
		return w.syncTransaction(ctx, msg.UserID, msg.EntityID)
	default:
		return fmt.Errorf("unknown op %q", msg.Op)
	}
}

// syncTransaction reads the current state from storage, so stale or
// reordered messages converge on what is stored now.
func (w *SyncWorker) syncTransaction(ctx context.Context, userID, id string) error {
	txns, err := w.stores.StoreFor(userID).ListTransactions(ctx)
	if err != nil {
		return fmt.Errorf("load transactions: %w", err)
	}
	tx, ok := ledger.FindTransaction(txns, id)
	if !ok {
		slog.InfoContext(ctx, "Transaction no longer stored, removing row", "transaction_id", id)
		return w.deleteRow(ctx, userID, id)
	}

	if err := w.mirror.UpsertTransaction(ctx, userID, tx); err != nil {
		return fmt.Errorf("upsert to sheets: %w", err)
	}
	slog.InfoContext(ctx, "Successfully synced transaction",
		"transaction_id", id,
		"user_id", userID,
		"amount_cents", tx.Amount.Cents)
	return nil
}

func (w *SyncWorker) deleteRow(ctx context.Context, userID, id string) error {
	if err := w.mirror.DeleteTransaction(ctx, userID, id); err != nil {
		return fmt.Errorf("delete from sheets: %w", err)
	}
	slog.InfoContext(ctx, "Successfully deleted transaction row", "transaction_id", id)
	return nil
}

// StartupSync pushes every stored transaction of the given users. It
// recovers from messages lost while the worker was down.
func (w *SyncWorker) StartupSync(ctx context.Context, userIDs ...string) error {
	synced, failed := 0, 0
	for _, userID := range userIDs {
		txns, err := w.stores.StoreFor(userID).ListTransactions(ctx)
		if err != nil {
			return fmt.Errorf("load transactions for startup sync: %w", err)
		}
		for _, tx := range txns {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := w.mirror.UpsertTransaction(ctx, userID, tx); err != nil {
				slog.ErrorContext(ctx, "Failed to sync transaction during startup",
					"transaction_id", tx.ID, "error", err)
				failed++
				continue
			}
			synced++
		}
	}

	slog.InfoContext(ctx, "Startup sync completed",
		"users", len(userIDs),
		"synced", synced,
		"errors", failed)
	return nil
}
