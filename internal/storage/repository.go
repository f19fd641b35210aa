// Package storage is the single-user local backend: one SQLite file.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"bilancio/internal/core"
	"bilancio/internal/ports"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

var (
	_ ports.Store         = (*SQLiteRepository)(nil)
	_ ports.StoreProvider = (*SQLiteRepository)(nil)
)

func dsn(dbPath string) string {
	return "file:" + dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// one writer at a time; SQLite serialises them anyway
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dsn(dbPath)); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database file is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// StoreFor returns the repository itself: the local file has one owner.
func (r *SQLiteRepository) StoreFor(string) ports.Store {
	return r
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, type, amount_cents, date, category, description FROM transactions ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	out := make([]core.Transaction, 0)
	for rows.Next() {
		var (
			tx        core.Transaction
			typ, cat  string
			date      string
			amountCts int64
		)
		if err := rows.Scan(&tx.ID, &typ, &amountCts, &date, &cat, &tx.Description); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		if tx.Date, err = core.ParseDate(date); err != nil {
			return nil, fmt.Errorf("transaction %s: %w", tx.ID, err)
		}
		tx.Type = core.TransactionType(typ)
		tx.Category = core.Category(cat)
		tx.Amount = core.Money{Cents: amountCts}
		out = append(out, tx)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpsertTransaction(ctx context.Context, tx core.Transaction) error {
	if tx.ID == "" {
		return core.ErrMissingID
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (id, type, amount_cents, date, category, description)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			type = excluded.type,
			amount_cents = excluded.amount_cents,
			date = excluded.date,
			category = excluded.category,
			description = excluded.description,
			updated_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now')`,
		tx.ID, string(tx.Type), tx.Amount.Cents, tx.Date.String(), string(tx.Category), tx.Description)
	if err != nil {
		return fmt.Errorf("upsert transaction %s: %w", tx.ID, err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", tx.ID,
		"type", tx.Type,
		"amount_cents", tx.Amount.Cents,
		"date", tx.Date.String())
	return nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) GetGoal(ctx context.Context) (core.Goal, error) {
	var cents int64
	err := r.db.QueryRowContext(ctx, `SELECT amount_cents FROM goal WHERE id = 1`).Scan(&cents)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Goal{}, nil
	}
	if err != nil {
		return core.Goal{}, fmt.Errorf("get goal: %w", err)
	}
	return core.Goal{Amount: core.Money{Cents: cents}}, nil
}

func (r *SQLiteRepository) SetGoal(ctx context.Context, g core.Goal) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO goal (id, amount_cents) VALUES (1, ?)
		ON CONFLICT (id) DO UPDATE SET
			amount_cents = excluded.amount_cents,
			updated_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now')`, g.Amount.Cents)
	if err != nil {
		return fmt.Errorf("set goal: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListReminders(ctx context.Context) ([]core.Reminder, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, amount_cents, due_date, notes FROM reminders ORDER BY due_date, rowid`)
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	defer rows.Close()

	out := make([]core.Reminder, 0)
	for rows.Next() {
		var (
			rem   core.Reminder
			due   string
			cents int64
		)
		if err := rows.Scan(&rem.ID, &rem.Name, &cents, &due, &rem.Notes); err != nil {
			return nil, fmt.Errorf("scan reminder: %w", err)
		}
		if rem.DueDate, err = core.ParseDate(due); err != nil {
			return nil, fmt.Errorf("reminder %s: %w", rem.ID, err)
		}
		rem.Amount = core.Money{Cents: cents}
		out = append(out, rem)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpsertReminder(ctx context.Context, rem core.Reminder) error {
	if rem.ID == "" {
		return core.ErrMissingID
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO reminders (id, name, amount_cents, due_date, notes)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			amount_cents = excluded.amount_cents,
			due_date = excluded.due_date,
			notes = excluded.notes`,
		rem.ID, rem.Name, rem.Amount.Cents, rem.DueDate.String(), rem.Notes)
	if err != nil {
		return fmt.Errorf("upsert reminder %s: %w", rem.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteReminder(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM reminders WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete reminder %s: %w", id, err)
	}
	return nil
}
