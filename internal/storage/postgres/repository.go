// Package postgres is the hosted multi-user backend.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"bilancio/internal/core"
	"bilancio/internal/ports"
)

const uniqueViolation = "23505"

type Repository struct {
	pool *pgxpool.Pool
}

var (
	_ ports.StoreProvider = (*Repository)(nil)
	_ ports.UserDirectory = (*Repository)(nil)
	_ ports.Store         = (*userStore)(nil)
)

// Open connects to databaseURL, checks the connection and migrates the schema.
func Open(ctx context.Context, databaseURL string) (*Repository, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(pool); err != nil {
		pool.Close()
		return nil, err
	}

	slog.InfoContext(ctx, "Connected to Postgres", "host", cfg.ConnConfig.Host, "database", cfg.ConnConfig.Database)
	return &Repository{pool: pool}, nil
}

func (r *Repository) Close() error {
	r.pool.Close()
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *Repository) StoreFor(userID string) ports.Store {
	return &userStore{pool: r.pool, userID: userID}
}

func (r *Repository) CreateUser(ctx context.Context, email, passwordHash string) (core.User, error) {
	u := core.User{ID: uuid.NewString(), Email: strings.ToLower(strings.TrimSpace(email))}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (id, email, password_hash) VALUES ($1::uuid, $2, $3)
		RETURNING created_at`, u.ID, u.Email, passwordHash).Scan(&u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return core.User{}, ports.ErrEmailTaken
		}
		return core.User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (r *Repository) UserByEmail(ctx context.Context, email string) (core.User, string, error) {
	var (
		u    core.User
		hash string
	)
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, email, password_hash, created_at FROM users WHERE email = $1`,
		strings.ToLower(strings.TrimSpace(email))).Scan(&u.ID, &u.Email, &hash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.User{}, "", ports.ErrUserNotFound
	}
	if err != nil {
		return core.User{}, "", fmt.Errorf("find user: %w", err)
	}
	return u, hash, nil
}

type userStore struct {
	pool   *pgxpool.Pool
	userID string
}

func (s *userStore) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, type, amount_cents, date, category, description
		FROM transactions WHERE user_id = $1::uuid
		ORDER BY created_at, id`, s.userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	out := make([]core.Transaction, 0)
	for rows.Next() {
		var (
			tx       core.Transaction
			typ, cat string
			cents    int64
			date     time.Time
		)
		if err := rows.Scan(&tx.ID, &typ, &cents, &date, &cat, &tx.Description); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		tx.Type = core.TransactionType(typ)
		tx.Category = core.Category(cat)
		tx.Amount = core.Money{Cents: cents}
		tx.Date = core.DateOf(date)
		out = append(out, tx)
	}
	return out, rows.Err()
}

func (s *userStore) UpsertTransaction(ctx context.Context, tx core.Transaction) error {
	if tx.ID == "" {
		return core.ErrMissingID
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO transactions (user_id, id, type, amount_cents, date, category, description)
		VALUES ($1::uuid, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, id) DO UPDATE SET
			type = EXCLUDED.type,
			amount_cents = EXCLUDED.amount_cents,
			date = EXCLUDED.date,
			category = EXCLUDED.category,
			description = EXCLUDED.description,
			updated_at = now()`,
		s.userID, tx.ID, string(tx.Type), tx.Amount.Cents, tx.Date.Time, string(tx.Category), tx.Description)
	if err != nil {
		return fmt.Errorf("upsert transaction %s: %w", tx.ID, err)
	}
	return nil
}

func (s *userStore) DeleteTransaction(ctx context.Context, id string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM transactions WHERE user_id = $1::uuid AND id = $2`, s.userID, id); err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	return nil
}

func (s *userStore) GetGoal(ctx context.Context) (core.Goal, error) {
	var cents int64
	err := s.pool.QueryRow(ctx, `SELECT amount_cents FROM goals WHERE user_id = $1::uuid`, s.userID).Scan(&cents)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Goal{}, nil
	}
	if err != nil {
		return core.Goal{}, fmt.Errorf("get goal: %w", err)
	}
	return core.Goal{Amount: core.Money{Cents: cents}}, nil
}

func (s *userStore) SetGoal(ctx context.Context, g core.Goal) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO goals (user_id, amount_cents) VALUES ($1::uuid, $2)
		ON CONFLICT (user_id) DO UPDATE SET amount_cents = EXCLUDED.amount_cents, updated_at = now()`,
		s.userID, g.Amount.Cents)
	if err != nil {
		return fmt.Errorf("set goal: %w", err)
	}
	return nil
}

func (s *userStore) ListReminders(ctx context.Context) ([]core.Reminder, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, amount_cents, due_date, notes
		FROM reminders WHERE user_id = $1::uuid
		ORDER BY due_date, created_at`, s.userID)
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	defer rows.Close()

	out := make([]core.Reminder, 0)
	for rows.Next() {
		var (
			rem   core.Reminder
			cents int64
			due   time.Time
		)
		if err := rows.Scan(&rem.ID, &rem.Name, &cents, &due, &rem.Notes); err != nil {
			return nil, fmt.Errorf("scan reminder: %w", err)
		}
		rem.Amount = core.Money{Cents: cents}
		rem.DueDate = core.DateOf(due)
		out = append(out, rem)
	}
	return out, rows.Err()
}

func (s *userStore) UpsertReminder(ctx context.Context, rem core.Reminder) error {
	if rem.ID == "" {
		return core.ErrMissingID
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO reminders (user_id, id, name, amount_cents, due_date, notes)
		VALUES ($1::uuid, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, id) DO UPDATE SET
			name = EXCLUDED.name,
			amount_cents = EXCLUDED.amount_cents,
			due_date = EXCLUDED.due_date,
			notes = EXCLUDED.notes`,
		s.userID, rem.ID, rem.Name, rem.Amount.Cents, rem.DueDate.Time, rem.Notes)
	if err != nil {
		return fmt.Errorf("upsert reminder %s: %w", rem.ID, err)
	}
	return nil
}

func (s *userStore) DeleteReminder(ctx context.Context, id string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM reminders WHERE user_id = $1::uuid AND id = $2`, s.userID, id); err != nil {
		return fmt.Errorf("delete reminder %s: %w", id, err)
	}
	return nil
}
