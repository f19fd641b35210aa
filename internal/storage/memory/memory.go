// Package memory is an in-process backend. Data lives as long as the process.
package memory

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"bilancio/internal/core"
	"bilancio/internal/ports"
)

type account struct {
	user core.User
	hash string
}

type userData struct {
	txns      []core.Transaction
	goal      core.Goal
	reminders []core.Reminder
}

type Store struct {
	mu       sync.RWMutex
	data     map[string]*userData
	accounts map[string]account // by lower-case email
	now      func() time.Time
}

func New() *Store {
	return &Store{
		data:     make(map[string]*userData),
		accounts: make(map[string]account),
		now:      time.Now,
	}
}

var (
	_ ports.StoreProvider = (*Store)(nil)
	_ ports.UserDirectory = (*Store)(nil)
	_ ports.Store         = (*userStore)(nil)
)

func (s *Store) StoreFor(userID string) ports.Store {
	return &userStore{parent: s, userID: userID}
}

func (s *Store) CreateUser(_ context.Context, email, passwordHash string) (core.User, error) {
	key := strings.ToLower(strings.TrimSpace(email))
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[key]; ok {
		return core.User{}, ports.ErrEmailTaken
	}
	u := core.User{ID: uuid.NewString(), Email: key, CreatedAt: s.now().UTC()}
	s.accounts[key] = account{user: u, hash: passwordHash}
	return u, nil
}

func (s *Store) UserByEmail(_ context.Context, email string) (core.User, string, error) {
	key := strings.ToLower(strings.TrimSpace(email))
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[key]
	if !ok {
		return core.User{}, "", ports.ErrUserNotFound
	}
	return a.user, a.hash, nil
}

// Close satisfies the backend cleanup contract.
func (s *Store) Close() error { return nil }

// userLocked returns the bucket of userID, creating it. Caller holds mu.
func (s *Store) userLocked(userID string) *userData {
	d, ok := s.data[userID]
	if !ok {
		d = &userData{}
		s.data[userID] = d
	}
	return d
}

type userStore struct {
	parent *Store
	userID string
}

func (u *userStore) ListTransactions(context.Context) ([]core.Transaction, error) {
	u.parent.mu.RLock()
	defer u.parent.mu.RUnlock()
	d, ok := u.parent.data[u.userID]
	if !ok {
		return []core.Transaction{}, nil
	}
	return slices.Clone(d.txns), nil
}

func (u *userStore) UpsertTransaction(_ context.Context, tx core.Transaction) error {
	if tx.ID == "" {
		return core.ErrMissingID
	}
	u.parent.mu.Lock()
	defer u.parent.mu.Unlock()
	d := u.parent.userLocked(u.userID)
	if i := slices.IndexFunc(d.txns, func(t core.Transaction) bool { return t.ID == tx.ID }); i >= 0 {
		d.txns[i] = tx
		return nil
	}
	d.txns = append(d.txns, tx)
	return nil
}

func (u *userStore) DeleteTransaction(_ context.Context, id string) error {
	u.parent.mu.Lock()
	defer u.parent.mu.Unlock()
	if d, ok := u.parent.data[u.userID]; ok {
		d.txns = slices.DeleteFunc(d.txns, func(t core.Transaction) bool { return t.ID == id })
	}
	return nil
}

func (u *userStore) GetGoal(context.Context) (core.Goal, error) {
	u.parent.mu.RLock()
	defer u.parent.mu.RUnlock()
	if d, ok := u.parent.data[u.userID]; ok {
		return d.goal, nil
	}
	return core.Goal{}, nil
}

func (u *userStore) SetGoal(_ context.Context, g core.Goal) error {
	u.parent.mu.Lock()
	defer u.parent.mu.Unlock()
	u.parent.userLocked(u.userID).goal = g
	return nil
}

func (u *userStore) ListReminders(context.Context) ([]core.Reminder, error) {
	u.parent.mu.RLock()
	defer u.parent.mu.RUnlock()
	d, ok := u.parent.data[u.userID]
	if !ok {
		return []core.Reminder{}, nil
	}
	return slices.Clone(d.reminders), nil
}

func (u *userStore) UpsertReminder(_ context.Context, r core.Reminder) error {
	if r.ID == "" {
		return core.ErrMissingID
	}
	u.parent.mu.Lock()
	defer u.parent.mu.Unlock()
	d := u.parent.userLocked(u.userID)
	if i := slices.IndexFunc(d.reminders, func(x core.Reminder) bool { return x.ID == r.ID }); i >= 0 {
		d.reminders[i] = r
		return nil
	}
	d.reminders = append(d.reminders, r)
	return nil
}

func (u *userStore) DeleteReminder(_ context.Context, id string) error {
	u.parent.mu.Lock()
	defer u.parent.mu.Unlock()
	if d, ok := u.parent.data[u.userID]; ok {
		d.reminders = slices.DeleteFunc(d.reminders, func(x core.Reminder) bool { return x.ID == id })
	}
	return nil
}
