package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"bilancio/internal/cache"
	"bilancio/internal/core"
	"bilancio/internal/ports"
)

// Snapshot is everything a user owns, read at one point in time.
type Snapshot struct {
	Transactions []core.Transaction
	Goal         core.Goal
	Reminders    []core.Reminder
}

const snapshotCacheSize = 256

// SnapshotLoader reads snapshots, caching them per user until the next write.
// A read that overlaps a write is returned but never cached.
type SnapshotLoader struct {
	stores ports.StoreProvider
	cache  *cache.LRUCache[Snapshot]

	mu          sync.Mutex
	generations map[string]uint64
}

// NewSnapshotLoader caches snapshots for ttl; zero disables caching.
func NewSnapshotLoader(stores ports.StoreProvider, ttl time.Duration) *SnapshotLoader {
	return &SnapshotLoader{
		stores: stores,
		cache:  cache.NewLRUCache[Snapshot](snapshotCacheSize, ttl),

		generations: make(map[string]uint64),
	}
}

// Cache exposes the underlying cache for sweeping and metrics.
func (l *SnapshotLoader) Cache() *cache.LRUCache[Snapshot] { return l.cache }

// Load reads the three collections concurrently.
func (l *SnapshotLoader) Load(ctx context.Context, userID string) (Snapshot, error) {
	if snap, ok := l.cache.Get(userID); ok {
		return snap, nil
	}
	gen := l.generation(userID)

	store := l.stores.StoreFor(userID)
	var snap Snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		txns, err := store.ListTransactions(gctx)
		if err != nil {
			return fmt.Errorf("load transactions: %w", err)
		}
		snap.Transactions = txns
		return nil
	})
	g.Go(func() error {
		goal, err := store.GetGoal(gctx)
		if err != nil {
			return fmt.Errorf("load goal: %w", err)
		}
		snap.Goal = goal
		return nil
	})
	g.Go(func() error {
		rs, err := store.ListReminders(gctx)
		if err != nil {
			return fmt.Errorf("load reminders: %w", err)
		}
		snap.Reminders = rs
		return nil
	})
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}

	l.mu.Lock()
	if l.generations[userID] == gen {
		l.cache.Set(userID, snap)
	}
	l.mu.Unlock()
	return snap, nil
}

func (l *SnapshotLoader) generation(userID string) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.generations[userID]
}

// Invalidate drops the cached snapshot and stops reads already in flight
// from caching what they loaded.
func (l *SnapshotLoader) Invalidate(userID string) {
	l.mu.Lock()
	l.generations[userID]++
	l.cache.Delete(userID)
	l.mu.Unlock()
}
