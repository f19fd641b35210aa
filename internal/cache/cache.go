package cache

import (
	"context"
	"log/slog"
	"time"
)

// Cache defines a generic cache interface
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	DeletePrefix(prefix string) int
	Size() int
}

var _ Cache[int] = (*LRUCache[int])(nil)

// Cleaner is a cache that can drop its expired entries.
type Cleaner interface {
	CleanExpired() int
}

// Manager sweeps registered caches periodically.
type Manager struct {
	caches []Cleaner
	done   chan struct{}
}

func NewManager(caches ...Cleaner) *Manager {
	return &Manager{caches: caches}
}

func (m *Manager) Register(c Cleaner) {
	m.caches = append(m.caches, c)
}

// Sweep cleans every cache once and returns the number of evicted entries.
func (m *Manager) Sweep() int {
	total := 0
	for _, c := range m.caches {
		total += c.CleanExpired()
	}
	return total
}

// Start sweeps every interval until ctx is cancelled. Wait blocks until the
// loop has exited.
func (m *Manager) Start(ctx context.Context, interval time.Duration) {
	m.done = make(chan struct{})
	go func() {
		defer close(m.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := m.Sweep(); n > 0 {
					slog.Debug("Expired cache entries removed", "component", "cache", "count", n)
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (m *Manager) Wait() {
	if m.done != nil {
		<-m.done
	}
}
