// Package backend builds the storage backend selected by configuration.
package backend

import (
	"context"

	"bilancio/internal/ports"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// BackendResult holds the stores of one backend. Users is nil for
// single-user backends, which run without sign-in.
type BackendResult struct {
	Type    BackendType
	Stores  ports.StoreProvider
	Users   ports.UserDirectory
	Health  Pinger
	Cleanup CleanupFunc
}

// MultiUser reports whether the backend keeps accounts.
func (r *BackendResult) MultiUser() bool {
	return r.Users != nil
}

// Ping checks the store, treating backends without a health check as healthy.
func (r *BackendResult) Ping(ctx context.Context) error {
	if r.Health == nil {
		return nil
	}
	return r.Health.Ping(ctx)
}

// Close runs the cleanup function once.
func (r *BackendResult) Close() error {
	if r.Cleanup == nil {
		return nil
	}
	cleanup := r.Cleanup
	r.Cleanup = nil
	return cleanup()
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// BackendType represents the type of backend
type BackendType string

const (
	MemoryBackend   BackendType = "memory"
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SQLiteBackend, PostgresBackend:
		return true
	default:
		return false
	}
}
