// Package repository holds race sessions in memory.
package repository

import (
	"context"

	"github.com/okian/coffeerun/internal/domain/session"
)

// Store provides access to hosted race sessions.
type Store interface {
	// Put adds a session. It fails with ErrExists for a duplicate id and
	// ErrCapacity once the store is full.
	Put(ctx context.Context, s *session.Session) error

	// Get returns the session or ErrNotFound.
	Get(ctx context.Context, id string) (*session.Session, error)

	// Delete removes the session or returns ErrNotFound.
	Delete(ctx context.Context, id string) error

	// Range calls fn for every session until fn returns false. fn must not
	// call back into the store.
	Range(ctx context.Context, fn func(s *session.Session) bool)

	// Count returns the number of sessions held.
	Count(ctx context.Context) int
}
