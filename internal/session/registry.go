// Package session keeps per-user, in-memory editing sessions (trip drafts and
// itinerary builders) between HTTP requests.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/globe-trotter/internal/domain"
)

// Registry maps opaque session ids to values owned by a single user.
// Sessions idle for longer than the registry's ttl are evicted lazily.
// A session owned by someone else is reported as missing.
type Registry[T any] struct {
	ttl   time.Duration
	now   func() time.Time
	newID func() string

	mu      sync.Mutex
	entries map[string]*entry[T]
}

type entry[T any] struct {
	owner   string
	value   T
	touched time.Time
}

// NewRegistry returns an empty registry. A ttl of zero keeps sessions forever.
func NewRegistry[T any](ttl time.Duration) *Registry[T] {
	return &Registry[T]{
		ttl:     ttl,
		now:     time.Now,
		newID:   uuid.NewString,
		entries: make(map[string]*entry[T]),
	}
}

// Put stores value for owner and returns the new session id.
func (r *Registry[T]) Put(owner string, value T) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.evictLocked(now)

	id := r.newID()
	r.entries[id] = &entry[T]{owner: owner, value: value, touched: now}
	return id
}

// Get returns the session value and refreshes its idle timer.
func (r *Registry[T]) Get(owner, id string) (T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.evictLocked(now)

	e, ok := r.entries[id]
	if !ok || e.owner != owner {
		var zero T
		return zero, fmt.Errorf("session.Registry.Get: %w", domain.ErrNotFound)
	}
	e.touched = now
	return e.value, nil
}

// Delete removes the session.
func (r *Registry[T]) Delete(owner, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok || e.owner != owner {
		return fmt.Errorf("session.Registry.Delete: %w", domain.ErrNotFound)
	}
	delete(r.entries, id)
	return nil
}

// Len reports the number of live sessions.
func (r *Registry[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evictLocked(r.now())
	return len(r.entries)
}

func (r *Registry[T]) evictLocked(now time.Time) {
	if r.ttl <= 0 {
		return
	}
	for id, e := range r.entries {
		if now.Sub(e.touched) >= r.ttl {
			delete(r.entries, id)
		}
	}
}
