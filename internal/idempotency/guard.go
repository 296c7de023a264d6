// Package idempotency deduplicates retried create requests.
//
// A client sends the same Idempotency-Key with every retry of one logical
// create. The first request claims the key; a retry that arrives while it is
// still running is rejected, and a retry after it finished gets the stored
// result instead of creating a second record.
package idempotency

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pkordes/globe-trotter/internal/domain"
)

// DefaultTTL bounds how long a key is remembered.
const DefaultTTL = 24 * time.Hour

// Guard claims and settles idempotency keys.
type Guard interface {
	// Begin claims key. When the key already completed it returns the stored
	// result with done set. When another request holds the key it returns
	// domain.ErrDuplicateSubmission.
	Begin(ctx context.Context, key string) (result string, done bool, err error)
	// Complete records result for key.
	Complete(ctx context.Context, key, result string) error
	// Abort releases key so the operation can be retried.
	Abort(ctx context.Context, key string) error
}

// Key scopes a client-supplied key to one user, so two users cannot collide.
func Key(userID, clientKey string) string {
	return userID + ":" + clientKey
}

type entry struct {
	done    bool
	result  string
	expires time.Time
}

// MemoryGuard is a process-local Guard, used when no Redis is configured.
type MemoryGuard struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[string]entry
}

var _ Guard = (*MemoryGuard)(nil)

// NewMemoryGuard returns a MemoryGuard that forgets keys after ttl.
func NewMemoryGuard(ttl time.Duration) *MemoryGuard {
	return &MemoryGuard{ttl: ttl, now: time.Now, entries: make(map[string]entry)}
}

func (g *MemoryGuard) Begin(_ context.Context, key string) (string, bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	g.evictLocked(now)

	if e, ok := g.entries[key]; ok {
		if e.done {
			return e.result, true, nil
		}
		return "", false, fmt.Errorf("idempotency.MemoryGuard.Begin: %w", domain.ErrDuplicateSubmission)
	}
	g.entries[key] = entry{expires: now.Add(g.ttl)}
	return "", false, nil
}

func (g *MemoryGuard) Complete(_ context.Context, key, result string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.entries[key] = entry{done: true, result: result, expires: g.now().Add(g.ttl)}
	return nil
}

func (g *MemoryGuard) Abort(_ context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.entries, key)
	return nil
}

func (g *MemoryGuard) evictLocked(now time.Time) {
	for k, e := range g.entries {
		if !now.Before(e.expires) {
			delete(g.entries, k)
		}
	}
}
