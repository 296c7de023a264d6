package idempotency

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pkordes/globe-trotter/internal/domain"
)

const (
	keyPrefix    = "globetrotter:idem:"
	pendingValue = "pending"
	donePrefix   = "done:"
)

// RedisGuard shares claims between every API instance through Redis.
// A claim is a SETNX with a TTL, so a crashed request frees its key on expiry.
type RedisGuard struct {
	client *redis.Client
	ttl    time.Duration
}

var _ Guard = (*RedisGuard)(nil)

// NewRedisGuard returns a Guard backed by client.
func NewRedisGuard(client *redis.Client, ttl time.Duration) *RedisGuard {
	return &RedisGuard{client: client, ttl: ttl}
}

func (g *RedisGuard) Begin(ctx context.Context, key string) (string, bool, error) {
	full := keyPrefix + key

	// Two attempts: the holder may expire between SETNX and GET.
	for attempt := 0; attempt < 2; attempt++ {
		claimed, err := g.client.SetNX(ctx, full, pendingValue, g.ttl).Result()
		if err != nil {
			return "", false, fmt.Errorf("idempotency.RedisGuard.Begin: %w: %w", domain.ErrStoreUnavailable, err)
		}
		if claimed {
			return "", false, nil
		}

		val, err := g.client.Get(ctx, full).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return "", false, fmt.Errorf("idempotency.RedisGuard.Begin: %w: %w", domain.ErrStoreUnavailable, err)
		}
		if result, ok := strings.CutPrefix(val, donePrefix); ok {
			return result, true, nil
		}
		break
	}
	return "", false, fmt.Errorf("idempotency.RedisGuard.Begin: %w", domain.ErrDuplicateSubmission)
}

func (g *RedisGuard) Complete(ctx context.Context, key, result string) error {
	if err := g.client.Set(ctx, keyPrefix+key, donePrefix+result, g.ttl).Err(); err != nil {
		return fmt.Errorf("idempotency.RedisGuard.Complete: %w: %w", domain.ErrStoreUnavailable, err)
	}
	return nil
}

func (g *RedisGuard) Abort(ctx context.Context, key string) error {
	if err := g.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("idempotency.RedisGuard.Abort: %w: %w", domain.ErrStoreUnavailable, err)
	}
	return nil
}
