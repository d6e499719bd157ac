package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockNotAcquired is returned when another holder kept the lock for the
// whole wait.
var ErrLockNotAcquired = errors.New("lock not acquired")

// Locker hands out mutual exclusion on a key across every process sharing
// the backend.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// Only the holder that set the token may delete the key.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type redisLocker struct {
	client *redis.Client
	ttl    time.Duration
	retry  time.Duration
	logger *slog.Logger
}

// NewRedisLocker returns a SET NX based lock. A crashed holder's lock
// expires after ttl, and waiters give up after the same duration.
func NewRedisLocker(client *redis.Client, ttl time.Duration, logger *slog.Logger) Locker {
	return &redisLocker{
		client: client,
		ttl:    ttl,
		retry:  10 * time.Millisecond,
		logger: logger,
	}
}

func (l *redisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	ctx, cancel := context.WithTimeout(ctx, l.ttl)
	defer cancel()

	token := uuid.NewString()
	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil && ctx.Err() == nil {
			return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
		}
		if ok {
			return func() { l.release(key, token) }, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s", ErrLockNotAcquired, key)
		case <-time.After(l.retry):
		}
	}
}

func (l *redisLocker) release(key, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
		l.logger.Warn("Failed to release lock", "key", key, "error", err)
	}
}
