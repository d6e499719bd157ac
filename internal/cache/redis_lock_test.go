package cache

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisLocker_Exclusive(t *testing.T) {
	_, client := newTestRedis(t)
	locker := NewRedisLocker(client, 100*time.Millisecond, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	release, err := locker.Acquire(ctx, "quiz:lock:s1")
	require.NoError(t, err)

	// A second holder waits out the ttl and gives up
	_, err = locker.Acquire(ctx, "quiz:lock:s1")
	assert.ErrorIs(t, err, ErrLockNotAcquired)

	other, err := locker.Acquire(ctx, "quiz:lock:s2")
	require.NoError(t, err)
	other()

	release()
	again, err := locker.Acquire(ctx, "quiz:lock:s1")
	require.NoError(t, err)
	again()
}

func TestRedisLocker_WaitsForRelease(t *testing.T) {
	_, client := newTestRedis(t)
	locker := NewRedisLocker(client, 2*time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	release, err := locker.Acquire(ctx, "quiz:lock:s1")
	require.NoError(t, err)

	acquired := make(chan struct{})
	go func() {
		next, err := locker.Acquire(ctx, "quiz:lock:s1")
		if assert.NoError(t, err) {
			next()
		}
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("lock acquired while held")
	case <-time.After(50 * time.Millisecond):
	}

	release()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("waiter never acquired the released lock")
	}
}

func TestRedisLocker_StaleReleaseKeepsNewHolder(t *testing.T) {
	mr, client := newTestRedis(t)
	locker := NewRedisLocker(client, time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	stale, err := locker.Acquire(ctx, "quiz:lock:s1")
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)

	current, err := locker.Acquire(ctx, "quiz:lock:s1")
	require.NoError(t, err)

	stale()
	assert.True(t, mr.Exists("quiz:lock:s1"))

	current()
	assert.False(t, mr.Exists("quiz:lock:s1"))
}
