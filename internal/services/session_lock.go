package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/SAP-F-2025/quiz-service/internal/cache"
)

// SessionLocker lets one mutation of a session run at a time.
type SessionLocker interface {
	Lock(ctx context.Context, sessionID string) (release func(), err error)
}

// sessionLocks hands out one mutex per session id inside this process.
// Entries are reference counted and dropped once no caller holds or waits
// for them.
type sessionLocks struct {
	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{locks: make(map[string]*sessionLock)}
}

// Lock blocks until the caller owns the session and returns the release func.
func (l *sessionLocks) Lock(_ context.Context, id string) (func(), error) {
	l.mu.Lock()
	lock, ok := l.locks[id]
	if !ok {
		lock = &sessionLock{}
		l.locks[id] = lock
	}
	lock.refs++
	l.mu.Unlock()

	lock.mu.Lock()

	return func() {
		lock.mu.Unlock()

		l.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}, nil
}

func (l *sessionLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

// sharedSessionLocks serializes a session across every replica that shares
// the session store. Callers in the same process queue on the local mutex
// first so only one of them polls the shared lock.
type sharedSessionLocks struct {
	local  *sessionLocks
	shared cache.Locker
}

func NewSharedSessionLocker(shared cache.Locker) SessionLocker {
	return &sharedSessionLocks{local: newSessionLocks(), shared: shared}
}

func sessionLockKey(id string) string {
	return "quiz:session-lock:" + id
}

func (l *sharedSessionLocks) Lock(ctx context.Context, id string) (func(), error) {
	releaseLocal, _ := l.local.Lock(ctx, id)

	releaseShared, err := l.shared.Acquire(ctx, sessionLockKey(id))
	if err != nil {
		releaseLocal()
		if errors.Is(err, cache.ErrLockNotAcquired) {
			return nil, fmt.Errorf("%w: %w", ErrSessionBusy, err)
		}
		return nil, fmt.Errorf("failed to lock session: %w", err)
	}

	return func() {
		releaseShared()
		releaseLocal()
	}, nil
}
