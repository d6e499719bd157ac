package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/cache"
	"github.com/SAP-F-2025/quiz-service/internal/events"
	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"github.com/SAP-F-2025/quiz-service/internal/validator"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// slowSessionRepository widens the window between load and save
type slowSessionRepository struct {
	repositories.SessionRepository
	delay time.Duration
}

func (r slowSessionRepository) Get(ctx context.Context, id string) (*models.SessionRecord, error) {
	time.Sleep(r.delay)
	return r.SessionRepository.Get(ctx, id)
}

type busyLocker struct{}

func (busyLocker) Acquire(ctx context.Context, key string) (func(), error) {
	return nil, fmt.Errorf("%w: %s", cache.ErrLockNotAcquired, key)
}

type brokenLocker struct{}

func (brokenLocker) Acquire(ctx context.Context, key string) (func(), error) {
	return nil, errors.New("connection refused")
}

func TestSharedSessionLocker_ReplicasSerializeMutations(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	questions := &MockQuestionRepository{}
	questions.On("GetAll", mock.Anything).Return(seedQuestions(t), nil)
	attempts := &memoryAttemptRepository{}
	sessions := slowSessionRepository{
		SessionRepository: repositories.NewCacheSessionRepository(cache.NewRedisCache(client, testLogger()), time.Hour),
		delay:             time.Millisecond,
	}
	repo := repositories.NewRepository(questions, attempts, sessions)

	// Two replicas share the session store and nothing else in memory
	replica := func() QuizService {
		return NewServiceManager(repo, events.NewMockEventPublisher(testLogger()), testLogger(), validator.New(), ServiceManagerConfig{
			SessionLocker: NewSharedSessionLocker(cache.NewRedisLocker(client, 5*time.Second, testLogger())),
		}).Quiz()
	}
	first, second := replica(), replica()

	ctx := context.Background()
	session, err := first.Start(ctx, ada)
	require.NoError(t, err)

	for round := 0; round < 20; round++ {
		var wg sync.WaitGroup
		for _, quiz := range []QuizService{first, second} {
			wg.Add(1)
			go func(quiz QuizService) {
				defer wg.Done()
				_, err := quiz.ToggleReview(ctx, ada, session.ID)
				assert.NoError(t, err)
			}(quiz)
		}
		wg.Wait()

		// Two toggles cancel out
		current, err := second.Get(ctx, ada, session.ID)
		require.NoError(t, err)
		require.False(t, current.MarkedForReview, "round %d lost a toggle", round)
	}

	assert.False(t, mr.Exists(sessionLockKey(session.ID)))
}

func TestSharedSessionLocker_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := NewSharedSessionLocker(busyLocker{}).Lock(ctx, "s1")
	assert.ErrorIs(t, err, ErrSessionBusy)
	assert.True(t, IsInvalidState(err))

	_, err = NewSharedSessionLocker(brokenLocker{}).Lock(ctx, "s1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrSessionBusy)

	// A failed shared acquire gives the local lock back
	locker := NewSharedSessionLocker(busyLocker{}).(*sharedSessionLocks)
	_, _ = locker.Lock(ctx, "s1")
	assert.Equal(t, 0, locker.local.size())
}

func TestSessionLocks_ReleaseDropsEntry(t *testing.T) {
	locks := newSessionLocks()
	release, err := locks.Lock(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, locks.size())

	release()
	assert.Equal(t, 0, locks.size())
}
