package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/cache"
	"github.com/SAP-F-2025/quiz-service/internal/events"
	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"github.com/SAP-F-2025/quiz-service/internal/validator"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockQuestionRepository is a mock implementation of QuestionRepository
type MockQuestionRepository struct {
	mock.Mock
}

func (m *MockQuestionRepository) GetAll(ctx context.Context) ([]*models.Question, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*models.Question), args.Error(1)
}

func (m *MockQuestionRepository) GetByID(ctx context.Context, id uint) (*models.Question, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(*models.Question), args.Error(1)
}

func (m *MockQuestionRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockQuestionRepository) CreateIfAbsent(ctx context.Context, question *models.Question) (bool, error) {
	args := m.Called(ctx, question)
	return args.Bool(0), args.Error(1)
}

// MockAttemptRepository is a mock implementation of AttemptRepository
type MockAttemptRepository struct {
	mock.Mock
}

func (m *MockAttemptRepository) Create(ctx context.Context, attempt *models.AttemptResult) error {
	args := m.Called(ctx, attempt)
	return args.Error(0)
}

func (m *MockAttemptRepository) GetByID(ctx context.Context, id uint) (*models.AttemptResult, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AttemptResult), args.Error(1)
}

func (m *MockAttemptRepository) ListByLearner(ctx context.Context, learnerID string, filters repositories.AttemptFilters) ([]*models.AttemptResult, error) {
	args := m.Called(ctx, learnerID, filters)
	return args.Get(0).([]*models.AttemptResult), args.Error(1)
}

func (m *MockAttemptRepository) CountByLearner(ctx context.Context, learnerID string) (int64, error) {
	args := m.Called(ctx, learnerID)
	return args.Get(0).(int64), args.Error(1)
}

// memoryAttemptRepository is an append-only in-memory store used by flow tests
type memoryAttemptRepository struct {
	mu       sync.Mutex
	attempts []*models.AttemptResult
	failNext error
}

func (r *memoryAttemptRepository) Create(ctx context.Context, attempt *models.AttemptResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failNext != nil {
		err := r.failNext
		r.failNext = nil
		return err
	}
	attempt.ID = uint(len(r.attempts) + 1)
	stored := *attempt
	r.attempts = append(r.attempts, &stored)
	return nil
}

func (r *memoryAttemptRepository) GetByID(ctx context.Context, id uint) (*models.AttemptResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.attempts {
		if a.ID == id {
			out := *a
			return &out, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *memoryAttemptRepository) ListByLearner(ctx context.Context, learnerID string, filters repositories.AttemptFilters) ([]*models.AttemptResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.AttemptResult
	for _, a := range r.attempts {
		if a.LearnerID != learnerID {
			continue
		}
		if filters.Passed != nil && a.Passed != *filters.Passed {
			continue
		}
		c := *a
		out = append(out, &c)
	}
	if filters.Offset > 0 {
		if filters.Offset >= len(out) {
			return []*models.AttemptResult{}, nil
		}
		out = out[filters.Offset:]
	}
	if filters.Limit > 0 && filters.Limit < len(out) {
		out = out[:filters.Limit]
	}
	return out, nil
}

func (r *memoryAttemptRepository) CountByLearner(ctx context.Context, learnerID string) (int64, error) {
	list, _ := r.ListByLearner(ctx, learnerID, repositories.AttemptFilters{})
	return int64(len(list)), nil
}

// failingPublisher rejects every event
type failingPublisher struct{ err error }

func (p failingPublisher) Publish(ctx context.Context, event *events.Event) error { return p.err }
func (p failingPublisher) Close() error                                           { return nil }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seedQuestions(t *testing.T) []*models.Question {
	t.Helper()
	specs := []struct {
		prompt  string
		options []string
		correct string
	}{
		{"What is the capital of France?", []string{"Berlin", "London", "Paris", "Madrid"}, "Paris"},
		{"Which planet is known as the Red Planet?", []string{"Earth", "Mars", "Jupiter", "Venus"}, "Mars"},
		{"Who wrote 'Hamlet'?", []string{"Charles Dickens", "William Shakespeare", "Mark Twain", "Jane Austen"}, "William Shakespeare"},
	}

	out := make([]*models.Question, 0, len(specs))
	for i, s := range specs {
		q, err := models.NewQuestion(s.prompt, s.options, s.correct)
		require.NoError(t, err)
		q.ID = uint(i + 1)
		out = append(out, q)
	}
	return out
}

// quizFixture wires a quiz service over in-memory stores
type quizFixture struct {
	questions *MockQuestionRepository
	attempts  *memoryAttemptRepository
	publisher *events.MockEventPublisher
	repo      repositories.Repository
	manager   ServiceManager
}

func newQuizFixture(t *testing.T) *quizFixture {
	t.Helper()

	questions := &MockQuestionRepository{}
	questions.On("GetAll", mock.Anything).Return(seedQuestions(t), nil)

	attempts := &memoryAttemptRepository{}
	sessions := repositories.NewCacheSessionRepository(cache.NewMemoryCache(), time.Hour)
	repo := repositories.NewRepository(questions, attempts, sessions)
	publisher := events.NewMockEventPublisher(testLogger())

	manager := NewServiceManager(repo, publisher, testLogger(), validator.New(), ServiceManagerConfig{
		PassThreshold:     0.5,
		CertificatePolicy: PolicyLatest,
	})

	return &quizFixture{
		questions: questions,
		attempts:  attempts,
		publisher: publisher,
		repo:      repo,
		manager:   manager,
	}
}
