package repositories

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/cache"
	"github.com/SAP-F-2025/quiz-service/internal/models"
)

const questionSetKey = "quiz:questions:all"

// cachedQuestionRepository serves GetAll from the cache and falls through to
// the wrapped repository on a miss. Cache failures never fail a read.
type cachedQuestionRepository struct {
	QuestionRepository
	cache  cache.CacheService
	ttl    time.Duration
	logger *slog.Logger
}

func NewCachedQuestionRepository(inner QuestionRepository, c cache.CacheService, ttl time.Duration, logger *slog.Logger) QuestionRepository {
	return &cachedQuestionRepository{
		QuestionRepository: inner,
		cache:              c,
		ttl:                ttl,
		logger:             logger,
	}
}

func (r *cachedQuestionRepository) GetAll(ctx context.Context) ([]*models.Question, error) {
	var questions []*models.Question
	err := r.cache.Get(ctx, questionSetKey, &questions)
	if err == nil {
		return questions, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		r.logger.Warn("Question cache read failed", "error", err)
	}

	questions, err = r.QuestionRepository.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	if err := r.cache.Set(ctx, questionSetKey, questions, r.ttl); err != nil {
		r.logger.Warn("Question cache write failed", "error", err)
	}
	return questions, nil
}

func (r *cachedQuestionRepository) CreateIfAbsent(ctx context.Context, question *models.Question) (bool, error) {
	created, err := r.QuestionRepository.CreateIfAbsent(ctx, question)
	if err != nil {
		return false, err
	}
	if created {
		if err := r.cache.Delete(ctx, questionSetKey); err != nil {
			r.logger.Warn("Question cache invalidation failed", "error", err)
		}
	}
	return created, nil
}
