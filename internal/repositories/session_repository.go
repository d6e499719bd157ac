package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/cache"
	"github.com/SAP-F-2025/quiz-service/internal/models"
)

// SessionRepository keeps in-progress and just-completed sessions between
// requests.
type SessionRepository interface {
	Get(ctx context.Context, id string) (*models.SessionRecord, error)
	Save(ctx context.Context, record *models.SessionRecord) error
	Delete(ctx context.Context, id string) error
}

type cacheSessionRepository struct {
	cache cache.CacheService
	ttl   time.Duration
}

// NewCacheSessionRepository stores sessions in a CacheService; every Save
// refreshes the expiry.
func NewCacheSessionRepository(c cache.CacheService, ttl time.Duration) SessionRepository {
	return &cacheSessionRepository{cache: c, ttl: ttl}
}

func sessionKey(id string) string {
	return fmt.Sprintf("quiz:session:%s", id)
}

func (r *cacheSessionRepository) Get(ctx context.Context, id string) (*models.SessionRecord, error) {
	var record models.SessionRecord
	if err := r.cache.Get(ctx, sessionKey(id), &record); err != nil {
		return nil, err
	}
	if record.Session == nil {
		return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	return &record, nil
}

func (r *cacheSessionRepository) Save(ctx context.Context, record *models.SessionRecord) error {
	if record == nil || record.Session == nil {
		return fmt.Errorf("cannot save empty session record")
	}
	return r.cache.Set(ctx, sessionKey(record.Session.ID), record, r.ttl)
}

func (r *cacheSessionRepository) Delete(ctx context.Context, id string) error {
	return r.cache.Delete(ctx, sessionKey(id))
}
