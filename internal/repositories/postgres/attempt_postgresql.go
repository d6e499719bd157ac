package postgres

import (
	"context"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"gorm.io/gorm"
)

type AttemptPostgreSQL struct {
	db *gorm.DB
}

func NewAttemptPostgreSQL(db *gorm.DB) repositories.AttemptRepository {
	return &AttemptPostgreSQL{db: db}
}

// Create inserts a single row; the insert is atomic on its own so
// concurrent saves need no extra coordination.
func (a AttemptPostgreSQL) Create(ctx context.Context, attempt *models.AttemptResult) error {
	return a.db.WithContext(ctx).Create(attempt).Error
}

func (a AttemptPostgreSQL) GetByID(ctx context.Context, id uint) (*models.AttemptResult, error) {
	var attempt models.AttemptResult
	if err := a.db.WithContext(ctx).First(&attempt, id).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (a AttemptPostgreSQL) ListByLearner(ctx context.Context, learnerID string, filters repositories.AttemptFilters) ([]*models.AttemptResult, error) {
	var attempts []*models.AttemptResult

	query := a.db.WithContext(ctx).Model(&models.AttemptResult{}).Where("learner_id = ?", learnerID)
	query = a.applyFilters(query, filters)

	if err := query.Order("created_at ASC, id ASC").Find(&attempts).Error; err != nil {
		return nil, err
	}
	return attempts, nil
}

func (a AttemptPostgreSQL) CountByLearner(ctx context.Context, learnerID string) (int64, error) {
	var count int64
	if err := a.db.WithContext(ctx).Model(&models.AttemptResult{}).
		Where("learner_id = ?", learnerID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (a AttemptPostgreSQL) applyFilters(query *gorm.DB, filters repositories.AttemptFilters) *gorm.DB {
	if filters.Passed != nil {
		query = query.Where("passed = ?", *filters.Passed)
	}
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}
	return query
}
