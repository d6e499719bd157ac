package repositories

import (
	"context"

	"github.com/SAP-F-2025/quiz-service/internal/models"
)

// AttemptRepository stores attempt results. It is append-only: there is no
// update or delete.
type AttemptRepository interface {
	Create(ctx context.Context, attempt *models.AttemptResult) error
	GetByID(ctx context.Context, id uint) (*models.AttemptResult, error)

	// ListByLearner returns attempts ordered by creation time, oldest first.
	ListByLearner(ctx context.Context, learnerID string, filters AttemptFilters) ([]*models.AttemptResult, error)
	CountByLearner(ctx context.Context, learnerID string) (int64, error)
}
