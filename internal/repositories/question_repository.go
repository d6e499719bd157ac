package repositories

import (
	"context"

	"github.com/SAP-F-2025/quiz-service/internal/models"
)

// QuestionRepository is the question set provider. GetAll returns the full
// set in its fixed presentation order.
type QuestionRepository interface {
	GetAll(ctx context.Context) ([]*models.Question, error)
	GetByID(ctx context.Context, id uint) (*models.Question, error)
	Count(ctx context.Context) (int64, error)

	// Seeding
	CreateIfAbsent(ctx context.Context, question *models.Question) (bool, error)
}
