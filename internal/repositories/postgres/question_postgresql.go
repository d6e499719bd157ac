package postgres

import (
	"context"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"gorm.io/gorm"
)

type QuestionPostgreSQL struct {
	db *gorm.DB
}

func NewQuestionPostgreSQL(db *gorm.DB) repositories.QuestionRepository {
	return &QuestionPostgreSQL{db: db}
}

func (q QuestionPostgreSQL) GetAll(ctx context.Context) ([]*models.Question, error) {
	var questions []*models.Question
	if err := q.db.WithContext(ctx).Order("id ASC").Find(&questions).Error; err != nil {
		return nil, err
	}
	return questions, nil
}

func (q QuestionPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Question, error) {
	var question models.Question
	if err := q.db.WithContext(ctx).First(&question, id).Error; err != nil {
		return nil, err
	}
	return &question, nil
}

func (q QuestionPostgreSQL) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := q.db.WithContext(ctx).Model(&models.Question{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CreateIfAbsent inserts the question unless one with the same prompt exists.
func (q QuestionPostgreSQL) CreateIfAbsent(ctx context.Context, question *models.Question) (bool, error) {
	result := q.db.WithContext(ctx).
		Where(models.Question{Prompt: question.Prompt}).
		Attrs(models.Question{Options: question.Options, CorrectOption: question.CorrectOption}).
		FirstOrCreate(question)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
