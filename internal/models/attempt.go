package models

import (
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/engine"
)

// AttemptResult is the durable, write-once record of a completed attempt.
type AttemptResult struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	LearnerID      string    `json:"learner_id" gorm:"not null;size:255;index:idx_attempt_learner_created,priority:1"`
	Score          int       `json:"score" gorm:"not null"`
	TotalQuestions int       `json:"total_questions" gorm:"not null"`
	Passed         bool      `json:"passed" gorm:"not null"`
	CreatedAt      time.Time `json:"created_at" gorm:"index:idx_attempt_learner_created,priority:2"`
}

func (AttemptResult) TableName() string {
	return "attempt_results"
}

// Percentage is the score as a 0-100 value.
func (a *AttemptResult) Percentage() float64 {
	if a.TotalQuestions == 0 {
		return 0
	}
	return float64(a.Score) / float64(a.TotalQuestions) * 100
}

func (a *AttemptResult) ToEngine() engine.Result {
	return engine.Result{
		LearnerID:      a.LearnerID,
		Score:          a.Score,
		TotalQuestions: a.TotalQuestions,
		Passed:         a.Passed,
		CreatedAt:      a.CreatedAt,
	}
}
