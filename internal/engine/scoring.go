package engine

import (
	"fmt"
	"time"
)

// DefaultPassThreshold is the fraction of correct answers needed to pass.
// The comparison is inclusive: exactly half passes.
const DefaultPassThreshold = 0.5

// Result is the outcome of scoring a completed session.
type Result struct {
	LearnerID      string    `json:"learner_id"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"total_questions"`
	Passed         bool      `json:"passed"`
	CreatedAt      time.Time `json:"created_at"`
}

// Score evaluates a completed session. It has no side effects, so scoring
// the same session twice yields identical results.
func (e *Engine) Score(s *Session) (Result, error) {
	if s == nil {
		return Result{}, fmt.Errorf("%w: session", ErrNotFound)
	}
	if s.Status != StatusCompleted {
		return Result{}, fmt.Errorf("%w: session %s is not completed", ErrInvalidState, s.ID)
	}

	score := CountCorrect(s.Questions, s.Answers)
	total := len(s.Questions)

	var createdAt time.Time
	if s.CompletedAt != nil {
		createdAt = *s.CompletedAt
	}

	return Result{
		LearnerID:      s.LearnerID,
		Score:          score,
		TotalQuestions: total,
		Passed:         Passed(score, total, e.passThreshold),
		CreatedAt:      createdAt,
	}, nil
}

// CountCorrect counts answers equal to the question's correct option.
// Missing answers count as incorrect.
func CountCorrect(questions []Question, answers map[int]string) int {
	score := 0
	for i, q := range questions {
		if a, ok := answers[i]; ok && a == q.CorrectOption {
			score++
		}
	}
	return score
}

// Passed reports score/total >= threshold, computed over reals.
func Passed(score, total int, threshold float64) bool {
	if total <= 0 {
		return false
	}
	return float64(score)/float64(total) >= threshold
}

// IsEligible is the certificate gate: only a passed result may be turned
// into a certificate.
func IsEligible(r Result) bool {
	return r.Passed
}
