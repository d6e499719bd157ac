package repositories

import (
	"errors"

	"github.com/SAP-F-2025/quiz-service/internal/cache"
	"gorm.io/gorm"
)

// ErrNotFound is returned by stores that have no native not-found error.
var ErrNotFound = errors.New("record not found")

// Repository groups the stores used by the services.
type Repository interface {
	Question() QuestionRepository
	Attempt() AttemptRepository
	Session() SessionRepository
}

// ===== SHARED FILTER STRUCTS =====

type AttemptFilters struct {
	Passed *bool `json:"passed"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

type repository struct {
	questions QuestionRepository
	attempts  AttemptRepository
	sessions  SessionRepository
}

func NewRepository(questions QuestionRepository, attempts AttemptRepository, sessions SessionRepository) Repository {
	return &repository{
		questions: questions,
		attempts:  attempts,
		sessions:  sessions,
	}
}

func (r *repository) Question() QuestionRepository { return r.questions }
func (r *repository) Attempt() AttemptRepository   { return r.attempts }
func (r *repository) Session() SessionRepository   { return r.sessions }

// IsNotFoundError reports whether err means the requested record is absent
// in any of the backing stores.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, gorm.ErrRecordNotFound) ||
		errors.Is(err, cache.ErrCacheMiss)
}
