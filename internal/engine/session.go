package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// Outcome is the result of a successful Advance.
type Outcome string

const (
	OutcomeMovedNext Outcome = "moved_next"
	OutcomeCompleted Outcome = "completed"
)

// Session is the transient state of one attempt by one learner. It is only
// mutated through Engine methods and is read-only once Completed.
type Session struct {
	ID           string         `json:"id"`
	LearnerID    string         `json:"learner_id"`
	Questions    []Question     `json:"questions"`
	CurrentIndex int            `json:"current_index"`
	Answers      map[int]string `json:"answers"`
	ReviewMarks  map[int]bool   `json:"review_marks"`
	Status       Status         `json:"status"`
	StartedAt    time.Time      `json:"started_at"`
	CompletedAt  *time.Time     `json:"completed_at,omitempty"`
}

func (s *Session) TotalQuestions() int {
	return len(s.Questions)
}

func (s *Session) IsLast() bool {
	return s.CurrentIndex == len(s.Questions)-1
}

// Answered reports whether index i holds a non-empty answer.
func (s *Session) Answered(i int) bool {
	return s.Answers[i] != ""
}

func (s *Session) AnsweredCount() int {
	n := 0
	for i := range s.Questions {
		if s.Answered(i) {
			n++
		}
	}
	return n
}

func (s *Session) Marked(i int) bool {
	return s.ReviewMarks[i]
}

func (s *Session) Current() Question {
	return s.Questions[s.CurrentIndex]
}

// Engine drives sessions through their lifecycle. It holds configuration
// only; all attempt state lives in the Session handed to each call.
type Engine struct {
	passThreshold float64
	now           func() time.Time
	newID         func() string
}

type Option func(*Engine)

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) { e.newID = fn }
}

// New creates an engine. A threshold outside (0, 1] falls back to
// DefaultPassThreshold.
func New(passThreshold float64, opts ...Option) *Engine {
	if passThreshold <= 0 || passThreshold > 1 {
		passThreshold = DefaultPassThreshold
	}
	e := &Engine{
		passThreshold: passThreshold,
		now:           time.Now,
		newID:         uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) PassThreshold() float64 {
	return e.passThreshold
}

// Start opens a new InProgress session over a private copy of questions.
func (e *Engine) Start(learnerID string, questions []Question) (*Session, error) {
	if err := ValidateQuestions(questions); err != nil {
		return nil, err
	}

	return &Session{
		ID:           e.newID(),
		LearnerID:    learnerID,
		Questions:    snapshot(questions),
		CurrentIndex: 0,
		Answers:      make(map[int]string),
		ReviewMarks:  make(map[int]bool),
		Status:       StatusInProgress,
		StartedAt:    e.now(),
	}, nil
}

// SelectOption records value as the answer to the current question,
// replacing any earlier answer. Membership in the question's options is not
// checked; a foreign value simply scores as incorrect.
func (e *Engine) SelectOption(s *Session, value string) error {
	if err := requireInProgress(s); err != nil {
		return err
	}
	if s.Answers == nil {
		s.Answers = make(map[int]string)
	}
	s.Answers[s.CurrentIndex] = value
	return nil
}

func (e *Engine) ToggleReview(s *Session) error {
	if err := requireInProgress(s); err != nil {
		return err
	}
	if s.ReviewMarks == nil {
		s.ReviewMarks = make(map[int]bool)
	}
	if s.ReviewMarks[s.CurrentIndex] {
		delete(s.ReviewMarks, s.CurrentIndex)
	} else {
		s.ReviewMarks[s.CurrentIndex] = true
	}
	return nil
}

// Advance moves to the next question, or completes the session when the
// current question is the last one. The current question must be answered.
func (e *Engine) Advance(s *Session) (Outcome, error) {
	if err := requireInProgress(s); err != nil {
		return "", err
	}
	if !s.Answered(s.CurrentIndex) {
		return "", fmt.Errorf("%w: %s", ErrPreconditionFailed, ReasonAnswerRequired)
	}

	if s.IsLast() {
		completedAt := e.now()
		s.Status = StatusCompleted
		s.CompletedAt = &completedAt
		return OutcomeCompleted, nil
	}

	s.CurrentIndex++
	return OutcomeMovedNext, nil
}

// Submit is Advance restricted to the last question.
func (e *Engine) Submit(s *Session) error {
	if err := requireInProgress(s); err != nil {
		return err
	}
	if !s.IsLast() {
		return fmt.Errorf("%w: %s", ErrPreconditionFailed, ReasonNotLastQuestion)
	}
	_, err := e.Advance(s)
	return err
}

// Retreat steps back one question. At index 0 it does nothing.
func (e *Engine) Retreat(s *Session) error {
	if err := requireInProgress(s); err != nil {
		return err
	}
	if s.CurrentIndex > 0 {
		s.CurrentIndex--
	}
	return nil
}

// Restart returns a fresh session for the same learner over the same
// question snapshot. The given session is left untouched.
func (e *Engine) Restart(s *Session) (*Session, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: session", ErrNotFound)
	}
	return e.Start(s.LearnerID, s.Questions)
}

func requireInProgress(s *Session) error {
	if s == nil {
		return fmt.Errorf("%w: session", ErrNotFound)
	}
	if s.Status != StatusInProgress {
		return fmt.Errorf("%w: session %s is %s", ErrInvalidState, s.ID, s.Status)
	}
	return nil
}
