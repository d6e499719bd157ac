package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the kinds of events the quiz service publishes
type EventType string

const (
	// Attempt events
	EventAttemptStarted   EventType = "attempt.started"
	EventAttemptCompleted EventType = "attempt.completed"

	// Certificate events
	EventCertificateRequested EventType = "certificate.requested"
)

const (
	eventSource  = "quiz-service"
	eventVersion = "1.0"
)

// Event is the envelope shared by all published events
type Event struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// NewEvent wraps data in an envelope with a fresh id
func NewEvent(eventType EventType, data interface{}) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Source:    eventSource,
		Version:   eventVersion,
		Data:      data,
	}
}

// Attempt event payloads

type AttemptStartedEvent struct {
	SessionID      string    `json:"session_id"`
	LearnerID      string    `json:"learner_id"`
	TotalQuestions int       `json:"total_questions"`
	StartedAt      time.Time `json:"started_at"`
}

type AttemptCompletedEvent struct {
	SessionID      string    `json:"session_id"`
	AttemptID      uint      `json:"attempt_id"`
	LearnerID      string    `json:"learner_id"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"total_questions"`
	Passed         bool      `json:"passed"`
	CompletedAt    time.Time `json:"completed_at"`
}

// CertificateRequestedEvent is consumed by the certificate renderer. It is
// only published for results that pass the eligibility gate.
type CertificateRequestedEvent struct {
	AttemptID          uint      `json:"attempt_id"`
	LearnerID          string    `json:"learner_id"`
	LearnerDisplayName string    `json:"learner_display_name"`
	Score              int       `json:"score"`
	TotalQuestions     int       `json:"total_questions"`
	Passed             bool      `json:"passed"`
	RequestedAt        time.Time `json:"requested_at"`
}
