package models

import (
	"github.com/SAP-F-2025/quiz-service/internal/engine"
)

// Learner is the already-authenticated identity handed over by the
// identity provider.
type Learner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// SessionRecord is what the session store keeps between requests: the
// engine session plus the bookkeeping needed to record its result once.
type SessionRecord struct {
	Session     *engine.Session `json:"session"`
	LearnerName string          `json:"learner_name"`
	AttemptID   *uint           `json:"attempt_id,omitempty"`
}

// Recorded reports whether the completed session already has a persisted
// attempt result.
func (r *SessionRecord) Recorded() bool {
	return r.AttemptID != nil
}
