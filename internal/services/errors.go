package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/SAP-F-2025/quiz-service/internal/engine"
	apperrors "github.com/SAP-F-2025/quiz-service/internal/errors"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Generic errors
	ErrNotFound         = errors.New("resource not found")
	ErrUnauthorized     = errors.New("unauthorized access")
	ErrForbidden        = errors.New("forbidden - insufficient permissions")
	ErrValidationFailed = errors.New("validation failed")

	// Question specific errors
	ErrQuestionSetEmpty = errors.New("no questions are available")

	// Session specific errors
	ErrSessionNotFound     = errors.New("quiz session not found")
	ErrSessionNotCompleted = errors.New("quiz session is not completed")
	ErrSessionBusy         = errors.New("quiz session is busy")

	// Attempt specific errors
	ErrAttemptNotFound     = errors.New("attempt not found")
	ErrAttemptInvalidScore = errors.New("invalid attempt score")

	// Certificate specific errors
	ErrCertificateNotEligible = errors.New("attempt is not eligible for a certificate")
)

// ===== CUSTOM ERROR TYPES =====

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

type PermissionError struct {
	LearnerID  string `json:"learner_id"`
	ResourceID string `json:"resource_id"`
	Resource   string `json:"resource"`
	Action     string `json:"action"`
	Reason     string `json:"reason"`
}

func (pe *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: learner %s cannot %s %s %s - %s",
		pe.LearnerID, pe.Action, pe.Resource, pe.ResourceID, pe.Reason)
}

// ===== ERROR HELPERS =====

// NewValidationError creates a new validation error using the shared type
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return apperrors.NewValidationError(field, message, value)
}

func NewPermissionError(learnerID, resourceID, resource, action, reason string) *PermissionError {
	return &PermissionError{
		LearnerID:  learnerID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrSessionNotFound) ||
		errors.Is(err, ErrAttemptNotFound) ||
		errors.Is(err, engine.ErrNotFound)
}

// IsUnauthorized checks if error represents an "unauthorized" condition
func IsUnauthorized(err error) bool {
	var pe *PermissionError
	return errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrForbidden) ||
		errors.As(err, &pe)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	if errors.Is(err, ErrValidationFailed) ||
		errors.Is(err, ErrAttemptInvalidScore) ||
		errors.Is(err, engine.ErrInvalidInput) {
		return true
	}
	var ve apperrors.ValidationErrors
	return errors.As(err, &ve)
}

// IsNotEligible checks if the eligibility gate refused a certificate
func IsNotEligible(err error) bool {
	return errors.Is(err, ErrCertificateNotEligible)
}

// IsInvalidState checks if the operation is not allowed in the session's current state
func IsInvalidState(err error) bool {
	return errors.Is(err, engine.ErrInvalidState) ||
		errors.Is(err, ErrSessionNotCompleted) ||
		errors.Is(err, ErrSessionBusy)
}

// IsPreconditionFailed checks if a step was refused until the learner acts
func IsPreconditionFailed(err error) bool {
	return errors.Is(err, engine.ErrPreconditionFailed)
}

// PreconditionReason extracts the engine reason from a precondition failure
func PreconditionReason(err error) string {
	switch {
	case !IsPreconditionFailed(err):
		return ""
	case strings.HasSuffix(err.Error(), engine.ReasonAnswerRequired):
		return engine.ReasonAnswerRequired
	case strings.HasSuffix(err.Error(), engine.ReasonNotLastQuestion):
		return engine.ReasonNotLastQuestion
	default:
		return err.Error()
	}
}
