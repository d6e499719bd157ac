package validator

import (
	"fmt"

	"github.com/SAP-F-2025/quiz-service/internal/models"
)

const maxOptions = 10

// QuestionValidator checks stored questions before they are seeded or served
type QuestionValidator struct{}

// NewQuestionValidator creates a new question validator
func NewQuestionValidator() *QuestionValidator {
	return &QuestionValidator{}
}

// ValidateQuestion validates a single stored question
func (v *QuestionValidator) ValidateQuestion(question *models.Question) ValidationErrors {
	var errs ValidationErrors

	if question.Prompt == "" {
		errs = append(errs, ValidationError{Field: "prompt", Message: "is required", Rule: "required"})
	}

	options, err := question.OptionList()
	if err != nil {
		return append(errs, ValidationError{Field: "options", Message: "must be a JSON array of strings", Rule: "format"})
	}

	if len(options) < 2 {
		errs = append(errs, ValidationError{Field: "options", Message: "must have at least 2 options", Rule: "min", Value: len(options)})
	}
	if len(options) > maxOptions {
		errs = append(errs, ValidationError{Field: "options", Message: fmt.Sprintf("cannot have more than %d options", maxOptions), Rule: "max", Value: len(options)})
	}

	seen := make(map[string]bool, len(options))
	found := false
	for _, opt := range options {
		if opt == "" {
			errs = append(errs, ValidationError{Field: "options", Message: "option text cannot be empty", Rule: "required"})
			continue
		}
		if seen[opt] {
			errs = append(errs, ValidationError{Field: "options", Message: "options must be distinct", Rule: "unique", Value: opt})
		}
		seen[opt] = true
		if opt == question.CorrectOption {
			found = true
		}
	}

	if question.CorrectOption == "" {
		errs = append(errs, ValidationError{Field: "correct_option", Message: "is required", Rule: "required"})
	} else if !found {
		errs = append(errs, ValidationError{Field: "correct_option", Message: "must match one of the options", Rule: "oneof", Value: question.CorrectOption})
	}

	return errs
}

// ValidateBatch validates a whole question set
func (v *QuestionValidator) ValidateBatch(questions []*models.Question) error {
	if len(questions) == 0 {
		return ValidationErrors{{Field: "questions", Message: "question set cannot be empty", Rule: "required"}}
	}

	for i, question := range questions {
		if errs := v.ValidateQuestion(question); len(errs) > 0 {
			return fmt.Errorf("validation failed for question %d: %w", i+1, errs)
		}
	}

	return nil
}
