package engine

import (
	"fmt"
	"slices"
)

// Question is one immutable multiple-choice item of a question set.
type Question struct {
	ID            string   `json:"id"`
	Prompt        string   `json:"prompt"`
	Options       []string `json:"options"`
	CorrectOption string   `json:"correct_option"`
}

// HasOption reports whether value is one of the question's options.
func (q Question) HasOption(value string) bool {
	return slices.Contains(q.Options, value)
}

// ValidateQuestions checks the invariants of a question set: non-empty, at
// least two distinct options per question and a correct option taken from
// the options.
func ValidateQuestions(questions []Question) error {
	if len(questions) == 0 {
		return fmt.Errorf("%w: question set is empty", ErrInvalidInput)
	}

	for i, q := range questions {
		if len(q.Options) < 2 {
			return fmt.Errorf("%w: question %d has fewer than 2 options", ErrInvalidInput, i)
		}
		seen := make(map[string]struct{}, len(q.Options))
		for _, opt := range q.Options {
			if _, dup := seen[opt]; dup {
				return fmt.Errorf("%w: question %d has duplicate option %q", ErrInvalidInput, i, opt)
			}
			seen[opt] = struct{}{}
		}
		if !q.HasOption(q.CorrectOption) {
			return fmt.Errorf("%w: question %d correct option is not among its options", ErrInvalidInput, i)
		}
	}

	return nil
}

func snapshot(questions []Question) []Question {
	out := make([]Question, len(questions))
	for i, q := range questions {
		q.Options = slices.Clone(q.Options)
		out[i] = q
	}
	return out
}
