package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/engine"
	"gorm.io/datatypes"
)

// Question is the stored form of a quiz question. Options are kept as a JSON
// array so their order survives the round trip.
type Question struct {
	ID            uint           `json:"id" gorm:"primaryKey"`
	Prompt        string         `json:"prompt" gorm:"not null;uniqueIndex;size:500" validate:"required,max=500"`
	Options       datatypes.JSON `json:"options" gorm:"type:jsonb;not null"`
	CorrectOption string         `json:"correct_option" gorm:"not null;size:255" validate:"required"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Question) TableName() string {
	return "questions"
}

// NewQuestion builds a storable question from its parts.
func NewQuestion(prompt string, options []string, correct string) (*Question, error) {
	raw, err := json.Marshal(options)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal options: %w", err)
	}
	return &Question{
		Prompt:        prompt,
		Options:       datatypes.JSON(raw),
		CorrectOption: correct,
	}, nil
}

func (q *Question) OptionList() ([]string, error) {
	var options []string
	if len(q.Options) == 0 {
		return options, nil
	}
	if err := json.Unmarshal(q.Options, &options); err != nil {
		return nil, fmt.Errorf("question %d has malformed options: %w", q.ID, err)
	}
	return options, nil
}

// ToEngine converts the stored question into the engine's value type.
func (q *Question) ToEngine() (engine.Question, error) {
	options, err := q.OptionList()
	if err != nil {
		return engine.Question{}, err
	}
	return engine.Question{
		ID:            strconv.FormatUint(uint64(q.ID), 10),
		Prompt:        q.Prompt,
		Options:       options,
		CorrectOption: q.CorrectOption,
	}, nil
}

// ToEngineQuestions converts a whole question set, preserving order.
func ToEngineQuestions(questions []*Question) ([]engine.Question, error) {
	out := make([]engine.Question, 0, len(questions))
	for _, q := range questions {
		eq, err := q.ToEngine()
		if err != nil {
			return nil, err
		}
		out = append(out, eq)
	}
	return out, nil
}
