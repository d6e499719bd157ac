package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"github.com/SAP-F-2025/quiz-service/internal/validator"
	"github.com/xuri/excelize/v2"
)

// defaultQuestionSet is the quiz shipped with the service.
var defaultQuestionSet = []struct {
	Prompt  string
	Options []string
	Correct string
}{
	{"What is the capital of France?", []string{"Berlin", "London", "Paris", "Madrid"}, "Paris"},
	{"Which planet is known as the Red Planet?", []string{"Earth", "Mars", "Jupiter", "Venus"}, "Mars"},
	{"Who wrote 'Hamlet'?", []string{"Charles Dickens", "William Shakespeare", "Mark Twain", "Jane Austen"}, "William Shakespeare"},
}

type questionImportService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
}

func NewQuestionImportService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator) QuestionImportService {
	return &questionImportService{
		repo:      repo,
		logger:    logger,
		validator: validator,
	}
}

func (s *questionImportService) SeedDefaults(ctx context.Context) (*ImportResult, error) {
	questions := make([]*models.Question, 0, len(defaultQuestionSet))
	for _, d := range defaultQuestionSet {
		q, err := models.NewQuestion(d.Prompt, d.Options, d.Correct)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}

	if err := s.validator.Question().ValidateBatch(questions); err != nil {
		return nil, err
	}

	result := &ImportResult{TotalRows: len(questions)}
	if err := s.store(ctx, questions, result); err != nil {
		return nil, err
	}

	s.logger.Info("Default questions seeded",
		"created_count", result.CreatedCount,
		"skipped_count", result.SkippedCount)

	return result, nil
}

// ImportFromExcel reads the first sheet. The header row must contain
// "Prompt" and "Correct Option"; every other header starting with "Option"
// is read as an answer option in column order.
func (s *questionImportService) ImportFromExcel(ctx context.Context, reader io.Reader) (*ImportResult, error) {
	f, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ValidationErrors{*NewValidationError("file", "Excel file has no sheets", nil)}
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read Excel rows: %w", err)
	}
	if len(rows) < 2 {
		return nil, ValidationErrors{*NewValidationError("file", "Excel must have header row and at least one data row", len(rows))}
	}

	promptCol, correctCol := -1, -1
	var optionCols []int
	for i, header := range rows[0] {
		h := strings.ToLower(strings.TrimSpace(header))
		switch {
		case h == "prompt" || h == "question":
			promptCol = i
		case h == "correct option" || h == "correct answer":
			correctCol = i
		case strings.HasPrefix(h, "option"):
			optionCols = append(optionCols, i)
		}
	}
	if promptCol < 0 || correctCol < 0 || len(optionCols) == 0 {
		return nil, ValidationErrors{*NewValidationError("header", "header must contain Prompt, Option columns and Correct Option", rows[0])}
	}

	result := &ImportResult{TotalRows: len(rows) - 1}
	var questions []*models.Question

	for rowIndex, row := range rows[1:] {
		cell := func(col int) string {
			if col < len(row) {
				return strings.TrimSpace(row[col])
			}
			return ""
		}

		var options []string
		for _, col := range optionCols {
			if v := cell(col); v != "" {
				options = append(options, v)
			}
		}

		q, err := models.NewQuestion(cell(promptCol), options, cell(correctCol))
		if err != nil {
			return nil, err
		}

		if errs := s.validator.Question().ValidateQuestion(q); len(errs) > 0 {
			result.ErrorCount++
			result.Errors = append(result.Errors, ImportRowError{Row: rowIndex + 2, Errors: errs})
			continue
		}
		questions = append(questions, q)
	}

	if err := s.store(ctx, questions, result); err != nil {
		return nil, err
	}

	s.logger.Info("Excel import completed",
		"total_rows", result.TotalRows,
		"created_count", result.CreatedCount,
		"skipped_count", result.SkippedCount,
		"error_count", result.ErrorCount)

	return result, nil
}

// store inserts questions whose prompt is not stored yet.
func (s *questionImportService) store(ctx context.Context, questions []*models.Question, result *ImportResult) error {
	for _, q := range questions {
		created, err := s.repo.Question().CreateIfAbsent(ctx, q)
		if err != nil {
			return fmt.Errorf("failed to save question %q: %w", q.Prompt, err)
		}
		if created {
			result.CreatedCount++
			result.Questions = append(result.Questions, q)
		} else {
			result.SkippedCount++
		}
	}
	return nil
}
