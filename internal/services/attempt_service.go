package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"github.com/SAP-F-2025/quiz-service/internal/validator"
	"github.com/xuri/excelize/v2"
)

const defaultAttemptPageSize = 50

type attemptService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	ops       *ServiceLogger
	validator *validator.Validator
	now       func() time.Time
}

func NewAttemptService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator) AttemptService {
	return &attemptService{
		repo:      repo,
		logger:    logger,
		ops:       NewServiceLogger(logger, LogConfig{Service: "quiz-service", Component: "attempts"}),
		validator: validator,
		now:       time.Now,
	}
}

// ===== RECORDER =====

// Save appends one attempt result. Records are never updated afterwards.
func (s *attemptService) Save(ctx context.Context, learnerID string, score, total int, passed bool) (result *models.AttemptResult, err error) {
	op := s.ops.WithOperation(ctx, "save_attempt", learnerID)
	defer func() {
		var id string
		if result != nil {
			id = fmt.Sprint(result.ID)
		}
		op.LogResult(id, "attempt", err)
	}()

	req := saveAttemptRequest{LearnerID: learnerID, Score: score, TotalQuestions: total}
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAttemptInvalidScore, err)
	}

	attempt := &models.AttemptResult{
		LearnerID:      learnerID,
		Score:          score,
		TotalQuestions: total,
		Passed:         passed,
		CreatedAt:      s.now().UTC(),
	}

	if err := s.repo.Attempt().Create(ctx, attempt); err != nil {
		return nil, fmt.Errorf("failed to save attempt: %w", err)
	}

	return attempt, nil
}

// ===== HISTORY =====

func (s *attemptService) ListByLearner(ctx context.Context, learnerID string, req AttemptListRequest) (*AttemptListResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if req.Limit == 0 {
		req.Limit = defaultAttemptPageSize
	}

	attempts, err := s.repo.Attempt().ListByLearner(ctx, learnerID, repositories.AttemptFilters{
		Passed: req.Passed,
		Limit:  req.Limit,
		Offset: req.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}

	total, err := s.repo.Attempt().CountByLearner(ctx, learnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to count attempts: %w", err)
	}

	out := &AttemptListResponse{
		Attempts: make([]AttemptResponse, 0, len(attempts)),
		Total:    total,
		Limit:    req.Limit,
		Offset:   req.Offset,
	}
	for _, a := range attempts {
		out.Attempts = append(out.Attempts, *toAttemptResponse(a))
	}
	return out, nil
}

func (s *attemptService) GetByID(ctx context.Context, learnerID string, attemptID uint) (*AttemptResponse, error) {
	attempt, err := s.getOwned(ctx, learnerID, attemptID, "view")
	if err != nil {
		return nil, err
	}
	return toAttemptResponse(attempt), nil
}

func (s *attemptService) getOwned(ctx context.Context, learnerID string, attemptID uint, action string) (*models.AttemptResult, error) {
	attempt, err := s.repo.Attempt().GetByID(ctx, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}

	if attempt.LearnerID != learnerID {
		return nil, NewPermissionError(learnerID, fmt.Sprint(attemptID), "attempt", action, "attempt belongs to another learner")
	}

	return attempt, nil
}

// allAttempts loads the full history in creation order.
func (s *attemptService) allAttempts(ctx context.Context, learnerID string) ([]*models.AttemptResult, error) {
	attempts, err := s.repo.Attempt().ListByLearner(ctx, learnerID, repositories.AttemptFilters{})
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}
	return attempts, nil
}

func (s *attemptService) Summary(ctx context.Context, learnerID string) (*AttemptSummary, error) {
	attempts, err := s.allAttempts(ctx, learnerID)
	if err != nil {
		return nil, err
	}

	summary := &AttemptSummary{
		LearnerID:     learnerID,
		TotalAttempts: len(attempts),
	}
	if len(attempts) == 0 {
		return summary, nil
	}

	for _, a := range attempts {
		if a.Passed {
			summary.PassedAttempts++
		}
	}
	summary.PassRate = float64(summary.PassedAttempts) / float64(summary.TotalAttempts) * 100
	summary.Best = toAttemptResponse(bestAttempt(attempts))
	summary.Latest = toAttemptResponse(attempts[len(attempts)-1])

	return summary, nil
}

// bestAttempt picks the highest percentage; ties go to the earlier attempt.
func bestAttempt(attempts []*models.AttemptResult) *models.AttemptResult {
	var best *models.AttemptResult
	for _, a := range attempts {
		if best == nil || a.Percentage() > best.Percentage() {
			best = a
		}
	}
	return best
}

// ===== EXPORT =====

func (s *attemptService) ExportHistory(ctx context.Context, learnerID string) ([]byte, error) {
	attempts, err := s.allAttempts(ctx, learnerID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Attempts"
	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}

	headers := []string{"Attempt", "Completed At", "Score", "Total Questions", "Percentage", "Passed"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
	}

	for rowIndex, a := range attempts {
		row := []interface{}{
			rowIndex + 1,
			a.CreatedAt.UTC().Format(time.RFC3339),
			a.Score,
			a.TotalQuestions,
			fmt.Sprintf("%.1f%%", a.Percentage()),
			passedLabel(a.Passed),
		}
		cell, _ := excelize.CoordinatesToCellName(1, rowIndex+2)
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write attempt row: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}

	s.logger.Info("Attempt history exported",
		"learner_id", learnerID,
		"attempts", len(attempts))

	return buf.Bytes(), nil
}

func passedLabel(passed bool) string {
	if passed {
		return "Passed"
	}
	return "Failed"
}
