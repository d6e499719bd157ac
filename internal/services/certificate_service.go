package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SAP-F-2025/quiz-service/internal/engine"
	"github.com/SAP-F-2025/quiz-service/internal/events"
	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
)

// Eligibility policies: judge the most recent attempt or the best one.
const (
	PolicyLatest = "latest"
	PolicyBest   = "best"
)

// DefaultCertificateName is printed when the identity provider has no
// display name for the learner.
const DefaultCertificateName = "Student"

type certificateService struct {
	repo      repositories.Repository
	publisher events.EventPublisher
	policy    string
	logger    *slog.Logger
	ops       *ServiceLogger
}

func NewCertificateService(repo repositories.Repository, publisher events.EventPublisher, policy string, logger *slog.Logger) CertificateService {
	if policy != PolicyBest {
		policy = PolicyLatest
	}
	return &certificateService{
		repo:      repo,
		publisher: publisher,
		policy:    policy,
		logger:    logger,
		ops:       NewServiceLogger(logger, LogConfig{Service: "quiz-service", Component: "certificates"}),
	}
}

func (s *certificateService) Eligibility(ctx context.Context, learner models.Learner) (*EligibilityResponse, error) {
	attempts, err := s.repo.Attempt().ListByLearner(ctx, learner.ID, repositories.AttemptFilters{})
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}

	resp := &EligibilityResponse{LearnerID: learner.ID, Policy: s.policy}
	if len(attempts) == 0 {
		return resp, nil
	}

	candidate := attempts[len(attempts)-1]
	if s.policy == PolicyBest {
		candidate = bestAttempt(attempts)
	}

	resp.Attempt = toAttemptResponse(candidate)
	resp.Eligible = engine.IsEligible(candidate.ToEngine())
	return resp, nil
}

// Request hands an eligible attempt to the certificate renderer. Failing
// attempts never reach the renderer.
func (s *certificateService) Request(ctx context.Context, learner models.Learner, attemptID uint) (ticket *CertificateTicket, err error) {
	op := s.ops.WithOperation(ctx, "request_certificate", learner.ID)
	defer func() { op.LogResult(fmt.Sprint(attemptID), "attempt", err) }()

	attempt, err := s.repo.Attempt().GetByID(ctx, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}
	if attempt.LearnerID != learner.ID {
		return nil, NewPermissionError(learner.ID, fmt.Sprint(attemptID), "attempt", "certify", "attempt belongs to another learner")
	}

	result := attempt.ToEngine()
	if !engine.IsEligible(result) {
		return nil, ErrCertificateNotEligible
	}

	name := strings.TrimSpace(learner.DisplayName)
	if name == "" {
		name = DefaultCertificateName
	}

	payload := events.CertificateRequestedEvent{
		AttemptID:          attempt.ID,
		LearnerID:          learner.ID,
		LearnerDisplayName: name,
		Score:              result.Score,
		TotalQuestions:     result.TotalQuestions,
		Passed:             result.Passed,
	}
	event := events.NewEvent(events.EventCertificateRequested, payload)
	payload.RequestedAt = event.Timestamp
	event.Data = payload

	if err := s.publisher.Publish(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to request certificate: %w", err)
	}

	return &CertificateTicket{
		RequestID:          event.ID,
		AttemptID:          attempt.ID,
		LearnerID:          learner.ID,
		LearnerDisplayName: name,
		Score:              result.Score,
		TotalQuestions:     result.TotalQuestions,
		Passed:             result.Passed,
		RequestedAt:        event.Timestamp,
	}, nil
}
