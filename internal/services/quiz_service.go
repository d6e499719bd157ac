package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SAP-F-2025/quiz-service/internal/engine"
	"github.com/SAP-F-2025/quiz-service/internal/events"
	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"github.com/SAP-F-2025/quiz-service/internal/validator"
)

type quizService struct {
	repo      repositories.Repository
	engine    *engine.Engine
	attempts  AttemptService
	publisher events.EventPublisher
	locks     SessionLocker
	logger    *slog.Logger
	ops       *ServiceLogger
	validator *validator.Validator
}

func NewQuizService(
	repo repositories.Repository,
	quizEngine *engine.Engine,
	attempts AttemptService,
	publisher events.EventPublisher,
	locker SessionLocker,
	logger *slog.Logger,
	validator *validator.Validator,
) QuizService {
	if locker == nil {
		locker = newSessionLocks()
	}
	return &quizService{
		repo:      repo,
		engine:    quizEngine,
		attempts:  attempts,
		publisher: publisher,
		locks:     locker,
		logger:    logger,
		ops:       NewServiceLogger(logger, LogConfig{Service: "quiz-service", Component: "sessions"}),
		validator: validator,
	}
}

// ===== QUESTIONS =====

func (s *quizService) ListQuestions(ctx context.Context) ([]QuestionResponse, error) {
	questions, err := s.questionSet(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]QuestionResponse, 0, len(questions))
	for _, q := range questions {
		out = append(out, toQuestionResponse(q))
	}
	return out, nil
}

// questionSet loads the current question set in stored order.
func (s *quizService) questionSet(ctx context.Context) ([]engine.Question, error) {
	stored, err := s.repo.Question().GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load questions: %w", err)
	}
	if len(stored) == 0 {
		return nil, ErrQuestionSetEmpty
	}

	questions, err := models.ToEngineQuestions(stored)
	if err != nil {
		return nil, fmt.Errorf("failed to convert questions: %w", err)
	}
	return questions, nil
}

// ===== SESSION LIFECYCLE =====

func (s *quizService) Start(ctx context.Context, learner models.Learner) (resp *SessionResponse, err error) {
	op := s.ops.WithOperation(ctx, "start_session", learner.ID)
	defer func() { op.LogResult(sessionIDOf(resp), "session", err) }()

	questions, err := s.questionSet(ctx)
	if err != nil {
		return nil, err
	}

	session, err := s.engine.Start(learner.ID, questions)
	if err != nil {
		return nil, err
	}

	if err := s.store(ctx, &models.SessionRecord{Session: session, LearnerName: learner.DisplayName}); err != nil {
		return nil, err
	}

	s.publishStarted(ctx, session)

	return toSessionResponse(session), nil
}

func (s *quizService) Get(ctx context.Context, learner models.Learner, sessionID string) (*SessionResponse, error) {
	record, err := s.loadOwned(ctx, learner, sessionID, "view")
	if err != nil {
		return nil, err
	}
	return toSessionResponse(record.Session), nil
}

func (s *quizService) SelectOption(ctx context.Context, learner models.Learner, sessionID string, req *SelectOptionRequest) (*SessionResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	record, err := s.mutate(ctx, learner, sessionID, "select_option", func(record *models.SessionRecord) error {
		return s.engine.SelectOption(record.Session, req.Option)
	})
	if err != nil {
		return nil, err
	}
	return toSessionResponse(record.Session), nil
}

func (s *quizService) ToggleReview(ctx context.Context, learner models.Learner, sessionID string) (*SessionResponse, error) {
	record, err := s.mutate(ctx, learner, sessionID, "toggle_review", func(record *models.SessionRecord) error {
		return s.engine.ToggleReview(record.Session)
	})
	if err != nil {
		return nil, err
	}
	return toSessionResponse(record.Session), nil
}

func (s *quizService) Retreat(ctx context.Context, learner models.Learner, sessionID string) (*SessionResponse, error) {
	record, err := s.mutate(ctx, learner, sessionID, "retreat", func(record *models.SessionRecord) error {
		return s.engine.Retreat(record.Session)
	})
	if err != nil {
		return nil, err
	}
	return toSessionResponse(record.Session), nil
}

func (s *quizService) Advance(ctx context.Context, learner models.Learner, sessionID string) (*AdvanceResponse, error) {
	return s.step(ctx, learner, sessionID, "advance", func(session *engine.Session) (engine.Outcome, error) {
		return s.engine.Advance(session)
	})
}

func (s *quizService) Submit(ctx context.Context, learner models.Learner, sessionID string) (*AdvanceResponse, error) {
	return s.step(ctx, learner, sessionID, "submit", func(session *engine.Session) (engine.Outcome, error) {
		if err := s.engine.Submit(session); err != nil {
			return "", err
		}
		return engine.OutcomeCompleted, nil
	})
}

// step runs a forward move. A move that completes the session stores the
// completed session before the attempt is recorded, so a failed store leaves
// the session in progress and a retried step cannot record twice. A session
// stored as completed but not recorded is recorded by Result.
func (s *quizService) step(ctx context.Context, learner models.Learner, sessionID, action string, move func(*engine.Session) (engine.Outcome, error)) (*AdvanceResponse, error) {
	var (
		outcome engine.Outcome
		result  *ResultResponse
	)

	record, err := s.withSession(ctx, learner, sessionID, action, func(record *models.SessionRecord) error {
		var err error
		outcome, err = move(record.Session)
		if err != nil {
			return err
		}
		if err := s.store(ctx, record); err != nil {
			return err
		}
		if outcome != engine.OutcomeCompleted {
			return nil
		}

		result, err = s.complete(ctx, record)
		if err != nil {
			return err
		}
		if err := s.store(ctx, record); err != nil {
			// The attempt exists; only the link back to it is missing.
			s.logger.Error("Failed to link recorded attempt to session",
				"session_id", sessionID,
				"attempt_id", *record.AttemptID,
				"error", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &AdvanceResponse{
		Outcome: outcome,
		Session: toSessionResponse(record.Session),
		Result:  result,
	}, nil
}

func (s *quizService) Restart(ctx context.Context, learner models.Learner, sessionID string) (resp *SessionResponse, err error) {
	op := s.ops.WithOperation(ctx, "restart_session", learner.ID)
	defer func() { op.LogResult(sessionID, "session", err) }()

	release, err := s.locks.Lock(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer release()

	record, err := s.loadOwned(ctx, learner, sessionID, "restart")
	if err != nil {
		return nil, err
	}

	fresh, err := s.engine.Restart(record.Session)
	if err != nil {
		return nil, err
	}

	name := record.LearnerName
	if learner.DisplayName != "" {
		name = learner.DisplayName
	}
	if err := s.store(ctx, &models.SessionRecord{Session: fresh, LearnerName: name}); err != nil {
		return nil, err
	}
	if err := s.repo.Session().Delete(ctx, sessionID); err != nil {
		s.logger.Warn("Failed to remove restarted session",
			"session_id", sessionID,
			"error", err)
	}

	s.publishStarted(ctx, fresh)

	return toSessionResponse(fresh), nil
}

// Result re-renders the outcome of a completed session. A session whose
// attempt could not be recorded on completion is recorded here.
func (s *quizService) Result(ctx context.Context, learner models.Learner, sessionID string) (*ResultResponse, error) {
	release, err := s.locks.Lock(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer release()

	record, err := s.loadOwned(ctx, learner, sessionID, "view_result")
	if err != nil {
		return nil, err
	}
	if record.Session.Status != engine.StatusCompleted {
		return nil, ErrSessionNotCompleted
	}

	if record.Recorded() {
		return s.buildResult(record)
	}

	result, err := s.complete(ctx, record)
	if err != nil {
		return nil, err
	}
	if err := s.store(ctx, record); err != nil {
		return nil, err
	}
	return result, nil
}

// ===== HELPERS =====

// loadOwned fetches a session and checks it belongs to the learner.
func (s *quizService) loadOwned(ctx context.Context, learner models.Learner, sessionID, action string) (*models.SessionRecord, error) {
	record, err := s.repo.Session().Get(ctx, sessionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	if record.Session.LearnerID != learner.ID {
		return nil, NewPermissionError(learner.ID, sessionID, "session", action, "session belongs to another learner")
	}

	return record, nil
}

// mutate applies fn to the stored session under the session lock and
// persists the result. Nothing is stored when fn fails.
func (s *quizService) mutate(ctx context.Context, learner models.Learner, sessionID, action string, fn func(*models.SessionRecord) error) (*models.SessionRecord, error) {
	return s.withSession(ctx, learner, sessionID, action, func(record *models.SessionRecord) error {
		if err := fn(record); err != nil {
			return err
		}
		return s.store(ctx, record)
	})
}

// withSession loads the learner's session under the session lock and hands
// it to fn, which is responsible for storing any change.
func (s *quizService) withSession(ctx context.Context, learner models.Learner, sessionID, action string, fn func(*models.SessionRecord) error) (record *models.SessionRecord, err error) {
	op := s.ops.WithOperation(ctx, action, learner.ID)
	defer func() { op.LogResult(sessionID, "session", err) }()

	release, err := s.locks.Lock(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer release()

	record, err = s.loadOwned(ctx, learner, sessionID, action)
	if err != nil {
		return nil, err
	}

	if err := fn(record); err != nil {
		return nil, err
	}
	return record, nil
}

func (s *quizService) store(ctx context.Context, record *models.SessionRecord) error {
	if err := s.repo.Session().Save(ctx, record); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

// complete scores a completed session, records the attempt once and
// announces it. The record's AttemptID is set on success.
func (s *quizService) complete(ctx context.Context, record *models.SessionRecord) (*ResultResponse, error) {
	scored, err := s.engine.Score(record.Session)
	if err != nil {
		return nil, err
	}

	attempt, err := s.attempts.Save(ctx, scored.LearnerID, scored.Score, scored.TotalQuestions, scored.Passed)
	if err != nil {
		return nil, fmt.Errorf("failed to record attempt: %w", err)
	}
	record.AttemptID = &attempt.ID

	s.publish(ctx, events.NewEvent(events.EventAttemptCompleted, events.AttemptCompletedEvent{
		SessionID:      record.Session.ID,
		AttemptID:      attempt.ID,
		LearnerID:      scored.LearnerID,
		Score:          scored.Score,
		TotalQuestions: scored.TotalQuestions,
		Passed:         scored.Passed,
		CompletedAt:    scored.CreatedAt,
	}))

	return s.buildResult(record)
}

func (s *quizService) buildResult(record *models.SessionRecord) (*ResultResponse, error) {
	session := record.Session
	scored, err := s.engine.Score(session)
	if err != nil {
		return nil, err
	}

	review := make([]QuestionReview, 0, len(session.Questions))
	for i, q := range session.Questions {
		selected := session.Answers[i]
		review = append(review, QuestionReview{
			Index:           i,
			Prompt:          q.Prompt,
			SelectedOption:  selected,
			CorrectOption:   q.CorrectOption,
			Correct:         selected == q.CorrectOption,
			MarkedForReview: session.Marked(i),
		})
	}

	return &ResultResponse{
		SessionID:      session.ID,
		AttemptID:      record.AttemptID,
		LearnerID:      scored.LearnerID,
		LearnerName:    record.LearnerName,
		Score:          scored.Score,
		TotalQuestions: scored.TotalQuestions,
		Percentage:     float64(scored.Score) / float64(scored.TotalQuestions) * 100,
		Passed:         scored.Passed,
		PassThreshold:  s.engine.PassThreshold(),
		Eligible:       engine.IsEligible(scored),
		CreatedAt:      scored.CreatedAt,
		Review:         review,
	}, nil
}

func (s *quizService) publishStarted(ctx context.Context, session *engine.Session) {
	s.publish(ctx, events.NewEvent(events.EventAttemptStarted, events.AttemptStartedEvent{
		SessionID:      session.ID,
		LearnerID:      session.LearnerID,
		TotalQuestions: session.TotalQuestions(),
		StartedAt:      session.StartedAt,
	}))
}

// publish is best effort; a broker outage never fails a quiz step.
func (s *quizService) publish(ctx context.Context, event *events.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("Failed to publish quiz event",
			"event_type", event.Type,
			"error", err)
	}
}

func sessionIDOf(resp *SessionResponse) string {
	if resp == nil {
		return ""
	}
	return resp.ID
}
