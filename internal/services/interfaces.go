package services

import (
	"context"
	"io"
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/engine"
	"github.com/SAP-F-2025/quiz-service/internal/models"
)

// ===== SERVICE INTERFACES =====

// QuizService drives quiz sessions for an authenticated learner
type QuizService interface {
	ListQuestions(ctx context.Context) ([]QuestionResponse, error)

	Start(ctx context.Context, learner models.Learner) (*SessionResponse, error)
	Get(ctx context.Context, learner models.Learner, sessionID string) (*SessionResponse, error)
	SelectOption(ctx context.Context, learner models.Learner, sessionID string, req *SelectOptionRequest) (*SessionResponse, error)
	ToggleReview(ctx context.Context, learner models.Learner, sessionID string) (*SessionResponse, error)
	Advance(ctx context.Context, learner models.Learner, sessionID string) (*AdvanceResponse, error)
	Retreat(ctx context.Context, learner models.Learner, sessionID string) (*SessionResponse, error)
	Submit(ctx context.Context, learner models.Learner, sessionID string) (*AdvanceResponse, error)
	Restart(ctx context.Context, learner models.Learner, sessionID string) (*SessionResponse, error)
	Result(ctx context.Context, learner models.Learner, sessionID string) (*ResultResponse, error)
}

// AttemptService records completed attempts and serves a learner's history
type AttemptService interface {
	Save(ctx context.Context, learnerID string, score, total int, passed bool) (*models.AttemptResult, error)
	ListByLearner(ctx context.Context, learnerID string, filters AttemptListRequest) (*AttemptListResponse, error)
	GetByID(ctx context.Context, learnerID string, attemptID uint) (*AttemptResponse, error)
	Summary(ctx context.Context, learnerID string) (*AttemptSummary, error)
	ExportHistory(ctx context.Context, learnerID string) ([]byte, error)
}

// CertificateService applies the eligibility gate before handing a result to
// the certificate renderer
type CertificateService interface {
	Eligibility(ctx context.Context, learner models.Learner) (*EligibilityResponse, error)
	Request(ctx context.Context, learner models.Learner, attemptID uint) (*CertificateTicket, error)
}

// QuestionImportService loads question sets from spreadsheets and the
// built-in default set
type QuestionImportService interface {
	SeedDefaults(ctx context.Context) (*ImportResult, error)
	ImportFromExcel(ctx context.Context, reader io.Reader) (*ImportResult, error)
}

// ===== REQUEST DTOs =====

type SelectOptionRequest struct {
	Option string `json:"option" validate:"required,not_blank,max=255"`
}

type AttemptListRequest struct {
	Passed *bool `form:"passed" json:"passed"`
	Limit  int   `form:"limit" json:"limit" validate:"gte=0,max=100"`
	Offset int   `form:"offset" json:"offset" validate:"gte=0"`
}

type saveAttemptRequest struct {
	LearnerID      string `json:"learner_id" validate:"required,max=255"`
	Score          int    `json:"score" validate:"gte=0,ltefield=TotalQuestions"`
	TotalQuestions int    `json:"total_questions" validate:"gt=0"`
}

// ===== RESPONSE DTOs =====

// QuestionResponse never carries the correct option
type QuestionResponse struct {
	ID      string   `json:"id"`
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
}

type SessionResponse struct {
	ID              string           `json:"id"`
	LearnerID       string           `json:"learner_id"`
	Status          engine.Status    `json:"status"`
	CurrentIndex    int              `json:"current_index"`
	TotalQuestions  int              `json:"total_questions"`
	CurrentQuestion QuestionResponse `json:"current_question"`
	SelectedOption  string           `json:"selected_option,omitempty"`
	MarkedForReview bool             `json:"marked_for_review"`
	ReviewMarks     []int            `json:"review_marks"`
	AnsweredCount   int              `json:"answered_count"`
	IsLastQuestion  bool             `json:"is_last_question"`
	StartedAt       time.Time        `json:"started_at"`
	CompletedAt     *time.Time       `json:"completed_at,omitempty"`
}

type AdvanceResponse struct {
	Outcome engine.Outcome   `json:"outcome"`
	Session *SessionResponse `json:"session"`
	Result  *ResultResponse  `json:"result,omitempty"`
}

type QuestionReview struct {
	Index           int    `json:"index"`
	Prompt          string `json:"prompt"`
	SelectedOption  string `json:"selected_option"`
	CorrectOption   string `json:"correct_option"`
	Correct         bool   `json:"correct"`
	MarkedForReview bool   `json:"marked_for_review"`
}

type ResultResponse struct {
	SessionID      string           `json:"session_id"`
	AttemptID      *uint            `json:"attempt_id,omitempty"`
	LearnerID      string           `json:"learner_id"`
	LearnerName    string           `json:"learner_name"`
	Score          int              `json:"score"`
	TotalQuestions int              `json:"total_questions"`
	Percentage     float64          `json:"percentage"`
	Passed         bool             `json:"passed"`
	PassThreshold  float64          `json:"pass_threshold"`
	Eligible       bool             `json:"certificate_eligible"`
	CreatedAt      time.Time        `json:"created_at"`
	Review         []QuestionReview `json:"review"`
}

type AttemptResponse struct {
	ID             uint      `json:"id"`
	LearnerID      string    `json:"learner_id"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"total_questions"`
	Percentage     float64   `json:"percentage"`
	Passed         bool      `json:"passed"`
	CreatedAt      time.Time `json:"created_at"`
}

type AttemptListResponse struct {
	Attempts []AttemptResponse `json:"attempts"`
	Total    int64             `json:"total"`
	Limit    int               `json:"limit"`
	Offset   int               `json:"offset"`
}

type AttemptSummary struct {
	LearnerID      string           `json:"learner_id"`
	TotalAttempts  int              `json:"total_attempts"`
	PassedAttempts int              `json:"passed_attempts"`
	PassRate       float64          `json:"pass_rate"`
	Best           *AttemptResponse `json:"best,omitempty"`
	Latest         *AttemptResponse `json:"latest,omitempty"`
}

type EligibilityResponse struct {
	LearnerID string           `json:"learner_id"`
	Policy    string           `json:"policy"`
	Eligible  bool             `json:"eligible"`
	Attempt   *AttemptResponse `json:"attempt,omitempty"`
}

// CertificateTicket acknowledges a certificate request handed to the renderer
type CertificateTicket struct {
	RequestID          string    `json:"request_id"`
	AttemptID          uint      `json:"attempt_id"`
	LearnerID          string    `json:"learner_id"`
	LearnerDisplayName string    `json:"learner_display_name"`
	Score              int       `json:"score"`
	TotalQuestions     int       `json:"total_questions"`
	Passed             bool      `json:"passed"`
	RequestedAt        time.Time `json:"requested_at"`
}

type ImportResult struct {
	TotalRows    int                `json:"total_rows"`
	CreatedCount int                `json:"created_count"`
	SkippedCount int                `json:"skipped_count"`
	ErrorCount   int                `json:"error_count"`
	Errors       []ImportRowError   `json:"errors,omitempty"`
	Questions    []*models.Question `json:"questions,omitempty"`
}

type ImportRowError struct {
	Row    int              `json:"row"`
	Errors ValidationErrors `json:"errors"`
}

// ===== CONVERSIONS =====

func toAttemptResponse(a *models.AttemptResult) *AttemptResponse {
	return &AttemptResponse{
		ID:             a.ID,
		LearnerID:      a.LearnerID,
		Score:          a.Score,
		TotalQuestions: a.TotalQuestions,
		Percentage:     a.Percentage(),
		Passed:         a.Passed,
		CreatedAt:      a.CreatedAt,
	}
}

func toQuestionResponse(q engine.Question) QuestionResponse {
	return QuestionResponse{
		ID:      q.ID,
		Prompt:  q.Prompt,
		Options: append([]string(nil), q.Options...),
	}
}

func toSessionResponse(s *engine.Session) *SessionResponse {
	marks := make([]int, 0, len(s.ReviewMarks))
	for i := 0; i < s.TotalQuestions(); i++ {
		if s.Marked(i) {
			marks = append(marks, i)
		}
	}

	return &SessionResponse{
		ID:              s.ID,
		LearnerID:       s.LearnerID,
		Status:          s.Status,
		CurrentIndex:    s.CurrentIndex,
		TotalQuestions:  s.TotalQuestions(),
		CurrentQuestion: toQuestionResponse(s.Current()),
		SelectedOption:  s.Answers[s.CurrentIndex],
		MarkedForReview: s.Marked(s.CurrentIndex),
		ReviewMarks:     marks,
		AnsweredCount:   s.AnsweredCount(),
		IsLastQuestion:  s.IsLast(),
		StartedAt:       s.StartedAt,
		CompletedAt:     s.CompletedAt,
	}
}
