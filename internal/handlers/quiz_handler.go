package handlers

import (
	"context"
	"net/http"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/services"
	"github.com/SAP-F-2025/quiz-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type QuizHandler struct {
	BaseHandler
	quizService services.QuizService
}

func NewQuizHandler(quizService services.QuizService, logger utils.Logger) *QuizHandler {
	return &QuizHandler{
		BaseHandler: NewBaseHandler(logger),
		quizService: quizService,
	}
}

// ListQuestions returns the active question set without the correct options
// @Summary List questions
// @Tags questions
// @Produce json
// @Success 200 {array} services.QuestionResponse
// @Failure 401 {object} ErrorResponse
// @Router /questions [get]
func (h *QuizHandler) ListQuestions(c *gin.Context) {
	h.LogRequest(c, "Listing questions")

	questions, err := h.quizService.ListQuestions(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, questions)
}

// StartSession opens a new quiz session for the current learner
// @Summary Start quiz session
// @Tags sessions
// @Produce json
// @Success 201 {object} services.SessionResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /sessions [post]
func (h *QuizHandler) StartSession(c *gin.Context) {
	learner, ok := h.currentLearner(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Starting quiz session")

	session, err := h.quizService.Start(c.Request.Context(), learner)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, session)
}

// GetSession returns the session's current view
// @Summary Get quiz session
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} services.SessionResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id} [get]
func (h *QuizHandler) GetSession(c *gin.Context) {
	h.sessionStep(c, "Getting quiz session", h.quizService.Get)
}

// SelectOption records the learner's choice for the current question
// @Summary Select option
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param body body services.SelectOptionRequest true "Chosen option"
// @Success 200 {object} services.SessionResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /sessions/{id}/select [post]
func (h *QuizHandler) SelectOption(c *gin.Context) {
	learner, ok := h.currentLearner(c)
	if !ok {
		return
	}
	sessionID := ParseStringIDParam(c, "id")
	if sessionID == "" {
		return
	}

	var req services.SelectOptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, CodeValidationFailed, "Invalid request payload", err, err.Error())
		return
	}

	h.LogRequest(c, "Selecting option", "session_id", sessionID)

	session, err := h.quizService.SelectOption(c.Request.Context(), learner, sessionID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// ToggleReview flips the review mark on the current question
// @Summary Toggle review mark
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} services.SessionResponse
// @Failure 409 {object} ErrorResponse
// @Router /sessions/{id}/review [post]
func (h *QuizHandler) ToggleReview(c *gin.Context) {
	h.sessionStep(c, "Toggling review mark", h.quizService.ToggleReview)
}

// Advance moves to the next question, completing the quiz on the last one
// @Summary Advance
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} services.AdvanceResponse
// @Failure 409 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /sessions/{id}/advance [post]
func (h *QuizHandler) Advance(c *gin.Context) {
	h.advanceStep(c, "Advancing quiz session", h.quizService.Advance)
}

// Retreat moves back one question
// @Summary Retreat
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} services.SessionResponse
// @Failure 409 {object} ErrorResponse
// @Router /sessions/{id}/retreat [post]
func (h *QuizHandler) Retreat(c *gin.Context) {
	h.sessionStep(c, "Retreating quiz session", h.quizService.Retreat)
}

// Submit completes the quiz from the last question
// @Summary Submit
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} services.AdvanceResponse
// @Failure 409 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /sessions/{id}/submit [post]
func (h *QuizHandler) Submit(c *gin.Context) {
	h.advanceStep(c, "Submitting quiz session", h.quizService.Submit)
}

// Restart discards the session and opens a fresh one over the same questions
// @Summary Restart
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 201 {object} services.SessionResponse
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id}/restart [post]
func (h *QuizHandler) Restart(c *gin.Context) {
	learner, ok := h.currentLearner(c)
	if !ok {
		return
	}
	sessionID := ParseStringIDParam(c, "id")
	if sessionID == "" {
		return
	}

	h.LogRequest(c, "Restarting quiz session", "session_id", sessionID)

	session, err := h.quizService.Restart(c.Request.Context(), learner, sessionID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, session)
}

// GetResult returns the result view of a completed session
// @Summary Get result
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} services.ResultResponse
// @Failure 409 {object} ErrorResponse
// @Router /sessions/{id}/result [get]
func (h *QuizHandler) GetResult(c *gin.Context) {
	learner, ok := h.currentLearner(c)
	if !ok {
		return
	}
	sessionID := ParseStringIDParam(c, "id")
	if sessionID == "" {
		return
	}

	h.LogRequest(c, "Getting quiz result", "session_id", sessionID)

	result, err := h.quizService.Result(c.Request.Context(), learner, sessionID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

type sessionCall func(ctx context.Context, learner models.Learner, sessionID string) (*services.SessionResponse, error)

type advanceCall func(ctx context.Context, learner models.Learner, sessionID string) (*services.AdvanceResponse, error)

func (h *QuizHandler) sessionStep(c *gin.Context, message string, call sessionCall) {
	learner, ok := h.currentLearner(c)
	if !ok {
		return
	}
	sessionID := ParseStringIDParam(c, "id")
	if sessionID == "" {
		return
	}

	h.LogRequest(c, message, "session_id", sessionID)

	session, err := call(c.Request.Context(), learner, sessionID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

func (h *QuizHandler) advanceStep(c *gin.Context, message string, call advanceCall) {
	learner, ok := h.currentLearner(c)
	if !ok {
		return
	}
	sessionID := ParseStringIDParam(c, "id")
	if sessionID == "" {
		return
	}

	h.LogRequest(c, message, "session_id", sessionID)

	resp, err := call(c.Request.Context(), learner, sessionID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
