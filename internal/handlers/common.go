package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/SAP-F-2025/quiz-service/internal/engine"
	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/services"
	"github.com/SAP-F-2025/quiz-service/internal/utils"
	"github.com/gin-gonic/gin"
)

// ===== COMMON RESPONSE STRUCTURES =====

// ErrorResponse represents an error response
type ErrorResponse struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	Code    string      `json:"code,omitempty"`
}

// SuccessResponse represents a success response
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Error codes returned alongside 4xx responses
const (
	CodeValidationFailed   = "VALIDATION_FAILED"
	CodeAnswerRequired     = "ANSWER_REQUIRED"
	CodeNotLastQuestion    = "NOT_LAST_QUESTION"
	CodePreconditionFailed = "PRECONDITION_FAILED"
	CodeInvalidState       = "INVALID_STATE"
	CodeSessionBusy        = "SESSION_BUSY"
	CodeNotFound           = "NOT_FOUND"
	CodeForbidden          = "FORBIDDEN"
	CodeNotEligible        = "CERTIFICATE_NOT_ELIGIBLE"
	CodeUnauthenticated    = "UNAUTHENTICATED"
	CodeInternal           = "INTERNAL_ERROR"
)

// ===== BASE HANDLER STRUCT =====

// BaseHandler provides common logging functionality for all handlers
type BaseHandler struct {
	logger utils.Logger
}

// NewBaseHandler creates a new base handler with logging capability
func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{
		logger: logger,
	}
}

// log picks the request scoped logger set by utils.ContextLogger, which
// already carries request_id, method and path.
func (h *BaseHandler) log(c *gin.Context) utils.Logger {
	return utils.LoggerFromContext(c, h.logger)
}

func requestFields(c *gin.Context, additionalFields ...interface{}) []interface{} {
	fields := []interface{}{"learner_id", c.GetString(contextLearnerID)}
	return append(fields, additionalFields...)
}

// LogRequest logs incoming HTTP requests with context information
func (h *BaseHandler) LogRequest(c *gin.Context, message string, additionalFields ...interface{}) {
	h.log(c).Debug(message, requestFields(c, additionalFields...)...)
}

// LogError logs error details with context information
func (h *BaseHandler) LogError(c *gin.Context, err error, message string, additionalFields ...interface{}) {
	h.log(c).LogError(err, message, requestFields(c, additionalFields...)...)
}

// LogWarn logs warning messages with context
func (h *BaseHandler) LogWarn(c *gin.Context, message string, additionalFields ...interface{}) {
	h.log(c).Warn(message, requestFields(c, additionalFields...)...)
}

// RespondWithError sends a consistent error response and logs it
func (h *BaseHandler) RespondWithError(c *gin.Context, statusCode int, code, message string, err error, details ...interface{}) {
	errorResp := ErrorResponse{
		Message: message,
		Code:    code,
	}

	if len(details) > 0 {
		errorResp.Details = details[0]
	}

	if statusCode >= http.StatusInternalServerError {
		h.LogError(c, err, message, "status_code", statusCode)
	} else {
		h.LogWarn(c, message, "status_code", statusCode, "error", err)
	}

	c.AbortWithStatusJSON(statusCode, errorResp)
}

// handleServiceError maps service and engine errors to HTTP responses
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors services.ValidationErrors
	if errors.As(err, &validationErrors) {
		h.RespondWithError(c, http.StatusBadRequest, CodeValidationFailed, "Validation failed", err, validationErrors)
		return
	}

	var permissionError *services.PermissionError
	if errors.As(err, &permissionError) {
		h.RespondWithError(c, http.StatusForbidden, CodeForbidden, "Access denied", err, map[string]interface{}{
			"resource": permissionError.Resource,
			"action":   permissionError.Action,
			"reason":   permissionError.Reason,
		})
		return
	}

	switch {
	case services.IsPreconditionFailed(err):
		reason := services.PreconditionReason(err)
		h.RespondWithError(c, http.StatusUnprocessableEntity, preconditionCode(err), reason, err)
	case services.IsNotEligible(err):
		h.RespondWithError(c, http.StatusForbidden, CodeNotEligible, "Attempt did not pass and is not eligible for a certificate", err)
	case errors.Is(err, services.ErrSessionBusy):
		h.RespondWithError(c, http.StatusConflict, CodeSessionBusy, "Quiz session is being updated by another request", err)
	case services.IsInvalidState(err):
		h.RespondWithError(c, http.StatusConflict, CodeInvalidState, "Operation not allowed in the session's current state", err)
	case errors.Is(err, services.ErrSessionNotFound):
		h.RespondWithError(c, http.StatusNotFound, CodeNotFound, "Quiz session not found", err)
	case errors.Is(err, services.ErrAttemptNotFound):
		h.RespondWithError(c, http.StatusNotFound, CodeNotFound, "Attempt not found", err)
	case errors.Is(err, services.ErrQuestionSetEmpty):
		h.RespondWithError(c, http.StatusNotFound, CodeNotFound, "No questions are available", err)
	case services.IsNotFound(err):
		h.RespondWithError(c, http.StatusNotFound, CodeNotFound, "Resource not found", err)
	case services.IsValidation(err):
		h.RespondWithError(c, http.StatusBadRequest, CodeValidationFailed, "Validation failed", err, err.Error())
	case services.IsUnauthorized(err):
		h.RespondWithError(c, http.StatusForbidden, CodeForbidden, "Access denied", err)
	default:
		h.RespondWithError(c, http.StatusInternalServerError, CodeInternal, "Internal server error", err)
	}
}

func preconditionCode(err error) string {
	switch services.PreconditionReason(err) {
	case engine.ReasonAnswerRequired:
		return CodeAnswerRequired
	case engine.ReasonNotLastQuestion:
		return CodeNotLastQuestion
	default:
		return CodePreconditionFailed
	}
}

// currentLearner returns the learner placed on the context by the auth
// middleware. It writes a 401 and returns false when there is none.
func (h *BaseHandler) currentLearner(c *gin.Context) (models.Learner, bool) {
	value, exists := c.Get(contextLearner)
	if !exists {
		h.RespondWithError(c, http.StatusUnauthorized, CodeUnauthenticated, "Learner not authenticated", nil)
		return models.Learner{}, false
	}
	learner, ok := value.(models.Learner)
	if !ok || learner.ID == "" {
		h.RespondWithError(c, http.StatusUnauthorized, CodeUnauthenticated, "Learner not authenticated", nil)
		return models.Learner{}, false
	}
	return learner, true
}

func (h *BaseHandler) parseIDParam(c *gin.Context, param string) uint {
	idStr := c.Param(param)
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil || id == 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + param,
			Details: idStr,
			Code:    CodeValidationFailed,
		})
		return 0
	}
	return uint(id)
}
