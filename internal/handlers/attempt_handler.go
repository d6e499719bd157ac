package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/services"
	"github.com/SAP-F-2025/quiz-service/internal/utils"
	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type AttemptHandler struct {
	BaseHandler
	attemptService services.AttemptService
}

func NewAttemptHandler(attemptService services.AttemptService, logger utils.Logger) *AttemptHandler {
	return &AttemptHandler{
		BaseHandler:    NewBaseHandler(logger),
		attemptService: attemptService,
	}
}

// ListAttempts lists the current learner's attempts in the order they were recorded
// @Summary List attempts
// @Tags attempts
// @Produce json
// @Param passed query bool false "Filter by pass/fail"
// @Param limit query int false "Page size (max 100)"
// @Param offset query int false "Offset"
// @Success 200 {object} services.AttemptListResponse
// @Failure 400 {object} ErrorResponse
// @Router /attempts [get]
func (h *AttemptHandler) ListAttempts(c *gin.Context) {
	learner, ok := h.currentLearner(c)
	if !ok {
		return
	}

	var req services.AttemptListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, CodeValidationFailed, "Invalid query parameters", err, err.Error())
		return
	}

	h.LogRequest(c, "Listing attempts", "limit", req.Limit, "offset", req.Offset)

	list, err := h.attemptService.ListByLearner(c.Request.Context(), learner.ID, req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

// GetAttempt returns one of the current learner's attempts
// @Summary Get attempt
// @Tags attempts
// @Produce json
// @Param id path int true "Attempt ID"
// @Success 200 {object} services.AttemptResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /attempts/{id} [get]
func (h *AttemptHandler) GetAttempt(c *gin.Context) {
	learner, ok := h.currentLearner(c)
	if !ok {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Getting attempt", "attempt_id", id)

	attempt, err := h.attemptService.GetByID(c.Request.Context(), learner.ID, id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, attempt)
}

// GetSummary returns pass rate, best and latest attempt
// @Summary Attempt summary
// @Tags attempts
// @Produce json
// @Success 200 {object} services.AttemptSummary
// @Router /attempts/summary [get]
func (h *AttemptHandler) GetSummary(c *gin.Context) {
	learner, ok := h.currentLearner(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Getting attempt summary")

	summary, err := h.attemptService.Summary(c.Request.Context(), learner.ID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// ExportAttempts downloads the learner's history as an xlsx workbook
// @Summary Export attempts
// @Tags attempts
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} file
// @Router /attempts/export [get]
func (h *AttemptHandler) ExportAttempts(c *gin.Context) {
	learner, ok := h.currentLearner(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Exporting attempts")

	data, err := h.attemptService.ExportHistory(c.Request.Context(), learner.ID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("attempts_%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}
