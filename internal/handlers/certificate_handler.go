package handlers

import (
	"net/http"

	"github.com/SAP-F-2025/quiz-service/internal/services"
	"github.com/SAP-F-2025/quiz-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type CertificateHandler struct {
	BaseHandler
	certificateService services.CertificateService
}

func NewCertificateHandler(certificateService services.CertificateService, logger utils.Logger) *CertificateHandler {
	return &CertificateHandler{
		BaseHandler:        NewBaseHandler(logger),
		certificateService: certificateService,
	}
}

// GetEligibility reports whether the learner can request a certificate
// @Summary Certificate eligibility
// @Tags certificates
// @Produce json
// @Success 200 {object} services.EligibilityResponse
// @Router /certificates/eligibility [get]
func (h *CertificateHandler) GetEligibility(c *gin.Context) {
	learner, ok := h.currentLearner(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Checking certificate eligibility")

	resp, err := h.certificateService.Eligibility(c.Request.Context(), learner)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// RequestCertificate hands a passing attempt to the certificate renderer
// @Summary Request certificate
// @Tags certificates
// @Produce json
// @Param attempt_id path int true "Attempt ID"
// @Success 202 {object} SuccessResponse{data=services.CertificateTicket}
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /certificates/{attempt_id} [post]
func (h *CertificateHandler) RequestCertificate(c *gin.Context) {
	learner, ok := h.currentLearner(c)
	if !ok {
		return
	}
	attemptID := h.parseIDParam(c, "attempt_id")
	if attemptID == 0 {
		return
	}

	h.LogRequest(c, "Requesting certificate", "attempt_id", attemptID)

	ticket, err := h.certificateService.Request(c.Request.Context(), learner, attemptID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, SuccessResponse{
		Message: "Certificate request accepted",
		Data:    ticket,
	})
}
