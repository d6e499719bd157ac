package handlers

import (
	"github.com/SAP-F-2025/quiz-service/internal/services"
	"github.com/SAP-F-2025/quiz-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type HandlerManager struct {
	quizHandler        *QuizHandler
	attemptHandler     *AttemptHandler
	certificateHandler *CertificateHandler
	authenticator      Authenticator
	logger             utils.Logger
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	authenticator Authenticator,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		quizHandler:        NewQuizHandler(serviceManager.Quiz(), logger),
		attemptHandler:     NewAttemptHandler(serviceManager.Attempt(), logger),
		certificateHandler: NewCertificateHandler(serviceManager.Certificate(), logger),
		authenticator:      authenticator,
		logger:             logger,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	// Health check endpoint
	router.GET("/health", HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(AuthMiddleware(hm.authenticator, hm.logger))
	{
		v1.GET("/questions", hm.quizHandler.ListQuestions)

		// Quiz session routes
		sessions := v1.Group("/sessions")
		{
			sessions.POST("", hm.quizHandler.StartSession)
			sessions.GET("/:id", hm.quizHandler.GetSession)
			sessions.POST("/:id/select", hm.quizHandler.SelectOption)
			sessions.POST("/:id/review", hm.quizHandler.ToggleReview)
			sessions.POST("/:id/advance", hm.quizHandler.Advance)
			sessions.POST("/:id/retreat", hm.quizHandler.Retreat)
			sessions.POST("/:id/submit", hm.quizHandler.Submit)
			sessions.POST("/:id/restart", hm.quizHandler.Restart)
			sessions.GET("/:id/result", hm.quizHandler.GetResult)
		}

		// Attempt history routes
		attempts := v1.Group("/attempts")
		{
			attempts.GET("", hm.attemptHandler.ListAttempts)
			attempts.GET("/summary", hm.attemptHandler.GetSummary)
			attempts.GET("/export", hm.attemptHandler.ExportAttempts)
			attempts.GET("/:id", hm.attemptHandler.GetAttempt)
		}

		// Certificate routes
		certificates := v1.Group("/certificates")
		{
			certificates.GET("/eligibility", hm.certificateHandler.GetEligibility)
			certificates.POST("/:attempt_id", hm.certificateHandler.RequestCertificate)
		}
	}
}
