package handlers

import (
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/utils"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORSMiddleware restricts browser origins to the configured list, or allows
// any origin when the list is empty.
func CORSMiddleware(allowedOrigins []string) gin.HandlerFunc {
	config := cors.DefaultConfig()
	if len(allowedOrigins) > 0 {
		config.AllowOrigins = allowedOrigins
	} else {
		config.AllowAllOrigins = true
	}
	config.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", utils.RequestIDHeader, HeaderLearnerID, HeaderLearnerName}
	config.ExposeHeaders = []string{utils.RequestIDHeader, "Content-Disposition"}
	config.MaxAge = 12 * time.Hour
	return cors.New(config)
}
