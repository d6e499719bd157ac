package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/cache"
	"github.com/SAP-F-2025/quiz-service/internal/config"
	"github.com/SAP-F-2025/quiz-service/internal/handlers"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"github.com/SAP-F-2025/quiz-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/quiz-service/internal/services"
	"github.com/SAP-F-2025/quiz-service/internal/utils"
	"github.com/SAP-F-2025/quiz-service/internal/validator"
	"github.com/SAP-F-2025/quiz-service/pkg"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		utils.NewDefaultLogger().LogError(err, "Failed to load configuration")
		os.Exit(1)
	}

	logger := utils.NewLogger(cfg.Environment)
	slogger := utils.ToSlogLogger(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		logger.LogError(err, "Failed to connect to PostgreSQL")
		os.Exit(1)
	}
	if err := pkg.Migrate(db); err != nil {
		logger.LogError(err, "Failed to migrate database")
		os.Exit(1)
	}

	// Redis backs the session store, the session lock and the question cache.
	// Memory mode keeps everything in-process for single-instance development.
	var (
		cacheService  cache.CacheService
		sessionLocker services.SessionLocker
	)
	switch cfg.SessionStore {
	case config.SessionStoreRedis:
		redisClient, err := pkg.NewRedisClient(ctx, cfg)
		if err != nil {
			logger.LogError(err, "Failed to connect to Redis")
			os.Exit(1)
		}
		defer redisClient.Close()
		cacheService = cache.NewRedisCache(redisClient, slogger)
		sessionLocker = services.NewSharedSessionLocker(cache.NewRedisLocker(redisClient, cfg.SessionLockTTL, slogger))
	default:
		logger.Warn("Using in-memory session store; sessions are lost on restart")
		cacheService = cache.NewMemoryCache()
	}

	questionRepo := repositories.NewCachedQuestionRepository(
		postgres.NewQuestionPostgreSQL(db), cacheService, cfg.QuestionCacheTTL, slogger)
	repo := repositories.NewRepository(
		questionRepo,
		postgres.NewAttemptPostgreSQL(db),
		repositories.NewCacheSessionRepository(cacheService, cfg.SessionTTL),
	)

	publisher, err := cfg.Events.CreateEventPublisher(slogger)
	if err != nil {
		logger.LogError(err, "Failed to create event publisher")
		os.Exit(1)
	}
	defer publisher.Close()

	serviceManager := services.NewServiceManager(repo, publisher, slogger, validator.New(), services.ServiceManagerConfig{
		PassThreshold:     cfg.PassThreshold,
		CertificatePolicy: cfg.CertificatePolicy,
		SessionLocker:     sessionLocker,
	})

	var authenticator handlers.Authenticator
	switch cfg.AuthMode {
	case config.AuthModeHeader:
		logger.Warn("Trusting learner identity headers; do not expose this service directly")
		authenticator = handlers.HeaderAuthenticator{}
	default:
		authenticator = handlers.NewCasdoorAuthenticator(handlers.CasdoorConfig(cfg.Casdoor))
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(handlers.CORSMiddleware(cfg.CORSAllowedOrigins))
	router.Use(utils.ContextLogger(logger))
	router.Use(utils.LoggerMiddleware(logger))

	handlers.NewHandlerManager(serviceManager, authenticator, logger).SetupRoutes(router)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server listening", "addr", srv.Addr, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.LogError(err, "Server error")
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("Shutting down gracefully", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.LogError(err, "HTTP server shutdown error")
	}

	logger.Info("Shutdown complete")
}
