package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/config"
	"github.com/SAP-F-2025/quiz-service/internal/events"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"github.com/SAP-F-2025/quiz-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/quiz-service/internal/services"
	"github.com/SAP-F-2025/quiz-service/internal/utils"
	"github.com/SAP-F-2025/quiz-service/internal/validator"
	"github.com/SAP-F-2025/quiz-service/pkg"
)

func main() {
	file := flag.String("file", "", "optional .xlsx question sheet to import after the default set")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		utils.NewDefaultLogger().LogError(err, "Failed to load configuration")
		os.Exit(1)
	}
	logger := utils.NewLogger(cfg.Environment)
	slogger := utils.ToSlogLogger(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
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

	repo := repositories.NewRepository(postgres.NewQuestionPostgreSQL(db), postgres.NewAttemptPostgreSQL(db), nil)
	manager := services.NewServiceManager(repo, events.NewDiscardEventPublisher(slogger), slogger, validator.New(), services.ServiceManagerConfig{
		PassThreshold:     cfg.PassThreshold,
		CertificatePolicy: cfg.CertificatePolicy,
	})
	importer := manager.QuestionImport()

	fmt.Println("=== Seeding default questions ===")
	result, err := importer.SeedDefaults(ctx)
	if err != nil {
		logger.LogError(err, "Failed to seed default questions")
		os.Exit(1)
	}
	printResult(result)

	if *file == "" {
		return
	}

	fmt.Printf("=== Importing %s ===\n", *file)
	f, err := os.Open(*file)
	if err != nil {
		logger.LogError(err, "Failed to open question sheet", "file", *file)
		os.Exit(1)
	}
	defer f.Close()

	result, err = importer.ImportFromExcel(ctx, f)
	if err != nil {
		logger.LogError(err, "Failed to import question sheet", "file", *file)
		os.Exit(1)
	}
	printResult(result)
}

func printResult(result *services.ImportResult) {
	fmt.Printf("rows: %d, created: %d, skipped: %d, errors: %d\n",
		result.TotalRows, result.CreatedCount, result.SkippedCount, result.ErrorCount)
	for _, rowErr := range result.Errors {
		fmt.Printf("  row %d: %s\n", rowErr.Row, rowErr.Errors.Error())
	}
}
