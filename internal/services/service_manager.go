package services

import (
	"log/slog"

	"github.com/SAP-F-2025/quiz-service/internal/engine"
	"github.com/SAP-F-2025/quiz-service/internal/events"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"github.com/SAP-F-2025/quiz-service/internal/validator"
)

// ServiceManager gives handlers access to every service
type ServiceManager interface {
	Quiz() QuizService
	Attempt() AttemptService
	Certificate() CertificateService
	QuestionImport() QuestionImportService
}

type ServiceManagerConfig struct {
	PassThreshold     float64
	CertificatePolicy string

	// SessionLocker serializes session mutations; nil uses an in-process lock.
	SessionLocker SessionLocker
}

type serviceManager struct {
	quiz        QuizService
	attempt     AttemptService
	certificate CertificateService
	importer    QuestionImportService
}

func NewServiceManager(
	repo repositories.Repository,
	publisher events.EventPublisher,
	logger *slog.Logger,
	validator *validator.Validator,
	config ServiceManagerConfig,
) ServiceManager {
	attempts := NewAttemptService(repo, logger, validator)
	quizEngine := engine.New(config.PassThreshold)

	return &serviceManager{
		quiz:        NewQuizService(repo, quizEngine, attempts, publisher, config.SessionLocker, logger, validator),
		attempt:     attempts,
		certificate: NewCertificateService(repo, publisher, config.CertificatePolicy, logger),
		importer:    NewQuestionImportService(repo, logger, validator),
	}
}

func (m *serviceManager) Quiz() QuizService                     { return m.quiz }
func (m *serviceManager) Attempt() AttemptService               { return m.attempt }
func (m *serviceManager) Certificate() CertificateService       { return m.certificate }
func (m *serviceManager) QuestionImport() QuestionImportService { return m.importer }
