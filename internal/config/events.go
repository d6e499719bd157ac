package config

import (
	"log/slog"

	"github.com/SAP-F-2025/quiz-service/internal/events"
)

// EventConfig holds configuration for event publishing
type EventConfig struct {
	Enabled          bool
	Publisher        string // kafka or mock; anything else discards
	KafkaBrokers     string
	AttemptTopic     string
	CertificateTopic string
}

// GetKafkaBrokers returns Kafka brokers as a slice
func (c *EventConfig) GetKafkaBrokers() []string {
	return splitList(c.KafkaBrokers)
}

// CreateEventPublisher creates an event publisher based on configuration
func (c *EventConfig) CreateEventPublisher(logger *slog.Logger) (events.EventPublisher, error) {
	if !c.Enabled {
		logger.Warn("Event publishing disabled; certificate requests will not reach a renderer")
		return events.NewDiscardEventPublisher(logger), nil
	}

	switch c.Publisher {
	case "kafka":
		logger.Info("Creating Kafka event publisher",
			"brokers", c.KafkaBrokers,
			"attempt_topic", c.AttemptTopic,
			"certificate_topic", c.CertificateTopic)

		return events.NewKafkaEventPublisher(events.PublisherConfig{
			KafkaBrokers:     c.GetKafkaBrokers(),
			AttemptTopic:     c.AttemptTopic,
			CertificateTopic: c.CertificateTopic,
			Logger:           logger,
		})
	case "mock":
		logger.Info("Using mock event publisher")
		return events.NewMockEventPublisher(logger), nil
	default:
		logger.Warn("Unknown event publisher type, dropping events", "publisher", c.Publisher)
		return events.NewDiscardEventPublisher(logger), nil
	}
}
