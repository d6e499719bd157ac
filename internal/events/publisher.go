package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
)

// EventPublisher defines the interface for publishing quiz events
type EventPublisher interface {
	Publish(ctx context.Context, event *Event) error
	Close() error
}

// WatermillEventPublisher implements EventPublisher on any Watermill
// publisher; production uses Kafka. Attempt events and certificate requests
// go to separate topics.
type WatermillEventPublisher struct {
	publisher        message.Publisher
	logger           *slog.Logger
	attemptTopic     string
	certificateTopic string
}

// PublisherConfig holds configuration for the event publisher
type PublisherConfig struct {
	KafkaBrokers     []string
	AttemptTopic     string
	CertificateTopic string
	Logger           *slog.Logger
}

// NewWatermillEventPublisher wraps an existing Watermill publisher
func NewWatermillEventPublisher(publisher message.Publisher, config PublisherConfig) *WatermillEventPublisher {
	return &WatermillEventPublisher{
		publisher:        publisher,
		logger:           config.Logger,
		attemptTopic:     config.AttemptTopic,
		certificateTopic: config.CertificateTopic,
	}
}

// NewKafkaEventPublisher creates a new Kafka-based event publisher using Watermill
func NewKafkaEventPublisher(config PublisherConfig) (*WatermillEventPublisher, error) {
	logger := watermill.NewSlogLogger(config.Logger)

	publisherConfig := kafka.PublisherConfig{
		Brokers:   config.KafkaBrokers,
		Marshaler: kafka.DefaultMarshaler{},
	}

	publisher, err := kafka.NewPublisher(publisherConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka publisher: %w", err)
	}

	return NewWatermillEventPublisher(publisher, config), nil
}

func (p *WatermillEventPublisher) topicFor(eventType EventType) string {
	if eventType == EventCertificateRequested {
		return p.certificateTopic
	}
	return p.attemptTopic
}

// Publish publishes an event to its topic
func (p *WatermillEventPublisher) Publish(ctx context.Context, event *Event) error {
	eventBytes, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(event.ID, eventBytes)
	msg.SetContext(ctx)

	msg.Metadata.Set("event_type", string(event.Type))
	msg.Metadata.Set("source", event.Source)
	msg.Metadata.Set("version", event.Version)
	msg.Metadata.Set("timestamp", event.Timestamp.Format(time.RFC3339))

	topic := p.topicFor(event.Type)
	if err := p.publisher.Publish(topic, msg); err != nil {
		p.logger.Error("Failed to publish event",
			"event_id", event.ID,
			"event_type", event.Type,
			"error", err)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.logger.Info("Published event",
		"event_id", event.ID,
		"event_type", event.Type,
		"topic", topic)

	return nil
}

// Close closes the publisher and releases resources
func (p *WatermillEventPublisher) Close() error {
	return p.publisher.Close()
}

// MockEventPublisher keeps published events in memory
type MockEventPublisher struct {
	mu     sync.Mutex
	Events []Event
	Logger *slog.Logger
}

// NewMockEventPublisher creates a new mock event publisher
func NewMockEventPublisher(logger *slog.Logger) *MockEventPublisher {
	return &MockEventPublisher{
		Events: make([]Event, 0),
		Logger: logger,
	}
}

func (m *MockEventPublisher) Publish(ctx context.Context, event *Event) error {
	m.mu.Lock()
	m.Events = append(m.Events, *event)
	m.mu.Unlock()

	m.Logger.Info("Mock: Published event",
		"event_id", event.ID,
		"event_type", event.Type)
	return nil
}

// Close is a no-op for the mock publisher
func (m *MockEventPublisher) Close() error {
	return nil
}

// GetPublishedEvents returns a copy of all published events
func (m *MockEventPublisher) GetPublishedEvents() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Event, len(m.Events))
	copy(out, m.Events)
	return out
}

// EventsOfType returns published events with the given type
func (m *MockEventPublisher) EventsOfType(eventType EventType) []Event {
	var out []Event
	for _, e := range m.GetPublishedEvents() {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

// DiscardEventPublisher drops every event. It backs EVENTS_ENABLED=false so
// nothing accumulates in memory; certificate requests are logged as warnings
// because no renderer will receive them.
type DiscardEventPublisher struct {
	logger *slog.Logger
}

func NewDiscardEventPublisher(logger *slog.Logger) *DiscardEventPublisher {
	return &DiscardEventPublisher{logger: logger}
}

func (d *DiscardEventPublisher) Publish(ctx context.Context, event *Event) error {
	if event.Type == EventCertificateRequested {
		d.logger.Warn("Event publishing disabled, certificate request dropped",
			"event_id", event.ID)
		return nil
	}
	d.logger.Debug("Event publishing disabled, event dropped",
		"event_id", event.ID,
		"event_type", event.Type)
	return nil
}

func (d *DiscardEventPublisher) Close() error {
	return nil
}
