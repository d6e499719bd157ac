package events

import (
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
)

// rawEvent is Event with the payload left undecoded
type rawEvent struct {
	Event
	Data json.RawMessage `json:"data"`
}

func decodeEvent(msg *message.Message, want EventType, payload interface{}) (*Event, error) {
	var raw rawEvent
	if err := json.Unmarshal(msg.Payload, &raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event %s: %w", msg.UUID, err)
	}
	if raw.Type != want {
		return nil, fmt.Errorf("event %s has type %q, want %q", msg.UUID, raw.Type, want)
	}
	if err := json.Unmarshal(raw.Data, payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s payload: %w", want, err)
	}

	event := raw.Event
	event.Data = payload
	return &event, nil
}

// DecodeCertificateRequest reads a certificate.requested message as the
// certificate renderer receives it
func DecodeCertificateRequest(msg *message.Message) (*CertificateRequestedEvent, error) {
	var payload CertificateRequestedEvent
	if _, err := decodeEvent(msg, EventCertificateRequested, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// DecodeAttemptCompleted reads an attempt.completed message
func DecodeAttemptCompleted(msg *message.Message) (*AttemptCompletedEvent, error) {
	var payload AttemptCompletedEvent
	if _, err := decodeEvent(msg, EventAttemptCompleted, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// CertificateRequestHandler adapts a render function to a Watermill router
// handler. Messages of other types are acked and skipped.
func CertificateRequestHandler(render func(msg *message.Message, req *CertificateRequestedEvent) error) message.NoPublishHandlerFunc {
	return func(msg *message.Message) error {
		if EventType(msg.Metadata.Get("event_type")) != EventCertificateRequested {
			return nil
		}
		req, err := DecodeCertificateRequest(msg)
		if err != nil {
			return err
		}
		if !req.Passed {
			return fmt.Errorf("certificate request for attempt %d is not eligible", req.AttemptID)
		}
		return render(msg, req)
	}
}
