package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"rifa/domain/events"
	"rifa/domain/interfaces"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
	"google.golang.org/protobuf/types/known/timestamppb"
)

const sourceService = "rifa"

// EventEnvelope wraps a domain event on the wire
type EventEnvelope struct {
	EventID       string                 `json:"event_id"`
	EventType     string                 `json:"event_type"`
	Timestamp     *timestamppb.Timestamp `json:"timestamp"`
	SourceService string                 `json:"source_service"`
	Payload       json.RawMessage        `json:"payload"`
}

// PublishMetrics counts messages sent to the broker
type PublishMetrics interface {
	RecordNATSMessagePublished(eventType string)
}

// NATSEventPublisher delivers every event to the local publisher first and
// then mirrors it to NATS. Broker failures never prevent local delivery.
type NATSEventPublisher struct {
	client        MessageBusClient
	subjectMapper *EventSubjectMapper
	local         interfaces.EventPublisher
	metrics       PublishMetrics
	timeout       time.Duration
}

// NewNATSEventPublisher creates a publisher mirroring events to client; local and metrics may be nil
func NewNATSEventPublisher(client MessageBusClient, subjectMapper *EventSubjectMapper, local interfaces.EventPublisher, metrics PublishMetrics) *NATSEventPublisher {
	return &NATSEventPublisher{
		client:        client,
		subjectMapper: subjectMapper,
		local:         local,
		metrics:       metrics,
		timeout:       5 * time.Second,
	}
}

// Publish publishes an event locally and to NATS using the mapped subject
func (p *NATSEventPublisher) Publish(event events.Event) error {
	if p.local != nil {
		if err := p.local.Publish(event); err != nil {
			log.WithFields(log.Fields{
				"eventType": event.Type(),
				"error":     err,
			}).Error("Local event publisher failed")
		}
	}

	subject := p.subjectMapper.MapEventToSubject(event)
	envelope, err := NewEventEnvelope(event)
	if err != nil {
		return err
	}

	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal event envelope: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	if err := p.client.Publish(ctx, subject, data); err != nil {
		if errors.Is(err, nats.ErrNoStreamResponse) {
			// No stream captures the subject; nothing is listening
			return nil
		}
		return fmt.Errorf("failed to publish event to NATS: %w", err)
	}

	if p.metrics != nil {
		p.metrics.RecordNATSMessagePublished(string(event.Type()))
	}

	log.WithFields(log.Fields{
		"eventType": event.Type(),
		"eventId":   envelope.EventID,
		"subject":   subject,
	}).Debug("Successfully published event to NATS")

	return nil
}

// EnsureDomainEventStream ensures the raffle stream exists with every published subject
func (p *NATSEventPublisher) EnsureDomainEventStream() error {
	return p.client.EnsureStream(DomainEventStream, p.subjectMapper.GetAllSubjects())
}

// NewEventEnvelope serializes event into a fresh envelope
func NewEventEnvelope(event events.Event) (*EventEnvelope, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event payload: %w", err)
	}

	return &EventEnvelope{
		EventID:       uuid.New().String(),
		EventType:     string(event.Type()),
		Timestamp:     timestamppb.Now(),
		SourceService: sourceService,
		Payload:       payload,
	}, nil
}
