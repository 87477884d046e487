package infrastructure

import (
	"fmt"

	"rifa/domain/events"
)

const (
	SubjectPurchaseCreated   = "rifa.purchase.created"
	SubjectPurchaseConfirmed = "rifa.purchase.confirmed"
	SubjectPurchaseCancelled = "rifa.purchase.cancelled"
	SubjectSelectionChanged  = "rifa.selection.changed"

	// DomainEventStream is the JetStream stream holding every raffle subject
	DomainEventStream = "rifa_events"
)

// EventSubjectMapper handles mapping between domain events and NATS subjects
type EventSubjectMapper struct{}

// NewEventSubjectMapper creates a new event subject mapper
func NewEventSubjectMapper() *EventSubjectMapper {
	return &EventSubjectMapper{}
}

// MapEventToSubject converts a domain event to its corresponding NATS subject
func (m *EventSubjectMapper) MapEventToSubject(event events.Event) string {
	switch event.Type() {
	case events.EventTypePurchaseCreated:
		return SubjectPurchaseCreated
	case events.EventTypePurchaseConfirmed:
		return SubjectPurchaseConfirmed
	case events.EventTypePurchaseCancelled:
		return SubjectPurchaseCancelled
	case events.EventTypeSelectionChanged:
		return SubjectSelectionChanged
	default:
		return fmt.Sprintf("rifa.unknown.%s", event.Type())
	}
}

// MapSubjectToEventType converts a NATS subject back to an event type
func (m *EventSubjectMapper) MapSubjectToEventType(subject string) events.EventType {
	switch subject {
	case SubjectPurchaseCreated:
		return events.EventTypePurchaseCreated
	case SubjectPurchaseConfirmed:
		return events.EventTypePurchaseConfirmed
	case SubjectPurchaseCancelled:
		return events.EventTypePurchaseCancelled
	case SubjectSelectionChanged:
		return events.EventTypeSelectionChanged
	default:
		return events.EventType(subject)
	}
}

// GetAllSubjects returns all subjects that this service publishes to
func (m *EventSubjectMapper) GetAllSubjects() []string {
	return []string{
		SubjectPurchaseCreated,
		SubjectPurchaseConfirmed,
		SubjectPurchaseCancelled,
		SubjectSelectionChanged,
	}
}
