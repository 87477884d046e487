package infrastructure

import (
	"testing"

	"rifa/domain/events"

	"github.com/stretchr/testify/assert"
)

func TestEventSubjectMapper_RoundTrip(t *testing.T) {
	t.Parallel()

	mapper := NewEventSubjectMapper()
	tests := []struct {
		event   events.Event
		subject string
	}{
		{event: events.PurchaseCreatedEvent{}, subject: "rifa.purchase.created"},
		{event: events.PurchaseConfirmedEvent{}, subject: "rifa.purchase.confirmed"},
		{event: events.PurchaseCancelledEvent{}, subject: "rifa.purchase.cancelled"},
		{event: events.SelectionChangedEvent{}, subject: "rifa.selection.changed"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.subject, mapper.MapEventToSubject(tt.event))
		assert.Equal(t, tt.event.Type(), mapper.MapSubjectToEventType(tt.subject))
		assert.Contains(t, mapper.GetAllSubjects(), tt.subject)
	}
	assert.Len(t, mapper.GetAllSubjects(), len(tests))
	assert.Equal(t, events.EventType("other.subject"), mapper.MapSubjectToEventType("other.subject"))
}
