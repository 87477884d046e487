package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"rifa/domain/events"
	"rifa/domain/testhelpers"

	"github.com/govalues/decimal"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type publishedMessage struct {
	subject string
	data    []byte
}

type fakeBusClient struct {
	mu        sync.Mutex
	messages  []publishedMessage
	streams   map[string][]string
	err       error
	connected bool
}

func (c *fakeBusClient) Publish(_ context.Context, subject string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.messages = append(c.messages, publishedMessage{subject: subject, data: data})
	return nil
}

func (c *fakeBusClient) EnsureStream(streamName string, subjects []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.streams == nil {
		c.streams = make(map[string][]string)
	}
	c.streams[streamName] = subjects
	return nil
}

func (c *fakeBusClient) IsConnected() bool { return c.connected }

type countingMetrics struct {
	mu    sync.Mutex
	count map[string]int
}

func (m *countingMetrics) RecordNATSMessagePublished(eventType string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.count == nil {
		m.count = make(map[string]int)
	}
	m.count[eventType]++
}

func TestNATSEventPublisher_PublishesEnvelope(t *testing.T) {
	t.Parallel()

	client := &fakeBusClient{connected: true}
	local := &testhelpers.RecordingPublisher{}
	metrics := &countingMetrics{}
	publisher := NewNATSEventPublisher(client, NewEventSubjectMapper(), local, metrics)

	event := events.PurchaseConfirmedEvent{
		SessionKey: "http:a",
		PurchaseID: "PUR-9",
		Numbers:    []int{1, 2},
		Amount:     decimal.MustNew(2000, 2),
	}
	require.NoError(t, publisher.Publish(event))

	assert.Len(t, local.Events(), 1)
	require.Len(t, client.messages, 1)
	assert.Equal(t, "rifa.purchase.confirmed", client.messages[0].subject)

	var envelope EventEnvelope
	require.NoError(t, json.Unmarshal(client.messages[0].data, &envelope))
	assert.NotEmpty(t, envelope.EventID)
	assert.Equal(t, "purchase_confirmed", envelope.EventType)
	assert.Equal(t, "rifa", envelope.SourceService)
	require.NotNil(t, envelope.Timestamp)
	assert.True(t, envelope.Timestamp.IsValid())

	var payload events.PurchaseConfirmedEvent
	require.NoError(t, json.Unmarshal(envelope.Payload, &payload))
	assert.Equal(t, "PUR-9", payload.PurchaseID)
	assert.Equal(t, []int{1, 2}, payload.Numbers)
	assert.Equal(t, "20.00", payload.Amount.String())

	assert.Equal(t, 1, metrics.count["purchase_confirmed"])
}

func TestNATSEventPublisher_BrokerFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		err     error
		wantErr bool
	}{
		{name: "no stream listening", err: fmt.Errorf("wrapped: %w", nats.ErrNoStreamResponse)},
		{name: "connection failure", err: errors.New("connection refused"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			local := new(testhelpers.MockEventPublisher)
			local.On("Publish", mock.Anything).Return(nil)

			publisher := NewNATSEventPublisher(&fakeBusClient{err: tt.err}, NewEventSubjectMapper(), local, nil)
			err := publisher.Publish(events.SelectionChangedEvent{Op: events.SelectionOpClear})
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}

			// Local delivery happens regardless of the broker
			local.AssertNumberOfCalls(t, "Publish", 1)
		})
	}
}

func TestNATSEventPublisher_EnsureDomainEventStream(t *testing.T) {
	t.Parallel()

	client := &fakeBusClient{}
	publisher := NewNATSEventPublisher(client, NewEventSubjectMapper(), nil, nil)

	require.NoError(t, publisher.EnsureDomainEventStream())
	assert.ElementsMatch(t, NewEventSubjectMapper().GetAllSubjects(), client.streams["rifa_events"])
}

func TestNoopEventPublisher(t *testing.T) {
	t.Parallel()
	assert.NoError(t, NewNoopEventPublisher().Publish(events.PurchaseCreatedEvent{}))
}
