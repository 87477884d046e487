package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"rifa/domain/entities"
	"rifa/domain/events"
	"rifa/domain/testhelpers"

	"github.com/govalues/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRaffleMetrics struct {
	mock.Mock
}

func (m *mockRaffleMetrics) RecordPurchaseEvent(eventType string, quantity int) {
	m.Called(eventType, quantity)
}

func (m *mockRaffleMetrics) RecordSelectionChange(op string, changed int) {
	m.Called(op, changed)
}

func (m *mockRaffleMetrics) RecordLedgerWrite(success bool) {
	m.Called(success)
}

type fakeSubscriber struct {
	handlers map[events.EventType]int
	failOn   events.EventType
}

func (s *fakeSubscriber) Subscribe(eventType events.EventType, _ func(context.Context, events.Event) error) error {
	if eventType == s.failOn {
		return errors.New("subscribe failed")
	}
	if s.handlers == nil {
		s.handlers = make(map[events.EventType]int)
	}
	s.handlers[eventType]++
	return nil
}

func confirmedEvent() events.PurchaseConfirmedEvent {
	created := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	return events.PurchaseConfirmedEvent{
		SessionKey:  "discord:1:2",
		RaffleTitle: "iPhone 15 Pro Max",
		PurchaseID:  "PUR-1",
		Numbers:     []int{4, 8},
		Amount:      decimal.MustNew(20, 0),
		PixCode:     "PIX",
		CreatedAt:   created,
		ConfirmedAt: created.Add(time.Minute),
	}
}

func TestPurchaseEventHandler_HandlePurchaseConfirmed(t *testing.T) {
	t.Parallel()

	t.Run("records purchase in ledger", func(t *testing.T) {
		t.Parallel()

		ledger := new(testhelpers.MockPurchaseLedgerRepository)
		metrics := new(mockRaffleMetrics)
		handler := NewPurchaseEventHandler(ledger, metrics)
		event := confirmedEvent()

		ledger.On("Record", mock.Anything, "discord:1:2", "iPhone 15 Pro Max",
			mock.MatchedBy(func(p *entities.Purchase) bool {
				return p.ID == "PUR-1" &&
					p.IsConfirmed() &&
					len(p.Numbers) == 2 &&
					p.ConfirmedAt != nil && p.ConfirmedAt.Equal(event.ConfirmedAt)
			})).Return(nil)
		metrics.On("RecordPurchaseEvent", "purchase_confirmed", 2).Return()
		metrics.On("RecordLedgerWrite", true).Return()

		err := handler.HandlePurchaseConfirmed(context.Background(), event)
		require.NoError(t, err)

		ledger.AssertExpectations(t)
		metrics.AssertExpectations(t)
	})

	t.Run("ledger failure is returned and counted", func(t *testing.T) {
		t.Parallel()

		ledger := new(testhelpers.MockPurchaseLedgerRepository)
		metrics := new(mockRaffleMetrics)
		handler := NewPurchaseEventHandler(ledger, metrics)

		ledger.On("Record", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("db down"))
		metrics.On("RecordPurchaseEvent", "purchase_confirmed", 2).Return()
		metrics.On("RecordLedgerWrite", false).Return()

		err := handler.HandlePurchaseConfirmed(context.Background(), confirmedEvent())
		assert.ErrorContains(t, err, "PUR-1")
		metrics.AssertExpectations(t)
	})

	t.Run("without ledger or metrics", func(t *testing.T) {
		t.Parallel()

		handler := NewPurchaseEventHandler(nil, nil)
		assert.NoError(t, handler.HandlePurchaseConfirmed(context.Background(), confirmedEvent()))
	})

	t.Run("wrong event type", func(t *testing.T) {
		t.Parallel()

		handler := NewPurchaseEventHandler(nil, nil)
		err := handler.HandlePurchaseConfirmed(context.Background(), events.SelectionChangedEvent{})
		assert.ErrorContains(t, err, "expected PurchaseConfirmedEvent")
	})
}

func TestPurchaseEventHandler_Metrics(t *testing.T) {
	t.Parallel()

	metrics := new(mockRaffleMetrics)
	handler := NewPurchaseEventHandler(nil, metrics)
	ctx := context.Background()

	metrics.On("RecordPurchaseEvent", "purchase_created", 3).Return()
	metrics.On("RecordPurchaseEvent", "purchase_cancelled_expired", 3).Return()
	metrics.On("RecordSelectionChange", "random", 5).Return()

	require.NoError(t, handler.HandlePurchaseLifecycle(ctx, events.PurchaseCreatedEvent{Numbers: []int{1, 2, 3}}))
	require.NoError(t, handler.HandlePurchaseLifecycle(ctx, events.PurchaseCancelledEvent{Quantity: 3, Reason: events.CancelReasonExpired}))
	require.NoError(t, handler.HandleSelectionChanged(ctx, events.SelectionChangedEvent{Op: events.SelectionOpRandom, Changed: 5}))
	assert.Error(t, handler.HandlePurchaseLifecycle(ctx, events.SelectionChangedEvent{}))

	metrics.AssertExpectations(t)
}

func TestRegisterApplicationSubscriptions(t *testing.T) {
	t.Parallel()

	handler := NewPurchaseEventHandler(nil, nil)

	subscriber := &fakeSubscriber{}
	require.NoError(t, RegisterApplicationSubscriptions(subscriber, handler))
	assert.Equal(t, map[events.EventType]int{
		events.EventTypePurchaseConfirmed: 1,
		events.EventTypePurchaseCreated:   1,
		events.EventTypePurchaseCancelled: 1,
		events.EventTypeSelectionChanged:  1,
	}, subscriber.handlers)

	failing := &fakeSubscriber{failOn: events.EventTypePurchaseCancelled}
	assert.Error(t, RegisterApplicationSubscriptions(failing, handler))
}
