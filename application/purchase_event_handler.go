package application

import (
	"context"
	"fmt"

	"rifa/domain/entities"
	"rifa/domain/events"
	"rifa/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// RaffleMetrics is the subset of the metrics provider the event handlers feed
type RaffleMetrics interface {
	RecordPurchaseEvent(eventType string, quantity int)
	RecordSelectionChange(op string, changed int)
	RecordLedgerWrite(success bool)
}

// PurchaseEventHandler reacts to raffle events: confirmed purchases are
// appended to the ledger and every event is counted in metrics. Both
// dependencies are optional.
type PurchaseEventHandler struct {
	ledger  interfaces.PurchaseLedgerRepository
	metrics RaffleMetrics
}

// NewPurchaseEventHandler creates a handler; ledger and metrics may be nil
func NewPurchaseEventHandler(ledger interfaces.PurchaseLedgerRepository, metrics RaffleMetrics) *PurchaseEventHandler {
	return &PurchaseEventHandler{
		ledger:  ledger,
		metrics: metrics,
	}
}

// HandlePurchaseConfirmed records the purchase in the ledger
func (h *PurchaseEventHandler) HandlePurchaseConfirmed(ctx context.Context, event events.Event) error {
	e, err := AssertEventType[events.PurchaseConfirmedEvent](event, "PurchaseConfirmedEvent")
	if err != nil {
		return err
	}

	if h.metrics != nil {
		h.metrics.RecordPurchaseEvent(string(e.Type()), len(e.Numbers))
	}

	if h.ledger == nil {
		return nil
	}

	confirmedAt := e.ConfirmedAt
	purchase := &entities.Purchase{
		ID:          e.PurchaseID,
		Numbers:     e.Numbers,
		Amount:      e.Amount,
		Status:      entities.PurchaseStatusConfirmed,
		CreatedAt:   e.CreatedAt,
		ConfirmedAt: &confirmedAt,
		PixCode:     e.PixCode,
	}

	err = h.ledger.Record(ctx, e.SessionKey, e.RaffleTitle, purchase)
	if h.metrics != nil {
		h.metrics.RecordLedgerWrite(err == nil)
	}
	if err != nil {
		return fmt.Errorf("failed to record purchase %s in ledger: %w", e.PurchaseID, err)
	}

	log.WithFields(log.Fields{
		"session":  e.SessionKey,
		"purchase": e.PurchaseID,
		"quantity": len(e.Numbers),
	}).Info("Purchase recorded in ledger")
	return nil
}

// HandlePurchaseLifecycle counts created and cancelled purchases
func (h *PurchaseEventHandler) HandlePurchaseLifecycle(_ context.Context, event events.Event) error {
	if h.metrics == nil {
		return nil
	}

	switch e := event.(type) {
	case events.PurchaseCreatedEvent:
		h.metrics.RecordPurchaseEvent(string(e.Type()), len(e.Numbers))
	case events.PurchaseCancelledEvent:
		h.metrics.RecordPurchaseEvent(string(e.Type())+"_"+string(e.Reason), e.Quantity)
	default:
		return fmt.Errorf("unexpected purchase event %T", event)
	}
	return nil
}

// HandleSelectionChanged counts selection mutations
func (h *PurchaseEventHandler) HandleSelectionChanged(_ context.Context, event events.Event) error {
	e, err := AssertEventType[events.SelectionChangedEvent](event, "SelectionChangedEvent")
	if err != nil {
		return err
	}
	if h.metrics != nil {
		h.metrics.RecordSelectionChange(string(e.Op), e.Changed)
	}
	return nil
}

// RegisterApplicationSubscriptions wires the raffle event handlers to subscriber
func RegisterApplicationSubscriptions(subscriber interfaces.EventSubscriber, handler *PurchaseEventHandler) error {
	subscriptions := []struct {
		eventType events.EventType
		fn        func(context.Context, events.Event) error
	}{
		{events.EventTypePurchaseConfirmed, handler.HandlePurchaseConfirmed},
		{events.EventTypePurchaseCreated, handler.HandlePurchaseLifecycle},
		{events.EventTypePurchaseCancelled, handler.HandlePurchaseLifecycle},
		{events.EventTypeSelectionChanged, handler.HandleSelectionChanged},
	}

	for _, s := range subscriptions {
		if err := subscriber.Subscribe(s.eventType, s.fn); err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", s.eventType, err)
		}
	}
	return nil
}
