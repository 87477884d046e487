package events

import (
	"time"

	"github.com/govalues/decimal"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypePurchaseCreated   EventType = "purchase_created"
	EventTypePurchaseConfirmed EventType = "purchase_confirmed"
	EventTypePurchaseCancelled EventType = "purchase_cancelled"
	EventTypeSelectionChanged  EventType = "selection_changed"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// CancelReason explains why a pending purchase was discarded
type CancelReason string

const (
	CancelReasonUser    CancelReason = "user"
	CancelReasonExpired CancelReason = "expired"
	CancelReasonClosed  CancelReason = "closed"
)

// SelectionOp names the selection operation that produced a SelectionChangedEvent
type SelectionOp string

const (
	SelectionOpToggle SelectionOp = "toggle"
	SelectionOpRandom SelectionOp = "random"
	SelectionOpManual SelectionOp = "manual"
	SelectionOpClear  SelectionOp = "clear"
)

// PurchaseCreatedEvent is emitted when a selection is snapshotted into a pending purchase
type PurchaseCreatedEvent struct {
	SessionKey string          `json:"session_key"`
	PurchaseID string          `json:"purchase_id"`
	Numbers    []int           `json:"numbers"`
	Amount     decimal.Decimal `json:"amount"`
	CreatedAt  time.Time       `json:"created_at"`
}

func (e PurchaseCreatedEvent) Type() EventType {
	return EventTypePurchaseCreated
}

// PurchaseConfirmedEvent is emitted once a pending purchase has been paid
type PurchaseConfirmedEvent struct {
	SessionKey  string          `json:"session_key"`
	RaffleTitle string          `json:"raffle_title"`
	PurchaseID  string          `json:"purchase_id"`
	Numbers     []int           `json:"numbers"`
	Amount      decimal.Decimal `json:"amount"`
	PixCode     string          `json:"pix_code"`
	CreatedAt   time.Time       `json:"created_at"`
	ConfirmedAt time.Time       `json:"confirmed_at"`
}

func (e PurchaseConfirmedEvent) Type() EventType {
	return EventTypePurchaseConfirmed
}

// PurchaseCancelledEvent is emitted when a pending purchase is discarded
type PurchaseCancelledEvent struct {
	SessionKey string       `json:"session_key"`
	PurchaseID string       `json:"purchase_id"`
	Quantity   int          `json:"quantity"`
	Reason     CancelReason `json:"reason"`
}

func (e PurchaseCancelledEvent) Type() EventType {
	return EventTypePurchaseCancelled
}

// SelectionChangedEvent is emitted after a successful selection mutation
type SelectionChangedEvent struct {
	SessionKey    string      `json:"session_key"`
	Op            SelectionOp `json:"op"`
	Changed       int         `json:"changed"`
	SelectedCount int         `json:"selected_count"`
}

func (e SelectionChangedEvent) Type() EventType {
	return EventTypeSelectionChanged
}
