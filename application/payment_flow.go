package application

import (
	"fmt"
	"sync"
	"time"

	"rifa/config"
	"rifa/domain/entities"
	"rifa/domain/events"
	"rifa/domain/services"

	log "github.com/sirupsen/logrus"
)

// PaymentState is the stage of the payment screen
type PaymentState string

const (
	PaymentStateIdle       PaymentState = "idle"
	PaymentStatePending    PaymentState = "pending"
	PaymentStateProcessing PaymentState = "processing"
	PaymentStateConfirmed  PaymentState = "confirmed"
	PaymentStateExpired    PaymentState = "expired"
	PaymentStateCancelled  PaymentState = "cancelled"
)

// IsActive reports whether a payment is underway in this state
func (s PaymentState) IsActive() bool {
	return s == PaymentStatePending || s == PaymentStateProcessing
}

// PaymentTimings controls the payment countdown and the simulated confirmation
type PaymentTimings struct {
	Timeout         time.Duration
	TickInterval    time.Duration
	ProcessingDelay time.Duration
	ReturnDelay     time.Duration
}

// TimingsFromConfig reads the payment timings from cfg
func TimingsFromConfig(cfg *config.Config) PaymentTimings {
	return PaymentTimings{
		Timeout:         cfg.PaymentTimeout,
		TickInterval:    cfg.PaymentTickInterval,
		ProcessingDelay: cfg.PaymentProcessingDelay,
		ReturnDelay:     cfg.PaymentReturnDelay,
	}
}

// PaymentObserver is notified about countdown ticks and state transitions.
// Callbacks run on timer goroutines and must not block.
type PaymentObserver interface {
	OnCountdown(remaining time.Duration)
	OnPaymentState(snapshot PaymentSnapshot)
}

// PaymentSnapshot is a consistent view of a PaymentFlow
type PaymentSnapshot struct {
	State      PaymentState       `json:"state"`
	PurchaseID string             `json:"purchase_id,omitempty"`
	Deadline   time.Time          `json:"deadline,omitempty"`
	Remaining  time.Duration      `json:"-"`
	Confirmed  *entities.Purchase `json:"-"`
}

// RemainingSeconds rounds the remaining time up to whole seconds
func (s PaymentSnapshot) RemainingSeconds() int {
	if s.Remaining <= 0 {
		return 0
	}
	return int((s.Remaining + time.Second - 1) / time.Second)
}

// PaymentFlow drives the payment of a session's pending purchase: the
// reservation countdown, the simulated processing delay after the user
// reports payment, and the return to the main view. Every scheduled
// callback is tagged with a generation; callbacks from an older generation
// are dropped without touching the session.
type PaymentFlow struct {
	mu sync.Mutex

	session  *services.RaffleSession
	timings  PaymentTimings
	observer PaymentObserver

	state      PaymentState
	purchaseID string
	deadline   time.Time
	confirmed  *entities.Purchase
	generation uint64

	stopCountdown chan struct{}
	timer         *time.Timer
}

// NewPaymentFlow creates an idle payment flow for session
func NewPaymentFlow(session *services.RaffleSession, timings PaymentTimings) *PaymentFlow {
	return &PaymentFlow{
		session: session,
		timings: timings,
		state:   PaymentStateIdle,
	}
}

// SetObserver replaces the observer; nil disables notifications
func (f *PaymentFlow) SetObserver(observer PaymentObserver) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.observer = observer
}

// State returns the current stage
func (f *PaymentFlow) State() PaymentState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Snapshot returns the current stage with its purchase and remaining time
func (f *PaymentFlow) Snapshot() PaymentSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshot()
}

func (f *PaymentFlow) snapshot() PaymentSnapshot {
	snap := PaymentSnapshot{
		State:      f.state,
		PurchaseID: f.purchaseID,
		Deadline:   f.deadline,
		Confirmed:  f.confirmed.Clone(),
	}
	if f.state == PaymentStatePending {
		snap.Remaining = max(time.Until(f.deadline), 0)
	}
	return snap
}

// Start opens the payment window for the session's pending purchase
func (f *PaymentFlow) Start() (PaymentSnapshot, error) {
	f.mu.Lock()
	if f.state.IsActive() {
		f.mu.Unlock()
		return PaymentSnapshot{}, fmt.Errorf("%w: payment for %s already started", entities.ErrPurchasePending, f.purchaseID)
	}
	purchase := f.session.CurrentPurchase()
	if purchase == nil {
		f.mu.Unlock()
		return PaymentSnapshot{}, entities.ErrNoPendingPurchase
	}

	f.stopTimers()
	f.generation++
	gen := f.generation
	stop := make(chan struct{})

	f.state = PaymentStatePending
	f.purchaseID = purchase.ID
	f.deadline = time.Now().Add(f.timings.Timeout)
	f.confirmed = nil
	f.stopCountdown = stop

	go f.runCountdown(gen, f.deadline, stop)

	snap, observer := f.snapshot(), f.observer
	f.mu.Unlock()

	log.WithFields(log.Fields{
		"session":  f.session.Key(),
		"purchase": purchase.ID,
		"deadline": snap.Deadline.Format(time.RFC3339),
	}).Info("Payment window opened")

	notifyState(observer, snap)
	return snap, nil
}

// ConfirmPayment records that the user reports having paid. The purchase is
// confirmed after the processing delay and the flow returns to idle after
// the return delay.
func (f *PaymentFlow) ConfirmPayment() (PaymentSnapshot, error) {
	f.mu.Lock()
	if err := f.requirePending(); err != nil {
		f.mu.Unlock()
		return PaymentSnapshot{}, err
	}

	f.stopTimers()
	f.generation++
	gen, id := f.generation, f.purchaseID
	f.state = PaymentStateProcessing
	f.timer = time.AfterFunc(f.timings.ProcessingDelay, func() { f.finishConfirmation(gen, id) })

	snap, observer := f.snapshot(), f.observer
	f.mu.Unlock()

	notifyState(observer, snap)
	return snap, nil
}

// Cancel abandons the payment and discards the pending purchase. The
// selection is kept.
func (f *PaymentFlow) Cancel() (*entities.Purchase, error) {
	f.mu.Lock()
	if err := f.requirePending(); err != nil {
		f.mu.Unlock()
		return nil, err
	}
	return f.cancelPending()
}

// CancelPurchase discards the session's pending purchase at any payment
// stage except processing. An open payment window is cancelled with it.
func (f *PaymentFlow) CancelPurchase() (*entities.Purchase, error) {
	f.mu.Lock()
	switch f.state {
	case PaymentStatePending:
		return f.cancelPending()
	case PaymentStateProcessing:
		id := f.purchaseID
		f.mu.Unlock()
		return nil, fmt.Errorf("%w: purchase %s is being processed", entities.ErrPaymentNotPending, id)
	}

	cancelled := f.session.CancelPurchase()
	expired, id := f.state == PaymentStateExpired, f.purchaseID
	f.mu.Unlock()

	if cancelled != nil {
		return cancelled, nil
	}
	if expired {
		return nil, fmt.Errorf("%w: %s", entities.ErrPurchaseExpired, id)
	}
	return nil, entities.ErrNoPendingPurchase
}

// requirePending fails unless a payment window is open; caller holds the lock
func (f *PaymentFlow) requirePending() error {
	switch f.state {
	case PaymentStatePending:
		return nil
	case PaymentStateExpired:
		return fmt.Errorf("%w: %s", entities.ErrPurchaseExpired, f.purchaseID)
	default:
		return fmt.Errorf("%w: state is %s", entities.ErrPaymentNotPending, f.state)
	}
}

// cancelPending closes the open window; caller holds the lock, which is released
func (f *PaymentFlow) cancelPending() (*entities.Purchase, error) {
	f.stopTimers()
	f.generation++
	cancelled, err := f.session.CancelPurchaseID(f.purchaseID, events.CancelReasonUser)
	f.state = PaymentStateCancelled

	snap, observer := f.snapshot(), f.observer
	f.mu.Unlock()

	if err != nil {
		return nil, err
	}
	notifyState(observer, snap)
	return cancelled, nil
}

// Close stops every timer. A purchase that is still unconfirmed is
// discarded, including one that is being processed.
func (f *PaymentFlow) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.stopTimers()
	f.generation++

	if f.state.IsActive() && f.purchaseID != "" {
		if _, err := f.session.CancelPurchaseID(f.purchaseID, events.CancelReasonClosed); err != nil {
			log.WithFields(log.Fields{
				"session":  f.session.Key(),
				"purchase": f.purchaseID,
				"error":    err,
			}).Debug("No pending purchase to discard on close")
		}
	}

	f.state = PaymentStateIdle
	f.purchaseID = ""
	f.deadline = time.Time{}
	f.observer = nil
}

// runCountdown ticks until the deadline, then expires the purchase
func (f *PaymentFlow) runCountdown(gen uint64, deadline time.Time, stop <-chan struct{}) {
	ticker := time.NewTicker(f.timings.TickInterval)
	defer ticker.Stop()
	expiry := time.NewTimer(time.Until(deadline))
	defer expiry.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			f.tick(gen, deadline)
		case <-expiry.C:
			f.expire(gen)
			return
		}
	}
}

func (f *PaymentFlow) tick(gen uint64, deadline time.Time) {
	f.mu.Lock()
	if gen != f.generation || f.state != PaymentStatePending {
		f.mu.Unlock()
		return
	}
	observer := f.observer
	f.mu.Unlock()

	if observer != nil {
		observer.OnCountdown(max(time.Until(deadline), 0))
	}
}

func (f *PaymentFlow) expire(gen uint64) {
	f.mu.Lock()
	if gen != f.generation || f.state != PaymentStatePending {
		f.mu.Unlock()
		return
	}

	f.generation++
	f.stopCountdown = nil
	id := f.purchaseID
	if _, err := f.session.ExpirePurchase(id); err != nil {
		log.WithFields(log.Fields{
			"session":  f.session.Key(),
			"purchase": id,
			"error":    err,
		}).Warn("Expired payment had no matching pending purchase")
	}
	f.state = PaymentStateExpired

	snap, observer := f.snapshot(), f.observer
	f.mu.Unlock()

	log.WithFields(log.Fields{
		"session":  f.session.Key(),
		"purchase": id,
	}).Info("Payment window expired")

	notifyState(observer, snap)
}

func (f *PaymentFlow) finishConfirmation(gen uint64, id string) {
	f.mu.Lock()
	if gen != f.generation || f.state != PaymentStateProcessing {
		f.mu.Unlock()
		return
	}

	confirmed, err := f.session.ConfirmPurchaseID(id)
	if err != nil {
		// The purchase was cancelled elsewhere while processing
		log.WithFields(log.Fields{
			"session":  f.session.Key(),
			"purchase": id,
			"error":    err,
		}).Warn("Failed to confirm purchase after processing")
		f.state = PaymentStateIdle
		f.purchaseID = ""
	} else {
		f.state = PaymentStateConfirmed
		f.confirmed = confirmed
		f.timer = time.AfterFunc(f.timings.ReturnDelay, func() { f.returnToIdle(gen) })
	}

	snap, observer := f.snapshot(), f.observer
	f.mu.Unlock()

	notifyState(observer, snap)
}

func (f *PaymentFlow) returnToIdle(gen uint64) {
	f.mu.Lock()
	if gen != f.generation || f.state != PaymentStateConfirmed {
		f.mu.Unlock()
		return
	}
	f.state = PaymentStateIdle
	f.purchaseID = ""
	f.deadline = time.Time{}

	snap, observer := f.snapshot(), f.observer
	f.mu.Unlock()

	notifyState(observer, snap)
}

// stopTimers cancels the countdown and any scheduled transition; caller holds the lock
func (f *PaymentFlow) stopTimers() {
	if f.stopCountdown != nil {
		close(f.stopCountdown)
		f.stopCountdown = nil
	}
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
}

func notifyState(observer PaymentObserver, snap PaymentSnapshot) {
	if observer == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.WithFields(log.Fields{
				"state": snap.State,
				"panic": r,
			}).Error("Payment observer panicked")
		}
	}()
	observer.OnPaymentState(snap)
}
