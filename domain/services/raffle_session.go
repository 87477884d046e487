package services

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"rifa/domain/entities"
	"rifa/domain/events"
	"rifa/domain/interfaces"

	"github.com/govalues/decimal"
	log "github.com/sirupsen/logrus"
)

// RaffleSession owns the raffle state of one participant: the configuration,
// the purchased and selected number sets, the confirmed purchase history and
// at most one pending purchase. Every exported method is atomic.
type RaffleSession struct {
	mu sync.Mutex

	key       string
	config    entities.RaffleConfig
	purchased map[int]struct{}
	selected  map[int]struct{}
	history   []*entities.Purchase
	current   *entities.Purchase

	shuffler  interfaces.Shuffler
	codes     interfaces.CodeGenerator
	clock     interfaces.Clock
	publisher interfaces.EventPublisher
}

// SessionOption customises a RaffleSession at construction
type SessionOption func(*RaffleSession)

// WithShuffler replaces the random permutation used by SelectRandom
func WithShuffler(shuffler interfaces.Shuffler) SessionOption {
	return func(s *RaffleSession) { s.shuffler = shuffler }
}

// WithCodeGenerator replaces the payment code generator
func WithCodeGenerator(codes interfaces.CodeGenerator) SessionOption {
	return func(s *RaffleSession) { s.codes = codes }
}

// WithClock replaces the time source used for purchase timestamps
func WithClock(clock interfaces.Clock) SessionOption {
	return func(s *RaffleSession) { s.clock = clock }
}

// WithEventPublisher sets where domain events are published
func WithEventPublisher(publisher interfaces.EventPublisher) SessionOption {
	return func(s *RaffleSession) { s.publisher = publisher }
}

// WithPurchasedNumbers seeds numbers that are already sold. Seeds outside
// the configured range are ignored.
func WithPurchasedNumbers(numbers ...int) SessionOption {
	return func(s *RaffleSession) {
		for _, n := range numbers {
			if s.config.Contains(n) {
				s.purchased[n] = struct{}{}
			}
		}
	}
}

// NewRaffleSession creates a session for key with the given configuration
func NewRaffleSession(key string, config entities.RaffleConfig, opts ...SessionOption) (*RaffleSession, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	s := &RaffleSession{
		key:       key,
		config:    config.Clone(),
		purchased: make(map[int]struct{}),
		selected:  make(map[int]struct{}),
		history:   make([]*entities.Purchase, 0),
		shuffler:  NewRandomShuffler(),
		codes:     NewPixCodeGenerator(),
		clock:     systemClock{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Key returns the identifier the session was created with
func (s *RaffleSession) Key() string {
	return s.key
}

// Config returns a copy of the current configuration
func (s *RaffleSession) Config() entities.RaffleConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config.Clone()
}

// Status resolves the status of n. Selection wins over purchase, although the
// selection operations never let the two sets overlap.
func (s *RaffleSession) Status(n int) entities.NumberStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status(n)
}

func (s *RaffleSession) status(n int) entities.NumberStatus {
	if _, ok := s.selected[n]; ok {
		return entities.NumberStatusSelected
	}
	if _, ok := s.purchased[n]; ok {
		return entities.NumberStatusPurchased
	}
	return entities.NumberStatusAvailable
}

// PageStatuses resolves every number of r, clamped to the configured range
func (s *RaffleSession) PageStatuses(r entities.NumberRange) []entities.NumberState {
	s.mu.Lock()
	defer s.mu.Unlock()

	end := min(r.End, s.config.TotalNumbers)
	states := make([]entities.NumberState, 0, max(end-r.Start+1, 0))
	for n := max(r.Start, 1); n <= end; n++ {
		states = append(states, entities.NumberState{Number: n, Status: s.status(n)})
	}
	return states
}

// RangeStats counts the statuses inside r
func (s *RaffleSession) RangeStats(r entities.NumberRange) entities.RangeStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stats entities.RangeStats
	end := min(r.End, s.config.TotalNumbers)
	for n := max(r.Start, 1); n <= end; n++ {
		switch s.status(n) {
		case entities.NumberStatusSelected:
			stats.Selected++
		case entities.NumberStatusPurchased:
			stats.Purchased++
		default:
			stats.Available++
		}
	}
	return stats
}

// Toggle flips the selection of n. Purchased numbers are rejected with
// ErrNumberTaken and numbers outside the raffle with ErrNumberOutOfRange.
func (s *RaffleSession) Toggle(n int) error {
	var event events.Event
	err := s.locked(func() error {
		if _, ok := s.purchased[n]; ok {
			return fmt.Errorf("%w: %d", entities.ErrNumberTaken, n)
		}
		if !s.config.Contains(n) {
			return fmt.Errorf("%w: %d not in [1, %d]", entities.ErrNumberOutOfRange, n, s.config.TotalNumbers)
		}
		if _, ok := s.selected[n]; ok {
			delete(s.selected, n)
		} else {
			s.selected[n] = struct{}{}
		}
		event = s.selectionChanged(events.SelectionOpToggle, 1)
		return nil
	})
	s.publish(event)
	return err
}

// SelectRandom adds up to count available numbers chosen uniformly at random
// and returns the added numbers in ascending order. Asking for more numbers
// than remain selects all of them.
func (s *RaffleSession) SelectRandom(count int) []int {
	var event events.Event
	var added []int
	_ = s.locked(func() error {
		if count <= 0 {
			return nil
		}
		candidates := make([]int, 0, s.config.TotalNumbers)
		for n := 1; n <= s.config.TotalNumbers; n++ {
			if s.status(n) == entities.NumberStatusAvailable {
				candidates = append(candidates, n)
			}
		}
		if len(candidates) == 0 {
			return nil
		}
		s.shuffler.Shuffle(candidates)

		added = candidates[:min(count, len(candidates))]
		for _, n := range added {
			s.selected[n] = struct{}{}
		}
		slices.Sort(added)
		event = s.selectionChanged(events.SelectionOpRandom, len(added))
		return nil
	})
	s.publish(event)
	return added
}

// AddManual selects n. It fails with ErrNumberOutOfRange when n is outside
// [1, TotalNumbers] and with ErrNumberTaken when n is already purchased.
// Adding an already selected number succeeds without change.
func (s *RaffleSession) AddManual(n int) error {
	var event events.Event
	err := s.locked(func() error {
		if !s.config.Contains(n) {
			return fmt.Errorf("%w: %d not in [1, %d]", entities.ErrNumberOutOfRange, n, s.config.TotalNumbers)
		}
		if _, ok := s.purchased[n]; ok {
			return fmt.Errorf("%w: %d", entities.ErrNumberTaken, n)
		}
		if _, ok := s.selected[n]; ok {
			return nil
		}
		s.selected[n] = struct{}{}
		event = s.selectionChanged(events.SelectionOpManual, 1)
		return nil
	})
	s.publish(event)
	return err
}

// Clear empties the selection and returns how many numbers were removed
func (s *RaffleSession) Clear() int {
	var event events.Event
	var cleared int
	_ = s.locked(func() error {
		cleared = len(s.selected)
		clear(s.selected)
		if cleared > 0 {
			event = s.selectionChanged(events.SelectionOpClear, cleared)
		}
		return nil
	})
	s.publish(event)
	return cleared
}

// Selected returns the selected numbers in ascending order
func (s *RaffleSession) Selected() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedKeys(s.selected)
}

// SelectedCount returns how many numbers are selected
func (s *RaffleSession) SelectedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.selected)
}

// PurchasedCount returns how many numbers are sold, seeds included
func (s *RaffleSession) PurchasedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.purchased)
}

// AvailableCount returns how many numbers can still be selected
func (s *RaffleSession) AvailableCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	available := 0
	for n := 1; n <= s.config.TotalNumbers; n++ {
		if s.status(n) == entities.NumberStatusAvailable {
			available++
		}
	}
	return available
}

// TotalAmount returns |selected| × price, recomputed on every call
func (s *RaffleSession) TotalAmount() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalAmount()
}

func (s *RaffleSession) totalAmount() decimal.Decimal {
	// Cannot overflow: Validate prices the whole raffle and |selected| <= TotalNumbers
	amount, _ := entities.CalculateAmount(s.config.PricePerNumber, len(s.selected))
	return amount
}

// CreatePurchase snapshots the selection into a pending purchase
func (s *RaffleSession) CreatePurchase() (*entities.Purchase, error) {
	var purchase *entities.Purchase
	err := s.locked(func() error {
		if len(s.selected) == 0 {
			return entities.ErrEmptySelection
		}
		if s.current != nil {
			return fmt.Errorf("%w: %s", entities.ErrPurchasePending, s.current.ID)
		}
		code, err := s.codes.Generate()
		if err != nil {
			return fmt.Errorf("failed to generate payment code: %w", err)
		}

		s.current = &entities.Purchase{
			ID:        entities.NewPurchaseID(),
			Numbers:   sortedKeys(s.selected),
			Amount:    s.totalAmount(),
			Status:    entities.PurchaseStatusPending,
			CreatedAt: s.clock.Now(),
			PixCode:   code,
		}
		purchase = s.current.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(events.PurchaseCreatedEvent{
		SessionKey: s.key,
		PurchaseID: purchase.ID,
		Numbers:    slices.Clone(purchase.Numbers),
		Amount:     purchase.Amount,
		CreatedAt:  purchase.CreatedAt,
	})

	log.WithFields(log.Fields{
		"session":  s.key,
		"purchase": purchase.ID,
		"quantity": purchase.Count(),
		"amount":   purchase.Amount.String(),
	}).Info("Purchase created")

	return purchase, nil
}

// CurrentPurchase returns a copy of the pending purchase, or nil
func (s *RaffleSession) CurrentPurchase() *entities.Purchase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Clone()
}

// ConfirmPurchase confirms whichever purchase is pending. Without a pending
// purchase nothing changes and ErrNoPendingPurchase is returned.
func (s *RaffleSession) ConfirmPurchase() (*entities.Purchase, error) {
	return s.confirm("")
}

// ConfirmPurchaseID confirms the pending purchase only if it is id.
// Deferred confirmations use it so they never land on a newer purchase.
func (s *RaffleSession) ConfirmPurchaseID(id string) (*entities.Purchase, error) {
	return s.confirm(id)
}

func (s *RaffleSession) confirm(id string) (*entities.Purchase, error) {
	var confirmed *entities.Purchase
	var title string
	err := s.locked(func() error {
		if s.current == nil {
			return entities.ErrNoPendingPurchase
		}
		if id != "" && s.current.ID != id {
			return fmt.Errorf("%w: %s", entities.ErrStalePurchase, id)
		}

		now := s.clock.Now()
		purchase := s.current
		purchase.Status = entities.PurchaseStatusConfirmed
		purchase.ConfirmedAt = &now

		for _, n := range purchase.Numbers {
			s.purchased[n] = struct{}{}
		}
		s.history = append(s.history, purchase)
		clear(s.selected)
		s.current = nil

		confirmed = purchase.Clone()
		title = s.config.Title
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(events.PurchaseConfirmedEvent{
		SessionKey:  s.key,
		RaffleTitle: title,
		PurchaseID:  confirmed.ID,
		Numbers:     slices.Clone(confirmed.Numbers),
		Amount:      confirmed.Amount,
		PixCode:     confirmed.PixCode,
		CreatedAt:   confirmed.CreatedAt,
		ConfirmedAt: *confirmed.ConfirmedAt,
	})

	log.WithFields(log.Fields{
		"session":  s.key,
		"purchase": confirmed.ID,
		"quantity": confirmed.Count(),
	}).Info("Purchase confirmed")

	return confirmed, nil
}

// CancelPurchase discards the pending purchase and returns it marked as
// cancelled, or nil when nothing was pending. The selection is kept so the
// same numbers can be bought again right away.
func (s *RaffleSession) CancelPurchase() *entities.Purchase {
	cancelled, _ := s.cancel("", events.CancelReasonUser)
	return cancelled
}

// CancelPurchaseID discards the pending purchase only if it is id
func (s *RaffleSession) CancelPurchaseID(id string, reason events.CancelReason) (*entities.Purchase, error) {
	return s.cancel(id, reason)
}

// ExpirePurchase discards the pending purchase id because its payment window closed
func (s *RaffleSession) ExpirePurchase(id string) (*entities.Purchase, error) {
	return s.cancel(id, events.CancelReasonExpired)
}

func (s *RaffleSession) cancel(id string, reason events.CancelReason) (*entities.Purchase, error) {
	var cancelled *entities.Purchase
	err := s.locked(func() error {
		if s.current == nil {
			return entities.ErrNoPendingPurchase
		}
		if id != "" && s.current.ID != id {
			return fmt.Errorf("%w: %s", entities.ErrStalePurchase, id)
		}
		cancelled = s.current.Clone()
		cancelled.Status = entities.PurchaseStatusCancelled
		s.current = nil
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(events.PurchaseCancelledEvent{
		SessionKey: s.key,
		PurchaseID: cancelled.ID,
		Quantity:   cancelled.Count(),
		Reason:     reason,
	})

	log.WithFields(log.Fields{
		"session":  s.key,
		"purchase": cancelled.ID,
		"reason":   reason,
	}).Info("Purchase cancelled")

	return cancelled, nil
}

// History returns copies of the confirmed purchases, oldest first
func (s *RaffleSession) History() []*entities.Purchase {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*entities.Purchase, len(s.history))
	for i, p := range s.history {
		out[i] = p.Clone()
	}
	return out
}

// HistorySummary returns the numbers bought and the amount spent across confirmed purchases
func (s *RaffleSession) HistorySummary() (numbers int, spent decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()

	spent = decimal.Zero
	for _, p := range s.history {
		numbers += p.Count()
		sum, err := spent.Add(p.Amount)
		if err != nil {
			log.WithFields(log.Fields{
				"session":  s.key,
				"purchase": p.ID,
				"amount":   p.Amount.String(),
				"error":    err,
			}).Warn("Purchase amount left out of history total")
			continue
		}
		spent = sum
	}
	return numbers, spent
}

// UpdateConfig applies a partial configuration override. Price and range
// cannot change while a purchase is pending; selected numbers that fall
// outside a reduced range are deselected.
func (s *RaffleSession) UpdateConfig(update entities.RaffleConfigUpdate) (entities.RaffleConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil && update.ChangesPricing(s.config) {
		return s.config.Clone(), fmt.Errorf("%w: cannot change price or range of %s", entities.ErrPurchasePending, s.current.ID)
	}

	updated, err := update.Apply(s.config)
	if err != nil {
		return s.config.Clone(), err
	}
	s.config = updated

	for n := range s.selected {
		if !s.config.Contains(n) {
			delete(s.selected, n)
		}
	}

	log.WithFields(log.Fields{
		"session": s.key,
		"total":   s.config.TotalNumbers,
		"price":   s.config.PricePerNumber.String(),
	}).Info("Raffle config updated")

	return s.config.Clone(), nil
}

// locked runs fn while holding the session lock
func (s *RaffleSession) locked(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}

// selectionChanged builds the event for a selection mutation; caller holds the lock
func (s *RaffleSession) selectionChanged(op events.SelectionOp, changed int) events.Event {
	return events.SelectionChangedEvent{
		SessionKey:    s.key,
		Op:            op,
		Changed:       changed,
		SelectedCount: len(s.selected),
	}
}

// publish sends event outside the session lock; nil events are skipped
func (s *RaffleSession) publish(event events.Event) {
	if event == nil || s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(event); err != nil {
		log.WithFields(log.Fields{
			"session":   s.key,
			"eventType": event.Type(),
			"error":     err,
		}).Error("Failed to publish raffle event")
	}
}

func sortedKeys(set map[int]struct{}) []int {
	keys := make([]int, 0, len(set))
	for n := range set {
		keys = append(keys, n)
	}
	slices.Sort(keys)
	return keys
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }
