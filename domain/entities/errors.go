package entities

import "errors"

// Range violations
var (
	// ErrNumberOutOfRange is returned when a number falls outside [1, TotalNumbers]
	ErrNumberOutOfRange = errors.New("number out of range")
)

// Conflicts
var (
	// ErrNumberTaken is returned when a number has already been purchased
	ErrNumberTaken = errors.New("number already purchased")

	// ErrPurchasePending is returned when an operation needs the pending slot to be free
	ErrPurchasePending = errors.New("a purchase is already pending")
)

// Lifecycle errors
var (
	ErrEmptySelection    = errors.New("no numbers selected")
	ErrNoPendingPurchase = errors.New("no pending purchase")
	// ErrPurchaseExpired is returned when the payment window closed before confirmation
	ErrPurchaseExpired = errors.New("purchase expired before payment")
	// ErrStalePurchase is returned when a deferred transition targets a purchase
	// that is no longer the pending one
	ErrStalePurchase     = errors.New("purchase is no longer pending")
	ErrPaymentNotPending = errors.New("payment is not awaiting confirmation")
)

// ErrInvalidConfig is returned when a raffle configuration violates its constraints
var ErrInvalidConfig = errors.New("invalid raffle configuration")
