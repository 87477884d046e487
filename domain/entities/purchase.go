package entities

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/decimal"
)

// PurchaseStatus tracks where a purchase is in its lifecycle
type PurchaseStatus string

const (
	PurchaseStatusPending   PurchaseStatus = "pending"
	PurchaseStatusConfirmed PurchaseStatus = "confirmed"
	PurchaseStatusCancelled PurchaseStatus = "cancelled"
)

// Purchase is a snapshot of a selection taken at checkout
type Purchase struct {
	ID          string          `json:"id"`
	Numbers     []int           `json:"numbers"` // ascending, distinct
	Amount      decimal.Decimal `json:"amount"`
	Status      PurchaseStatus  `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	ConfirmedAt *time.Time      `json:"confirmed_at,omitempty"`
	PixCode     string          `json:"pix_code"`
}

// NewPurchaseID returns a fresh purchase identifier
func NewPurchaseID() string {
	return "PUR-" + uuid.NewString()
}

// IsPending returns true while the purchase awaits payment
func (p *Purchase) IsPending() bool {
	return p.Status == PurchaseStatusPending
}

// IsConfirmed returns true once payment has been confirmed
func (p *Purchase) IsConfirmed() bool {
	return p.Status == PurchaseStatusConfirmed
}

// Count returns how many numbers the purchase covers
func (p *Purchase) Count() int {
	return len(p.Numbers)
}

// Clone returns a deep copy so callers never share state with a session
func (p *Purchase) Clone() *Purchase {
	if p == nil {
		return nil
	}
	out := *p
	out.Numbers = slices.Clone(p.Numbers)
	if p.ConfirmedAt != nil {
		t := *p.ConfirmedAt
		out.ConfirmedAt = &t
	}
	return &out
}

// CalculateAmount returns count × price
func CalculateAmount(price decimal.Decimal, count int) (decimal.Decimal, error) {
	qty, err := decimal.New(int64(count), 0)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid quantity %d: %w", count, err)
	}
	amount, err := price.Mul(qty)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("failed to calculate amount for %d numbers: %w", count, err)
	}
	return amount, nil
}
