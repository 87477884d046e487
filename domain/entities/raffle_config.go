package entities

import (
	"fmt"
	"slices"
	"time"

	"github.com/govalues/decimal"
)

// MaxTotalNumbers caps the raffle size so selection and random picks stay bounded
const MaxTotalNumbers = 10000

// RaffleConfig describes the raffle a session sells numbers for
type RaffleConfig struct {
	PricePerNumber decimal.Decimal `json:"price_per_number"`
	TotalNumbers   int             `json:"total_numbers"`
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	Images         []string        `json:"images"`
	DrawDate       *time.Time      `json:"draw_date,omitempty"`
}

// DefaultRaffleConfig returns the configuration used when no override is given
func DefaultRaffleConfig() RaffleConfig {
	return RaffleConfig{
		PricePerNumber: decimal.MustNew(10, 0),
		TotalNumbers:   100,
		Title:          "iPhone 15 Pro Max",
		Description:    "Concorra a um iPhone 15 Pro Max novinho! Escolha seus números da sorte e boa sorte!",
		Images:         []string{},
	}
}

// Validate checks the configuration invariants
func (c RaffleConfig) Validate() error {
	if !c.PricePerNumber.IsPos() {
		return fmt.Errorf("%w: price per number must be positive, got %s", ErrInvalidConfig, c.PricePerNumber)
	}
	if c.TotalNumbers <= 0 {
		return fmt.Errorf("%w: total numbers must be positive, got %d", ErrInvalidConfig, c.TotalNumbers)
	}
	if c.TotalNumbers > MaxTotalNumbers {
		return fmt.Errorf("%w: total numbers must be at most %d, got %d", ErrInvalidConfig, MaxTotalNumbers, c.TotalNumbers)
	}
	// The full raffle must be priceable so that any selection total is too
	if _, err := CalculateAmount(c.PricePerNumber, c.TotalNumbers); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Contains reports whether n is a valid raffle number
func (c RaffleConfig) Contains(n int) bool {
	return n >= 1 && n <= c.TotalNumbers
}

// Clone returns a deep copy of the configuration
func (c RaffleConfig) Clone() RaffleConfig {
	out := c
	out.Images = slices.Clone(c.Images)
	if c.DrawDate != nil {
		d := *c.DrawDate
		out.DrawDate = &d
	}
	return out
}

// RaffleConfigUpdate is a partial override; nil fields keep their current value
type RaffleConfigUpdate struct {
	PricePerNumber *decimal.Decimal `json:"price_per_number,omitempty"`
	TotalNumbers   *int             `json:"total_numbers,omitempty"`
	Title          *string          `json:"title,omitempty"`
	Description    *string          `json:"description,omitempty"`
	Images         []string         `json:"images,omitempty"`
	DrawDate       *time.Time       `json:"draw_date,omitempty"`
}

// IsEmpty reports whether the update changes nothing
func (u RaffleConfigUpdate) IsEmpty() bool {
	return u.PricePerNumber == nil && u.TotalNumbers == nil && u.Title == nil &&
		u.Description == nil && u.Images == nil && u.DrawDate == nil
}

// ChangesPricing reports whether applying u to c alters price or number range
func (u RaffleConfigUpdate) ChangesPricing(c RaffleConfig) bool {
	if u.PricePerNumber != nil && u.PricePerNumber.Cmp(c.PricePerNumber) != 0 {
		return true
	}
	return u.TotalNumbers != nil && *u.TotalNumbers != c.TotalNumbers
}

// Apply returns a validated copy of c with the update merged in
func (u RaffleConfigUpdate) Apply(c RaffleConfig) (RaffleConfig, error) {
	out := c.Clone()
	if u.PricePerNumber != nil {
		out.PricePerNumber = *u.PricePerNumber
	}
	if u.TotalNumbers != nil {
		out.TotalNumbers = *u.TotalNumbers
	}
	if u.Title != nil {
		out.Title = *u.Title
	}
	if u.Description != nil {
		out.Description = *u.Description
	}
	if u.Images != nil {
		out.Images = slices.Clone(u.Images)
	}
	if u.DrawDate != nil {
		d := *u.DrawDate
		out.DrawDate = &d
	}
	if err := out.Validate(); err != nil {
		return c, err
	}
	return out, nil
}
