package interfaces

import (
	"context"
	"time"

	"rifa/domain/entities"
	"rifa/domain/events"
)

// EventPublisher publishes domain events
type EventPublisher interface {
	Publish(event events.Event) error
}

// EventSubscriber registers handlers for domain events
type EventSubscriber interface {
	Subscribe(eventType events.EventType, handler func(context.Context, events.Event) error) error
}

// PurchaseLedgerRepository is the append-only audit trail of confirmed purchases.
// It is never read back into a raffle session.
type PurchaseLedgerRepository interface {
	// Record stores a confirmed purchase; recording the same purchase twice is a no-op
	Record(ctx context.Context, sessionKey, raffleTitle string, purchase *entities.Purchase) error

	// ListRecent returns the most recently confirmed purchases, newest first
	ListRecent(ctx context.Context, limit int) ([]*LedgerEntry, error)

	// CountBySession returns how many purchases a session has recorded
	CountBySession(ctx context.Context, sessionKey string) (int, error)
}

// LedgerEntry is a purchase as stored in the ledger
type LedgerEntry struct {
	SessionKey  string             `json:"session_key"`
	RaffleTitle string             `json:"raffle_title"`
	Purchase    *entities.Purchase `json:"purchase"`
}

// Shuffler permutes a slice of numbers in place
type Shuffler interface {
	Shuffle(numbers []int)
}

// CodeGenerator produces payment reference codes
type CodeGenerator interface {
	Generate() (string, error)
}

// Clock abstracts time for deterministic tests
type Clock interface {
	Now() time.Time
}
