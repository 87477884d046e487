package testhelpers

import (
	"context"
	"sync"
	"time"

	"rifa/domain/entities"
	"rifa/domain/events"
	"rifa/domain/interfaces"

	"github.com/stretchr/testify/mock"
)

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) error {
	args := m.Called(event)
	return args.Error(0)
}

// MockPurchaseLedgerRepository is a mock implementation of PurchaseLedgerRepository
type MockPurchaseLedgerRepository struct {
	mock.Mock
}

func (m *MockPurchaseLedgerRepository) Record(ctx context.Context, sessionKey, raffleTitle string, purchase *entities.Purchase) error {
	args := m.Called(ctx, sessionKey, raffleTitle, purchase)
	return args.Error(0)
}

func (m *MockPurchaseLedgerRepository) ListRecent(ctx context.Context, limit int) ([]*interfaces.LedgerEntry, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*interfaces.LedgerEntry), args.Error(1)
}

func (m *MockPurchaseLedgerRepository) CountBySession(ctx context.Context, sessionKey string) (int, error) {
	args := m.Called(ctx, sessionKey)
	return args.Int(0), args.Error(1)
}

// MockCodeGenerator is a mock implementation of CodeGenerator
type MockCodeGenerator struct {
	mock.Mock
}

func (m *MockCodeGenerator) Generate() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}

// RecordingPublisher collects published events for assertions
type RecordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *RecordingPublisher) Publish(event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

// Events returns a copy of everything published so far
func (p *RecordingPublisher) Events() []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Event, len(p.events))
	copy(out, p.events)
	return out
}

// OfType returns the published events with the given type
func (p *RecordingPublisher) OfType(eventType events.EventType) []events.Event {
	var out []events.Event
	for _, e := range p.Events() {
		if e.Type() == eventType {
			out = append(out, e)
		}
	}
	return out
}

// IdentityShuffler leaves numbers in ascending order, making random picks predictable
type IdentityShuffler struct{}

func (IdentityShuffler) Shuffle([]int) {}

// FixedClock always reports the same instant
type FixedClock struct {
	T time.Time
}

func (c FixedClock) Now() time.Time { return c.T }
