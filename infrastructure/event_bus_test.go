package infrastructure

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"rifa/domain/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBus_DeliversToSubscribersOfType(t *testing.T) {
	t.Parallel()

	bus := NewEventBus()
	var confirmed, created atomic.Int32

	require.NoError(t, bus.Subscribe(events.EventTypePurchaseConfirmed, func(context.Context, events.Event) error {
		confirmed.Add(1)
		return nil
	}))
	require.NoError(t, bus.Subscribe(events.EventTypePurchaseConfirmed, func(context.Context, events.Event) error {
		confirmed.Add(1)
		return errors.New("handler error is logged only")
	}))
	require.NoError(t, bus.Subscribe(events.EventTypePurchaseCreated, func(context.Context, events.Event) error {
		created.Add(1)
		return nil
	}))

	require.NoError(t, bus.Publish(events.PurchaseConfirmedEvent{PurchaseID: "PUR-1"}))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, bus.Drain(ctx))

	assert.Equal(t, int32(2), confirmed.Load())
	assert.Equal(t, int32(0), created.Load())
}

func TestEventBus_RecoversFromPanics(t *testing.T) {
	t.Parallel()

	bus := NewEventBus()
	var mu sync.Mutex
	var received []string

	require.NoError(t, bus.Subscribe(events.EventTypeSelectionChanged, func(context.Context, events.Event) error {
		panic("boom")
	}))
	require.NoError(t, bus.Subscribe(events.EventTypeSelectionChanged, func(_ context.Context, e events.Event) error {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, e.(events.SelectionChangedEvent).SessionKey)
		return nil
	}))

	bus.Emit(context.Background(), events.SelectionChangedEvent{SessionKey: "http:a"})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, bus.Drain(ctx))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"http:a"}, received)
}

func TestEventBus_RejectsNilHandler(t *testing.T) {
	t.Parallel()

	assert.Error(t, NewEventBus().Subscribe(events.EventTypePurchaseCreated, nil))
}

func TestEventBus_DrainTimesOut(t *testing.T) {
	t.Parallel()

	bus := NewEventBus()
	release := make(chan struct{})
	require.NoError(t, bus.Subscribe(events.EventTypePurchaseCreated, func(context.Context, events.Event) error {
		<-release
		return nil
	}))
	bus.Emit(context.Background(), events.PurchaseCreatedEvent{})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, bus.Drain(ctx), context.DeadlineExceeded)

	close(release)
	require.NoError(t, bus.Drain(context.Background()))
}
