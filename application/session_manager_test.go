package application

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"rifa/config"
	"rifa/domain/entities"
	"rifa/domain/services"
	"rifa/domain/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *SessionManager {
	t.Helper()
	cfg := config.NewTestConfig()
	return NewSessionManager(NewSessionFactory(cfg, &testhelpers.RecordingPublisher{}), testTimings)
}

func TestSessionKeys(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "discord:123:456", DiscordSessionKey("123", "456"))
	assert.Equal(t, "discord:dm:456", DiscordSessionKey("", "456"))
	assert.Equal(t, "http:abc", HTTPSessionKey("abc"))
}

func TestNewSessionFactory(t *testing.T) {
	t.Parallel()

	cfg := config.NewTestConfig()
	cfg.SeedPurchasedNumbers = []int{1, 2, 500}
	cfg.RaffleImages = []string{"a.png"}

	raffle, err := NewSessionFactory(cfg, nil)("k")
	require.NoError(t, err)

	got := raffle.Config()
	assert.Equal(t, cfg.RaffleTotalNumbers, got.TotalNumbers)
	assert.Equal(t, 0, got.PricePerNumber.Cmp(cfg.RafflePrice))
	assert.Equal(t, cfg.RaffleTitle, got.Title)
	assert.Equal(t, []string{"a.png"}, got.Images)
	assert.Equal(t, 2, raffle.PurchasedCount())
}

func TestSessionManager_GetCreatesOnce(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	var created atomic.Int64
	m.OnCountChange(func(delta int64) { created.Add(delta) })

	first, err := m.Get("http:a")
	require.NoError(t, err)
	second, err := m.Get("http:a")
	require.NoError(t, err)
	_, err = m.Get("http:b")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Same(t, first.Raffle, first.Payment.session)
	assert.Equal(t, 2, m.Count())
	assert.Equal(t, []string{"http:a", "http:b"}, m.Keys())
	assert.Equal(t, int64(2), created.Load())
}

func TestSessionManager_GetConcurrent(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	var wg sync.WaitGroup
	results := make([]*Session, 20)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := m.Get("discord:1:2")
			if err == nil {
				results[i] = s
			}
		}(i)
	}
	wg.Wait()

	for _, s := range results {
		assert.Same(t, results[0], s)
	}
	assert.Equal(t, 1, m.Count())
}

func TestSessionManager_FactoryError(t *testing.T) {
	t.Parallel()

	m := NewSessionManager(func(string) (*services.RaffleSession, error) {
		return nil, errors.New("boom")
	}, testTimings)

	_, err := m.Get("x")
	assert.Error(t, err)
	assert.Zero(t, m.Count())
}

func TestSessionManager_Lookup(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	_, ok := m.Lookup("missing")
	assert.False(t, ok)
	assert.Zero(t, m.Count())

	created, err := m.Get("present")
	require.NoError(t, err)
	found, ok := m.Lookup("present")
	assert.True(t, ok)
	assert.Same(t, created, found)
}

func TestSessionManager_EvictIdle(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	stale, err := m.Get("stale")
	require.NoError(t, err)
	require.NoError(t, stale.Raffle.AddManual(20))
	_, err = stale.Raffle.CreatePurchase()
	require.NoError(t, err)
	_, err = stale.Payment.Start()
	require.NoError(t, err)

	now = now.Add(30 * time.Minute)
	_, err = m.Get("fresh")
	require.NoError(t, err)

	now = now.Add(45 * time.Minute)
	evicted := m.EvictIdle(time.Hour)

	assert.Equal(t, []string{"stale"}, evicted)
	assert.Equal(t, []string{"fresh"}, m.Keys())
	assert.Equal(t, PaymentStateIdle, stale.Payment.State())
	assert.Nil(t, stale.Raffle.CurrentPurchase())
}

func TestSessionManager_GetRefreshesActivity(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	_, err := m.Get("k")
	require.NoError(t, err)
	now = now.Add(50 * time.Minute)
	_, err = m.Get("k")
	require.NoError(t, err)
	now = now.Add(50 * time.Minute)

	assert.Empty(t, m.EvictIdle(time.Hour))
	assert.Equal(t, 1, m.Count())
}

func TestSessionManager_StartJanitor(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	var mu sync.Mutex
	now := time.Now()
	m.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}

	_, err := m.Get("idle")
	require.NoError(t, err)

	mu.Lock()
	now = now.Add(2 * time.Hour)
	mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stop := m.StartJanitor(ctx, 10*time.Millisecond, time.Hour)
	defer stop()

	assert.Eventually(t, func() bool { return m.Count() == 0 }, time.Second, 5*time.Millisecond)

	stop()
	stop() // idempotent
}

func TestSessionManager_RemoveAndCloseAll(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	var live atomic.Int64
	m.OnCountChange(func(delta int64) { live.Add(delta) })

	for _, key := range []string{"a", "b", "c"} {
		_, err := m.Get(key)
		require.NoError(t, err)
	}

	assert.True(t, m.Remove("a"))
	assert.False(t, m.Remove("a"))
	assert.Equal(t, int64(2), live.Load())

	b, _ := m.Lookup("b")
	require.NoError(t, b.Raffle.AddManual(1))
	_, err := b.Raffle.CreatePurchase()
	require.NoError(t, err)
	_, err = b.Payment.Start()
	require.NoError(t, err)

	m.CloseAll()
	assert.Zero(t, m.Count())
	assert.Zero(t, live.Load())
	assert.Nil(t, b.Raffle.CurrentPurchase())
	assert.ErrorIs(t, b.Raffle.AddManual(1000), entities.ErrNumberOutOfRange)
}
