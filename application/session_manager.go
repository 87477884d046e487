package application

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"rifa/config"
	"rifa/domain/entities"
	"rifa/domain/interfaces"
	"rifa/domain/services"

	log "github.com/sirupsen/logrus"
)

// Session bundles the raffle state of one participant with its payment flow
type Session struct {
	Key       string
	Raffle    *services.RaffleSession
	Payment   *PaymentFlow
	CreatedAt time.Time

	lastActivity time.Time // guarded by SessionManager.mu
}

// SessionFactory builds the raffle state for a new session key
type SessionFactory func(key string) (*services.RaffleSession, error)

// SessionManager keeps one Session per key, creating them on first use
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	factory SessionFactory
	timings PaymentTimings
	now     func() time.Time

	onCountChange func(delta int64)
}

// NewSessionManager creates a manager that builds sessions with factory
func NewSessionManager(factory SessionFactory, timings PaymentTimings) *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*Session),
		factory:  factory,
		timings:  timings,
		now:      time.Now,
	}
}

// NewSessionFactory returns a factory seeding every session from cfg and
// publishing its events to publisher
func NewSessionFactory(cfg *config.Config, publisher interfaces.EventPublisher) SessionFactory {
	return func(key string) (*services.RaffleSession, error) {
		raffle := entities.RaffleConfig{
			PricePerNumber: cfg.RafflePrice,
			TotalNumbers:   cfg.RaffleTotalNumbers,
			Title:          cfg.RaffleTitle,
			Description:    cfg.RaffleDescription,
			Images:         slices.Clone(cfg.RaffleImages),
			DrawDate:       cfg.RaffleDrawDate,
		}
		return services.NewRaffleSession(key, raffle,
			services.WithPurchasedNumbers(cfg.SeedPurchasedNumbers...),
			services.WithEventPublisher(publisher),
		)
	}
}

// OnCountChange registers a callback receiving +1/-n whenever sessions are created or evicted
func (m *SessionManager) OnCountChange(fn func(delta int64)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onCountChange = fn
}

// DiscordSessionKey builds the session key of a Discord member in a guild
func DiscordSessionKey(guildID, userID string) string {
	if guildID == "" {
		guildID = "dm"
	}
	return fmt.Sprintf("discord:%s:%s", guildID, userID)
}

// HTTPSessionKey builds the session key of an HTTP client
func HTTPSessionKey(sessionID string) string {
	return "http:" + sessionID
}

// Get returns the session for key, creating it on first use, and marks it active
func (m *SessionManager) Get(key string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if session, ok := m.sessions[key]; ok {
		session.lastActivity = m.now()
		return session, nil
	}

	raffle, err := m.factory(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create session %s: %w", key, err)
	}

	now := m.now()
	session := &Session{
		Key:          key,
		Raffle:       raffle,
		Payment:      NewPaymentFlow(raffle, m.timings),
		CreatedAt:    now,
		lastActivity: now,
	}
	m.sessions[key] = session
	if m.onCountChange != nil {
		m.onCountChange(1)
	}

	log.WithFields(log.Fields{
		"session": key,
		"total":   len(m.sessions),
	}).Info("Created raffle session")

	return session, nil
}

// Lookup returns an existing session without creating one or touching its activity
func (m *SessionManager) Lookup(key string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	session, ok := m.sessions[key]
	return session, ok
}

// Count returns how many sessions are live
func (m *SessionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Keys returns the live session keys in ascending order
func (m *SessionManager) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.sessions))
	for key := range m.sessions {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}

// Remove closes and forgets the session for key
func (m *SessionManager) Remove(key string) bool {
	m.mu.Lock()
	session, ok := m.sessions[key]
	if ok {
		delete(m.sessions, key)
		if m.onCountChange != nil {
			m.onCountChange(-1)
		}
	}
	m.mu.Unlock()

	if ok {
		session.Payment.Close()
		log.WithField("session", key).Info("Removed raffle session")
	}
	return ok
}

// EvictIdle closes and removes every session idle for longer than maxIdle
// and returns the evicted keys
func (m *SessionManager) EvictIdle(maxIdle time.Duration) []string {
	cutoff := m.now().Add(-maxIdle)

	m.mu.Lock()
	var evicted []*Session
	for key, session := range m.sessions {
		if session.lastActivity.Before(cutoff) {
			evicted = append(evicted, session)
			delete(m.sessions, key)
		}
	}
	if len(evicted) > 0 && m.onCountChange != nil {
		m.onCountChange(-int64(len(evicted)))
	}
	remaining := len(m.sessions)
	m.mu.Unlock()

	keys := make([]string, 0, len(evicted))
	for _, session := range evicted {
		session.Payment.Close()
		keys = append(keys, session.Key)
	}
	slices.Sort(keys)

	if len(keys) > 0 {
		log.WithFields(log.Fields{
			"evicted":   len(keys),
			"remaining": remaining,
		}).Info("Evicted idle raffle sessions")
	}
	return keys
}

// StartJanitor evicts idle sessions every interval until ctx is done or the
// returned stop function is called
func (m *SessionManager) StartJanitor(ctx context.Context, interval, maxIdle time.Duration) func() {
	stopChan := make(chan struct{})
	ticker := time.NewTicker(interval)

	go func() {
		defer ticker.Stop()
		log.WithFields(log.Fields{
			"interval": interval,
			"maxIdle":  maxIdle,
		}).Info("Session janitor started")

		for {
			select {
			case <-ctx.Done():
				log.Info("Session janitor shutting down (context cancelled)...")
				return
			case <-stopChan:
				log.Info("Session janitor shutting down (stop requested)...")
				return
			case <-ticker.C:
				m.EvictIdle(maxIdle)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() { close(stopChan) })
	}
}

// CloseAll closes every payment flow and forgets every session
func (m *SessionManager) CloseAll() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		sessions = append(sessions, session)
	}
	m.sessions = make(map[string]*Session)
	if len(sessions) > 0 && m.onCountChange != nil {
		m.onCountChange(-int64(len(sessions)))
	}
	m.mu.Unlock()

	for _, session := range sessions {
		session.Payment.Close()
	}
}
