package raffle

import (
	"sync"
	"time"

	"rifa/application"
	"rifa/bot/common"

	log "github.com/sirupsen/logrus"
)

// countdownRefresh is how often the payment message is re-rendered while
// waiting; the relative timestamp in the embed ticks on its own in between
const countdownRefresh = 15 * time.Second

// paymentPresenter mirrors a PaymentFlow onto an ephemeral Discord message.
// It edits the message for transitions that happen without user input
// (countdown, expiry, confirmation, return to the panel); transitions caused
// by a button click are rendered by the click's own response.
type paymentPresenter struct {
	mu           sync.Mutex
	render       func(snap application.PaymentSnapshot) (common.MessageView, bool)
	edit         func(view common.MessageView) error
	refreshEvery time.Duration
	now          func() time.Time
	lastRefresh  time.Time
	seq          uint64

	editMu  sync.Mutex
	applied uint64
}

func newPaymentPresenter(
	render func(snap application.PaymentSnapshot) (common.MessageView, bool),
	edit func(view common.MessageView) error,
	refreshEvery time.Duration,
) *paymentPresenter {
	p := &paymentPresenter{
		render:       render,
		edit:         edit,
		refreshEvery: refreshEvery,
		now:          time.Now,
	}
	p.lastRefresh = p.now()
	return p
}

// OnCountdown re-renders the pending view at most once per refresh interval
func (p *paymentPresenter) OnCountdown(remaining time.Duration) {
	p.mu.Lock()
	now := p.now()
	if now.Sub(p.lastRefresh) < p.refreshEvery {
		p.mu.Unlock()
		return
	}
	p.lastRefresh = now
	p.seq++
	seq := p.seq
	p.mu.Unlock()

	snap := application.PaymentSnapshot{
		State:     application.PaymentStatePending,
		Remaining: remaining,
	}
	go p.apply(seq, snap)
}

// OnPaymentState renders the transitions no click responds to
func (p *paymentPresenter) OnPaymentState(snap application.PaymentSnapshot) {
	switch snap.State {
	case application.PaymentStateExpired,
		application.PaymentStateConfirmed,
		application.PaymentStateIdle:
	default:
		return
	}

	p.mu.Lock()
	p.seq++
	seq := p.seq
	p.mu.Unlock()

	go p.apply(seq, snap)
}

// apply renders and sends one edit; edits older than the last one sent are dropped
func (p *paymentPresenter) apply(seq uint64, snap application.PaymentSnapshot) {
	p.editMu.Lock()
	defer p.editMu.Unlock()

	if seq <= p.applied {
		return
	}
	p.applied = seq

	view, ok := p.render(snap)
	if !ok {
		return
	}
	if err := p.edit(view); err != nil {
		log.WithFields(log.Fields{
			"state": snap.State,
			"error": err,
		}).Warn("Failed to update payment message")
	}
}
