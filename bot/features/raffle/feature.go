package raffle

import (
	"bytes"

	"rifa/application"
	"rifa/bot/common"
	"rifa/domain/entities"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// Feature represents the raffle feature: panel, purchase summary and payment
type Feature struct {
	sessions *application.SessionManager
	timings  application.PaymentTimings
	images   *GridImageGenerator
}

// NewFeature creates a new raffle feature instance
func NewFeature(sessions *application.SessionManager, timings application.PaymentTimings) *Feature {
	return &Feature{
		sessions: sessions,
		timings:  timings,
		images:   NewGridImageGenerator(),
	}
}

// sessionFor returns the raffle session of the interaction's user
func (f *Feature) sessionFor(i *discordgo.InteractionCreate) (*application.Session, error) {
	return f.sessions.Get(application.DiscordSessionKey(i.GuildID, common.InteractionUserID(i)))
}

// currentView shows whatever the session is in the middle of: a payment,
// a reserved purchase, or the panel
func (f *Feature) currentView(s *discordgo.Session, i *discordgo.InteractionCreate, sess *application.Session, block int) common.MessageView {
	purchase := sess.Raffle.CurrentPurchase()
	if purchase == nil {
		return f.panelView(sess, block)
	}

	snap := sess.Payment.Snapshot()
	if snap.State.IsActive() {
		sess.Payment.SetObserver(f.newPresenter(s, i.Interaction, sess.Key, block))
		return f.paymentView(purchase, snap, block)
	}
	return f.summaryView(sess, purchase, block)
}

// panelView renders the grid page holding block with its controls
func (f *Feature) panelView(sess *application.Session, block int) common.MessageView {
	cfg := sess.Raffle.Config()
	blk := blockRange(block, cfg.TotalNumbers)
	page := pageForBlock(blk.Index, cfg.TotalNumbers)

	data := panelData{
		Config:         cfg,
		Block:          blk,
		Page:           page,
		PageStats:      sess.Raffle.RangeStats(page),
		BlockStates:    sess.Raffle.PageStatuses(blk),
		Selected:       sess.Raffle.Selected(),
		Total:          sess.Raffle.TotalAmount(),
		PurchasedCount: sess.Raffle.PurchasedCount(),
	}

	var view common.MessageView
	png, err := f.images.RenderPage(sess.Raffle.PageStatuses(page), page, blk)
	if err != nil {
		log.WithFields(log.Fields{
			"session": sess.Key,
			"page":    page.Index,
			"error":   err,
		}).Warn("Failed to render grid image, sending panel without it")
	} else {
		data.HasImage = true
		view.Files = []*discordgo.File{{
			Name:        gridImageName,
			ContentType: "image/png",
			Reader:      bytes.NewReader(png),
		}}
	}

	view.Embed = CreatePanelEmbed(data)
	view.Components = CreatePanelComponents(data)
	return view
}

func (f *Feature) summaryView(sess *application.Session, purchase *entities.Purchase, block int) common.MessageView {
	return common.MessageView{
		Embed:      CreateSummaryEmbed(sess.Raffle.Config(), purchase, f.timings.Timeout),
		Components: CreateSummaryComponents(block),
	}
}

func (f *Feature) paymentView(purchase *entities.Purchase, snap application.PaymentSnapshot, block int) common.MessageView {
	view := common.MessageView{Embed: CreatePaymentEmbed(purchase, snap)}
	if snap.State == application.PaymentStatePending {
		view.Components = CreatePaymentComponents(block)
	}
	return view
}

func (f *Feature) historyView(sess *application.Session, block int) common.MessageView {
	numbers, spent := sess.Raffle.HistorySummary()
	return common.MessageView{
		Embed:      CreateHistoryEmbed(sess.Raffle.Config(), sess.Raffle.History(), numbers, spent),
		Components: CreateBackComponents(block, "Voltar ao painel"),
	}
}

// newPresenter builds the observer that keeps a payment message current.
// The session is looked up on every render so an evicted session simply
// stops producing edits.
func (f *Feature) newPresenter(s *discordgo.Session, interaction *discordgo.Interaction, key string, block int) *paymentPresenter {
	render := func(snap application.PaymentSnapshot) (common.MessageView, bool) {
		sess, ok := f.sessions.Lookup(key)
		if !ok {
			return common.MessageView{}, false
		}

		switch snap.State {
		case application.PaymentStatePending:
			live := sess.Payment.Snapshot()
			purchase := sess.Raffle.CurrentPurchase()
			if live.State != application.PaymentStatePending || purchase == nil {
				return common.MessageView{}, false
			}
			return f.paymentView(purchase, live, block), true

		case application.PaymentStateExpired:
			return common.MessageView{
				Embed:      CreateExpiredEmbed(),
				Components: CreateBackComponents(block, "Voltar aos números"),
			}, true

		case application.PaymentStateConfirmed:
			if snap.Confirmed == nil {
				return common.MessageView{}, false
			}
			return common.MessageView{Embed: CreateConfirmedEmbed(snap.Confirmed)}, true

		case application.PaymentStateIdle:
			return f.panelView(sess, block), true
		}

		return common.MessageView{}, false
	}

	edit := func(view common.MessageView) error {
		return common.EditView(s, interaction, view)
	}

	return newPaymentPresenter(render, edit, countdownRefresh)
}
