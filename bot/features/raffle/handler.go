package raffle

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"rifa/application"
	"rifa/bot/common"
	"rifa/domain/entities"
	"rifa/domain/services"

	"github.com/bwmarrin/discordgo"
	"github.com/govalues/decimal"
	log "github.com/sirupsen/logrus"
)

// Subcommands of /rifa
const (
	SubcommandOpen      = "abrir"
	SubcommandHistory   = "meus-numeros"
	SubcommandConfigure = "configurar"
)

// Options of /rifa configurar
const (
	OptionPrice       = "preco"
	OptionTotal       = "total"
	OptionTitle       = "titulo"
	OptionDescription = "descricao"
	OptionImages      = "imagens"
	OptionDrawDate    = "sorteio"
)

// drawDateLayout is how users type the draw date, in Brasília time
const drawDateLayout = "02/01/2006 15:04"

var brasilia = time.FixedZone("BRT", -3*60*60)

var (
	errInvalidNumberInput = errors.New("invalid number input")
	errInvalidPrice       = errors.New("invalid price")
	errInvalidDrawDate    = errors.New("invalid draw date")
	errNothingToConfigure = errors.New("no configuration option given")
	errNoNumbersLeft      = errors.New("no numbers left to pick")
	errUnknownInteraction = errors.New("unknown raffle interaction")
)

// HandleCommand handles the /rifa slash command
func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()
	subcommand := SubcommandOpen
	var options []*discordgo.ApplicationCommandInteractionDataOption
	if len(data.Options) > 0 {
		subcommand = data.Options[0].Name
		options = data.Options[0].Options
	}

	sess, err := f.sessionFor(i)
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "failed to get raffle session"), false)
		return
	}

	var view common.MessageView
	switch subcommand {
	case SubcommandOpen:
		view = f.currentView(s, i, sess, firstSelectedBlock(sess.Raffle))
	case SubcommandHistory:
		view = f.historyView(sess, firstSelectedBlock(sess.Raffle))
	case SubcommandConfigure:
		update, err := parseConfigOptions(options)
		var cfg entities.RaffleConfig
		if err == nil {
			cfg, err = sess.Raffle.UpdateConfig(update)
		}
		if err != nil {
			f.respondError(s, i, sess, err)
			return
		}
		view = common.MessageView{
			Embed:      CreateConfigEmbed(cfg),
			Components: CreateBackComponents(0, "Abrir painel"),
		}
	default:
		f.respondError(s, i, sess, fmt.Errorf("%w: subcommand %s", errUnknownInteraction, subcommand))
		return
	}

	if err := common.RespondWithView(s, i, view); err != nil {
		log.WithFields(log.Fields{
			"session":    sess.Key,
			"subcommand": subcommand,
			"error":      err,
		}).Error("Failed to send raffle view")
	}
}

// HandleInteraction handles raffle buttons, select menus and modals
func (f *Feature) HandleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionMessageComponent:
		f.handleComponentInteraction(s, i)
	case discordgo.InteractionModalSubmit:
		f.handleModalSubmit(s, i)
	default:
		log.Warnf("Unknown interaction type in raffle: %v", i.Type)
	}
}

// handleComponentInteraction routes button clicks and menu picks based on custom ID
func (f *Feature) handleComponentInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	id, err := parseComponentID(i.MessageComponentData().CustomID)
	if err != nil {
		log.Warnf("Invalid raffle custom ID: %v", err)
		common.RespondWithError(s, i, "Interação inválida")
		return
	}

	sess, err := f.sessionFor(i)
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "failed to get raffle session"), false)
		return
	}

	if id.Action == actionManual {
		modal := CreateManualModal(id.Block, sess.Raffle.Config().TotalNumbers)
		if err := common.RespondWithModal(s, i, modal); err != nil {
			log.Errorf("Failed to open manual entry modal: %v", err)
		}
		return
	}

	view, err := f.componentView(s, i, sess, id)
	if err != nil {
		f.respondError(s, i, sess, err)
		return
	}

	if err := common.UpdateWithView(s, i, view); err != nil {
		log.WithFields(log.Fields{
			"session": sess.Key,
			"action":  id.Action,
			"error":   err,
		}).Error("Failed to update raffle message")
	}
}

// componentView applies a component action and returns the view to show next
func (f *Feature) componentView(s *discordgo.Session, i *discordgo.InteractionCreate, sess *application.Session, id componentID) (common.MessageView, error) {
	raffle := sess.Raffle

	switch id.Action {
	case actionPick:
		total := raffle.Config().TotalNumbers
		if _, err := reconcileBlock(raffle, blockRange(id.Block, total), i.MessageComponentData().Values); err != nil {
			return common.MessageView{}, err
		}
		return f.panelView(sess, id.Block), nil

	case actionNav:
		return f.panelView(sess, id.Block), nil

	case actionRandom:
		count, err := strconv.Atoi(id.Arg(0))
		if err != nil || count < 1 {
			return common.MessageView{}, fmt.Errorf("%w: random count %q", errUnknownInteraction, id.Arg(0))
		}
		if added := raffle.SelectRandom(count); len(added) == 0 {
			return common.MessageView{}, errNoNumbersLeft
		}
		return f.panelView(sess, id.Block), nil

	case actionClear:
		raffle.Clear()
		return f.panelView(sess, id.Block), nil

	case actionHistory:
		return f.historyView(sess, id.Block), nil

	case actionPanel:
		return f.currentView(s, i, sess, id.Block), nil

	case actionBuy:
		if sess.Payment.State().IsActive() {
			return f.currentView(s, i, sess, id.Block), nil
		}
		purchase, err := raffle.CreatePurchase()
		if errors.Is(err, entities.ErrPurchasePending) {
			return f.currentView(s, i, sess, id.Block), nil
		}
		if err != nil {
			return common.MessageView{}, err
		}
		return f.summaryView(sess, purchase, id.Block), nil

	case actionSummary:
		_, err := sess.Payment.CancelPurchase()
		if err != nil && !errors.Is(err, entities.ErrNoPendingPurchase) && !errors.Is(err, entities.ErrPurchaseExpired) {
			return common.MessageView{}, err
		}
		return f.panelView(sess, id.Block), nil

	case actionPay:
		sess.Payment.SetObserver(f.newPresenter(s, i.Interaction, sess.Key, id.Block))
		snap, err := sess.Payment.Start()
		if errors.Is(err, entities.ErrPurchasePending) {
			return f.currentView(s, i, sess, id.Block), nil
		}
		if err != nil {
			return common.MessageView{}, err
		}
		purchase := raffle.CurrentPurchase()
		if purchase == nil {
			return common.MessageView{}, entities.ErrNoPendingPurchase
		}
		return f.paymentView(purchase, snap, id.Block), nil

	case actionPayment:
		return f.paymentAction(s, i, sess, id)
	}

	return common.MessageView{}, fmt.Errorf("%w: %s", errUnknownInteraction, id.Action)
}

// paymentAction handles the buttons under the PIX code
func (f *Feature) paymentAction(s *discordgo.Session, i *discordgo.InteractionCreate, sess *application.Session, id componentID) (common.MessageView, error) {
	switch id.Arg(0) {
	case "cancel":
		if _, err := sess.Payment.Cancel(); err != nil {
			return common.MessageView{}, err
		}
		return f.panelView(sess, id.Block), nil

	case "confirm":
		purchase := sess.Raffle.CurrentPurchase()
		if purchase == nil {
			return common.MessageView{}, entities.ErrNoPendingPurchase
		}
		sess.Payment.SetObserver(f.newPresenter(s, i.Interaction, sess.Key, id.Block))
		snap, err := sess.Payment.ConfirmPayment()
		if err != nil {
			return common.MessageView{}, err
		}

		log.WithFields(log.Fields{
			"session":  sess.Key,
			"purchase": purchase.ID,
		}).Info("User reported PIX payment")

		return f.paymentView(purchase, snap, id.Block), nil
	}

	return common.MessageView{}, fmt.Errorf("%w: payment %s", errUnknownInteraction, id.Arg(0))
}

// handleModalSubmit handles the manual number entry
func (f *Feature) handleModalSubmit(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ModalSubmitData()

	id, err := parseComponentID(data.CustomID)
	if err != nil || id.Action != actionManual || id.Arg(0) != manualModalArg {
		log.Warnf("Unknown raffle modal customID: %s", data.CustomID)
		common.RespondWithError(s, i, "Formulário desconhecido")
		return
	}

	sess, err := f.sessionFor(i)
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "failed to get raffle session"), false)
		return
	}

	n, err := parseTicketNumber(readModalValue(data, manualInputID))
	if err == nil {
		err = sess.Raffle.AddManual(n)
	}
	if err != nil {
		f.respondError(s, i, sess, err)
		return
	}

	if err := common.UpdateWithView(s, i, f.panelView(sess, blockFor(n))); err != nil {
		log.WithFields(log.Fields{
			"session": sess.Key,
			"number":  n,
			"error":   err,
		}).Error("Failed to update raffle message after manual entry")
	}
}

// respondError replies with the user-facing message for err
func (f *Feature) respondError(s *discordgo.Session, i *discordgo.InteractionCreate, sess *application.Session, err error) {
	botErr := toBotError(err, sess.Raffle.Config().TotalNumbers)
	botErr.Context = log.Fields{"session": sess.Key}
	common.HandleError(s, i, botErr, false)
}

// toBotError converts raffle errors into user messages; anything unknown is a system error
func toBotError(err error, total int) *common.BotError {
	if msg, ok := userErrorMessage(err, total); ok {
		return common.NewUserError(msg, err.Error())
	}
	return common.NewSystemError(err, "raffle interaction failed")
}

func userErrorMessage(err error, total int) (string, bool) {
	switch {
	case errors.Is(err, entities.ErrNumberOutOfRange):
		return fmt.Sprintf("Número fora do intervalo. Escolha um número entre 1 e %d.", total), true
	case errors.Is(err, entities.ErrNumberTaken):
		return "Esse número já foi vendido. Escolha outro.", true
	case errors.Is(err, entities.ErrEmptySelection):
		return "Selecione pelo menos um número antes de comprar.", true
	case errors.Is(err, entities.ErrPurchasePending):
		return "Você já tem uma compra aguardando pagamento.", true
	case errors.Is(err, entities.ErrNoPendingPurchase):
		return "Nenhuma compra pendente. Selecione seus números novamente.", true
	case errors.Is(err, entities.ErrPurchaseExpired):
		return "O tempo para pagamento acabou.", true
	case errors.Is(err, entities.ErrStalePurchase):
		return "Essa compra não está mais pendente.", true
	case errors.Is(err, entities.ErrPaymentNotPending):
		return "Este pagamento não está mais aguardando confirmação.", true
	case errors.Is(err, entities.ErrInvalidConfig):
		return fmt.Sprintf("Configuração inválida: o valor precisa ser positivo e o total de números entre 1 e %d.", entities.MaxTotalNumbers), true
	case errors.Is(err, errInvalidNumberInput):
		return "Digite apenas o número, por exemplo 42.", true
	case errors.Is(err, errInvalidPrice):
		return "Valor inválido. Use o formato 10,00.", true
	case errors.Is(err, errInvalidDrawDate):
		return "Data inválida. Use o formato DD/MM/AAAA HH:MM.", true
	case errors.Is(err, errNothingToConfigure):
		return "Informe pelo menos uma opção para configurar.", true
	case errors.Is(err, errNoNumbersLeft):
		return "Não há mais números disponíveis para sortear.", true
	case errors.Is(err, errUnknownInteraction):
		return "Interação desconhecida.", true
	}
	return "", false
}

// reconcileBlock makes the selection inside block match the menu values.
// Numbers sold since the menu was rendered are skipped.
func reconcileBlock(raffle *services.RaffleSession, block entities.NumberRange, values []string) (int, error) {
	wanted := make(map[int]bool, len(values))
	for _, v := range values {
		n, err := strconv.Atoi(v)
		if err != nil || !block.Contains(n) {
			continue
		}
		wanted[n] = true
	}

	changed := 0
	for _, state := range raffle.PageStatuses(block) {
		if state.Status == entities.NumberStatusPurchased {
			continue
		}
		have := state.Status == entities.NumberStatusSelected
		if wanted[state.Number] == have {
			continue
		}
		if err := raffle.Toggle(state.Number); err != nil {
			if errors.Is(err, entities.ErrNumberTaken) {
				continue
			}
			return changed, err
		}
		changed++
	}
	return changed, nil
}

// firstSelectedBlock opens the panel where the user's selection starts
func firstSelectedBlock(raffle *services.RaffleSession) int {
	if selected := raffle.Selected(); len(selected) > 0 {
		return blockFor(selected[0])
	}
	return 0
}

func parseTicketNumber(value string) (int, error) {
	n, err := strconv.Atoi(strings.TrimLeft(strings.TrimSpace(value), "#"))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", errInvalidNumberInput, value)
	}
	return n, nil
}

// parsePrice accepts Brazilian ("1.234,50", "R$ 2,50") and plain ("2.50") amounts
func parsePrice(value string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(value), "R$"))
	if strings.Contains(cleaned, ",") {
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	}
	price, err := decimal.Parse(cleaned)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %q", errInvalidPrice, value)
	}
	return price, nil
}

// parseConfigOptions turns /rifa configurar options into a partial config update
func parseConfigOptions(options []*discordgo.ApplicationCommandInteractionDataOption) (entities.RaffleConfigUpdate, error) {
	var update entities.RaffleConfigUpdate

	for _, opt := range options {
		switch opt.Name {
		case OptionPrice:
			price, err := parsePrice(opt.StringValue())
			if err != nil {
				return update, err
			}
			update.PricePerNumber = &price
		case OptionTotal:
			total := int(opt.IntValue())
			update.TotalNumbers = &total
		case OptionTitle:
			title := strings.TrimSpace(opt.StringValue())
			update.Title = &title
		case OptionDescription:
			description := strings.TrimSpace(opt.StringValue())
			update.Description = &description
		case OptionImages:
			images := []string{}
			for _, img := range strings.Split(opt.StringValue(), ",") {
				if img = strings.TrimSpace(img); img != "" {
					images = append(images, img)
				}
			}
			update.Images = images
		case OptionDrawDate:
			date, err := time.ParseInLocation(drawDateLayout, strings.TrimSpace(opt.StringValue()), brasilia)
			if err != nil {
				return update, fmt.Errorf("%w: %v", errInvalidDrawDate, err)
			}
			update.DrawDate = &date
		}
	}

	if update.IsEmpty() {
		return update, errNothingToConfigure
	}
	return update, nil
}
