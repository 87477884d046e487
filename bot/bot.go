package bot

import (
	"fmt"
	"strings"

	"rifa/application"
	"rifa/bot/features/raffle"
	"rifa/infrastructure/observability"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// Config holds bot configuration
type Config struct {
	Token   string
	GuildID string
}

type Bot struct {
	config  Config
	session *discordgo.Session
	raffle  *raffle.Feature
}

// New connects to Discord and registers the /rifa command. Raffle sessions
// live in sessions, keyed by guild and user.
func New(config Config, sessions *application.SessionManager, timings application.PaymentTimings) (*Bot, error) {
	dg, err := discordgo.New("Bot " + config.Token)
	if err != nil {
		return nil, fmt.Errorf("error creating discord session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuilds

	bot := &Bot{
		config:  config,
		session: dg,
		raffle:  raffle.NewFeature(sessions, timings),
	}

	dg.AddHandler(bot.handleCommands)
	dg.AddHandler(bot.handleRaffleInteractions)
	dg.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		log.WithFields(log.Fields{
			"user":   r.User.Username,
			"guilds": len(r.Guilds),
		}).Info("Discord session ready")
	})

	if err := dg.Open(); err != nil {
		return nil, fmt.Errorf("error opening connection: %w", err)
	}

	if err := bot.registerCommands(); err != nil {
		dg.Close()
		return nil, fmt.Errorf("error registering commands: %w", err)
	}

	return bot, nil
}

func (b *Bot) Close() error {
	return b.session.Close()
}

func (b *Bot) handleCommands(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	switch i.ApplicationCommandData().Name {
	case CommandRaffle:
		observability.GetMetrics().RecordInteraction(observability.InteractionTypeCommand)
		b.raffle.HandleCommand(s, i)
	}
}

// handleRaffleInteractions handles raffle component interactions and modals
func (b *Bot) handleRaffleInteractions(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionMessageComponent:
		if strings.HasPrefix(i.MessageComponentData().CustomID, raffle.CustomIDPrefix) {
			observability.GetMetrics().RecordInteraction(observability.InteractionTypeComponent)
			b.raffle.HandleInteraction(s, i)
		}

	case discordgo.InteractionModalSubmit:
		if strings.HasPrefix(i.ModalSubmitData().CustomID, raffle.CustomIDPrefix) {
			observability.GetMetrics().RecordInteraction(observability.InteractionTypeModal)
			b.raffle.HandleInteraction(s, i)
		}
	}
}
