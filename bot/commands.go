package bot

import (
	"fmt"

	"rifa/bot/features/raffle"
	"rifa/domain/entities"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// CommandRaffle is the only slash command the bot exposes
const CommandRaffle = "rifa"

func raffleCommand() *discordgo.ApplicationCommand {
	minTotal := float64(1)

	return &discordgo.ApplicationCommand{
		Name:        CommandRaffle,
		Description: "Escolha seus números da rifa",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        raffle.SubcommandOpen,
				Description: "Abre o painel de números",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        raffle.SubcommandHistory,
				Description: "Mostra as compras confirmadas nesta sessão",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        raffle.SubcommandConfigure,
				Description: "Altera preço, total de números ou dados do prêmio",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        raffle.OptionPrice,
						Description: "Valor por número, ex: 10,00",
					},
					{
						Type:        discordgo.ApplicationCommandOptionInteger,
						Name:        raffle.OptionTotal,
						Description: "Quantidade total de números",
						MinValue:    &minTotal,
						MaxValue:    float64(entities.MaxTotalNumbers),
					},
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        raffle.OptionTitle,
						Description: "Nome do prêmio",
						MaxLength:   256,
					},
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        raffle.OptionDescription,
						Description: "Descrição do prêmio",
						MaxLength:   1024,
					},
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        raffle.OptionImages,
						Description: "URLs de imagens separadas por vírgula",
					},
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        raffle.OptionDrawDate,
						Description: "Data do sorteio, ex: 24/12/2026 20:00",
					},
				},
			},
		},
	}
}

// registerCommands registers the slash commands with Discord, scoped to
// GuildID when one is configured
func (b *Bot) registerCommands() error {
	commands := []*discordgo.ApplicationCommand{raffleCommand()}

	for _, cmd := range commands {
		_, err := b.session.ApplicationCommandCreate(b.session.State.User.ID, b.config.GuildID, cmd)
		if err != nil {
			return fmt.Errorf("cannot create '%s' command: %w", cmd.Name, err)
		}
		log.WithFields(log.Fields{
			"command": cmd.Name,
			"guild":   b.config.GuildID,
		}).Info("Registered slash command")
	}

	return nil
}
