package raffle

import (
	"fmt"
	"strings"
	"time"

	"rifa/application"
	"rifa/bot/common"
	"rifa/domain/entities"

	"github.com/bwmarrin/discordgo"
	"github.com/govalues/decimal"
)

// gridImageName is the attachment the panel embed points at
const gridImageName = "grade.png"

const (
	panelSelectedLimit  = 40
	summaryNumbersLimit = 150
	historyPurchases    = 8
)

// CreatePanelEmbed creates the main raffle embed for one block of the grid
func CreatePanelEmbed(data panelData) *discordgo.MessageEmbed {
	cfg := data.Config

	fields := []*discordgo.MessageEmbedField{
		{
			Name:   "Valor por número",
			Value:  common.FormatCurrency(cfg.PricePerNumber),
			Inline: true,
		},
		{
			Name:   "Vendidos",
			Value:  fmt.Sprintf("%d de %d", data.PurchasedCount, cfg.TotalNumbers),
			Inline: true,
		},
	}
	if cfg.DrawDate != nil {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:   "Sorteio",
			Value:  common.FormatDiscordTimestamp(*cfg.DrawDate, "F"),
			Inline: true,
		})
	}

	fields = append(fields,
		&discordgo.MessageEmbedField{
			Name: fmt.Sprintf("Números %s a %s", entities.FormatTicketNumber(data.Page.Start), entities.FormatTicketNumber(data.Page.End)),
			Value: fmt.Sprintf("🟩 %d disponíveis · 🟥 %d vendidos · 🟦 %d selecionados\nBloco atual: **%s a %s**",
				data.PageStats.Available, data.PageStats.Purchased, data.PageStats.Selected,
				entities.FormatTicketNumber(data.Block.Start), entities.FormatTicketNumber(data.Block.End)),
		},
		&discordgo.MessageEmbedField{
			Name:  fmt.Sprintf("Seus números (%d)", len(data.Selected)),
			Value: common.FormatNumberList(data.Selected, panelSelectedLimit),
		},
		&discordgo.MessageEmbedField{
			Name:   "Total",
			Value:  fmt.Sprintf("**%s**", common.FormatCurrency(data.Total)),
			Inline: true,
		},
	)

	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("🎟️ %s", cfg.Title),
		Description: cfg.Description,
		Color:       common.ColorPrimary,
		Fields:      fields,
		Footer: &discordgo.MessageEmbedFooter{
			Text: "Escolha no menu, sorteie com 🎲 ou digite um número",
		},
	}

	if data.HasImage {
		embed.Image = &discordgo.MessageEmbedImage{URL: "attachment://" + gridImageName}
	}
	if url := firstImageURL(cfg.Images); url != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: url}
	}

	return embed
}

// CreateSummaryEmbed shows the reserved purchase before payment starts
func CreateSummaryEmbed(cfg entities.RaffleConfig, purchase *entities.Purchase, reservation time.Duration) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "Resumo da compra",
		Description: cfg.Title,
		Color:       common.ColorInfo,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:  "Números",
				Value: common.FormatNumberList(purchase.Numbers, summaryNumbersLimit),
			},
			{
				Name:   "Quantidade",
				Value:  fmt.Sprintf("%d", purchase.Count()),
				Inline: true,
			},
			{
				Name:   "Valor unitário",
				Value:  common.FormatCurrency(cfg.PricePerNumber),
				Inline: true,
			},
			{
				Name:   "Total",
				Value:  fmt.Sprintf("**%s**", common.FormatCurrency(purchase.Amount)),
				Inline: true,
			},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Depois de gerar o PIX seus números ficam reservados por %s", common.FormatDuration(reservation)),
		},
	}
}

// CreatePaymentEmbed shows the PIX code and the time left to pay
func CreatePaymentEmbed(purchase *entities.Purchase, snap application.PaymentSnapshot) *discordgo.MessageEmbed {
	status := "⏳ Aguardando pagamento"
	color := common.ColorPix
	if snap.State == application.PaymentStateProcessing {
		status = "🔄 Processando pagamento..."
		color = common.ColorWarning
	}

	fields := []*discordgo.MessageEmbedField{
		{
			Name:   "Valor",
			Value:  fmt.Sprintf("**%s**", common.FormatCurrency(purchase.Amount)),
			Inline: true,
		},
		{
			Name:   "Números",
			Value:  fmt.Sprintf("%d", purchase.Count()),
			Inline: true,
		},
		{
			Name:  "PIX copia e cola",
			Value: fmt.Sprintf("```\n%s\n```", purchase.PixCode),
		},
	}
	if snap.State == application.PaymentStatePending {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name: "Expira",
			Value: fmt.Sprintf("%s (%s restantes)",
				common.FormatDiscordTimestamp(snap.Deadline, "R"), common.FormatCountdown(snap.Remaining)),
		})
	}
	fields = append(fields, &discordgo.MessageEmbedField{
		Name:  "Status",
		Value: status,
	})

	return &discordgo.MessageEmbed{
		Title:       "Pagamento via PIX",
		Description: "Copie o código abaixo e pague no app do seu banco.",
		Color:       color,
		Fields:      fields,
		Footer: &discordgo.MessageEmbedFooter{
			Text: purchase.ID,
		},
	}
}

// CreateConfirmedEmbed celebrates a confirmed purchase
func CreateConfirmedEmbed(purchase *entities.Purchase) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "🎉 Pagamento confirmado!",
		Description: "Seus números estão garantidos. Boa sorte!",
		Color:       common.ColorSuccess,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:  "Números",
				Value: common.FormatNumberList(purchase.Numbers, summaryNumbersLimit),
			},
			{
				Name:   "Valor pago",
				Value:  common.FormatCurrency(purchase.Amount),
				Inline: true,
			},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: purchase.ID,
		},
	}
}

// CreateExpiredEmbed tells the user the reservation ran out
func CreateExpiredEmbed() *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "⌛ Tempo esgotado",
		Description: "A reserva expirou antes do pagamento. Seus números continuam selecionados e você pode tentar de novo.",
		Color:       common.ColorWarning,
	}
}

// CreateHistoryEmbed is the user dashboard: totals plus the latest confirmed purchases
func CreateHistoryEmbed(cfg entities.RaffleConfig, history []*entities.Purchase, numbers int, spent decimal.Decimal) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       "📋 Meus números",
		Description: cfg.Title,
		Color:       common.ColorInfo,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:   "Números comprados",
				Value:  fmt.Sprintf("%d", numbers),
				Inline: true,
			},
			{
				Name:   "Total gasto",
				Value:  common.FormatCurrency(spent),
				Inline: true,
			},
			{
				Name:   "Compras",
				Value:  fmt.Sprintf("%d", len(history)),
				Inline: true,
			},
		},
	}

	if len(history) == 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Nenhuma compra ainda",
			Value: "Escolha seus números da sorte no painel.",
		})
		return embed
	}

	// Newest first
	shown := 0
	for i := len(history) - 1; i >= 0 && shown < historyPurchases; i-- {
		p := history[i]
		lines := []string{
			"Números: " + common.FormatNumberList(p.Numbers, 30),
			"Valor: " + common.FormatCurrency(p.Amount),
			"Criada " + common.FormatDiscordTimestamp(p.CreatedAt, "f"),
		}
		if p.ConfirmedAt != nil {
			lines = append(lines, "Confirmada "+common.FormatDiscordTimestamp(*p.ConfirmedAt, "f"))
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  p.ID,
			Value: truncate(strings.Join(lines, "\n"), common.MaxEmbedFieldLength),
		})
		shown++
	}
	if hidden := len(history) - shown; hidden > 0 {
		embed.Footer = &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("e mais %d %s", hidden, common.Pluralize(hidden, "compra", "compras")),
		}
	}

	return embed
}

// CreateConfigEmbed confirms a configuration override
func CreateConfigEmbed(cfg entities.RaffleConfig) *discordgo.MessageEmbed {
	images := "Nenhuma"
	if len(cfg.Images) > 0 {
		images = strings.Join(cfg.Images, "\n")
	}

	return &discordgo.MessageEmbed{
		Title:       "⚙️ Rifa configurada",
		Description: cfg.Title,
		Color:       common.ColorSuccess,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Valor por número", Value: common.FormatCurrency(cfg.PricePerNumber), Inline: true},
			{Name: "Total de números", Value: fmt.Sprintf("%d", cfg.TotalNumbers), Inline: true},
			{Name: "Descrição", Value: truncate(orDash(cfg.Description), common.MaxEmbedFieldLength)},
			{Name: "Imagens", Value: truncate(images, common.MaxEmbedFieldLength)},
		},
	}
}

func firstImageURL(images []string) string {
	for _, img := range images {
		if strings.HasPrefix(img, "https://") || strings.HasPrefix(img, "http://") {
			return img
		}
	}
	return ""
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
