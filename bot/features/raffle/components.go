package raffle

import (
	"fmt"
	"strconv"
	"strings"

	"rifa/bot/common"
	"rifa/domain/entities"

	"github.com/bwmarrin/discordgo"
	"github.com/govalues/decimal"
)

// CustomIDPrefix marks every component and modal owned by this feature
const CustomIDPrefix = "rifa_"

// BlockSize is how many numbers one select menu covers
const BlockSize = common.MaxSelectOptions

const blocksPerPage = entities.RangeSize / BlockSize

// Component actions
const (
	actionPick     = "pick"
	actionNav      = "nav"
	actionRandom   = "random"
	actionManual   = "manual"
	actionClear    = "clear"
	actionHistory  = "history"
	actionBuy      = "buy"
	actionSummary  = "summary"
	actionPay      = "pay"
	actionPayment  = "payment"
	actionPanel    = "panel"
	manualModalArg = "modal"
	manualInputID  = "number"
)

// QuickPickCounts are the random selection shortcuts shown on the panel
var QuickPickCounts = []int{2, 5, 10, 20}

// componentID is a parsed custom ID: rifa_<action>[_<arg>...]_<block>.
// The block the user was looking at travels with every component so the
// panel can be re-rendered without server-side view state.
type componentID struct {
	Action string
	Args   []string
	Block  int
}

func newComponentID(action string, block int, args ...string) string {
	parts := append([]string{action}, args...)
	parts = append(parts, strconv.Itoa(block))
	return CustomIDPrefix + strings.Join(parts, "_")
}

func parseComponentID(customID string) (componentID, error) {
	rest, ok := strings.CutPrefix(customID, CustomIDPrefix)
	if !ok {
		return componentID{}, fmt.Errorf("custom ID %q is not a raffle component", customID)
	}

	parts := strings.Split(rest, "_")
	if len(parts) < 2 {
		return componentID{}, fmt.Errorf("custom ID %q has no block", customID)
	}

	block, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil || block < 0 {
		return componentID{}, fmt.Errorf("custom ID %q has an invalid block", customID)
	}

	return componentID{
		Action: parts[0],
		Args:   parts[1 : len(parts)-1],
		Block:  block,
	}, nil
}

// Arg returns the i-th argument or "" when absent
func (c componentID) Arg(i int) string {
	if i < len(c.Args) {
		return c.Args[i]
	}
	return ""
}

func blockCount(total int) int {
	if total <= 0 {
		return 0
	}
	return (total + BlockSize - 1) / BlockSize
}

func clampBlock(block, total int) int {
	last := blockCount(total) - 1
	if last < 0 || block < 0 {
		return 0
	}
	return min(block, last)
}

// blockRange returns the numbers covered by a block, clamped to the raffle
func blockRange(block, total int) entities.NumberRange {
	block = clampBlock(block, total)
	return entities.NumberRange{
		Index: block,
		Start: block*BlockSize + 1,
		End:   min((block+1)*BlockSize, total),
	}
}

// blockFor returns the block containing n
func blockFor(n int) int {
	if n < 1 {
		return 0
	}
	return (n - 1) / BlockSize
}

func pageForBlock(block, total int) entities.NumberRange {
	page, _ := entities.RangeAt(clampBlock(block, total)/blocksPerPage, total)
	return page
}

// panelData is everything the main panel shows
type panelData struct {
	Config         entities.RaffleConfig
	Block          entities.NumberRange
	Page           entities.NumberRange
	PageStats      entities.RangeStats
	BlockStates    []entities.NumberState
	Selected       []int
	Total          decimal.Decimal
	PurchasedCount int
	HasImage       bool
}

// CreatePanelComponents builds the select menu and button rows of the panel
func CreatePanelComponents(data panelData) []discordgo.MessageComponent {
	block := data.Block.Index
	total := data.Config.TotalNumbers
	last := blockCount(total) - 1

	var rows []discordgo.MessageComponent

	if menu, ok := blockSelectMenu(data); ok {
		rows = append(rows, discordgo.ActionsRow{Components: []discordgo.MessageComponent{menu}})
	}

	rows = append(rows, discordgo.ActionsRow{
		Components: []discordgo.MessageComponent{
			discordgo.Button{
				Label:    "⏮ Página",
				Style:    discordgo.SecondaryButton,
				CustomID: newComponentID(actionNav, max(block-blocksPerPage, 0), "pgprev"),
				Disabled: data.Page.Index == 0,
			},
			discordgo.Button{
				Label:    "◀ Bloco",
				Style:    discordgo.SecondaryButton,
				CustomID: newComponentID(actionNav, max(block-1, 0), "prev"),
				Disabled: block == 0,
			},
			discordgo.Button{
				Label:    "Bloco ▶",
				Style:    discordgo.SecondaryButton,
				CustomID: newComponentID(actionNav, min(block+1, last), "next"),
				Disabled: block >= last,
			},
			discordgo.Button{
				Label:    "Página ⏭",
				Style:    discordgo.SecondaryButton,
				CustomID: newComponentID(actionNav, min(block+blocksPerPage, last), "pgnext"),
				Disabled: data.Page.End >= total,
			},
			discordgo.Button{
				Label:    "Digitar número",
				Style:    discordgo.PrimaryButton,
				CustomID: newComponentID(actionManual, block),
				Emoji:    &discordgo.ComponentEmoji{Name: "🔢"},
			},
		},
	})

	quick := make([]discordgo.MessageComponent, 0, len(QuickPickCounts)+1)
	for _, count := range QuickPickCounts {
		quick = append(quick, discordgo.Button{
			Label:    fmt.Sprintf("+%d", count),
			Style:    discordgo.SecondaryButton,
			CustomID: newComponentID(actionRandom, block, strconv.Itoa(count)),
			Emoji:    &discordgo.ComponentEmoji{Name: "🎲"},
		})
	}
	quick = append(quick, discordgo.Button{
		Label:    "Limpar",
		Style:    discordgo.DangerButton,
		CustomID: newComponentID(actionClear, block),
		Disabled: len(data.Selected) == 0,
	})
	rows = append(rows, discordgo.ActionsRow{Components: quick})

	buyLabel := "Comprar"
	if n := len(data.Selected); n > 0 {
		buyLabel = fmt.Sprintf("Comprar %d %s (%s)", n, common.Pluralize(n, "número", "números"), common.FormatCurrency(data.Total))
	}
	rows = append(rows, discordgo.ActionsRow{
		Components: []discordgo.MessageComponent{
			discordgo.Button{
				Label:    "Meus números",
				Style:    discordgo.SecondaryButton,
				CustomID: newComponentID(actionHistory, block),
				Emoji:    &discordgo.ComponentEmoji{Name: "📋"},
			},
			discordgo.Button{
				Label:    buyLabel,
				Style:    discordgo.SuccessButton,
				CustomID: newComponentID(actionBuy, block),
				Emoji:    &discordgo.ComponentEmoji{Name: "🛒"},
				Disabled: len(data.Selected) == 0,
			},
		},
	})

	return rows
}

// blockSelectMenu lists the numbers of the block that can still be picked.
// Purchased numbers are left out; Discord menus cannot disable options.
func blockSelectMenu(data panelData) (discordgo.SelectMenu, bool) {
	options := make([]discordgo.SelectMenuOption, 0, len(data.BlockStates))
	for _, state := range data.BlockStates {
		if state.Status == entities.NumberStatusPurchased {
			continue
		}
		options = append(options, discordgo.SelectMenuOption{
			Label:   entities.FormatTicketNumber(state.Number),
			Value:   strconv.Itoa(state.Number),
			Default: state.Status == entities.NumberStatusSelected,
		})
	}
	if len(options) == 0 {
		return discordgo.SelectMenu{}, false
	}

	minValues := 0
	return discordgo.SelectMenu{
		MenuType: discordgo.StringSelectMenu,
		CustomID: newComponentID(actionPick, data.Block.Index),
		Placeholder: fmt.Sprintf("Escolha números de %s a %s",
			entities.FormatTicketNumber(data.Block.Start), entities.FormatTicketNumber(data.Block.End)),
		MinValues: &minValues,
		MaxValues: len(options),
		Options:   options,
	}, true
}

// CreateManualModal asks for one number to add to the selection
func CreateManualModal(block, total int) *discordgo.InteractionResponseData {
	return &discordgo.InteractionResponseData{
		CustomID: newComponentID(actionManual, block, manualModalArg),
		Title:    "Digitar número",
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.TextInput{
						CustomID:    manualInputID,
						Label:       fmt.Sprintf("Número (1 a %d)", total),
						Style:       discordgo.TextInputShort,
						Placeholder: entities.FormatTicketNumber(min(42, total)),
						Required:    true,
						MinLength:   1,
						MaxLength:   len(strconv.Itoa(total)),
					},
				},
			},
		},
	}
}

// CreateSummaryComponents offers to pay for or discard the reserved purchase
func CreateSummaryComponents(block int) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Cancelar",
					Style:    discordgo.DangerButton,
					CustomID: newComponentID(actionSummary, block, "cancel"),
				},
				discordgo.Button{
					Label:    "Pagar com PIX",
					Style:    discordgo.SuccessButton,
					CustomID: newComponentID(actionPay, block),
					Emoji:    &discordgo.ComponentEmoji{Name: "💸"},
				},
			},
		},
	}
}

// CreatePaymentComponents lets the user abandon the payment or report it as done
func CreatePaymentComponents(block int) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Cancelar",
					Style:    discordgo.DangerButton,
					CustomID: newComponentID(actionPayment, block, "cancel"),
				},
				discordgo.Button{
					Label:    "Já paguei",
					Style:    discordgo.SuccessButton,
					CustomID: newComponentID(actionPayment, block, "confirm"),
					Emoji:    &discordgo.ComponentEmoji{Name: "✅"},
				},
			},
		},
	}
}

// CreateBackComponents returns to the panel at block
func CreateBackComponents(block int, label string) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    label,
					Style:    discordgo.PrimaryButton,
					CustomID: newComponentID(actionPanel, block),
				},
			},
		},
	}
}

// readModalValue extracts a text input value from a modal submission
func readModalValue(data discordgo.ModalSubmitInteractionData, inputID string) string {
	for _, comp := range data.Components {
		row, ok := comp.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, inner := range row.Components {
			if input, ok := inner.(*discordgo.TextInput); ok && input.CustomID == inputID {
				return strings.TrimSpace(input.Value)
			}
		}
	}
	return ""
}
