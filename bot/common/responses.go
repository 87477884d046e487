package common

import (
	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// MessageView is a complete ephemeral message: one embed, its components
// and any attached files. A view is rendered once per response because file
// readers are consumed on send.
type MessageView struct {
	Embed      *discordgo.MessageEmbed
	Components []discordgo.MessageComponent
	Files      []*discordgo.File
}

func (v MessageView) responseData(flags discordgo.MessageFlags) *discordgo.InteractionResponseData {
	components := v.Components
	if components == nil {
		components = []discordgo.MessageComponent{}
	}
	return &discordgo.InteractionResponseData{
		Embeds:      []*discordgo.MessageEmbed{v.Embed},
		Components:  components,
		Files:       v.Files,
		Attachments: &[]*discordgo.MessageAttachment{},
		Flags:       flags,
	}
}

// DeferResponse sends a deferred response to give more time for processing
func DeferResponse(s *discordgo.Session, i *discordgo.InteractionCreate, ephemeral bool) error {
	var flags discordgo.MessageFlags
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}

	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags: flags,
		},
	})
}

// RespondWithView sends a new ephemeral message
func RespondWithView(s *discordgo.Session, i *discordgo.InteractionCreate, view MessageView) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: view.responseData(discordgo.MessageFlagsEphemeral),
	})
}

// UpdateWithView replaces the message a component belongs to
func UpdateWithView(s *discordgo.Session, i *discordgo.InteractionCreate, view MessageView) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: view.responseData(0),
	})
}

// EditView edits the original response of an earlier interaction. Tokens
// stay valid for 15 minutes, which outlives a payment window.
func EditView(s *discordgo.Session, interaction *discordgo.Interaction, view MessageView) error {
	components := view.Components
	if components == nil {
		components = []discordgo.MessageComponent{}
	}
	_, err := s.InteractionResponseEdit(interaction, &discordgo.WebhookEdit{
		Embeds:      &[]*discordgo.MessageEmbed{view.Embed},
		Components:  &components,
		Files:       view.Files,
		Attachments: &[]*discordgo.MessageAttachment{},
	})
	return err
}

// RespondWithModal opens a modal dialog
func RespondWithModal(s *discordgo.Session, i *discordgo.InteractionCreate, modal *discordgo.InteractionResponseData) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: modal,
	})
}

// RespondWithSuccess sends a success message
func RespondWithSuccess(s *discordgo.Session, i *discordgo.InteractionCreate, message string, ephemeral bool) error {
	data := &discordgo.InteractionResponseData{
		Content: "✅ " + message,
	}

	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}

	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
}

// FollowUpWithSuccess sends a success message as a follow-up
func FollowUpWithSuccess(s *discordgo.Session, i *discordgo.InteractionCreate, message string, ephemeral bool) {
	params := &discordgo.WebhookParams{
		Content: "✅ " + message,
	}

	if ephemeral {
		params.Flags = discordgo.MessageFlagsEphemeral
	}

	_, err := s.FollowupMessageCreate(i.Interaction, false, params)
	if err != nil {
		log.Errorf("Error sending follow-up success message: %v", err)
	}
}

// DisableComponents disables all buttons and select menus in a message
func DisableComponents(components []discordgo.MessageComponent) []discordgo.MessageComponent {
	disabled := make([]discordgo.MessageComponent, len(components))

	for i, component := range components {
		actionRow, ok := component.(discordgo.ActionsRow)
		if !ok {
			disabled[i] = component
			continue
		}

		newRow := discordgo.ActionsRow{
			Components: make([]discordgo.MessageComponent, len(actionRow.Components)),
		}
		for j, comp := range actionRow.Components {
			switch c := comp.(type) {
			case discordgo.Button:
				c.Disabled = true
				newRow.Components[j] = c
			case discordgo.SelectMenu:
				c.Disabled = true
				newRow.Components[j] = c
			default:
				newRow.Components[j] = comp
			}
		}
		disabled[i] = newRow
	}

	return disabled
}
