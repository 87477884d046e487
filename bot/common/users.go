package common

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// InteractionUser returns the user behind an interaction, whether it came
// from a guild (Member set) or a direct message (User set)
func InteractionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}

// InteractionUserID returns the ID of the interaction's user, or "" when unknown
func InteractionUserID(i *discordgo.InteractionCreate) string {
	if user := InteractionUser(i); user != nil {
		return user.ID
	}
	return ""
}

// InteractionName returns the command name or custom ID that triggered the interaction
func InteractionName(i *discordgo.InteractionCreate) string {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		return i.ApplicationCommandData().Name
	case discordgo.InteractionMessageComponent:
		return i.MessageComponentData().CustomID
	case discordgo.InteractionModalSubmit:
		return i.ModalSubmitData().CustomID
	default:
		return fmt.Sprintf("interaction_%d", i.Type)
	}
}

// GetUserMention returns a Discord mention string for a user
func GetUserMention(userID string) string {
	return "<@" + userID + ">"
}
