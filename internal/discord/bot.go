package discord

import (
	"bytes"
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"
)

// Bot posts game-state and summary messages through the Discord REST
// API. The underlying session is never opened as a gateway connection;
// only REST calls are used.
type Bot struct {
	session *discordgo.Session
	appID   string
}

// NewBot builds a REST-only bot client. appID is the application (client)
// ID used for Activity invites.
func NewBot(botToken, appID string) (*Bot, error) {
	if botToken == "" {
		return nil, fmt.Errorf("discord bot token not configured")
	}
	session, err := discordgo.New("Bot " + botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	return &Bot{session: session, appID: appID}, nil
}

// SendMessage posts content, an optional embed, and an optional PNG
// attachment to a channel. Returns the message ID.
func (b *Bot) SendMessage(channelID, content string, embed *discordgo.MessageEmbed, image []byte) (string, error) {
	send := &discordgo.MessageSend{Content: content}
	if embed != nil {
		send.Embeds = []*discordgo.MessageEmbed{embed}
	}
	if len(image) > 0 {
		send.Files = []*discordgo.File{{
			Name:        "wordwebs-state.png",
			ContentType: "image/png",
			Reader:      bytes.NewReader(image),
		}}
	}

	message, err := b.session.ChannelMessageSendComplex(channelID, send)
	if err != nil {
		return "", fmt.Errorf("discord send to channel %s: %w", channelID, err)
	}
	return message.ID, nil
}

// ReplaceMessage updates a previously posted message. Discord does not
// support editing attachments in place, so the old message is deleted
// and a new one posted; a failed delete is logged and the repost still
// happens.
func (b *Bot) ReplaceMessage(channelID, messageID, content string, embed *discordgo.MessageEmbed, image []byte) (string, error) {
	if messageID != "" {
		if err := b.session.ChannelMessageDelete(channelID, messageID); err != nil {
			log.Printf("Failed to delete message %s (continuing with repost): %v", messageID, err)
		}
	}
	return b.SendMessage(channelID, content, embed, image)
}

// ReplaceGameState posts or replaces a plain game-state message with a
// PNG attachment and no embed.
func (b *Bot) ReplaceGameState(channelID, messageID, content string, image []byte) (string, error) {
	return b.ReplaceMessage(channelID, messageID, content, nil, image)
}

// AddPlayButton creates a 24h Activity invite for the channel and edits
// the message to carry a link button pointing at it.
func (b *Bot) AddPlayButton(channelID, messageID string) error {
	invite, err := b.session.ChannelInviteCreate(channelID, discordgo.Invite{
		MaxAge:            86400,
		MaxUses:           0,
		TargetType:        discordgo.InviteTargetEmbeddedApplication,
		TargetApplication: &discordgo.Application{ID: b.appID},
	})
	if err != nil {
		return fmt.Errorf("failed to create activity invite: %w", err)
	}

	components := []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Style: discordgo.LinkButton,
					Label: "🎮 Play Now",
					URL:   "https://discord.gg/" + invite.Code,
				},
			},
		},
	}

	_, err = b.session.ChannelMessageEditComplex(&discordgo.MessageEdit{
		Channel:    channelID,
		ID:         messageID,
		Components: &components,
	})
	if err != nil {
		return fmt.Errorf("failed to edit message %s: %w", messageID, err)
	}
	return nil
}

// AvatarURL resolves a user's CDN avatar URL, empty when the lookup
// fails.
func (b *Bot) AvatarURL(userID string) string {
	user, err := b.session.User(userID)
	if err != nil {
		log.Printf("Failed to fetch discord user %s: %v", userID, err)
		return ""
	}
	return user.AvatarURL("128")
}
