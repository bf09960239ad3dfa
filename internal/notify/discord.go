// Package notify delivers core events to Discord: join and watch alerts into
// tenant channels, and the periodic delete-and-repost occupancy summaries.
package notify

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// Messenger is the outbound message surface the dispatcher writes to. It
// exists so tests can capture traffic without a gateway connection.
type Messenger interface {
	// SendEmbed posts a message and returns its identifier.
	SendEmbed(ctx context.Context, channelID, content string, embed *discordgo.MessageEmbed) (string, error)
	// DeleteMessage removes a previously posted message.
	DeleteMessage(ctx context.Context, channelID, messageID string) error
}

// DiscordMessenger implements Messenger on a discordgo session.
type DiscordMessenger struct {
	session *discordgo.Session
}

// NewDiscordMessenger wraps an open discordgo session.
func NewDiscordMessenger(session *discordgo.Session) *DiscordMessenger {
	return &DiscordMessenger{session: session}
}

// SendEmbed posts content plus an embed to the channel.
func (m *DiscordMessenger) SendEmbed(ctx context.Context, channelID, content string, embed *discordgo.MessageEmbed) (string, error) {
	msg, err := m.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content: content,
		Embeds:  []*discordgo.MessageEmbed{embed},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("discord: send to %s: %w", channelID, err)
	}
	return msg.ID, nil
}

// DeleteMessage removes a message from the channel.
func (m *DiscordMessenger) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	if err := m.session.ChannelMessageDelete(channelID, messageID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("discord: delete %s in %s: %w", messageID, channelID, err)
	}
	return nil
}

// Compile-time interface check.
var _ Messenger = (*DiscordMessenger)(nil)
