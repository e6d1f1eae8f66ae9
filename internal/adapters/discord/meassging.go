package discord

import (
	"context"
	"errors"

	"github.com/bwmarrin/discordgo"
)

// código de "Unknown Webhook": todavía no hay respuesta a la interacción
const codeUnknownWebhook = 10015

// DeferEphemeral responde "pensando..." (para trabajos >3s)
func (c *Ctx) DeferEphemeral() error {
	err := c.API.InteractionRespond(c.Event.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags: discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		c.Log.Warn("defer ephemeral failed", "error", err)
	}
	return err
}

func (c *Ctx) ReplyEphemeral(content string, embeds ...*discordgo.MessageEmbed) {
	err := c.API.FollowupMessageCreate(c.Event.Interaction, &discordgo.WebhookParams{
		Content: content,
		Embeds:  embeds,
		Flags:   discordgo.MessageFlagsEphemeral,
	})
	if err == nil {
		return
	}

	// Fallback sólo si todavía no hay respuesta (webhook desconocido)
	var reqErr *discordgo.RESTError
	if errors.As(err, &reqErr) && reqErr.Message != nil && reqErr.Message.Code == codeUnknownWebhook {
		err = c.API.InteractionRespond(c.Event.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Content: content,
				Flags:   discordgo.MessageFlagsEphemeral,
				Embeds:  embeds,
			},
		})
		if err == nil {
			return
		}
	}
	c.Log.Warn("reply ephemeral failed", "error", err)
}

// Say manda un mensaje público a un canal; los errores sólo se loguean.
func (c *Ctx) Say(ctx context.Context, channelID, content string) {
	if channelID == "" {
		return
	}
	if err := c.API.ChannelMessageSend(ctx, channelID, content); err != nil {
		c.Log.Warn("channel message failed", "channel_id", channelID, "error", err)
	}
}
