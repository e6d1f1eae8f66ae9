package discord

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"
)

const componentTimeout = 12 * time.Second

func (r *Router) handleMessageComponent(ic *discordgo.InteractionCreate) {
	data := ic.MessageComponentData()
	c := r.newCtx(ic)
	c.Log = c.Log.With("custom_id", data.CustomID)

	defer r.recoverHandler(c)

	h, ok := r.components[data.CustomID]
	if !ok {
		c.Log.Debug("component without handler")
		return
	}

	_ = c.DeferEphemeral()
	if c.GuildID == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), componentTimeout)
	defer cancel()

	defer step(c.Log, "component."+data.CustomID)()
	h(ctx, c)
}
