package discord

import (
	"context"
	"log/slog"

	"github.com/bwmarrin/discordgo"
)

// Ctx es lo que recibe cada handler: la interacción ya resuelta a guild/usuario
// y un logger con el correlation id.
type Ctx struct {
	Log     *slog.Logger
	API     chatAPI
	Event   *discordgo.InteractionCreate
	GuildID string
	UserID  string
}

type Handler func(ctx context.Context, c *Ctx)

type Command struct {
	Name        string
	Description string
	// AdminOnly: Discord lo oculta a no-admins y además se verifica al ejecutar
	AdminOnly bool
	Handler   Handler
}
