package discord

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"

	"github.com/marketingnexustrading-arch/TeamBot/internal/app/service"
)

const restoreTimeout = 30 * time.Second

type Router struct {
	s   *discordgo.Session
	api chatAPI
	// guildID vacío: el bot atiende todos los guilds donde esté
	guildID string

	dir     *service.Directory
	limiter ClickLimiter
	log     *slog.Logger

	commands   []Command
	components map[string]Handler
}

func NewRouter(s *discordgo.Session, guildID string, dir *service.Directory, limiter ClickLimiter, log *slog.Logger) *Router {
	r := newRouter(sessionAPI{s: s}, guildID, dir, limiter, log)
	r.s = s
	return r
}

func newRouter(api chatAPI, guildID string, dir *service.Directory, limiter ClickLimiter, log *slog.Logger) *Router {
	r := &Router{
		api:     api,
		guildID: guildID,
		dir:     dir,
		limiter: limiter,
		log:     log,
	}
	r.commands = r.buildCommands()
	r.components = r.buildComponents()
	return r
}

// Register publica los slash commands: en el guild configurado o globales.
func (r *Router) Register() error {
	appID := r.s.State.User.ID
	for _, cmd := range applicationCommands(r.commands) {
		if _, err := r.s.ApplicationCommandCreate(appID, r.guildID, cmd); err != nil {
			return fmt.Errorf("register /%s: %w", cmd.Name, err)
		}
	}
	r.log.Info("slash commands registered", "count", len(r.commands), "guild_id", r.guildID)
	return nil
}

func (r *Router) Handlers() {
	r.s.AddHandler(func(s *discordgo.Session, ev *discordgo.Ready) {
		r.log.Info("gateway ready", "user", ev.User.Username, "guilds", len(ev.Guilds))
	})

	// Restaurar apenas llega el guild, así el primer click no paga la validación.
	r.s.AddHandler(func(s *discordgo.Session, ev *discordgo.GuildCreate) {
		if !r.serves(ev.ID) {
			return
		}
		go r.restore(ev.ID)
	})

	r.s.AddHandler(func(s *discordgo.Session, ic *discordgo.InteractionCreate) {
		if ic.GuildID != "" && !r.serves(ic.GuildID) {
			return
		}
		switch ic.Type {
		case discordgo.InteractionApplicationCommand:
			r.handleSlashCommand(ic)
		case discordgo.InteractionMessageComponent:
			r.handleMessageComponent(ic)
		}
	})
}

func (r *Router) serves(guildID string) bool {
	return r.guildID == "" || guildID == r.guildID
}

func (r *Router) restore(guildID string) {
	ctx, cancel := context.WithTimeout(context.Background(), restoreTimeout)
	defer cancel()
	if _, err := r.dir.For(ctx, guildID); err != nil {
		r.log.Error("restore failed, will retry on next request", "guild_id", guildID, "error", err)
	}
}

// ---------- helpers ----------

func (r *Router) newCtx(ic *discordgo.InteractionCreate) *Ctx {
	userID := interactionUserID(ic)
	return &Ctx{
		Log:     r.log.With("corr_id", uuid.NewString(), "guild_id", ic.GuildID, "user_id", userID),
		API:     r.api,
		Event:   ic,
		GuildID: ic.GuildID,
		UserID:  userID,
	}
}

func (r *Router) recoverHandler(c *Ctx) {
	if rec := recover(); rec != nil {
		c.Log.Error("panic in interaction handler", "panic", rec)
		c.ReplyEphemeral("❌ Ocurrió un error inesperado procesando la acción. Contactá a un administrador.")
	}
}

// interactionUserID: en guilds viene en Member, en DMs en User.
func interactionUserID(ic *discordgo.InteractionCreate) string {
	if ic.Member != nil && ic.Member.User != nil {
		return ic.Member.User.ID
	}
	if ic.User != nil {
		return ic.User.ID
	}
	return ""
}
