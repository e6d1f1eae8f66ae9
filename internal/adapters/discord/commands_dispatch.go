// Lógica de InteractionApplicationCommand: sólo interacción con el usuario,
// las reglas de asignación viven en service.TeamService.
package discord

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"
)

const slashTimeout = 12 * time.Second

func (r *Router) handleSlashCommand(ic *discordgo.InteractionCreate) {
	data := ic.ApplicationCommandData()
	c := r.newCtx(ic)
	c.Log = c.Log.With("command", data.Name)
	c.Log.Info("slash command")

	defer r.recoverHandler(c)

	cmd, ok := r.commandByName(data.Name)
	if !ok {
		c.Log.Warn("unknown command")
		return
	}

	_ = c.DeferEphemeral()
	if c.GuildID == "" {
		c.ReplyEphemeral("ℹ️ Este comando sólo funciona dentro de un servidor.")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), slashTimeout)
	defer cancel()

	if cmd.AdminOnly && !r.requireAdmin(ctx, c) {
		return
	}
	defer step(c.Log, "slash."+data.Name)()
	cmd.Handler(ctx, c)
}

func (r *Router) commandByName(name string) (Command, bool) {
	for _, c := range r.commands {
		if c.Name == name {
			return c, true
		}
	}
	return Command{}, false
}

// ---------- handlers ----------

// cmdJoin atiende /join y el botón del panel; los dos comparten la ventana
// anti doble-click por usuario.
func (r *Router) cmdJoin(ctx context.Context, c *Ctx) {
	if !r.limiter.Allow(ctx, c.UserID) {
		c.ReplyEphemeral("⏳ Esperá un segundo…")
		return
	}

	svc, err := r.dir.For(ctx, c.GuildID)
	if err != nil {
		c.Log.Error("team service unavailable", "error", err)
		c.ReplyEphemeral(userMessage(err))
		return
	}

	res, err := svc.Join(ctx, c.UserID)
	if err != nil {
		c.Log.Info("join rejected", "error", err)
		c.ReplyEphemeral(userMessage(err))
		return
	}

	// Lo que sigue es best effort: el usuario ya quedó registrado en el team.
	if err := c.API.GuildMemberRoleAdd(ctx, c.GuildID, c.UserID, res.Resources.MemberRoleID); err != nil {
		c.Log.Warn("grant member role failed", "team_id", res.TeamID, "role_id", res.Resources.MemberRoleID, "error", err)
	}
	if res.Created {
		c.Say(ctx, res.Resources.TextChannelID, welcomeMessage(res))
	}
	c.Say(ctx, res.Resources.TextChannelID, joinAnnouncement(c.UserID, res))
	c.ReplyEphemeral(joinReply(res))
}

func (r *Router) cmdLeave(ctx context.Context, c *Ctx) {
	svc, err := r.dir.For(ctx, c.GuildID)
	if err != nil {
		c.Log.Error("team service unavailable", "error", err)
		c.ReplyEphemeral(userMessage(err))
		return
	}

	res, err := svc.Leave(ctx, c.UserID)
	if err != nil {
		c.ReplyEphemeral(userMessage(err))
		return
	}
	if res.MemberRoleID != "" {
		if err := c.API.GuildMemberRoleRemove(ctx, c.GuildID, c.UserID, res.MemberRoleID); err != nil {
			c.Log.Warn("revoke member role failed", "team_id", res.TeamID, "role_id", res.MemberRoleID, "error", err)
		}
	}
	c.ReplyEphemeral(leaveReply(res))
}

func (r *Router) cmdTeams(ctx context.Context, c *Ctx) {
	svc, err := r.dir.For(ctx, c.GuildID)
	if err != nil {
		c.Log.Error("team service unavailable", "error", err)
		c.ReplyEphemeral(userMessage(err))
		return
	}
	info, err := svc.Info(ctx)
	if err != nil {
		c.ReplyEphemeral(userMessage(err))
		return
	}
	c.ReplyEphemeral("", teamsEmbed(info))
}

func (r *Router) cmdSetupTicket(ctx context.Context, c *Ctx) {
	svc, err := r.dir.For(ctx, c.GuildID)
	if err != nil {
		c.Log.Error("team service unavailable", "error", err)
		c.ReplyEphemeral(userMessage(err))
		return
	}
	categoryID, err := svc.EnsureCategory(ctx)
	if err != nil {
		c.Log.Error("ensure category failed", "error", err)
		c.ReplyEphemeral(userMessage(err))
		return
	}
	if err := c.API.ChannelMessageSendComplex(ctx, c.Event.ChannelID, ticketPanel(svc.Capacity())); err != nil {
		c.Log.Error("publish ticket panel failed", "channel_id", c.Event.ChannelID, "error", err)
		c.ReplyEphemeral("⚠️ No pude publicar el panel en este canal. Revisá los permisos del bot.")
		return
	}
	c.ReplyEphemeral("✅ Panel de teams publicado en este canal.\n📁 Categoría: <#" + categoryID + ">")
}
