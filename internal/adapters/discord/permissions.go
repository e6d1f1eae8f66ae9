package discord

import (
	"context"

	"github.com/bwmarrin/discordgo"
)

// requireAdmin corta la ejecución (y avisa) si quien invoca no es admin.
func (r *Router) requireAdmin(ctx context.Context, c *Ctx) bool {
	ownerID := c.API.GuildOwnerID(c.GuildID)

	m := c.Event.Member
	var roles []*discordgo.Role
	// sólo hace falta ir a la API si el payload no trae los permisos calculados
	if m != nil && m.Permissions == 0 {
		roles, _ = c.API.GuildRoles(ctx, c.GuildID)
	}

	if isAdmin(m, ownerID, roles) {
		return true
	}
	c.ReplyEphemeral("🔒 No tenés permisos para esta acción.")
	return false
}

func isAdmin(m *discordgo.Member, ownerID string, roles []*discordgo.Role) bool {
	if m == nil || m.User == nil {
		return false
	}
	// Owner
	if ownerID != "" && m.User.ID == ownerID {
		return true
	}
	// Permisos que Discord calcula en la interacción
	if m.Permissions&discordgo.PermissionAdministrator != 0 {
		return true
	}
	// Administrator bit por roles
	var perms int64
	for _, rid := range m.Roles {
		for _, ro := range roles {
			if ro.ID == rid {
				perms |= ro.Permissions
			}
		}
	}
	return perms&discordgo.PermissionAdministrator != 0
}
