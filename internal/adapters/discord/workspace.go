package discord

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/bwmarrin/discordgo"

	"github.com/marketingnexustrading-arch/TeamBot/internal/domain"
)

// Códigos JSON de Discord para recursos inexistentes.
const (
	codeUnknownChannel = 10003
	codeUnknownRole    = 10011
)

const (
	memberPerms = discordgo.PermissionViewChannel |
		discordgo.PermissionSendMessages |
		discordgo.PermissionVoiceConnect |
		discordgo.PermissionVoiceSpeak
	coachPerms = memberPerms | discordgo.PermissionManageMessages
)

// restAPI es el subconjunto REST de discordgo que usa el Workspace.
type restAPI interface {
	GuildChannels(ctx context.Context, guildID string) ([]*discordgo.Channel, error)
	GuildChannelCreateComplex(ctx context.Context, guildID string, data discordgo.GuildChannelCreateData) (*discordgo.Channel, error)
	Channel(ctx context.Context, channelID string) (*discordgo.Channel, error)
	ChannelDelete(ctx context.Context, channelID string) (*discordgo.Channel, error)
	GuildRoles(ctx context.Context, guildID string) ([]*discordgo.Role, error)
	GuildRoleCreate(ctx context.Context, guildID string, params *discordgo.RoleParams) (*discordgo.Role, error)
	GuildRoleDelete(ctx context.Context, guildID, roleID string) error
}

// Workspace crea y valida los roles/canales de los teams de un guild.
// Implementa service.Workspace y service.ResourceResolver.
type Workspace struct {
	api          restAPI
	guildID      string
	categoryName string
	log          *slog.Logger
}

func NewWorkspace(s *discordgo.Session, guildID, categoryName string, log *slog.Logger) *Workspace {
	return newWorkspace(sessionAPI{s: s}, guildID, categoryName, log)
}

func newWorkspace(api restAPI, guildID, categoryName string, log *slog.Logger) *Workspace {
	return &Workspace{
		api:          api,
		guildID:      guildID,
		categoryName: categoryName,
		log:          log.With("guild_id", guildID),
	}
}

// EnsureCategory reusa una categoría existente con el mismo nombre o la crea.
func (w *Workspace) EnsureCategory(ctx context.Context) (string, error) {
	chans, err := w.api.GuildChannels(ctx, w.guildID)
	if err != nil {
		return "", &domain.PlatformError{Op: "list channels", Err: err}
	}
	for _, ch := range chans {
		if ch.Type == discordgo.ChannelTypeGuildCategory && ch.Name == w.categoryName {
			return ch.ID, nil
		}
	}

	ch, err := w.api.GuildChannelCreateComplex(ctx, w.guildID, discordgo.GuildChannelCreateData{
		Name: w.categoryName,
		Type: discordgo.ChannelTypeGuildCategory,
	})
	if err != nil {
		return "", &domain.PlatformError{Op: "create category", Err: err}
	}
	w.log.Info("category created", "category_id", ch.ID, "name", w.categoryName)
	return ch.ID, nil
}

func (w *Workspace) CreateRole(ctx context.Context, name string, spec domain.RoleSpec) (string, error) {
	color := spec.Color
	mentionable := spec.Mentionable
	role, err := w.api.GuildRoleCreate(ctx, w.guildID, &discordgo.RoleParams{
		Name:        name,
		Color:       &color,
		Mentionable: &mentionable,
	})
	if err != nil {
		return "", &domain.PlatformError{Op: "create role " + name, Err: err}
	}
	return role.ID, nil
}

func (w *Workspace) CreateTextChannel(ctx context.Context, name, categoryID string, access domain.ChannelAccess) (string, error) {
	return w.createChannel(ctx, name, discordgo.ChannelTypeGuildText, categoryID, access)
}

func (w *Workspace) CreateVoiceChannel(ctx context.Context, name, categoryID string, access domain.ChannelAccess) (string, error) {
	return w.createChannel(ctx, name, discordgo.ChannelTypeGuildVoice, categoryID, access)
}

func (w *Workspace) createChannel(ctx context.Context, name string, typ discordgo.ChannelType, categoryID string, access domain.ChannelAccess) (string, error) {
	ch, err := w.api.GuildChannelCreateComplex(ctx, w.guildID, discordgo.GuildChannelCreateData{
		Name:                 name,
		Type:                 typ,
		Position:             access.Position,
		ParentID:             categoryID,
		PermissionOverwrites: w.overwrites(access),
	})
	if err != nil {
		return "", &domain.PlatformError{Op: "create channel " + name, Err: err}
	}
	return ch.ID, nil
}

// overwrites: canal privado, sólo visible para el rol member y el coach.
// El rol @everyone tiene el mismo id que el guild.
func (w *Workspace) overwrites(access domain.ChannelAccess) []*discordgo.PermissionOverwrite {
	return []*discordgo.PermissionOverwrite{
		{ID: w.guildID, Type: discordgo.PermissionOverwriteTypeRole, Deny: discordgo.PermissionViewChannel},
		{ID: access.MemberRoleID, Type: discordgo.PermissionOverwriteTypeRole, Allow: memberPerms},
		{ID: access.CoachRoleID, Type: discordgo.PermissionOverwriteTypeRole, Allow: coachPerms},
	}
}

// DeleteResources borra en orden inverso lo que tenga handle. Sigue ante
// errores y devuelve todos juntos.
func (w *Workspace) DeleteResources(ctx context.Context, b domain.ResourceBundle) error {
	var errs []error
	for _, id := range []string{b.VoiceChannelID, b.TextChannelID} {
		if id == "" {
			continue
		}
		if _, err := w.api.ChannelDelete(ctx, id); err != nil && !isNotFound(err) {
			errs = append(errs, &domain.PlatformError{Op: "delete channel " + id, Err: err})
		}
	}
	for _, id := range []string{b.CoachRoleID, b.MemberRoleID} {
		if id == "" {
			continue
		}
		if err := w.api.GuildRoleDelete(ctx, w.guildID, id); err != nil && !isNotFound(err) {
			errs = append(errs, &domain.PlatformError{Op: "delete role " + id, Err: err})
		}
	}
	return errors.Join(errs...)
}

// RoleIDs lista los roles del guild una vez; el restore valida todos los
// teams contra este conjunto.
func (w *Workspace) RoleIDs(ctx context.Context) (map[string]bool, error) {
	roles, err := w.api.GuildRoles(ctx, w.guildID)
	if err != nil {
		return nil, &domain.PlatformError{Op: "list roles", Err: err}
	}
	out := make(map[string]bool, len(roles))
	for _, r := range roles {
		out[r.ID] = true
	}
	return out, nil
}

func (w *Workspace) ChannelExists(ctx context.Context, channelID string) (bool, error) {
	ch, err := w.channel(ctx, channelID)
	return ch != nil, err
}

func (w *Workspace) CategoryExists(ctx context.Context, categoryID string) (bool, error) {
	ch, err := w.channel(ctx, categoryID)
	return ch != nil && ch.Type == discordgo.ChannelTypeGuildCategory, err
}

// channel devuelve nil sin error si el canal ya no existe en este guild.
func (w *Workspace) channel(ctx context.Context, channelID string) (*discordgo.Channel, error) {
	ch, err := w.api.Channel(ctx, channelID)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, &domain.PlatformError{Op: "get channel " + channelID, Err: err}
	}
	// un canal de otro guild con el mismo id no cuenta
	if ch.GuildID != "" && ch.GuildID != w.guildID {
		return nil, nil
	}
	return ch, nil
}

func isNotFound(err error) bool {
	var re *discordgo.RESTError
	if !errors.As(err, &re) {
		return false
	}
	if re.Message != nil && (re.Message.Code == codeUnknownChannel || re.Message.Code == codeUnknownRole) {
		return true
	}
	return re.Response != nil && re.Response.StatusCode == http.StatusNotFound
}
