package discord

import (
	"context"

	"github.com/bwmarrin/discordgo"
)

// chatAPI es lo que los handlers le piden a Discord alrededor del core:
// responder la interacción, dar/quitar roles y escribir en canales.
type chatAPI interface {
	InteractionRespond(i *discordgo.Interaction, resp *discordgo.InteractionResponse) error
	FollowupMessageCreate(i *discordgo.Interaction, params *discordgo.WebhookParams) error
	GuildMemberRoleAdd(ctx context.Context, guildID, userID, roleID string) error
	GuildMemberRoleRemove(ctx context.Context, guildID, userID, roleID string) error
	ChannelMessageSend(ctx context.Context, channelID, content string) error
	ChannelMessageSendComplex(ctx context.Context, channelID string, msg *discordgo.MessageSend) error
	GuildRoles(ctx context.Context, guildID string) ([]*discordgo.Role, error)
	GuildOwnerID(guildID string) string
}

// sessionAPI adapta *discordgo.Session a restAPI y chatAPI; el ctx viaja
// como opción de request.
type sessionAPI struct{ s *discordgo.Session }

var (
	_ restAPI = sessionAPI{}
	_ chatAPI = sessionAPI{}
)

func (a sessionAPI) GuildChannels(ctx context.Context, guildID string) ([]*discordgo.Channel, error) {
	return a.s.GuildChannels(guildID, discordgo.WithContext(ctx))
}

func (a sessionAPI) GuildChannelCreateComplex(ctx context.Context, guildID string, data discordgo.GuildChannelCreateData) (*discordgo.Channel, error) {
	return a.s.GuildChannelCreateComplex(guildID, data, discordgo.WithContext(ctx))
}

func (a sessionAPI) Channel(ctx context.Context, channelID string) (*discordgo.Channel, error) {
	return a.s.Channel(channelID, discordgo.WithContext(ctx))
}

func (a sessionAPI) ChannelDelete(ctx context.Context, channelID string) (*discordgo.Channel, error) {
	return a.s.ChannelDelete(channelID, discordgo.WithContext(ctx))
}

func (a sessionAPI) GuildRoles(ctx context.Context, guildID string) ([]*discordgo.Role, error) {
	return a.s.GuildRoles(guildID, discordgo.WithContext(ctx))
}

func (a sessionAPI) GuildRoleCreate(ctx context.Context, guildID string, params *discordgo.RoleParams) (*discordgo.Role, error) {
	return a.s.GuildRoleCreate(guildID, params, discordgo.WithContext(ctx))
}

func (a sessionAPI) GuildRoleDelete(ctx context.Context, guildID, roleID string) error {
	return a.s.GuildRoleDelete(guildID, roleID, discordgo.WithContext(ctx))
}

func (a sessionAPI) InteractionRespond(i *discordgo.Interaction, resp *discordgo.InteractionResponse) error {
	return a.s.InteractionRespond(i, resp)
}

func (a sessionAPI) FollowupMessageCreate(i *discordgo.Interaction, params *discordgo.WebhookParams) error {
	_, err := a.s.FollowupMessageCreate(i, true, params)
	return err
}

func (a sessionAPI) GuildMemberRoleAdd(ctx context.Context, guildID, userID, roleID string) error {
	return a.s.GuildMemberRoleAdd(guildID, userID, roleID, discordgo.WithContext(ctx))
}

func (a sessionAPI) GuildMemberRoleRemove(ctx context.Context, guildID, userID, roleID string) error {
	return a.s.GuildMemberRoleRemove(guildID, userID, roleID, discordgo.WithContext(ctx))
}

func (a sessionAPI) ChannelMessageSend(ctx context.Context, channelID, content string) error {
	_, err := a.s.ChannelMessageSend(channelID, content, discordgo.WithContext(ctx))
	return err
}

func (a sessionAPI) ChannelMessageSendComplex(ctx context.Context, channelID string, msg *discordgo.MessageSend) error {
	_, err := a.s.ChannelMessageSendComplex(channelID, msg, discordgo.WithContext(ctx))
	return err
}

// GuildOwnerID sale del cache del gateway; "" si el guild no está cargado.
func (a sessionAPI) GuildOwnerID(guildID string) string {
	if a.s == nil || a.s.State == nil {
		return ""
	}
	if g, err := a.s.State.Guild(guildID); err == nil && g != nil {
		return g.OwnerID
	}
	return ""
}
