package discord

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/marketingnexustrading-arch/TeamBot/internal/domain"
)

// JoinButtonID es el custom_id del botón persistente; no cambiar o los
// paneles ya publicados dejan de funcionar.
const JoinButtonID = "join_team_button"

const (
	colorTicket = 0x2ECC71
	colorTeams  = 0x3498DB
)

// ticketPanel es el mensaje que /setup_ticket deja en el canal.
func ticketPanel(capacity int) *discordgo.MessageSend {
	embed := &discordgo.MessageEmbed{
		Title: "🎮 Unirse a un team",
		Description: "Tocá el botón de abajo para entrar automáticamente a un team.\n\n" +
			fmt.Sprintf("**📊 Capacidad:** %d jugadores por team\n", capacity) +
			"**🔄 Automático:** si todos los teams están llenos se crea uno nuevo.\n\n" +
			"**Qué recibís**\n" +
			"✅ Acceso al chat privado de tu team\n" +
			"✅ Acceso al canal de voz de tu team\n" +
			"✅ El rol del team",
		Color:  colorTicket,
		Footer: &discordgo.MessageEmbedFooter{Text: "¡Que lo disfrutes!"},
	}
	row := discordgo.ActionsRow{
		Components: []discordgo.MessageComponent{
			discordgo.Button{
				Label:    "Join Team",
				Style:    discordgo.PrimaryButton,
				Emoji:    &discordgo.ComponentEmoji{Name: "🎮"},
				CustomID: JoinButtonID,
			},
		},
	}
	return &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{embed},
		Components: []discordgo.MessageComponent{row},
	}
}

func teamsEmbed(info []domain.TeamInfo) *discordgo.MessageEmbed {
	e := &discordgo.MessageEmbed{Title: "📋 Teams", Color: colorTeams}
	if len(info) == 0 {
		e.Description = "Todavía no hay teams. El primer `/join` crea el Team 1."
		return e
	}
	var b strings.Builder
	members := 0
	for _, t := range info {
		state := ""
		if t.Members >= t.Capacity {
			state = " · lleno"
		}
		fmt.Fprintf(&b, "**Team %d** · %d/%d%s\n", t.ID, t.Members, t.Capacity, state)
		members += t.Members
	}
	e.Description = b.String()
	e.Footer = &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("%d teams · %d miembros", len(info), members)}
	return e
}

func welcomeMessage(res domain.JoinResult) string {
	return fmt.Sprintf("🎮 **¡Bienvenidos al Team %d!**\n\n"+
		"Este es el chat privado del team. Sólo quienes tienen el rol <@&%s> pueden verlo.\n\n"+
		"📊 Capacidad: **0/%d** miembros", res.TeamID, res.Resources.MemberRoleID, res.Capacity)
}

func joinAnnouncement(userID string, res domain.JoinResult) string {
	return fmt.Sprintf("🎉 <@%s> se unió al **Team %d**! Miembros: **%d/%d**", userID, res.TeamID, res.Members, res.Capacity)
}

func joinReply(res domain.JoinResult) string {
	return fmt.Sprintf("✅ ¡Bienvenido al **Team %d**!\n🎮 Ahora tenés acceso a:\n• <#%s>\n• <#%s>",
		res.TeamID, res.Resources.TextChannelID, res.Resources.VoiceChannelID)
}

func leaveReply(res domain.LeaveResult) string {
	return fmt.Sprintf("👋 Saliste del **Team %d**. Quedan %d miembros.", res.TeamID, res.Remaining)
}

// userMessage traduce errores del core a texto corto para el usuario.
// Nunca expone detalles internos; la causa completa va al log.
func userMessage(err error) string {
	var already *domain.AlreadyMemberError
	switch {
	case errors.As(err, &already):
		return fmt.Sprintf("❌ Ya estás en el **Team %d**!", already.TeamID)
	case errors.Is(err, domain.ErrNotInAnyTeam):
		return "ℹ️ No estás en ningún team."
	case errors.Is(err, domain.ErrProvisioningFailed):
		return "⚠️ No pude crear un team nuevo. Probá de nuevo más tarde."
	case errors.Is(err, domain.ErrPlatform):
		return "⚠️ Discord no respondió. Probá de nuevo más tarde."
	default:
		return "⚠️ Ocurrió un error inesperado. Probá de nuevo más tarde."
	}
}
