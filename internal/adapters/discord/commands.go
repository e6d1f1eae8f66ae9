package discord

import "github.com/bwmarrin/discordgo"

var adminPermission int64 = discordgo.PermissionAdministrator

func (r *Router) buildCommands() []Command {
	return []Command{
		{Name: "join", Description: "Unirte a un team (se crea uno si están todos llenos)", Handler: r.cmdJoin},
		{Name: "leave", Description: "Salir de tu team", Handler: r.cmdLeave},
		{Name: "teams", Description: "Ver los teams y cuántos lugares quedan", Handler: r.cmdTeams},
		{Name: "setup_ticket", Description: "Publica el panel para unirse a teams (admins)", AdminOnly: true, Handler: r.cmdSetupTicket},
	}
}

func (r *Router) buildComponents() map[string]Handler {
	return map[string]Handler{
		JoinButtonID: r.cmdJoin,
	}
}

// applicationCommands arma lo que se registra en Discord.
func applicationCommands(cmds []Command) []*discordgo.ApplicationCommand {
	dm := false
	out := make([]*discordgo.ApplicationCommand, 0, len(cmds))
	for _, c := range cmds {
		ac := &discordgo.ApplicationCommand{
			Name:         c.Name,
			Description:  c.Description,
			DMPermission: &dm,
		}
		if c.AdminOnly {
			ac.DefaultMemberPermissions = &adminPermission
		}
		out = append(out, ac)
	}
	return out
}
