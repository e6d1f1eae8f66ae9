package domain

// ResourceBundle: handles de Discord creados una sola vez por team.
type ResourceBundle struct {
	MemberRoleID   string
	CoachRoleID    string
	TextChannelID  string
	VoiceChannelID string
}

// Missing devuelve el nombre del primer handle vacío ("" si están todos).
func (b ResourceBundle) Missing() string {
	switch {
	case b.MemberRoleID == "":
		return "role_id"
	case b.CoachRoleID == "":
		return "coach_role_id"
	case b.TextChannelID == "":
		return "text_channel_id"
	case b.VoiceChannelID == "":
		return "voice_channel_id"
	}
	return ""
}

type Team struct {
	ID        int
	Members   []string // orden de llegada
	Resources ResourceBundle
}

// Clone copia el roster para que nadie fuera del registry lo mute.
func (t Team) Clone() Team {
	t.Members = append([]string(nil), t.Members...)
	return t
}

func (t Team) Has(userID string) bool {
	for _, m := range t.Members {
		if m == userID {
			return true
		}
	}
	return false
}

// RoleSpec: atributos con los que se crea un rol de team.
type RoleSpec struct {
	Color       int
	Mentionable bool
	Position    int
}

// ChannelAccess: quién puede ver/usar los canales de un team.
type ChannelAccess struct {
	MemberRoleID string
	CoachRoleID  string
	Position     int
}

type TeamInfo struct {
	ID       int
	Members  int
	Capacity int
}

type JoinResult struct {
	TeamID    int
	Created   bool
	Members   int
	Capacity  int
	Resources ResourceBundle
}

type LeaveResult struct {
	TeamID       int
	Remaining    int
	MemberRoleID string
}
