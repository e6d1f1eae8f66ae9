package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/marketingnexustrading-arch/TeamBot/internal/domain"
	"github.com/marketingnexustrading-arch/TeamBot/internal/infra/logger"
)

const (
	memberRoleColor = 0x3498DB // azul
	coachRoleColor  = 0xF1C40F // dorado

	// los canales de voz van debajo de todos los de texto
	voicePositionOffset = 100
)

func MemberRoleName(teamID int) string   { return fmt.Sprintf("Team %d Member", teamID) }
func CoachRoleName(teamID int) string    { return fmt.Sprintf("Team %d Coach", teamID) }
func TextChannelName(teamID int) string  { return fmt.Sprintf("team-%d-chat", teamID) }
func VoiceChannelName(teamID int) string { return fmt.Sprintf("Team %d Voice", teamID) }

type Option func(*TeamService)

func WithRecorder(r Recorder) Option {
	return func(s *TeamService) { s.rec = r }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *TeamService) { s.log = l }
}

// TeamService coordina join/leave de un guild. Un único mutex cubre todo el
// protocolo (incluidas las llamadas a Discord) para que dos joins concurrentes
// no vean el mismo lugar libre ni creen el mismo team.
type TeamService struct {
	mu       sync.Mutex
	guildID  string
	reg      *Registry
	ws       Workspace
	resolver ResourceResolver
	store    SnapshotStore
	rec      Recorder
	log      *slog.Logger
	restored bool
}

func NewTeamService(guildID string, capacity int, ws Workspace, resolver ResourceResolver, store SnapshotStore, opts ...Option) *TeamService {
	s := &TeamService{
		guildID:  guildID,
		reg:      NewRegistry(capacity),
		ws:       ws,
		resolver: resolver,
		store:    store,
		rec:      nopRecorder{},
		log:      logger.Discard(),
	}
	for _, o := range opts {
		o(s)
	}
	s.log = s.log.With("guild_id", guildID)
	return s
}

func (s *TeamService) GuildID() string { return s.guildID }

func (s *TeamService) Capacity() int { return s.reg.Capacity() }

// Join asigna al usuario al team de id más bajo con lugar, o crea uno nuevo.
func (s *TeamService) Join(ctx context.Context, userID string) (domain.JoinResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.restoreLocked(ctx); err != nil {
		s.rec.JoinOutcome(s.guildID, "error")
		return domain.JoinResult{}, err
	}

	if id, ok := s.reg.FindUserTeam(userID); ok {
		s.rec.JoinOutcome(s.guildID, "already_member")
		return domain.JoinResult{}, &domain.AlreadyMemberError{TeamID: id}
	}

	created := false
	teamID, ok := s.reg.FindTeamWithCapacity()
	if !ok {
		teamID = s.reg.AllocateTeamID()
		// sin cancelación a mitad de camino: o se crea todo o nada
		bundle, err := s.provision(context.WithoutCancel(ctx), teamID)
		if err != nil {
			s.rec.JoinOutcome(s.guildID, "provisioning_failed")
			return domain.JoinResult{}, err
		}
		if err := s.reg.CreateTeam(teamID, bundle); err != nil {
			s.rec.JoinOutcome(s.guildID, "error")
			return domain.JoinResult{}, err
		}
		created = true
	}

	if err := s.reg.AddMember(teamID, userID); err != nil {
		if created {
			s.persistLocked()
		}
		s.rec.JoinOutcome(s.guildID, "error")
		return domain.JoinResult{}, err
	}
	s.persistLocked()

	t, _ := s.reg.Team(teamID)
	outcome := "joined"
	if created {
		outcome = "created"
	}
	s.rec.JoinOutcome(s.guildID, outcome)
	s.log.Info("user joined team", "user_id", userID, "team_id", teamID, "members", len(t.Members), "created", created)

	return domain.JoinResult{
		TeamID:    teamID,
		Created:   created,
		Members:   len(t.Members),
		Capacity:  s.reg.Capacity(),
		Resources: t.Resources,
	}, nil
}

func (s *TeamService) Leave(ctx context.Context, userID string) (domain.LeaveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.restoreLocked(ctx); err != nil {
		s.rec.LeaveOutcome(s.guildID, "error")
		return domain.LeaveResult{}, err
	}

	teamID, ok := s.reg.FindUserTeam(userID)
	if !ok {
		s.rec.LeaveOutcome(s.guildID, "not_in_team")
		return domain.LeaveResult{}, domain.ErrNotInAnyTeam
	}
	if err := s.reg.RemoveMember(teamID, userID); err != nil {
		s.rec.LeaveOutcome(s.guildID, "error")
		return domain.LeaveResult{}, err
	}
	s.persistLocked()

	t, _ := s.reg.Team(teamID)
	s.rec.LeaveOutcome(s.guildID, "left")
	s.log.Info("user left team", "user_id", userID, "team_id", teamID, "remaining", len(t.Members))

	return domain.LeaveResult{
		TeamID:       teamID,
		Remaining:    len(t.Members),
		MemberRoleID: t.Resources.MemberRoleID,
	}, nil
}

func (s *TeamService) Info(ctx context.Context) ([]domain.TeamInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.restoreLocked(ctx); err != nil {
		return nil, err
	}
	teams := s.reg.Teams()
	out := make([]domain.TeamInfo, 0, len(teams))
	for _, t := range teams {
		out = append(out, domain.TeamInfo{ID: t.ID, Members: len(t.Members), Capacity: s.reg.Capacity()})
	}
	return out, nil
}

// Roster devuelve una copia del team (roster + handles).
func (s *TeamService) Roster(ctx context.Context, teamID int) (domain.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.restoreLocked(ctx); err != nil {
		return domain.Team{}, err
	}
	t, ok := s.reg.Team(teamID)
	if !ok {
		return domain.Team{}, domain.ErrUnknownTeam
	}
	return t, nil
}

// EnsureCategory es el paso de /setup_ticket: deja la categoría creada y persistida.
func (s *TeamService) EnsureCategory(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.restoreLocked(ctx); err != nil {
		return "", err
	}
	had := s.reg.CategoryID() != ""
	id, err := s.ensureCategoryLocked(context.WithoutCancel(ctx))
	if err != nil {
		return "", err
	}
	if !had {
		s.persistLocked()
	}
	return id, nil
}

// Restore carga el snapshot y valida cada handle contra Discord.
// Es idempotente: sólo la primera llamada exitosa hace trabajo.
func (s *TeamService) Restore(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.restoreLocked(ctx)
}

// Flush fuerza una escritura del snapshot (se usa al apagar).
func (s *TeamService) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.restored {
		// nunca se cargó: escribir ahora pisaría el snapshot con un registry vacío
		return nil
	}
	err := s.store.Save(s.reg.Snapshot())
	s.rec.SnapshotWrite(s.guildID, err)
	if err != nil {
		return &domain.PersistenceError{Err: err}
	}
	return nil
}

// ---------- internos ----------

func (s *TeamService) ensureCategoryLocked(ctx context.Context) (string, error) {
	if id := s.reg.CategoryID(); id != "" {
		return id, nil
	}
	id, err := s.ws.EnsureCategory(ctx)
	if err != nil {
		return "", err
	}
	s.reg.SetCategoryID(id)
	return id, nil
}

// provision: categoría -> rol member -> rol coach -> texto -> voz.
// Los canales necesitan los roles para sus overwrites y todo cuelga de la categoría.
func (s *TeamService) provision(ctx context.Context, teamID int) (domain.ResourceBundle, error) {
	start := time.Now()
	b, err := s.createBundle(ctx, teamID)
	s.rec.Provisioning(s.guildID, time.Since(start), err)
	if err != nil {
		s.log.Error("team provisioning failed", "team_id", teamID, "error", err)
		if derr := s.ws.DeleteResources(ctx, b); derr != nil {
			s.log.Warn("rollback of partial team incomplete", "team_id", teamID, "error", derr)
		}
		return domain.ResourceBundle{}, err
	}
	s.log.Info("team provisioned", "team_id", teamID,
		"role_id", b.MemberRoleID, "coach_role_id", b.CoachRoleID,
		"text_channel_id", b.TextChannelID, "voice_channel_id", b.VoiceChannelID)
	return b, nil
}

func (s *TeamService) createBundle(ctx context.Context, teamID int) (domain.ResourceBundle, error) {
	var b domain.ResourceBundle

	categoryID, err := s.ensureCategoryLocked(ctx)
	if err != nil {
		return b, &domain.ProvisioningError{Step: "category", Err: err}
	}

	b.MemberRoleID, err = s.ws.CreateRole(ctx, MemberRoleName(teamID), domain.RoleSpec{Color: memberRoleColor, Mentionable: true})
	if err != nil {
		return b, &domain.ProvisioningError{Step: "member role", Err: err}
	}
	b.CoachRoleID, err = s.ws.CreateRole(ctx, CoachRoleName(teamID), domain.RoleSpec{Color: coachRoleColor, Mentionable: true})
	if err != nil {
		return b, &domain.ProvisioningError{Step: "coach role", Err: err}
	}

	access := domain.ChannelAccess{MemberRoleID: b.MemberRoleID, CoachRoleID: b.CoachRoleID, Position: teamID}
	b.TextChannelID, err = s.ws.CreateTextChannel(ctx, TextChannelName(teamID), categoryID, access)
	if err != nil {
		return b, &domain.ProvisioningError{Step: "text channel", Err: err}
	}

	access.Position = teamID + voicePositionOffset
	b.VoiceChannelID, err = s.ws.CreateVoiceChannel(ctx, VoiceChannelName(teamID), categoryID, access)
	if err != nil {
		return b, &domain.ProvisioningError{Step: "voice channel", Err: err}
	}
	return b, nil
}

func (s *TeamService) persistLocked() {
	err := s.store.Save(s.reg.Snapshot())
	s.rec.SnapshotWrite(s.guildID, err)
	teams, members := s.reg.Counts()
	s.rec.Roster(s.guildID, teams, members)
	if err != nil {
		// best effort: el estado en memoria sigue siendo el válido
		s.log.Error("snapshot write failed", "error", &domain.PersistenceError{Err: err})
	}
}

func (s *TeamService) restoreLocked(ctx context.Context) error {
	if s.restored {
		return nil
	}

	snap, found, err := s.store.Load()
	if err != nil {
		s.log.Error("snapshot unreadable, starting empty", "error", err)
		found = false
	}
	if !found || snap.Empty() {
		s.reg.Load(domain.Snapshot{})
		s.restored = true
		s.log.Info("registry restored", "teams", 0)
		return nil
	}

	kept := domain.Snapshot{Teams: map[int]domain.Team{}}
	dropped := 0
	seen := map[string]int{}

	ids := make([]int, 0, len(snap.Teams))
	for id := range snap.Teams {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	var roles map[string]bool
	if len(ids) > 0 {
		if roles, err = s.resolver.RoleIDs(ctx); err != nil {
			return fmt.Errorf("restore roles: %w", err)
		}
	}

	for _, id := range ids {
		t := snap.Teams[id]
		reason, err := s.verifyTeam(ctx, t, roles)
		if err != nil {
			return fmt.Errorf("restore team %d: %w", id, err)
		}
		if reason != "" {
			dropped++
			s.log.Warn("dropping team from snapshot", "error", &domain.RestoreIncompleteError{TeamID: id, Reason: reason})
			continue
		}

		members := make([]string, 0, len(t.Members))
		for _, m := range t.Members {
			if prev, dup := seen[m]; dup {
				s.log.Warn("user listed in two teams, keeping the first", "user_id", m, "team_id", prev, "duplicate_team_id", id)
				continue
			}
			seen[m] = id
			members = append(members, m)
		}
		if len(members) > s.reg.Capacity() {
			s.log.Warn("restored team above capacity", "team_id", id, "members", len(members), "capacity", s.reg.Capacity())
		}
		t.ID = id
		t.Members = members
		kept.Teams[id] = t
	}

	if snap.CategoryID != "" {
		ok, err := s.resolver.CategoryExists(ctx, snap.CategoryID)
		if err != nil {
			return fmt.Errorf("restore category: %w", err)
		}
		if ok {
			kept.CategoryID = snap.CategoryID
		} else {
			s.log.Warn("snapshot category no longer exists", "category_id", snap.CategoryID)
		}
	}

	s.reg.Load(kept)
	s.restored = true
	s.log.Info("registry restored", "teams", len(kept.Teams), "dropped", dropped)

	if dropped > 0 || kept.CategoryID != snap.CategoryID {
		s.persistLocked()
	} else {
		teams, members := s.reg.Counts()
		s.rec.Roster(s.guildID, teams, members)
	}
	return nil
}

// verifyTeam devuelve un motivo si el team no se puede restaurar entero.
func (s *TeamService) verifyTeam(ctx context.Context, t domain.Team, roles map[string]bool) (string, error) {
	if missing := t.Resources.Missing(); missing != "" {
		return "missing " + missing, nil
	}
	for _, role := range []string{t.Resources.MemberRoleID, t.Resources.CoachRoleID} {
		if !roles[role] {
			return "role " + role + " no longer exists", nil
		}
	}
	for _, ch := range []string{t.Resources.TextChannelID, t.Resources.VoiceChannelID} {
		ok, err := s.resolver.ChannelExists(ctx, ch)
		if err != nil {
			return "", err
		}
		if !ok {
			return "channel " + ch + " no longer exists", nil
		}
	}
	return "", nil
}
