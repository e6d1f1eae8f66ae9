package service

import (
	"context"
	"time"

	"github.com/marketingnexustrading-arch/TeamBot/internal/domain"
)

// Lo implementa internal/adapters/discord.Workspace
type Workspace interface {
	EnsureCategory(ctx context.Context) (string, error)
	CreateRole(ctx context.Context, name string, spec domain.RoleSpec) (string, error)
	CreateTextChannel(ctx context.Context, name, categoryID string, access domain.ChannelAccess) (string, error)
	CreateVoiceChannel(ctx context.Context, name, categoryID string, access domain.ChannelAccess) (string, error)
	// DeleteResources borra lo que tenga handle (rollback de un team a medio crear).
	DeleteResources(ctx context.Context, b domain.ResourceBundle) error
}

// Lo implementa internal/adapters/discord.Workspace.
// (false, nil) = el recurso ya no existe; error = no se pudo verificar.
type ResourceResolver interface {
	// RoleIDs devuelve los roles actuales del guild en una sola consulta.
	RoleIDs(ctx context.Context) (map[string]bool, error)
	ChannelExists(ctx context.Context, channelID string) (bool, error)
	// CategoryExists además exige que el canal siga siendo una categoría.
	CategoryExists(ctx context.Context, categoryID string) (bool, error)
}

// Lo implementa internal/infra/storage.SnapshotRepo
type SnapshotStore interface {
	Save(s domain.Snapshot) error
	Load() (domain.Snapshot, bool, error)
}

// Lo implementa internal/infra/metrics.Metrics
type Recorder interface {
	JoinOutcome(guildID, outcome string)
	LeaveOutcome(guildID, outcome string)
	SnapshotWrite(guildID string, err error)
	Provisioning(guildID string, d time.Duration, err error)
	Roster(guildID string, teams, members int)
}

type nopRecorder struct{}

func (nopRecorder) JoinOutcome(string, string) {}
func (nopRecorder) LeaveOutcome(string, string) {}
func (nopRecorder) SnapshotWrite(string, error) {}
func (nopRecorder) Provisioning(string, time.Duration, error) {}
func (nopRecorder) Roster(string, int, int) {}
