package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	"github.com/marketingnexustrading-arch/TeamBot/internal/domain"
)

// ErrSnapshotMalformed: el archivo existe pero no se puede interpretar.
var ErrSnapshotMalformed = errors.New("snapshot malformed")

// SnapshotRepo guarda el registry en un único archivo JSON.
type SnapshotRepo struct {
	mu   sync.Mutex
	path string
}

func NewSnapshotRepo(path string) *SnapshotRepo { return &SnapshotRepo{path: path} }

func (r *SnapshotRepo) Path() string { return r.path }

// Save escribe a un temporal y hace rename, así nunca queda un archivo a medias.
func (r *SnapshotRepo) Save(s domain.Snapshot) error {
	data, err := json.MarshalIndent(toFile(s), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("snapshot dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// Load devuelve found=false si no hay archivo (no es error).
func (r *SnapshotRepo) Load() (domain.Snapshot, bool, error) {
	r.mu.Lock()
	data, err := os.ReadFile(r.path)
	r.mu.Unlock()
	if errors.Is(err, os.ErrNotExist) {
		return domain.Snapshot{}, false, nil
	}
	if err != nil {
		return domain.Snapshot{}, false, fmt.Errorf("read snapshot: %w", err)
	}

	var f snapshotFile
	if err := json.Unmarshal(data, &f); err != nil {
		return domain.Snapshot{}, false, fmt.Errorf("%w: %v", ErrSnapshotMalformed, err)
	}
	s, err := fromFile(f)
	if err != nil {
		return domain.Snapshot{}, false, fmt.Errorf("%w: %v", ErrSnapshotMalformed, err)
	}
	return s, true, nil
}

func toFile(s domain.Snapshot) snapshotFile {
	f := snapshotFile{Teams: make(map[string]teamRecord, len(s.Teams))}
	ids := make([]int, 0, len(s.Teams))
	for id := range s.Teams {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		t := s.Teams[id]
		members := make([]snowflake, 0, len(t.Members))
		for _, m := range t.Members {
			members = append(members, snowflake(m))
		}
		f.Teams[strconv.Itoa(id)] = teamRecord{
			Members:        members,
			RoleID:         snowflake(t.Resources.MemberRoleID),
			CoachRoleID:    snowflake(t.Resources.CoachRoleID),
			TextChannelID:  snowflake(t.Resources.TextChannelID),
			VoiceChannelID: snowflake(t.Resources.VoiceChannelID),
		}
	}
	if s.CategoryID != "" {
		cat := snowflake(s.CategoryID)
		f.CategoryID = &cat
	}
	return f
}

func fromFile(f snapshotFile) (domain.Snapshot, error) {
	s := domain.Snapshot{Teams: make(map[int]domain.Team, len(f.Teams))}
	for key, rec := range f.Teams {
		id, err := strconv.Atoi(key)
		if err != nil || id <= 0 {
			return domain.Snapshot{}, fmt.Errorf("invalid team key %q", key)
		}
		if _, dup := s.Teams[id]; dup {
			return domain.Snapshot{}, fmt.Errorf("team %d listed twice", id)
		}
		members := make([]string, 0, len(rec.Members))
		for _, m := range rec.Members {
			members = append(members, string(m))
		}
		s.Teams[id] = domain.Team{
			ID:      id,
			Members: members,
			Resources: domain.ResourceBundle{
				MemberRoleID:   string(rec.RoleID),
				CoachRoleID:    string(rec.CoachRoleID),
				TextChannelID:  string(rec.TextChannelID),
				VoiceChannelID: string(rec.VoiceChannelID),
			},
		}
	}
	if f.CategoryID != nil {
		s.CategoryID = string(*f.CategoryID)
	}
	return s, nil
}
