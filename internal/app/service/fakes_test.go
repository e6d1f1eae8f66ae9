package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/marketingnexustrading-arch/TeamBot/internal/domain"
)

type fakeWorkspace struct {
	mu       sync.Mutex
	seq      int
	calls    []string
	failOn   string // prefijo de la llamada que falla
	deleted  []domain.ResourceBundle
	category string
}

func (w *fakeWorkspace) next(call string) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls = append(w.calls, call)
	if w.failOn != "" && call == w.failOn {
		return "", &domain.PlatformError{Op: call, Err: errors.New("boom")}
	}
	w.seq++
	return fmt.Sprintf("id-%d", w.seq), nil
}

func (w *fakeWorkspace) EnsureCategory(ctx context.Context) (string, error) {
	id, err := w.next("category")
	if err != nil {
		return "", err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.category == "" {
		w.category = "cat-" + id
	}
	return w.category, nil
}

func (w *fakeWorkspace) CreateRole(ctx context.Context, name string, spec domain.RoleSpec) (string, error) {
	return w.next("role:" + name)
}

func (w *fakeWorkspace) CreateTextChannel(ctx context.Context, name, categoryID string, access domain.ChannelAccess) (string, error) {
	return w.next("text:" + name)
}

func (w *fakeWorkspace) CreateVoiceChannel(ctx context.Context, name, categoryID string, access domain.ChannelAccess) (string, error) {
	return w.next("voice:" + name)
}

func (w *fakeWorkspace) DeleteResources(ctx context.Context, b domain.ResourceBundle) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.deleted = append(w.deleted, b)
	return nil
}

func (w *fakeWorkspace) Calls() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.calls...)
}

// fakeResolver da por vivos todos los handles del snapshot guardado salvo los de dead.
type fakeResolver struct {
	mu        sync.Mutex
	store     *memStore
	dead      map[string]bool
	notCat    map[string]bool
	err       error
	roleLists int
	channels  int
}

func (r *fakeResolver) RoleIDs(ctx context.Context) (map[string]bool, error) {
	r.mu.Lock()
	r.roleLists++
	r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	out := map[string]bool{}
	if r.store == nil {
		return out, nil
	}
	snap, _, _ := r.store.Load()
	for _, t := range snap.Teams {
		for _, id := range []string{t.Resources.MemberRoleID, t.Resources.CoachRoleID} {
			if id != "" && !r.dead[id] {
				out[id] = true
			}
		}
	}
	return out, nil
}

func (r *fakeResolver) ChannelExists(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	r.channels++
	r.mu.Unlock()
	if r.err != nil {
		return false, r.err
	}
	return !r.dead[id], nil
}

func (r *fakeResolver) CategoryExists(ctx context.Context, id string) (bool, error) {
	ok, err := r.ChannelExists(ctx, id)
	return ok && !r.notCat[id], err
}

type memStore struct {
	mu      sync.Mutex
	snap    domain.Snapshot
	found   bool
	loadErr error
	saveErr error
	saves   int
}

func (m *memStore) Save(s domain.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.snap = s
	m.found = true
	return nil
}

func (m *memStore) Load() (domain.Snapshot, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap, m.found, m.loadErr
}

func (m *memStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

type countingRecorder struct {
	mu     sync.Mutex
	joins  map[string]int
	leaves map[string]int
	writes map[bool]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{joins: map[string]int{}, leaves: map[string]int{}, writes: map[bool]int{}}
}

func (c *countingRecorder) JoinOutcome(_, outcome string) {
	c.mu.Lock()
	c.joins[outcome]++
	c.mu.Unlock()
}

func (c *countingRecorder) LeaveOutcome(_, outcome string) {
	c.mu.Lock()
	c.leaves[outcome]++
	c.mu.Unlock()
}

func (c *countingRecorder) SnapshotWrite(_ string, err error) {
	c.mu.Lock()
	c.writes[err == nil]++
	c.mu.Unlock()
}

func (c *countingRecorder) Provisioning(string, time.Duration, error) {}
func (c *countingRecorder) Roster(string, int, int) {}

func fullBundle(prefix string) domain.ResourceBundle {
	return domain.ResourceBundle{
		MemberRoleID:   prefix + "-member",
		CoachRoleID:    prefix + "-coach",
		TextChannelID:  prefix + "-text",
		VoiceChannelID: prefix + "-voice",
	}
}
