package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketingnexustrading-arch/TeamBot/internal/domain"
)

type fixture struct {
	ws    *fakeWorkspace
	res   *fakeResolver
	store *memStore
	rec   *countingRecorder
	svc   *TeamService
}

func newFixture(capacity int) *fixture {
	f := &fixture{
		ws:    &fakeWorkspace{},
		res:   &fakeResolver{dead: map[string]bool{}},
		store: &memStore{},
		rec:   newCountingRecorder(),
	}
	f.res.store = f.store
	f.svc = NewTeamService("g1", capacity, f.ws, f.res, f.store, WithRecorder(f.rec))
	return f
}

func TestJoin_TeamSizeTwoScenario(t *testing.T) {
	f := newFixture(2)
	ctx := context.Background()

	a, err := f.svc.Join(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, 1, a.TeamID)
	assert.True(t, a.Created)
	assert.Equal(t, 1, a.Members)
	assert.Equal(t, 2, a.Capacity)

	b, err := f.svc.Join(ctx, "B")
	require.NoError(t, err)
	assert.Equal(t, 1, b.TeamID)
	assert.False(t, b.Created)
	assert.Equal(t, 2, b.Members)

	c, err := f.svc.Join(ctx, "C")
	require.NoError(t, err)
	assert.Equal(t, 2, c.TeamID)
	assert.True(t, c.Created)
	assert.Equal(t, 1, c.Members)

	_, err = f.svc.Join(ctx, "A")
	var already *domain.AlreadyMemberError
	require.ErrorAs(t, err, &already)
	assert.Equal(t, 1, already.TeamID)
	assert.ErrorIs(t, err, domain.ErrAlreadyMember)

	left, err := f.svc.Leave(ctx, "B")
	require.NoError(t, err)
	assert.Equal(t, 1, left.TeamID)
	assert.Equal(t, 1, left.Remaining)
	assert.Equal(t, a.Resources.MemberRoleID, left.MemberRoleID)

	d, err := f.svc.Join(ctx, "D")
	require.NoError(t, err)
	assert.Equal(t, 1, d.TeamID, "freed slot in team 1 is reused")

	info, err := f.svc.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.TeamInfo{
		{ID: 1, Members: 2, Capacity: 2},
		{ID: 2, Members: 1, Capacity: 2},
	}, info)

	assert.Equal(t, 2, f.rec.joins["created"])
	assert.Equal(t, 2, f.rec.joins["joined"])
	assert.Equal(t, 1, f.rec.joins["already_member"])
}

func TestJoin_ProvisioningOrder(t *testing.T) {
	f := newFixture(1)
	ctx := context.Background()

	_, err := f.svc.Join(ctx, "A")
	require.NoError(t, err)
	_, err = f.svc.Join(ctx, "B")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"category",
		"role:Team 1 Member",
		"role:Team 1 Coach",
		"text:team-1-chat",
		"voice:Team 1 Voice",
		// la categoría ya está en el registry
		"role:Team 2 Member",
		"role:Team 2 Coach",
		"text:team-2-chat",
		"voice:Team 2 Voice",
	}, f.ws.Calls())

	team, err := f.svc.Roster(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, team.Members)
	assert.Empty(t, team.Resources.Missing())
}

func TestJoin_ProvisioningFailureRegistersNothing(t *testing.T) {
	f := newFixture(2)
	f.ws.failOn = "text:team-1-chat"
	ctx := context.Background()

	_, err := f.svc.Join(ctx, "A")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrProvisioningFailed)
	assert.ErrorIs(t, err, domain.ErrPlatform)

	var perr *domain.ProvisioningError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "text channel", perr.Step)

	info, err := f.svc.Info(ctx)
	require.NoError(t, err)
	assert.Empty(t, info)
	assert.Equal(t, 0, f.store.Saves())

	require.Len(t, f.ws.deleted, 1)
	rolled := f.ws.deleted[0]
	assert.NotEmpty(t, rolled.MemberRoleID)
	assert.NotEmpty(t, rolled.CoachRoleID)
	assert.Empty(t, rolled.TextChannelID)
	assert.Equal(t, 1, f.rec.joins["provisioning_failed"])

	// el próximo intento funciona y reusa el id
	f.ws.failOn = ""
	res, err := f.svc.Join(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, 1, res.TeamID)
}

func TestJoin_PersistenceFailureStillJoins(t *testing.T) {
	f := newFixture(2)
	f.store.saveErr = errors.New("disk full")

	res, err := f.svc.Join(context.Background(), "A")
	require.NoError(t, err)
	assert.Equal(t, 1, res.TeamID)
	assert.Equal(t, 1, f.rec.writes[false])

	_, err = f.svc.Leave(context.Background(), "A")
	require.NoError(t, err)
	assert.Equal(t, 2, f.rec.writes[false])
}

func TestJoin_CancelledContextDoesNotAbortProvisioning(t *testing.T) {
	f := newFixture(2)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := f.svc.Join(ctx, "A")
	require.NoError(t, err)
	assert.Empty(t, res.Resources.Missing())
}

func TestJoin_ConcurrentNeverExceedsCapacity(t *testing.T) {
	const capacity, users = 3, 40
	f := newFixture(capacity)

	var wg sync.WaitGroup
	results := make([]domain.JoinResult, users)
	errs := make([]error, users)
	for i := 0; i < users; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.svc.Join(context.Background(), fmt.Sprintf("u%d", i))
		}(i)
	}
	wg.Wait()

	perTeam := map[int]int{}
	created := 0
	for i := range results {
		require.NoError(t, errs[i])
		perTeam[results[i].TeamID]++
		if results[i].Created {
			created++
		}
	}
	for id, n := range perTeam {
		assert.LessOrEqual(t, n, capacity, "team %d", id)
	}
	assert.Equal(t, (users+capacity-1)/capacity, len(perTeam))
	assert.Equal(t, len(perTeam), created, "each team provisioned exactly once")

	info, err := f.svc.Info(context.Background())
	require.NoError(t, err)
	for i, ti := range info {
		assert.Equal(t, i+1, ti.ID, "ids are dense")
	}
}

func TestLeave_NotInAnyTeam(t *testing.T) {
	f := newFixture(2)

	_, err := f.svc.Leave(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrNotInAnyTeam)
	assert.Equal(t, 0, f.store.Saves())
	assert.Equal(t, 1, f.rec.leaves["not_in_team"])
}

func TestLeaveThenJoinIsNotDuplicate(t *testing.T) {
	f := newFixture(5)
	ctx := context.Background()

	_, err := f.svc.Join(ctx, "A")
	require.NoError(t, err)
	_, err = f.svc.Leave(ctx, "A")
	require.NoError(t, err)
	res, err := f.svc.Join(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, 1, res.TeamID)
	assert.False(t, res.Created)
}

func TestEnsureCategory_Idempotent(t *testing.T) {
	f := newFixture(2)
	ctx := context.Background()

	first, err := f.svc.EnsureCategory(ctx)
	require.NoError(t, err)
	second, err := f.svc.EnsureCategory(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, []string{"category"}, f.ws.Calls())
	assert.Equal(t, 1, f.store.Saves(), "only the first call persists")
	assert.Equal(t, first, f.store.snap.CategoryID)
}

func TestEnsureCategory_Failure(t *testing.T) {
	f := newFixture(2)
	f.ws.failOn = "category"

	_, err := f.svc.EnsureCategory(context.Background())
	assert.ErrorIs(t, err, domain.ErrPlatform)
	assert.Equal(t, 0, f.store.Saves())
}

func TestRestore_DropsTeamWithDeadChannel(t *testing.T) {
	f := newFixture(2)
	f.store.found = true
	f.store.snap = domain.Snapshot{
		Teams: map[int]domain.Team{
			1: {Members: []string{"A", "B"}, Resources: fullBundle("t1")},
			2: {Members: []string{"C"}, Resources: fullBundle("t2")},
		},
		CategoryID: "cat",
	}
	f.res.dead["t1-text"] = true
	ctx := context.Background()

	require.NoError(t, f.svc.Restore(ctx))

	info, err := f.svc.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.TeamInfo{{ID: 2, Members: 1, Capacity: 2}}, info)

	// se persistió la versión depurada
	assert.Equal(t, 1, f.store.Saves())
	assert.NotContains(t, f.store.snap.Teams, 1)
	assert.Equal(t, "cat", f.store.snap.CategoryID)

	// A ya no está en ningún team
	res, err := f.svc.Join(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, 2, res.TeamID)

	// team 2 lleno: el nuevo id no pisa al 2
	res, err = f.svc.Join(ctx, "B")
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Equal(t, 3, res.TeamID)
}

func TestRestore_DropsTeamWithMissingHandle(t *testing.T) {
	f := newFixture(2)
	b := fullBundle("t1")
	b.CoachRoleID = ""
	f.store.found = true
	f.store.snap = domain.Snapshot{Teams: map[int]domain.Team{1: {Members: []string{"A"}, Resources: b}}}

	require.NoError(t, f.svc.Restore(context.Background()))
	info, err := f.svc.Info(context.Background())
	require.NoError(t, err)
	assert.Empty(t, info)
}

func TestRestore_ClearsDeadCategory(t *testing.T) {
	f := newFixture(2)
	f.store.found = true
	f.store.snap = domain.Snapshot{Teams: map[int]domain.Team{}, CategoryID: "gone"}
	f.res.dead["gone"] = true

	require.NoError(t, f.svc.Restore(context.Background()))
	assert.Equal(t, 1, f.store.Saves())
	assert.Empty(t, f.store.snap.CategoryID)

	_, err := f.svc.EnsureCategory(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"category"}, f.ws.Calls())
}

func TestRestore_DuplicateUserKeepsLowestTeam(t *testing.T) {
	f := newFixture(3)
	f.store.found = true
	f.store.snap = domain.Snapshot{Teams: map[int]domain.Team{
		1: {Members: []string{"A"}, Resources: fullBundle("t1")},
		2: {Members: []string{"A", "B"}, Resources: fullBundle("t2")},
	}}

	require.NoError(t, f.svc.Restore(context.Background()))

	t2, err := f.svc.Roster(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, t2.Members)
}

func TestRestore_ResolverErrorRetries(t *testing.T) {
	f := newFixture(2)
	f.store.found = true
	f.store.snap = domain.Snapshot{Teams: map[int]domain.Team{1: {Members: []string{"A"}, Resources: fullBundle("t1")}}}
	f.res.err = errors.New("discord down")
	ctx := context.Background()

	_, err := f.svc.Join(ctx, "B")
	require.Error(t, err)
	assert.Equal(t, 0, f.store.Saves(), "snapshot is not overwritten")

	f.res.err = nil
	_, err = f.svc.Join(ctx, "A")
	var already *domain.AlreadyMemberError
	require.ErrorAs(t, err, &already)
	assert.Equal(t, 1, already.TeamID)
}

func TestRestore_MalformedOrAbsentSnapshot(t *testing.T) {
	tests := []struct {
		name  string
		store *memStore
	}{
		{"absent", &memStore{}},
		{"malformed", &memStore{loadErr: errors.New("bad json")}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := NewTeamService("g1", 2, &fakeWorkspace{}, &fakeResolver{}, tc.store)
			require.NoError(t, svc.Restore(context.Background()))

			info, err := svc.Info(context.Background())
			require.NoError(t, err)
			assert.Empty(t, info)

			res, err := svc.Join(context.Background(), "A")
			require.NoError(t, err)
			assert.Equal(t, 1, res.TeamID)
		})
	}
}

func TestRoster_UnknownTeam(t *testing.T) {
	f := newFixture(2)
	_, err := f.svc.Roster(context.Background(), 9)
	assert.ErrorIs(t, err, domain.ErrUnknownTeam)
}

func TestFlush(t *testing.T) {
	f := newFixture(2)
	require.NoError(t, f.svc.Flush())
	assert.Equal(t, 0, f.store.Saves(), "never restored: nothing to write")

	_, err := f.svc.Join(context.Background(), "A")
	require.NoError(t, err)
	require.NoError(t, f.svc.Flush())
	assert.Equal(t, 2, f.store.Saves())

	f.store.saveErr = errors.New("ro fs")
	assert.ErrorIs(t, f.svc.Flush(), domain.ErrPersistenceFailed)
}

func TestRestore_ListsRolesOncePerRestore(t *testing.T) {
	const teams = 20
	f := newFixture(1)
	ctx := context.Background()
	for i := 0; i < teams; i++ {
		_, err := f.svc.Join(ctx, fmt.Sprintf("u%d", i))
		require.NoError(t, err)
	}
	want, err := f.svc.Info(ctx)
	require.NoError(t, err)

	res := &fakeResolver{store: f.store, dead: map[string]bool{}}
	restored := NewTeamService("g1", 1, &fakeWorkspace{}, res, f.store)
	require.NoError(t, restored.Restore(ctx))

	got, err := restored.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, 1, res.roleLists, "one role listing for the whole restore")
	assert.Equal(t, 2*teams+1, res.channels, "text, voice and the category")
}

func TestRestore_DropsTeamWithDeadRole(t *testing.T) {
	f := newFixture(2)
	f.store.found = true
	f.store.snap = domain.Snapshot{Teams: map[int]domain.Team{
		1: {Members: []string{"A"}, Resources: fullBundle("t1")},
		2: {Members: []string{"B"}, Resources: fullBundle("t2")},
	}}
	f.res.dead["t2-coach"] = true

	require.NoError(t, f.svc.Restore(context.Background()))
	info, err := f.svc.Info(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.TeamInfo{{ID: 1, Members: 1, Capacity: 2}}, info)
}

func TestRestore_ClearsCategoryThatIsNoLongerACategory(t *testing.T) {
	f := newFixture(2)
	f.store.found = true
	f.store.snap = domain.Snapshot{Teams: map[int]domain.Team{}, CategoryID: "now-text"}
	f.res.notCat = map[string]bool{"now-text": true}

	require.NoError(t, f.svc.Restore(context.Background()))
	assert.Empty(t, f.store.snap.CategoryID)
	assert.Equal(t, 0, f.res.roleLists, "no teams, no role listing")
}
