package service

import (
	"sort"

	"github.com/marketingnexustrading-arch/TeamBot/internal/domain"
)

// Registry es el mapa team id -> team en memoria.
// No tiene lock propio: TeamService serializa todo acceso.
type Registry struct {
	capacity   int
	teams      map[int]*domain.Team
	categoryID string
}

func NewRegistry(capacity int) *Registry {
	return &Registry{capacity: capacity, teams: map[int]*domain.Team{}}
}

func (r *Registry) Capacity() int { return r.capacity }

// FindTeamWithCapacity: el id más bajo con lugar libre.
func (r *Registry) FindTeamWithCapacity() (int, bool) {
	for _, id := range r.sortedIDs() {
		if len(r.teams[id].Members) < r.capacity {
			return id, true
		}
	}
	return 0, false
}

func (r *Registry) FindUserTeam(userID string) (int, bool) {
	for _, id := range r.sortedIDs() {
		if r.teams[id].Has(userID) {
			return id, true
		}
	}
	return 0, false
}

// AllocateTeamID deriva el id de la cantidad de teams. Un restore que
// descartó teams deja huecos, así que se salta cualquier id ocupado.
func (r *Registry) AllocateTeamID() int {
	id := len(r.teams) + 1
	for {
		if _, taken := r.teams[id]; !taken {
			return id
		}
		id++
	}
}

func (r *Registry) CreateTeam(id int, b domain.ResourceBundle) error {
	if _, ok := r.teams[id]; ok {
		return domain.ErrDuplicateTeamID
	}
	r.teams[id] = &domain.Team{ID: id, Members: []string{}, Resources: b}
	return nil
}

func (r *Registry) AddMember(teamID int, userID string) error {
	t, ok := r.teams[teamID]
	if !ok {
		return domain.ErrUnknownTeam
	}
	if len(t.Members) >= r.capacity {
		return domain.ErrTeamFull
	}
	t.Members = append(t.Members, userID)
	return nil
}

func (r *Registry) RemoveMember(teamID int, userID string) error {
	t, ok := r.teams[teamID]
	if !ok {
		return domain.ErrUnknownTeam
	}
	for i, m := range t.Members {
		if m == userID {
			t.Members = append(t.Members[:i], t.Members[i+1:]...)
			return nil
		}
	}
	return domain.ErrUserNotInTeam
}

func (r *Registry) Team(id int) (domain.Team, bool) {
	t, ok := r.teams[id]
	if !ok {
		return domain.Team{}, false
	}
	return t.Clone(), true
}

// Teams devuelve copias ordenadas por id.
func (r *Registry) Teams() []domain.Team {
	out := make([]domain.Team, 0, len(r.teams))
	for _, id := range r.sortedIDs() {
		out = append(out, r.teams[id].Clone())
	}
	return out
}

func (r *Registry) Counts() (teams, members int) {
	for _, t := range r.teams {
		members += len(t.Members)
	}
	return len(r.teams), members
}

func (r *Registry) CategoryID() string { return r.categoryID }

func (r *Registry) SetCategoryID(id string) { r.categoryID = id }

func (r *Registry) Snapshot() domain.Snapshot {
	s := domain.Snapshot{Teams: make(map[int]domain.Team, len(r.teams)), CategoryID: r.categoryID}
	for id, t := range r.teams {
		s.Teams[id] = t.Clone()
	}
	return s
}

// Load reemplaza el estado completo (restore al arrancar).
func (r *Registry) Load(s domain.Snapshot) {
	r.teams = make(map[int]*domain.Team, len(s.Teams))
	for id, t := range s.Teams {
		c := t.Clone()
		c.ID = id
		if c.Members == nil {
			c.Members = []string{}
		}
		r.teams[id] = &c
	}
	r.categoryID = s.CategoryID
}

func (r *Registry) sortedIDs() []int {
	ids := make([]int, 0, len(r.teams))
	for id := range r.teams {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
