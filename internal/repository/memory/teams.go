package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/iliyamo/stadium-booking/internal/model"
	"github.com/iliyamo/stadium-booking/internal/repository"
)

func (r records) InsertTeam(ctx context.Context, t *model.Team) error {
	st, done, err := r.view(ctx)
	if err != nil {
		return err
	}
	defer done()
	for _, existing := range st.teams {
		if existing.CaptainID == t.CaptainID {
			return repository.ErrConflict
		}
	}
	t.ID = st.id()
	t.CreatedAt = r.now()
	stored := *t
	stored.Members = nil
	st.teams[t.ID] = stored
	return nil
}

func (r records) GetTeam(ctx context.Context, id uint64) (model.Team, error) {
	st, done, err := r.view(ctx)
	if err != nil {
		return model.Team{}, err
	}
	defer done()
	t, ok := st.teams[id]
	if !ok {
		return model.Team{}, repository.ErrNotFound
	}
	return t, nil
}

func (r records) GetTeamByCaptain(ctx context.Context, captainID uint64) (model.Team, error) {
	st, done, err := r.view(ctx)
	if err != nil {
		return model.Team{}, err
	}
	defer done()
	for _, t := range st.teams {
		if t.CaptainID == captainID {
			return t, nil
		}
	}
	return model.Team{}, repository.ErrNotFound
}

func (r records) UpdateTeam(ctx context.Context, t model.Team) error {
	st, done, err := r.view(ctx)
	if err != nil {
		return err
	}
	defer done()
	cur, ok := st.teams[t.ID]
	if !ok {
		return repository.ErrNotFound
	}
	cur.Name = t.Name
	cur.Level = t.Level
	cur.LookingForPlayers = t.LookingForPlayers
	st.teams[t.ID] = cur
	return nil
}

func (r records) ListTeams(ctx context.Context, f repository.TeamFilter) ([]model.Team, error) {
	st, done, err := r.view(ctx)
	if err != nil {
		return nil, err
	}
	defer done()
	q := strings.ToLower(strings.TrimSpace(f.Query))
	var out []model.Team
	for _, t := range st.teams {
		if f.LookingForPlayers && !t.LookingForPlayers {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(t.Name), q) {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r records) InsertMember(ctx context.Context, m *model.TeamMember) error {
	st, done, err := r.view(ctx)
	if err != nil {
		return err
	}
	defer done()
	if _, ok := st.teams[m.TeamID]; !ok {
		return repository.ErrNotFound
	}
	m.ID = st.id()
	st.members[m.ID] = *m
	return nil
}

func (r records) ListMembers(ctx context.Context, teamID uint64) ([]model.TeamMember, error) {
	st, done, err := r.view(ctx)
	if err != nil {
		return nil, err
	}
	defer done()
	var out []model.TeamMember
	for _, m := range st.members {
		if m.TeamID == teamID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsCaptain != out[j].IsCaptain {
			return out[i].IsCaptain
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r records) DeleteMember(ctx context.Context, teamID, memberID uint64) error {
	st, done, err := r.view(ctx)
	if err != nil {
		return err
	}
	defer done()
	m, ok := st.members[memberID]
	if !ok || m.TeamID != teamID {
		return repository.ErrNotFound
	}
	delete(st.members, memberID)
	return nil
}
