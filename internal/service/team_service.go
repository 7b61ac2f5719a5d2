package service

import (
	"context"
	"strings"

	"github.com/iliyamo/stadium-booking/internal/model"
	"github.com/iliyamo/stadium-booking/internal/repository"
)

// TeamInput carries the captain-editable team fields.
type TeamInput struct {
	Name              string
	Level             *uint8
	LookingForPlayers bool
	CaptainName       string // roster name for the captain, used on create
}

type MemberInput struct {
	Name     string
	Age      *uint8
	Position *string
	Level    *uint8
}

func validLevel(field string, l *uint8) error {
	if l != nil && (*l < 1 || *l > 10) {
		return repository.Invalid(field, "must be between 1 and 10")
	}
	return nil
}

func (in TeamInput) validate() error {
	if n := strings.TrimSpace(in.Name); n == "" || len(n) > 120 {
		return repository.Invalid("name", "required, at most 120 characters")
	}
	return validLevel("level", in.Level)
}

func (in MemberInput) validate() error {
	if n := strings.TrimSpace(in.Name); n == "" || len(n) > 120 {
		return repository.Invalid("name", "required, at most 120 characters")
	}
	if in.Age != nil && (*in.Age < 5 || *in.Age > 99) {
		return repository.Invalid("age", "must be between 5 and 99")
	}
	if in.Position != nil && len(*in.Position) > 40 {
		return repository.Invalid("position", "at most 40 characters")
	}
	return validLevel("level", in.Level)
}

type TeamService struct {
	store repository.Store
}

func NewTeamService(store repository.Store) *TeamService {
	return &TeamService{store: store}
}

// Create makes the actor captain of a new team with themselves on the
// roster. A player captains at most one team.
func (s *TeamService) Create(ctx context.Context, actor model.Identity, in TeamInput) (model.Team, error) {
	if !actor.IsPlayer() {
		return model.Team{}, repository.ErrUnauthorized
	}
	if err := in.validate(); err != nil {
		return model.Team{}, err
	}
	captain := strings.TrimSpace(in.CaptainName)
	if captain == "" {
		captain = "Captain"
	}

	t := model.Team{
		CaptainID:         actor.UserID,
		Name:              strings.TrimSpace(in.Name),
		Level:             in.Level,
		LookingForPlayers: in.LookingForPlayers,
	}
	err := s.store.Atomic(ctx, func(r repository.Records) error {
		if err := r.InsertTeam(ctx, &t); err != nil {
			return err
		}
		m := model.TeamMember{TeamID: t.ID, Name: captain, Level: in.Level, IsCaptain: true}
		if err := r.InsertMember(ctx, &m); err != nil {
			return err
		}
		t.Members = []model.TeamMember{m}
		return nil
	})
	if err != nil {
		return model.Team{}, err
	}
	return t, nil
}

// Mine returns the actor's team with its roster.
func (s *TeamService) Mine(ctx context.Context, actor model.Identity) (model.Team, error) {
	t, err := s.store.GetTeamByCaptain(ctx, actor.UserID)
	if err != nil {
		return model.Team{}, err
	}
	if t.Members, err = s.store.ListMembers(ctx, t.ID); err != nil {
		return model.Team{}, err
	}
	return t, nil
}

func (s *TeamService) Update(ctx context.Context, actor model.Identity, in TeamInput) (model.Team, error) {
	if err := in.validate(); err != nil {
		return model.Team{}, err
	}
	t, err := s.store.GetTeamByCaptain(ctx, actor.UserID)
	if err != nil {
		return model.Team{}, err
	}
	t.Name = strings.TrimSpace(in.Name)
	t.Level = in.Level
	t.LookingForPlayers = in.LookingForPlayers
	if err := s.store.UpdateTeam(ctx, t); err != nil {
		return model.Team{}, err
	}
	return s.Mine(ctx, actor)
}

func (s *TeamService) AddMember(ctx context.Context, actor model.Identity, in MemberInput) (model.TeamMember, error) {
	if err := in.validate(); err != nil {
		return model.TeamMember{}, err
	}
	t, err := s.store.GetTeamByCaptain(ctx, actor.UserID)
	if err != nil {
		return model.TeamMember{}, err
	}
	m := model.TeamMember{
		TeamID:   t.ID,
		Name:     strings.TrimSpace(in.Name),
		Age:      in.Age,
		Position: in.Position,
		Level:    in.Level,
	}
	if err := s.store.InsertMember(ctx, &m); err != nil {
		return model.TeamMember{}, err
	}
	return m, nil
}

// RemoveMember drops a roster entry. The captain's own entry stays.
func (s *TeamService) RemoveMember(ctx context.Context, actor model.Identity, memberID uint64) error {
	return s.store.Atomic(ctx, func(r repository.Records) error {
		t, err := r.GetTeamByCaptain(ctx, actor.UserID)
		if err != nil {
			return err
		}
		members, err := r.ListMembers(ctx, t.ID)
		if err != nil {
			return err
		}
		for _, m := range members {
			if m.ID == memberID && m.IsCaptain {
				return repository.Invalid("member_id", "the captain cannot be removed")
			}
		}
		return r.DeleteMember(ctx, t.ID, memberID)
	})
}

// Find lists teams that are looking for players, optionally by name.
func (s *TeamService) Find(ctx context.Context, query string) ([]model.Team, error) {
	return s.store.ListTeams(ctx, repository.TeamFilter{Query: query, LookingForPlayers: true})
}
