package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/stadium-booking/internal/model"
)

const teamColumns = "id, captain_id, name, level, looking_for_players, created_at"

func scanTeam(row rowScanner) (model.Team, error) {
	var (
		t     model.Team
		level sql.NullInt16
	)
	err := row.Scan(&t.ID, &t.CaptainID, &t.Name, &level, &t.LookingForPlayers, &t.CreatedAt)
	t.Level = smallPtr(level)
	return t, err
}

func (r *SQLRecords) InsertTeam(ctx context.Context, t *model.Team) error {
	ts := now()
	res, err := r.q.ExecContext(ctx,
		"INSERT INTO teams (captain_id, name, level, looking_for_players, created_at) VALUES (?,?,?,?,?)",
		t.CaptainID, t.Name, nullSmall(t.Level), t.LookingForPlayers, ts)
	if err != nil {
		if isDuplicate(err) {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	t.CreatedAt = ts
	return nil
}

func (r *SQLRecords) GetTeam(ctx context.Context, id uint64) (model.Team, error) {
	t, err := scanTeam(r.q.QueryRowContext(ctx, "SELECT "+teamColumns+" FROM teams WHERE id=?", id))
	return t, notFound(err)
}

func (r *SQLRecords) GetTeamByCaptain(ctx context.Context, captainID uint64) (model.Team, error) {
	t, err := scanTeam(r.q.QueryRowContext(ctx, "SELECT "+teamColumns+" FROM teams WHERE captain_id=?", captainID))
	return t, notFound(err)
}

func (r *SQLRecords) UpdateTeam(ctx context.Context, t model.Team) error {
	res, err := r.q.ExecContext(ctx,
		"UPDATE teams SET name=?, level=?, looking_for_players=? WHERE id=?",
		t.Name, nullSmall(t.Level), t.LookingForPlayers, t.ID)
	if err != nil {
		return err
	}
	return expectOne(res)
}

func (r *SQLRecords) ListTeams(ctx context.Context, f TeamFilter) ([]model.Team, error) {
	var (
		where []string
		args  []any
	)
	if f.LookingForPlayers {
		where = append(where, "looking_for_players=TRUE")
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		where = append(where, "name LIKE ?")
		args = append(args, "%"+escapeLike(q)+"%")
	}
	query := "SELECT " + teamColumns + " FROM teams"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY name, id"

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Team
	for rows.Next() {
		t, err := scanTeam(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *SQLRecords) InsertMember(ctx context.Context, m *model.TeamMember) error {
	res, err := r.q.ExecContext(ctx,
		"INSERT INTO team_members (team_id, name, age, position, level, is_captain) VALUES (?,?,?,?,?,?)",
		m.TeamID, m.Name, nullSmall(m.Age), nullStr(m.Position), nullSmall(m.Level), m.IsCaptain)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	return nil
}

func (r *SQLRecords) ListMembers(ctx context.Context, teamID uint64) ([]model.TeamMember, error) {
	rows, err := r.q.QueryContext(ctx,
		"SELECT id, team_id, name, age, position, level, is_captain FROM team_members WHERE team_id=? ORDER BY is_captain DESC, id",
		teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.TeamMember
	for rows.Next() {
		var (
			m          model.TeamMember
			age, level sql.NullInt16
			position   sql.NullString
		)
		if err := rows.Scan(&m.ID, &m.TeamID, &m.Name, &age, &position, &level, &m.IsCaptain); err != nil {
			return nil, err
		}
		m.Age, m.Level, m.Position = smallPtr(age), smallPtr(level), strPtr(position)
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *SQLRecords) DeleteMember(ctx context.Context, teamID, memberID uint64) error {
	res, err := r.q.ExecContext(ctx, "DELETE FROM team_members WHERE id=? AND team_id=?", memberID, teamID)
	if err != nil {
		return err
	}
	return expectOne(res)
}
