package repository

import (
	"context"
	"strings"

	"github.com/iliyamo/stadium-booking/internal/model"
)

func (r *SQLRecords) InsertUser(ctx context.Context, u *model.User) error {
	u.Email = normalizeEmail(u.Email)
	ts := now()
	res, err := r.q.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, role, created_at, updated_at) VALUES (?,?,?,?,?)",
		u.Email, u.PasswordHash, u.Role, ts, ts)
	if err != nil {
		if isDuplicate(err) {
			return ErrEmailExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = uint64(id)
	u.CreatedAt, u.UpdatedAt = ts, ts
	return nil
}

func (r *SQLRecords) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	return r.getUser(ctx, "email=?", normalizeEmail(email))
}

func (r *SQLRecords) GetUserByID(ctx context.Context, id uint64) (model.User, error) {
	return r.getUser(ctx, "id=?", id)
}

func (r *SQLRecords) getUser(ctx context.Context, cond string, arg any) (model.User, error) {
	var (
		u    model.User
		role string
	)
	err := r.q.QueryRowContext(ctx,
		"SELECT id, email, password_hash, role, created_at, updated_at FROM users WHERE "+cond+" LIMIT 1",
		arg).Scan(&u.ID, &u.Email, &u.PasswordHash, &role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return u, notFound(err)
	}
	if u.Role, err = model.ParseRole(role); err != nil {
		return u, err
	}
	return u, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
