package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/iliyamo/stadium-booking/internal/model"
)

const stadiumColumns = "id, owner_id, name, location, price_per_hour_cents, description, images, created_at, updated_at"

func scanStadium(row rowScanner) (model.Stadium, error) {
	var (
		s      model.Stadium
		images sql.NullString
	)
	if err := row.Scan(&s.ID, &s.OwnerID, &s.Name, &s.Location, &s.PricePerHourCents,
		&s.Description, &images, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return s, err
	}
	s.Images = []string{}
	if images.Valid && images.String != "" {
		if err := sonic.UnmarshalString(images.String, &s.Images); err != nil {
			return s, err
		}
	}
	return s, nil
}

func encodeImages(images []string) (string, error) {
	if images == nil {
		images = []string{}
	}
	return sonic.MarshalString(images)
}

func (r *SQLRecords) InsertStadium(ctx context.Context, s *model.Stadium) error {
	images, err := encodeImages(s.Images)
	if err != nil {
		return err
	}
	ts := now()
	res, err := r.q.ExecContext(ctx,
		`INSERT INTO stadiums (owner_id, name, location, price_per_hour_cents, description, images, created_at, updated_at)
		 VALUES (?,?,?,?,?,?,?,?)`,
		s.OwnerID, s.Name, s.Location, s.PricePerHourCents, s.Description, images, ts, ts)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	s.CreatedAt, s.UpdatedAt = ts, ts
	return nil
}

func (r *SQLRecords) GetStadium(ctx context.Context, id uint64) (model.Stadium, error) {
	s, err := scanStadium(r.q.QueryRowContext(ctx,
		"SELECT "+stadiumColumns+" FROM stadiums WHERE id=?", id))
	return s, notFound(err)
}

func (r *SQLRecords) UpdateStadium(ctx context.Context, s model.Stadium) error {
	images, err := encodeImages(s.Images)
	if err != nil {
		return err
	}
	res, err := r.q.ExecContext(ctx,
		`UPDATE stadiums SET name=?, location=?, price_per_hour_cents=?, description=?, images=?, updated_at=?
		 WHERE id=?`,
		s.Name, s.Location, s.PricePerHourCents, s.Description, images, now(), s.ID)
	if err != nil {
		return err
	}
	return expectOne(res)
}

func (r *SQLRecords) DeleteStadium(ctx context.Context, id uint64) error {
	res, err := r.q.ExecContext(ctx, "DELETE FROM stadiums WHERE id=?", id)
	if err != nil {
		return err
	}
	return expectOne(res)
}

func (r *SQLRecords) ListStadiums(ctx context.Context, f StadiumFilter) ([]model.Stadium, error) {
	var (
		where []string
		args  []any
	)
	if f.OwnerID != 0 {
		where = append(where, "owner_id=?")
		args = append(args, f.OwnerID)
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		where = append(where, "(name LIKE ? OR location LIKE ?)")
		like := "%" + escapeLike(q) + "%"
		args = append(args, like, like)
	}
	query := "SELECT " + stadiumColumns + " FROM stadiums"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id DESC"
	if f.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, f.Limit, f.Offset)
	}

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Stadium
	for rows.Next() {
		s, err := scanStadium(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// expectOne maps a zero-row write to ErrNotFound.
func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
