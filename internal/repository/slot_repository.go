package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/stadium-booking/internal/model"
)

const slotColumns = "id, stadium_id, slot_date, start_time, end_time, status, accepted_booking_id, version, created_at, updated_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSlot(row rowScanner) (model.TimeSlot, error) {
	var (
		s        model.TimeSlot
		accepted sql.NullInt64
	)
	err := row.Scan(&s.ID, &s.StadiumID, &s.Date, &s.StartTime, &s.EndTime, &s.Status,
		&accepted, &s.Version, &s.CreatedAt, &s.UpdatedAt)
	s.AcceptedBookingID = idPtr(accepted)
	return s, err
}

func (r *SQLRecords) GetSlot(ctx context.Context, id uint64) (model.TimeSlot, error) {
	s, err := scanSlot(r.q.QueryRowContext(ctx,
		"SELECT "+slotColumns+" FROM time_slots WHERE id=?", id))
	return s, notFound(err)
}

// LockSlot takes the row lock with SELECT ... FOR UPDATE. Outside a
// transaction the lock is released as soon as the statement completes.
func (r *SQLRecords) LockSlot(ctx context.Context, id uint64) (model.TimeSlot, error) {
	s, err := scanSlot(r.q.QueryRowContext(ctx,
		"SELECT "+slotColumns+" FROM time_slots WHERE id=? FOR UPDATE", id))
	return s, notFound(err)
}

func (r *SQLRecords) FindSlot(ctx context.Context, key model.SlotKey) (model.TimeSlot, error) {
	s, err := scanSlot(r.q.QueryRowContext(ctx,
		"SELECT "+slotColumns+" FROM time_slots WHERE stadium_id=? AND slot_date=? AND start_time=?",
		key.StadiumID, key.Date, key.StartTime))
	return s, notFound(err)
}

func (r *SQLRecords) ListSlotsByStadiumDate(ctx context.Context, stadiumID uint64, date string) ([]model.TimeSlot, error) {
	rows, err := r.q.QueryContext(ctx,
		"SELECT "+slotColumns+" FROM time_slots WHERE stadium_id=? AND slot_date=? ORDER BY start_time",
		stadiumID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.TimeSlot
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SQLRecords) InsertSlot(ctx context.Context, s *model.TimeSlot) error {
	ts := now()
	s.Version = 1
	res, err := r.q.ExecContext(ctx,
		`INSERT INTO time_slots (stadium_id, slot_date, start_time, end_time, status, accepted_booking_id, version, created_at, updated_at)
		 VALUES (?,?,?,?,?,?,?,?,?)`,
		s.StadiumID, s.Date, s.StartTime, s.EndTime, s.Status, nullID(s.AcceptedBookingID), s.Version, ts, ts)
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
	s.ID = uint64(id)
	s.CreatedAt, s.UpdatedAt = ts, ts
	return nil
}

func (r *SQLRecords) UpdateSlot(ctx context.Context, s model.TimeSlot) (model.TimeSlot, error) {
	ts := now()
	res, err := r.q.ExecContext(ctx,
		`UPDATE time_slots SET status=?, accepted_booking_id=?, version=version+1, updated_at=?
		 WHERE id=? AND version=?`,
		s.Status, nullID(s.AcceptedBookingID), ts, s.ID, s.Version)
	if err != nil {
		return s, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return s, err
	}
	if n == 0 {
		return s, ErrStale
	}
	s.Version++
	s.UpdatedAt = ts
	return s, nil
}
