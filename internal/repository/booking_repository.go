package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/stadium-booking/internal/model"
)

const bookingColumns = "id, slot_id, stadium_id, player_id, team_id, message, status, created_at, updated_at"

func scanBooking(row rowScanner, extra ...any) (model.Booking, error) {
	var (
		b    model.Booking
		team sql.NullInt64
		msg  sql.NullString
	)
	dest := append([]any{&b.ID, &b.SlotID, &b.StadiumID, &b.PlayerID, &team, &msg, &b.Status, &b.CreatedAt, &b.UpdatedAt}, extra...)
	err := row.Scan(dest...)
	b.TeamID = idPtr(team)
	b.Message = strPtr(msg)
	return b, err
}

func (r *SQLRecords) InsertBooking(ctx context.Context, b *model.Booking) error {
	ts := now()
	res, err := r.q.ExecContext(ctx,
		`INSERT INTO bookings (slot_id, stadium_id, player_id, team_id, message, status, created_at, updated_at)
		 VALUES (?,?,?,?,?,?,?,?)`,
		b.SlotID, b.StadiumID, b.PlayerID, nullID(b.TeamID), nullStr(b.Message), b.Status, ts, ts)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	b.CreatedAt, b.UpdatedAt = ts, ts
	return nil
}

func (r *SQLRecords) GetBooking(ctx context.Context, id uint64) (model.Booking, error) {
	b, err := scanBooking(r.q.QueryRowContext(ctx,
		"SELECT "+bookingColumns+" FROM bookings WHERE id=?", id))
	return b, notFound(err)
}

func (r *SQLRecords) FindPendingBooking(ctx context.Context, slotID, playerID uint64) (model.Booking, error) {
	b, err := scanBooking(r.q.QueryRowContext(ctx,
		"SELECT "+bookingColumns+" FROM bookings WHERE slot_id=? AND player_id=? AND status=? ORDER BY id LIMIT 1",
		slotID, playerID, model.BookingPending))
	return b, notFound(err)
}

func (r *SQLRecords) ListBookingsBySlot(ctx context.Context, slotID uint64) ([]model.Booking, error) {
	rows, err := r.q.QueryContext(ctx,
		"SELECT "+bookingColumns+" FROM bookings WHERE slot_id=? ORDER BY id", slotID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *SQLRecords) SetBookingStatus(ctx context.Context, id uint64, from, to model.BookingStatus) error {
	res, err := r.q.ExecContext(ctx,
		"UPDATE bookings SET status=?, updated_at=? WHERE id=? AND status=?",
		to, now(), id, from)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrStale
	}
	return nil
}

// RejectPendingBookings expects the slot row to be locked by the caller's
// transaction, so no new pending booking can appear between the two
// statements.
func (r *SQLRecords) RejectPendingBookings(ctx context.Context, slotID, keepID uint64) ([]uint64, error) {
	rows, err := r.q.QueryContext(ctx,
		"SELECT id FROM bookings WHERE slot_id=? AND status=? AND id<>? ORDER BY id",
		slotID, model.BookingPending, keepID)
	if err != nil {
		return nil, err
	}
	var ids []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	args := make([]any, 0, len(ids)+3)
	args = append(args, model.BookingRejected, now(), model.BookingPending)
	for _, id := range ids {
		args = append(args, id)
	}
	_, err = r.q.ExecContext(ctx,
		"UPDATE bookings SET status=?, updated_at=? WHERE status=? AND id IN ("+placeholders(len(ids))+")",
		args...)
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *SQLRecords) CountBookings(ctx context.Context, stadiumID uint64, status model.BookingStatus) (int, error) {
	var n int
	err := r.q.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM bookings WHERE stadium_id=? AND status=?", stadiumID, status).Scan(&n)
	return n, err
}

const bookingViewQuery = `SELECT b.id, b.slot_id, b.stadium_id, b.player_id, b.team_id, b.message, b.status, b.created_at, b.updated_at,
       s.name, ts.slot_date, ts.start_time, ts.end_time, t.name
  FROM bookings b
  JOIN stadiums s ON s.id = b.stadium_id
  JOIN time_slots ts ON ts.id = b.slot_id
  LEFT JOIN teams t ON t.id = b.team_id
`

// ListBookingsByOwner returns every booking on the owner's stadiums in one
// query, newest first.
func (r *SQLRecords) ListBookingsByOwner(ctx context.Context, ownerID uint64) ([]model.BookingView, error) {
	return r.listBookingViews(ctx, bookingViewQuery+" WHERE s.owner_id=? ORDER BY b.created_at DESC, b.id DESC", ownerID)
}

func (r *SQLRecords) ListBookingsByPlayer(ctx context.Context, playerID uint64) ([]model.BookingView, error) {
	return r.listBookingViews(ctx, bookingViewQuery+" WHERE b.player_id=? ORDER BY b.created_at DESC, b.id DESC", playerID)
}

func (r *SQLRecords) listBookingViews(ctx context.Context, query string, args ...any) ([]model.BookingView, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.BookingView
	for rows.Next() {
		var (
			v        model.BookingView
			teamName sql.NullString
		)
		b, err := scanBooking(rows, &v.StadiumName, &v.Date, &v.StartTime, &v.EndTime, &teamName)
		if err != nil {
			return nil, err
		}
		v.Booking = b
		v.TeamName = strPtr(teamName)
		out = append(out, v)
	}
	return out, rows.Err()
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
