package memory

import (
	"context"
	"sort"

	"github.com/iliyamo/stadium-booking/internal/model"
	"github.com/iliyamo/stadium-booking/internal/repository"
)

func (r records) InsertBooking(ctx context.Context, b *model.Booking) error {
	st, done, err := r.view(ctx)
	if err != nil {
		return err
	}
	defer done()
	if _, ok := st.slots[b.SlotID]; !ok {
		return repository.ErrNotFound
	}
	ts := r.now()
	b.ID = st.id()
	b.CreatedAt, b.UpdatedAt = ts, ts
	st.bookings[b.ID] = *b
	return nil
}

func (r records) GetBooking(ctx context.Context, id uint64) (model.Booking, error) {
	st, done, err := r.view(ctx)
	if err != nil {
		return model.Booking{}, err
	}
	defer done()
	b, ok := st.bookings[id]
	if !ok {
		return model.Booking{}, repository.ErrNotFound
	}
	return b, nil
}

func (r records) FindPendingBooking(ctx context.Context, slotID, playerID uint64) (model.Booking, error) {
	st, done, err := r.view(ctx)
	if err != nil {
		return model.Booking{}, err
	}
	defer done()
	for _, b := range sortedBookings(st) {
		if b.SlotID == slotID && b.PlayerID == playerID && b.Status == model.BookingPending {
			return b, nil
		}
	}
	return model.Booking{}, repository.ErrNotFound
}

func (r records) ListBookingsBySlot(ctx context.Context, slotID uint64) ([]model.Booking, error) {
	st, done, err := r.view(ctx)
	if err != nil {
		return nil, err
	}
	defer done()
	var out []model.Booking
	for _, b := range sortedBookings(st) {
		if b.SlotID == slotID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r records) SetBookingStatus(ctx context.Context, id uint64, from, to model.BookingStatus) error {
	st, done, err := r.view(ctx)
	if err != nil {
		return err
	}
	defer done()
	b, ok := st.bookings[id]
	if !ok || b.Status != from {
		return repository.ErrStale
	}
	b.Status = to
	b.UpdatedAt = r.now()
	st.bookings[id] = b
	return nil
}

func (r records) RejectPendingBookings(ctx context.Context, slotID, keepID uint64) ([]uint64, error) {
	st, done, err := r.view(ctx)
	if err != nil {
		return nil, err
	}
	defer done()
	var ids []uint64
	ts := r.now()
	for _, b := range sortedBookings(st) {
		if b.SlotID != slotID || b.ID == keepID || b.Status != model.BookingPending {
			continue
		}
		b.Status = model.BookingRejected
		b.UpdatedAt = ts
		st.bookings[b.ID] = b
		ids = append(ids, b.ID)
	}
	return ids, nil
}

func (r records) CountBookings(ctx context.Context, stadiumID uint64, status model.BookingStatus) (int, error) {
	st, done, err := r.view(ctx)
	if err != nil {
		return 0, err
	}
	defer done()
	n := 0
	for _, b := range st.bookings {
		if b.StadiumID == stadiumID && b.Status == status {
			n++
		}
	}
	return n, nil
}

func (r records) ListBookingsByOwner(ctx context.Context, ownerID uint64) ([]model.BookingView, error) {
	return r.listViews(ctx, func(st *state, b model.Booking) bool {
		return st.stadiums[b.StadiumID].OwnerID == ownerID
	})
}

func (r records) ListBookingsByPlayer(ctx context.Context, playerID uint64) ([]model.BookingView, error) {
	return r.listViews(ctx, func(_ *state, b model.Booking) bool { return b.PlayerID == playerID })
}

func (r records) listViews(ctx context.Context, keep func(*state, model.Booking) bool) ([]model.BookingView, error) {
	st, done, err := r.view(ctx)
	if err != nil {
		return nil, err
	}
	defer done()
	all := sortedBookings(st)
	var out []model.BookingView
	for i := len(all) - 1; i >= 0; i-- {
		b := all[i]
		stadium, ok := st.stadiums[b.StadiumID]
		if !ok || !keep(st, b) {
			continue
		}
		slot := st.slots[b.SlotID]
		v := model.BookingView{
			Booking:     b,
			StadiumName: stadium.Name,
			Date:        slot.Date,
			StartTime:   slot.StartTime,
			EndTime:     slot.EndTime,
		}
		if b.TeamID != nil {
			if t, ok := st.teams[*b.TeamID]; ok {
				name := t.Name
				v.TeamName = &name
			}
		}
		out = append(out, v)
	}
	return out, nil
}

func sortedBookings(st *state) []model.Booking {
	out := make([]model.Booking, 0, len(st.bookings))
	for _, b := range st.bookings {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
