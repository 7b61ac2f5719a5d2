package memory

import (
	"context"
	"sort"

	"github.com/iliyamo/stadium-booking/internal/model"
	"github.com/iliyamo/stadium-booking/internal/repository"
)

func (r records) GetSlot(ctx context.Context, id uint64) (model.TimeSlot, error) {
	st, done, err := r.view(ctx)
	if err != nil {
		return model.TimeSlot{}, err
	}
	defer done()
	s, ok := st.slots[id]
	if !ok {
		return model.TimeSlot{}, repository.ErrNotFound
	}
	return s, nil
}

// LockSlot is GetSlot: units of work already run one at a time.
func (r records) LockSlot(ctx context.Context, id uint64) (model.TimeSlot, error) {
	return r.GetSlot(ctx, id)
}

func (r records) FindSlot(ctx context.Context, key model.SlotKey) (model.TimeSlot, error) {
	st, done, err := r.view(ctx)
	if err != nil {
		return model.TimeSlot{}, err
	}
	defer done()
	for _, s := range st.slots {
		if s.StadiumID == key.StadiumID && s.Date == key.Date && s.StartTime == key.StartTime {
			return s, nil
		}
	}
	return model.TimeSlot{}, repository.ErrNotFound
}

func (r records) ListSlotsByStadiumDate(ctx context.Context, stadiumID uint64, date string) ([]model.TimeSlot, error) {
	st, done, err := r.view(ctx)
	if err != nil {
		return nil, err
	}
	defer done()
	var out []model.TimeSlot
	for _, s := range st.slots {
		if s.StadiumID == stadiumID && s.Date == date {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime < out[j].StartTime })
	return out, nil
}

func (r records) InsertSlot(ctx context.Context, s *model.TimeSlot) error {
	st, done, err := r.view(ctx)
	if err != nil {
		return err
	}
	defer done()
	if _, ok := st.stadiums[s.StadiumID]; !ok {
		return repository.ErrNotFound
	}
	for _, existing := range st.slots {
		if existing.StadiumID == s.StadiumID && existing.Date == s.Date && existing.StartTime == s.StartTime {
			return repository.ErrConflict
		}
	}
	ts := r.now()
	s.ID = st.id()
	s.Version = 1
	s.CreatedAt, s.UpdatedAt = ts, ts
	st.slots[s.ID] = *s
	return nil
}

func (r records) UpdateSlot(ctx context.Context, s model.TimeSlot) (model.TimeSlot, error) {
	st, done, err := r.view(ctx)
	if err != nil {
		return s, err
	}
	defer done()
	cur, ok := st.slots[s.ID]
	if !ok || cur.Version != s.Version {
		return s, repository.ErrStale
	}
	cur.Status = s.Status
	cur.AcceptedBookingID = s.AcceptedBookingID
	cur.Version++
	cur.UpdatedAt = r.now()
	st.slots[s.ID] = cur
	return cur, nil
}
