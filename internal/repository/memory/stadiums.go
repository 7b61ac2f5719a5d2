package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/iliyamo/stadium-booking/internal/model"
	"github.com/iliyamo/stadium-booking/internal/repository"
)

func (r records) InsertStadium(ctx context.Context, s *model.Stadium) error {
	st, done, err := r.view(ctx)
	if err != nil {
		return err
	}
	defer done()
	ts := r.now()
	s.ID = st.id()
	s.Images = append([]string{}, s.Images...)
	s.CreatedAt, s.UpdatedAt = ts, ts
	st.stadiums[s.ID] = *s
	return nil
}

func (r records) GetStadium(ctx context.Context, id uint64) (model.Stadium, error) {
	st, done, err := r.view(ctx)
	if err != nil {
		return model.Stadium{}, err
	}
	defer done()
	s, ok := st.stadiums[id]
	if !ok {
		return model.Stadium{}, repository.ErrNotFound
	}
	return s, nil
}

func (r records) UpdateStadium(ctx context.Context, s model.Stadium) error {
	st, done, err := r.view(ctx)
	if err != nil {
		return err
	}
	defer done()
	cur, ok := st.stadiums[s.ID]
	if !ok {
		return repository.ErrNotFound
	}
	cur.Name = s.Name
	cur.Location = s.Location
	cur.PricePerHourCents = s.PricePerHourCents
	cur.Description = s.Description
	cur.Images = append([]string{}, s.Images...)
	cur.UpdatedAt = r.now()
	st.stadiums[s.ID] = cur
	return nil
}

// DeleteStadium cascades to the stadium's slots and bookings.
func (r records) DeleteStadium(ctx context.Context, id uint64) error {
	st, done, err := r.view(ctx)
	if err != nil {
		return err
	}
	defer done()
	if _, ok := st.stadiums[id]; !ok {
		return repository.ErrNotFound
	}
	delete(st.stadiums, id)
	for sid, s := range st.slots {
		if s.StadiumID == id {
			delete(st.slots, sid)
		}
	}
	for bid, b := range st.bookings {
		if b.StadiumID == id {
			delete(st.bookings, bid)
		}
	}
	return nil
}

func (r records) ListStadiums(ctx context.Context, f repository.StadiumFilter) ([]model.Stadium, error) {
	st, done, err := r.view(ctx)
	if err != nil {
		return nil, err
	}
	defer done()
	q := strings.ToLower(strings.TrimSpace(f.Query))
	var out []model.Stadium
	for _, s := range st.stadiums {
		if f.OwnerID != 0 && s.OwnerID != f.OwnerID {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(s.Name), q) && !strings.Contains(strings.ToLower(s.Location), q) {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return nil, nil
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}
