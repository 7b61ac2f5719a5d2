package service

import (
	"context"
	"net/url"
	"strings"

	"github.com/iliyamo/stadium-booking/internal/model"
	"github.com/iliyamo/stadium-booking/internal/repository"
)

const maxStadiumImages = 10

// StadiumInput carries the owner-editable stadium fields.
type StadiumInput struct {
	Name              string
	Location          string
	PricePerHourCents int64
	Description       string
	Images            []string
}

func (in StadiumInput) validate() error {
	switch {
	case strings.TrimSpace(in.Name) == "":
		return repository.Invalid("name", "required")
	case len(in.Name) > 200:
		return repository.Invalid("name", "at most 200 characters")
	case strings.TrimSpace(in.Location) == "":
		return repository.Invalid("location", "required")
	case in.PricePerHourCents <= 0:
		return repository.Invalid("price_per_hour_cents", "must be positive")
	case in.PricePerHourCents > 1<<31:
		return repository.Invalid("price_per_hour_cents", "too large")
	case len(in.Images) > maxStadiumImages:
		return repository.Invalid("images", "too many images")
	}
	for _, img := range in.Images {
		u, err := url.Parse(img)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return repository.Invalid("images", "must be absolute URLs")
		}
	}
	return nil
}

type StadiumService struct {
	store repository.Store
}

func NewStadiumService(store repository.Store) *StadiumService {
	return &StadiumService{store: store}
}

func (s *StadiumService) Create(ctx context.Context, actor model.Identity, in StadiumInput) (model.Stadium, error) {
	if !actor.IsOwner() {
		return model.Stadium{}, repository.ErrUnauthorized
	}
	if err := in.validate(); err != nil {
		return model.Stadium{}, err
	}
	st := model.Stadium{
		OwnerID:           actor.UserID,
		Name:              strings.TrimSpace(in.Name),
		Location:          strings.TrimSpace(in.Location),
		PricePerHourCents: uint32(in.PricePerHourCents),
		Description:       in.Description,
		Images:            in.Images,
	}
	if err := s.store.InsertStadium(ctx, &st); err != nil {
		return model.Stadium{}, err
	}
	return st, nil
}

func (s *StadiumService) Update(ctx context.Context, actor model.Identity, id uint64, in StadiumInput) (model.Stadium, error) {
	if err := in.validate(); err != nil {
		return model.Stadium{}, err
	}
	st, err := s.owned(ctx, s.store, actor, id)
	if err != nil {
		return model.Stadium{}, err
	}
	st.Name = strings.TrimSpace(in.Name)
	st.Location = strings.TrimSpace(in.Location)
	st.PricePerHourCents = uint32(in.PricePerHourCents)
	st.Description = in.Description
	st.Images = in.Images
	if err := s.store.UpdateStadium(ctx, st); err != nil {
		return model.Stadium{}, err
	}
	return s.store.GetStadium(ctx, id)
}

// Delete removes the stadium with its slots and bookings. A stadium with an
// accepted booking cannot be deleted.
func (s *StadiumService) Delete(ctx context.Context, actor model.Identity, id uint64) error {
	return s.store.Atomic(ctx, func(r repository.Records) error {
		if _, err := s.owned(ctx, r, actor, id); err != nil {
			return err
		}
		n, err := r.CountBookings(ctx, id, model.BookingAccepted)
		if err != nil {
			return err
		}
		if n > 0 {
			return repository.ErrConflict
		}
		return r.DeleteStadium(ctx, id)
	})
}

func (s *StadiumService) Get(ctx context.Context, id uint64) (model.Stadium, error) {
	return s.store.GetStadium(ctx, id)
}

// List is the public catalogue, optionally filtered by name or location.
func (s *StadiumService) List(ctx context.Context, query string, limit, offset int) ([]model.Stadium, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.ListStadiums(ctx, repository.StadiumFilter{Query: query, Limit: limit, Offset: offset})
}

func (s *StadiumService) ListMine(ctx context.Context, actor model.Identity) ([]model.Stadium, error) {
	if !actor.IsOwner() {
		return nil, repository.ErrUnauthorized
	}
	return s.store.ListStadiums(ctx, repository.StadiumFilter{OwnerID: actor.UserID})
}

func (s *StadiumService) owned(ctx context.Context, r repository.StadiumRecords, actor model.Identity, id uint64) (model.Stadium, error) {
	if !actor.IsOwner() {
		return model.Stadium{}, repository.ErrUnauthorized
	}
	st, err := r.GetStadium(ctx, id)
	if err != nil {
		return model.Stadium{}, err
	}
	if st.OwnerID != actor.UserID {
		return model.Stadium{}, repository.ErrUnauthorized
	}
	return st, nil
}
