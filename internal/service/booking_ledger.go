package service

import (
	"context"

	"github.com/iliyamo/stadium-booking/internal/model"
	"github.com/iliyamo/stadium-booking/internal/repository"
)

// BookingLedger is the read and request surface for bookings. Status
// changes always go through the Coordinator.
type BookingLedger struct {
	store repository.Store
	slots *SlotStore
	coord *Coordinator
}

func NewBookingLedger(store repository.Store, slots *SlotStore, coord *Coordinator) *BookingLedger {
	return &BookingLedger{store: store, slots: slots, coord: coord}
}

// Create requests an existing slot.
func (l *BookingLedger) Create(ctx context.Context, actor model.Identity, req BookingRequest) (model.Booking, bool, error) {
	return l.coord.RequestBooking(ctx, actor, req)
}

// CreateAt requests the stadium hour, creating its slot on first use.
func (l *BookingLedger) CreateAt(ctx context.Context, actor model.Identity, stadiumID uint64, date, start string, teamID *uint64, message *string) (model.Booking, bool, error) {
	if !actor.IsPlayer() {
		return model.Booking{}, false, repository.ErrUnauthorized
	}
	slot, err := l.slots.EnsureSlot(ctx, stadiumID, date, start)
	if err != nil {
		return model.Booking{}, false, err
	}
	return l.coord.RequestBooking(ctx, actor, BookingRequest{SlotID: slot.ID, TeamID: teamID, Message: message})
}

// Get returns a booking to its requester or to the stadium's owner.
func (l *BookingLedger) Get(ctx context.Context, actor model.Identity, id uint64) (model.Booking, error) {
	b, err := l.store.GetBooking(ctx, id)
	if err != nil {
		return model.Booking{}, err
	}
	if b.PlayerID == actor.UserID {
		return b, nil
	}
	stadium, err := l.store.GetStadium(ctx, b.StadiumID)
	if err != nil {
		return model.Booking{}, err
	}
	if stadium.OwnerID != actor.UserID {
		return model.Booking{}, repository.ErrUnauthorized
	}
	return b, nil
}

// ListByStadiumOwner returns bookings across all of the owner's stadiums.
func (l *BookingLedger) ListByStadiumOwner(ctx context.Context, actor model.Identity) ([]model.BookingView, error) {
	if !actor.IsOwner() {
		return nil, repository.ErrUnauthorized
	}
	return l.store.ListBookingsByOwner(ctx, actor.UserID)
}

func (l *BookingLedger) ListByPlayer(ctx context.Context, actor model.Identity) ([]model.BookingView, error) {
	return l.store.ListBookingsByPlayer(ctx, actor.UserID)
}

func (l *BookingLedger) Resolve(ctx context.Context, actor model.Identity, id uint64, d model.Decision) (model.Booking, error) {
	return l.coord.Resolve(ctx, actor, id, d)
}

func (l *BookingLedger) Cancel(ctx context.Context, actor model.Identity, id uint64) (model.Booking, error) {
	return l.coord.Cancel(ctx, actor, id)
}
