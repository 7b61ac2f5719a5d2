// Package service implements the booking core (slot store, booking ledger
// and the availability coordinator between them) plus the stadium, team
// and analytics use cases built on repository.Store.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/iliyamo/stadium-booking/internal/model"
	"github.com/iliyamo/stadium-booking/internal/repository"
)

// SlotStore owns the availability state of stadium hours. Its write methods
// take the Records of the caller's unit of work and are only used by the
// Coordinator.
type SlotStore struct {
	store repository.Store
}

func NewSlotStore(store repository.Store) *SlotStore {
	return &SlotStore{store: store}
}

// slotKey validates the hour and returns its canonical key and end time.
func slotKey(stadiumID uint64, date, start string) (model.SlotKey, string, error) {
	if err := model.ParseSlotDate(date); err != nil {
		return model.SlotKey{}, "", repository.Invalid("date", err.Error())
	}
	start, end, err := model.ParseSlotStart(start)
	if err != nil {
		return model.SlotKey{}, "", repository.Invalid("start_time", err.Error())
	}
	return model.SlotKey{StadiumID: stadiumID, Date: date, StartTime: start}, end, nil
}

// GetSlot returns the stored slot or ErrNotFound if the hour was never touched.
func (s *SlotStore) GetSlot(ctx context.Context, stadiumID uint64, date, start string) (model.TimeSlot, error) {
	key, _, err := slotKey(stadiumID, date, start)
	if err != nil {
		return model.TimeSlot{}, err
	}
	return s.store.FindSlot(ctx, key)
}

// EnsureSlot returns the slot for the hour, creating it as available on
// first use. When two callers race, the loser re-reads the winner's row.
func (s *SlotStore) EnsureSlot(ctx context.Context, stadiumID uint64, date, start string) (model.TimeSlot, error) {
	key, end, err := slotKey(stadiumID, date, start)
	if err != nil {
		return model.TimeSlot{}, err
	}
	if _, err := s.store.GetStadium(ctx, stadiumID); err != nil {
		return model.TimeSlot{}, fmt.Errorf("stadium %d: %w", stadiumID, err)
	}

	slot, err := s.store.FindSlot(ctx, key)
	if err == nil {
		return slot, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return model.TimeSlot{}, err
	}

	slot = model.TimeSlot{StadiumID: stadiumID, Date: key.Date, StartTime: key.StartTime, EndTime: end, Status: model.SlotAvailable}
	switch err := s.store.InsertSlot(ctx, &slot); {
	case err == nil:
		return slot, nil
	case errors.Is(err, repository.ErrConflict):
		return s.store.FindSlot(ctx, key)
	default:
		return model.TimeSlot{}, err
	}
}

// Day lists every default hour of the date. Hours without a stored slot are
// reported as available with a zero ID.
func (s *SlotStore) Day(ctx context.Context, stadiumID uint64, date string) ([]model.TimeSlot, error) {
	if err := model.ParseSlotDate(date); err != nil {
		return nil, repository.Invalid("date", err.Error())
	}
	if _, err := s.store.GetStadium(ctx, stadiumID); err != nil {
		return nil, fmt.Errorf("stadium %d: %w", stadiumID, err)
	}
	stored, err := s.store.ListSlotsByStadiumDate(ctx, stadiumID, date)
	if err != nil {
		return nil, err
	}
	byStart := make(map[string]model.TimeSlot, len(stored))
	for _, sl := range stored {
		byStart[sl.StartTime] = sl
	}

	starts := model.DayStarts()
	out := make([]model.TimeSlot, 0, len(starts))
	for _, start := range starts {
		if sl, ok := byStart[start]; ok {
			out = append(out, sl)
			continue
		}
		_, end, _ := model.ParseSlotStart(start)
		out = append(out, model.TimeSlot{StadiumID: stadiumID, Date: date, StartTime: start, EndTime: end, Status: model.SlotAvailable})
	}
	return out, nil
}

// SetStatus is the owner toggle. Only available and locked are legal
// targets and a booked slot cannot be toggled.
func (s *SlotStore) SetStatus(ctx context.Context, r repository.Records, slot model.TimeSlot, status model.SlotStatus) (model.TimeSlot, error) {
	if status != model.SlotAvailable && status != model.SlotLocked {
		return slot, repository.Invalid("status", "must be available or locked")
	}
	if slot.Status == model.SlotBooked {
		return slot, repository.ErrSlotLocked
	}
	if slot.Status == status {
		return slot, nil
	}
	slot.Status = status
	slot.AcceptedBookingID = nil
	return r.UpdateSlot(ctx, slot)
}

// CommitBooking marks the slot booked by bookingID. A concurrent write
// surfaces as ErrSlotAlreadyBooked.
func (s *SlotStore) CommitBooking(ctx context.Context, r repository.Records, slot model.TimeSlot, bookingID uint64) (model.TimeSlot, error) {
	if slot.Status == model.SlotBooked || slot.Status == model.SlotLocked {
		return slot, repository.ErrSlotAlreadyBooked
	}
	id := bookingID
	slot.Status = model.SlotBooked
	slot.AcceptedBookingID = &id
	updated, err := r.UpdateSlot(ctx, slot)
	if errors.Is(err, repository.ErrStale) {
		return slot, repository.ErrSlotAlreadyBooked
	}
	return updated, err
}

// Release returns the slot to available. It refuses while any booking of
// the slot is still accepted.
func (s *SlotStore) Release(ctx context.Context, r repository.Records, slot model.TimeSlot) (model.TimeSlot, error) {
	bookings, err := r.ListBookingsBySlot(ctx, slot.ID)
	if err != nil {
		return slot, err
	}
	for _, b := range bookings {
		if b.Status == model.BookingAccepted {
			return slot, repository.ErrSlotAlreadyBooked
		}
	}
	if slot.Status == model.SlotLocked {
		return slot, repository.ErrSlotLocked
	}
	slot.Status = model.SlotAvailable
	slot.AcceptedBookingID = nil
	return r.UpdateSlot(ctx, slot)
}
