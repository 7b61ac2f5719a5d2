package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/stadium-booking/internal/logging"
	"github.com/iliyamo/stadium-booking/internal/metrics"
	"github.com/iliyamo/stadium-booking/internal/model"
	"github.com/iliyamo/stadium-booking/internal/queue"
	"github.com/iliyamo/stadium-booking/internal/repository"
)

const maxMessageLen = 500

// Coordinator is the only writer of slot status and booking status. Every
// transition runs in one unit of work that first locks the slot row, so a
// slot has a single writer at a time.
//
//	available    --request-->  pending-hold
//	pending-hold --request-->  pending-hold
//	pending-hold --accept(b)-> booked (b accepted, siblings rejected)
//	pending-hold --reject(b)-> pending-hold | available (no pending left)
//	booked       --cancel-->   available
//	available|pending-hold --lock--> locked (pending rejected)
//	locked       --unlock-->   available
type Coordinator struct {
	store     repository.Store
	slots     *SlotStore
	publisher queue.Publisher
	log       *logging.Logger
}

func NewCoordinator(store repository.Store, slots *SlotStore, publisher queue.Publisher) *Coordinator {
	if publisher == nil {
		publisher = queue.NopPublisher{}
	}
	return &Coordinator{
		store:     store,
		slots:     slots,
		publisher: publisher,
		log:       logging.Default().With("component", "coordinator"),
	}
}

// BookingRequest is a player's request for one slot.
type BookingRequest struct {
	SlotID  uint64
	TeamID  *uint64
	Message *string
}

// RequestBooking records a pending booking and holds the slot. A second
// request by the same player for the same slot returns the existing pending
// booking with created == false.
func (c *Coordinator) RequestBooking(ctx context.Context, actor model.Identity, req BookingRequest) (b model.Booking, created bool, err error) {
	if !actor.IsPlayer() {
		return model.Booking{}, false, repository.ErrUnauthorized
	}
	if req.Message != nil && len(*req.Message) > maxMessageLen {
		return model.Booking{}, false, repository.Invalid("message", fmt.Sprintf("at most %d characters", maxMessageLen))
	}

	var ev queue.BookingEvent
	err = c.store.Atomic(ctx, func(r repository.Records) error {
		slot, err := r.LockSlot(ctx, req.SlotID)
		if err != nil {
			return err
		}
		if slot.Status == model.SlotBooked || slot.Status == model.SlotLocked {
			return repository.ErrSlotUnavailable
		}

		existing, err := r.FindPendingBooking(ctx, slot.ID, actor.UserID)
		if err == nil {
			b = existing
			return nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return err
		}

		if req.TeamID != nil {
			team, err := r.GetTeam(ctx, *req.TeamID)
			if errors.Is(err, repository.ErrNotFound) {
				return repository.Invalid("team_id", "team does not exist")
			}
			if err != nil {
				return err
			}
			if team.CaptainID != actor.UserID {
				return repository.ErrUnauthorized
			}
		}

		b = model.Booking{
			SlotID:    slot.ID,
			StadiumID: slot.StadiumID,
			PlayerID:  actor.UserID,
			TeamID:    req.TeamID,
			Message:   req.Message,
			Status:    model.BookingPending,
		}
		if err := r.InsertBooking(ctx, &b); err != nil {
			return err
		}
		if slot.Status == model.SlotAvailable {
			slot.Status = model.SlotPendingHold
			if slot, err = r.UpdateSlot(ctx, slot); err != nil {
				return err
			}
		}
		created = true
		ev, err = c.event(ctx, r, queue.KeyBookingRequested, slot, b)
		return err
	})
	if err != nil {
		c.recordConflict(err)
		return model.Booking{}, false, err
	}
	if created {
		c.emit(ctx, ev)
	}
	return b, created, nil
}

// Resolve applies an owner decision to a pending booking.
func (c *Coordinator) Resolve(ctx context.Context, actor model.Identity, bookingID uint64, d model.Decision) (model.Booking, error) {
	switch d {
	case model.DecisionAccept:
		return c.Accept(ctx, actor, bookingID)
	case model.DecisionReject:
		return c.Reject(ctx, actor, bookingID)
	}
	return model.Booking{}, repository.Invalid("decision", "must be accept or reject")
}

// Accept books the slot for bookingID and rejects every other pending
// request of the slot in the same unit of work. Accepting the booking that
// already owns the slot is a no-op; any other accept on a booked slot fails
// with ErrSlotAlreadyBooked.
func (c *Coordinator) Accept(ctx context.Context, actor model.Identity, bookingID uint64) (model.Booking, error) {
	var (
		b       model.Booking
		changed bool
		ev      queue.BookingEvent
	)
	err := c.store.Atomic(ctx, func(r repository.Records) error {
		var (
			slot model.TimeSlot
			err  error
		)
		b, slot, err = c.lockOwned(ctx, r, actor, bookingID)
		if err != nil {
			return err
		}
		switch slot.Status {
		case model.SlotBooked:
			if slot.AcceptedBookingID != nil && *slot.AcceptedBookingID == b.ID {
				return nil
			}
			return repository.ErrSlotAlreadyBooked
		case model.SlotLocked:
			return repository.ErrSlotLocked
		}
		if b.Status != model.BookingPending {
			return repository.Invalid("status", "booking is "+string(b.Status))
		}

		if err := r.SetBookingStatus(ctx, b.ID, model.BookingPending, model.BookingAccepted); err != nil {
			if errors.Is(err, repository.ErrStale) {
				return repository.ErrSlotAlreadyBooked
			}
			return err
		}
		rejected, err := r.RejectPendingBookings(ctx, slot.ID, b.ID)
		if err != nil {
			return err
		}
		if slot, err = c.slots.CommitBooking(ctx, r, slot, b.ID); err != nil {
			return err
		}
		b.Status = model.BookingAccepted
		changed = true
		ev, err = c.event(ctx, r, queue.KeyBookingAccepted, slot, b)
		ev.RejectedBookingIDs = rejected
		return err
	})
	if err != nil {
		c.recordConflict(err)
		return model.Booking{}, err
	}
	if changed {
		c.emit(ctx, ev)
	}
	return b, nil
}

// Reject declines a pending booking. When it was the last pending request
// the slot becomes available again. Rejecting an already rejected booking
// is a no-op; an accepted booking must be cancelled instead.
func (c *Coordinator) Reject(ctx context.Context, actor model.Identity, bookingID uint64) (model.Booking, error) {
	var (
		b       model.Booking
		changed bool
		ev      queue.BookingEvent
	)
	err := c.store.Atomic(ctx, func(r repository.Records) error {
		var (
			slot model.TimeSlot
			err  error
		)
		b, slot, err = c.lockOwned(ctx, r, actor, bookingID)
		if err != nil {
			return err
		}
		switch b.Status {
		case model.BookingRejected:
			return nil
		case model.BookingAccepted:
			return repository.ErrSlotLocked
		}

		if err := r.SetBookingStatus(ctx, b.ID, model.BookingPending, model.BookingRejected); err != nil {
			return err
		}
		b.Status = model.BookingRejected

		if slot.Status == model.SlotPendingHold {
			pending, err := hasPending(ctx, r, slot.ID)
			if err != nil {
				return err
			}
			if !pending {
				if slot, err = c.slots.Release(ctx, r, slot); err != nil {
					return err
				}
			}
		}
		changed = true
		ev, err = c.event(ctx, r, queue.KeyBookingRejected, slot, b)
		return err
	})
	if err != nil {
		c.recordConflict(err)
		return model.Booking{}, err
	}
	if changed {
		c.emit(ctx, ev)
	}
	return b, nil
}

// Cancel withdraws an accepted booking and reopens the slot.
func (c *Coordinator) Cancel(ctx context.Context, actor model.Identity, bookingID uint64) (model.Booking, error) {
	var (
		b  model.Booking
		ev queue.BookingEvent
	)
	err := c.store.Atomic(ctx, func(r repository.Records) error {
		var (
			slot model.TimeSlot
			err  error
		)
		b, slot, err = c.lockOwned(ctx, r, actor, bookingID)
		if err != nil {
			return err
		}
		if b.Status != model.BookingAccepted {
			return repository.Invalid("status", "only accepted bookings can be cancelled")
		}
		if err := r.SetBookingStatus(ctx, b.ID, model.BookingAccepted, model.BookingRejected); err != nil {
			return err
		}
		b.Status = model.BookingRejected
		if slot, err = c.slots.Release(ctx, r, slot); err != nil {
			return err
		}
		ev, err = c.event(ctx, r, queue.KeyBookingCancelled, slot, b)
		return err
	})
	if err != nil {
		c.recordConflict(err)
		return model.Booking{}, err
	}
	c.emit(ctx, ev)
	return b, nil
}

// SlotChange is the outcome of an owner lock toggle.
type SlotChange struct {
	Slot     model.TimeSlot `json:"slot"`
	Rejected []uint64       `json:"rejected_booking_ids,omitempty"`
}

// SetSlotStatus locks or unlocks one hour of the owner's stadium. Locking a
// held slot rejects its pending requests; locking a booked slot fails with
// ErrSlotLocked.
func (c *Coordinator) SetSlotStatus(ctx context.Context, actor model.Identity, stadiumID uint64, date, start string, status model.SlotStatus) (SlotChange, error) {
	if !actor.IsOwner() {
		return SlotChange{}, repository.ErrUnauthorized
	}
	if status != model.SlotAvailable && status != model.SlotLocked {
		return SlotChange{}, repository.Invalid("status", "must be available or locked")
	}
	stadium, err := c.store.GetStadium(ctx, stadiumID)
	if err != nil {
		return SlotChange{}, err
	}
	if stadium.OwnerID != actor.UserID {
		return SlotChange{}, repository.ErrUnauthorized
	}
	slot, err := c.slots.EnsureSlot(ctx, stadiumID, date, start)
	if err != nil {
		return SlotChange{}, err
	}

	var (
		out     SlotChange
		changed bool
		ev      queue.BookingEvent
	)
	err = c.store.Atomic(ctx, func(r repository.Records) error {
		cur, err := r.LockSlot(ctx, slot.ID)
		if err != nil {
			return err
		}
		out = SlotChange{Slot: cur}
		if cur.Status == status || (status == model.SlotAvailable && cur.Status == model.SlotPendingHold) {
			return nil
		}
		if cur.Status == model.SlotBooked {
			return repository.ErrSlotLocked
		}

		if status == model.SlotLocked {
			if out.Rejected, err = r.RejectPendingBookings(ctx, cur.ID, 0); err != nil {
				return err
			}
		}
		if out.Slot, err = c.slots.SetStatus(ctx, r, cur, status); err != nil {
			return err
		}
		changed = true
		kind := queue.KeySlotUnlocked
		if status == model.SlotLocked {
			kind = queue.KeySlotLocked
		}
		ev = newSlotEvent(kind, out.Slot, stadium)
		ev.RejectedBookingIDs = out.Rejected
		return nil
	})
	if err != nil {
		c.recordConflict(err)
		return SlotChange{}, err
	}
	if changed {
		c.emit(ctx, ev)
	}
	return out, nil
}

// lockOwned loads the booking, checks the actor owns its stadium and locks
// the slot.
func (c *Coordinator) lockOwned(ctx context.Context, r repository.Records, actor model.Identity, bookingID uint64) (model.Booking, model.TimeSlot, error) {
	if !actor.IsOwner() {
		return model.Booking{}, model.TimeSlot{}, repository.ErrUnauthorized
	}
	b, err := r.GetBooking(ctx, bookingID)
	if err != nil {
		return model.Booking{}, model.TimeSlot{}, err
	}
	stadium, err := r.GetStadium(ctx, b.StadiumID)
	if err != nil {
		return model.Booking{}, model.TimeSlot{}, err
	}
	if stadium.OwnerID != actor.UserID {
		return model.Booking{}, model.TimeSlot{}, repository.ErrUnauthorized
	}
	slot, err := r.LockSlot(ctx, b.SlotID)
	if err != nil {
		return model.Booking{}, model.TimeSlot{}, err
	}
	// Re-read under the slot lock; the first read may predate a concurrent commit.
	if b, err = r.GetBooking(ctx, bookingID); err != nil {
		return model.Booking{}, model.TimeSlot{}, err
	}
	return b, slot, nil
}

func hasPending(ctx context.Context, r repository.Records, slotID uint64) (bool, error) {
	bookings, err := r.ListBookingsBySlot(ctx, slotID)
	if err != nil {
		return false, err
	}
	for _, b := range bookings {
		if b.Status == model.BookingPending {
			return true, nil
		}
	}
	return false, nil
}

func (c *Coordinator) event(ctx context.Context, r repository.Records, kind string, slot model.TimeSlot, b model.Booking) (queue.BookingEvent, error) {
	stadium, err := r.GetStadium(ctx, slot.StadiumID)
	if err != nil {
		return queue.BookingEvent{}, err
	}
	ev := newSlotEvent(kind, slot, stadium)
	ev.BookingID = b.ID
	ev.PlayerID = b.PlayerID
	return ev, nil
}

func newSlotEvent(kind string, slot model.TimeSlot, stadium model.Stadium) queue.BookingEvent {
	ev := queue.NewEvent(kind)
	ev.SlotID = slot.ID
	ev.StadiumID = slot.StadiumID
	ev.StadiumName = stadium.Name
	ev.OwnerID = stadium.OwnerID
	ev.Date = slot.Date
	ev.StartTime = slot.StartTime
	ev.SlotStatus = string(slot.Status)
	return ev
}

// emit publishes after commit. The transition already happened, so a broker
// failure is logged and counted but never returned.
func (c *Coordinator) emit(ctx context.Context, ev queue.BookingEvent) {
	metrics.RecordTransition(ev.Kind)
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
	defer cancel()
	err := c.publisher.Publish(pctx, ev)
	metrics.RecordPublish(ev.Kind, err)
	if err != nil {
		c.log.Warn("publish event failed", "kind", ev.Kind, "event_id", ev.EventID, "slot_id", ev.SlotID, "err", err)
	}
}

func (c *Coordinator) recordConflict(err error) {
	switch {
	case errors.Is(err, repository.ErrSlotAlreadyBooked):
		metrics.RecordSlotConflict("already_booked")
	case errors.Is(err, repository.ErrSlotUnavailable):
		metrics.RecordSlotConflict("unavailable")
	case errors.Is(err, repository.ErrSlotLocked):
		metrics.RecordSlotConflict("locked")
	}
}
