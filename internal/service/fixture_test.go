package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/stadium-booking/internal/model"
	"github.com/iliyamo/stadium-booking/internal/queue"
	"github.com/iliyamo/stadium-booking/internal/repository"
	"github.com/iliyamo/stadium-booking/internal/repository/memory"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.BookingEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev queue.BookingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) kinds() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Kind
	}
	return out
}

type fixture struct {
	store     *memory.Store
	pub       *recordingPublisher
	slots     *SlotStore
	coord     *Coordinator
	ledger    *BookingLedger
	stadiums  *StadiumService
	teams     *TeamService
	analytics *AnalyticsService

	owner   model.Identity
	playerA model.Identity
	playerC model.Identity
	stadium model.Stadium
}

const testDate = "2024-03-01"

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	pub := &recordingPublisher{}
	slots := NewSlotStore(store)
	coord := NewCoordinator(store, slots, pub)
	f := &fixture{
		store:     store,
		pub:       pub,
		slots:     slots,
		coord:     coord,
		ledger:    NewBookingLedger(store, slots, coord),
		stadiums:  NewStadiumService(store),
		teams:     NewTeamService(store),
		analytics: NewAnalyticsService(store),
		owner:     model.Identity{UserID: 1, Role: model.RoleStadiumOwner},
		playerA:   model.Identity{UserID: 10, Role: model.RolePlayer},
		playerC:   model.Identity{UserID: 11, Role: model.RolePlayer},
	}
	st, err := f.stadiums.Create(context.Background(), f.owner, StadiumInput{
		Name: "Green Arena", Location: "Riverside", PricePerHourCents: 4000,
	})
	require.NoError(t, err)
	f.stadium = st
	return f
}

func (f *fixture) slot(t *testing.T, start string) model.TimeSlot {
	t.Helper()
	s, err := f.slots.EnsureSlot(context.Background(), f.stadium.ID, testDate, start)
	require.NoError(t, err)
	return s
}

func (f *fixture) request(t *testing.T, who model.Identity, slotID uint64) model.Booking {
	t.Helper()
	b, _, err := f.ledger.Create(context.Background(), who, BookingRequest{SlotID: slotID})
	require.NoError(t, err)
	return b
}

func (f *fixture) reload(t *testing.T, slotID uint64) model.TimeSlot {
	t.Helper()
	s, err := f.store.GetSlot(context.Background(), slotID)
	require.NoError(t, err)
	return s
}

func (f *fixture) booking(t *testing.T, id uint64) model.Booking {
	t.Helper()
	b, err := f.store.GetBooking(context.Background(), id)
	require.NoError(t, err)
	return b
}

// checkInvariants asserts the slot/booking consistency rules for every slot.
func checkInvariants(t *testing.T, store repository.Records, slotIDs []uint64) {
	t.Helper()
	ctx := context.Background()
	for _, id := range slotIDs {
		slot, err := store.GetSlot(ctx, id)
		require.NoError(t, err)
		bookings, err := store.ListBookingsBySlot(ctx, id)
		require.NoError(t, err)

		var accepted, pending int
		var acceptedID uint64
		for _, b := range bookings {
			switch b.Status {
			case model.BookingAccepted:
				accepted++
				acceptedID = b.ID
			case model.BookingPending:
				pending++
			}
		}
		require.LessOrEqual(t, accepted, 1, "slot %d has %d accepted bookings", id, accepted)

		switch slot.Status {
		case model.SlotBooked:
			require.Equal(t, 1, accepted, "booked slot %d", id)
			require.Zero(t, pending, "booked slot %d still has pending siblings", id)
			require.NotNil(t, slot.AcceptedBookingID)
			require.Equal(t, acceptedID, *slot.AcceptedBookingID)
		case model.SlotPendingHold:
			require.Zero(t, accepted)
			require.Positive(t, pending, "held slot %d has no pending bookings", id)
		case model.SlotAvailable, model.SlotLocked:
			require.Zero(t, accepted)
			require.Zero(t, pending, "%s slot %d has pending bookings", slot.Status, id)
			require.Nil(t, slot.AcceptedBookingID)
		default:
			t.Fatalf("unknown slot status %q", slot.Status)
		}
	}
}

func isOneOf(err error, targets ...error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
