package service

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sourcegraph/conc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/stadium-booking/internal/metrics"
	"github.com/iliyamo/stadium-booking/internal/model"
	"github.com/iliyamo/stadium-booking/internal/queue"
	"github.com/iliyamo/stadium-booking/internal/repository"
)

func TestAcceptRejectsSiblingsAndBlocksSecondAccept(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.slot(t, "18:00")
	assert.Equal(t, model.SlotAvailable, s.Status)

	b1 := f.request(t, f.playerA, s.ID)
	b2 := f.request(t, f.playerC, s.ID)
	assert.Equal(t, model.SlotPendingHold, f.reload(t, s.ID).Status)

	got, err := f.ledger.Resolve(ctx, f.owner, b1.ID, model.DecisionAccept)
	require.NoError(t, err)
	assert.Equal(t, model.BookingAccepted, got.Status)

	slot := f.reload(t, s.ID)
	assert.Equal(t, model.SlotBooked, slot.Status)
	require.NotNil(t, slot.AcceptedBookingID)
	assert.Equal(t, b1.ID, *slot.AcceptedBookingID)
	assert.Equal(t, model.BookingAccepted, f.booking(t, b1.ID).Status)
	assert.Equal(t, model.BookingRejected, f.booking(t, b2.ID).Status)

	_, err = f.ledger.Resolve(ctx, f.owner, b2.ID, model.DecisionAccept)
	assert.ErrorIs(t, err, repository.ErrSlotAlreadyBooked)

	// Accepting the winner again changes nothing.
	_, err = f.ledger.Resolve(ctx, f.owner, b1.ID, model.DecisionAccept)
	require.NoError(t, err)

	checkInvariants(t, f.store, []uint64{s.ID})

	accepted := f.pub.events[len(f.pub.events)-1]
	assert.Equal(t, queue.KeyBookingAccepted, accepted.Kind)
	assert.Equal(t, []uint64{b2.ID}, accepted.RejectedBookingIDs)
	assert.Equal(t, f.owner.UserID, accepted.OwnerID)
	assert.Equal(t, "Green Arena", accepted.StadiumName)
}

func TestRejectLastPendingReleasesSlot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.slot(t, "09:00")

	b1 := f.request(t, f.playerA, s.ID)
	b2 := f.request(t, f.playerC, s.ID)

	_, err := f.ledger.Resolve(ctx, f.owner, b1.ID, model.DecisionReject)
	require.NoError(t, err)
	assert.Equal(t, model.SlotPendingHold, f.reload(t, s.ID).Status)

	_, err = f.ledger.Resolve(ctx, f.owner, b2.ID, model.DecisionReject)
	require.NoError(t, err)
	assert.Equal(t, model.SlotAvailable, f.reload(t, s.ID).Status)

	// Rejecting twice is harmless.
	got, err := f.ledger.Resolve(ctx, f.owner, b2.ID, model.DecisionReject)
	require.NoError(t, err)
	assert.Equal(t, model.BookingRejected, got.Status)

	checkInvariants(t, f.store, []uint64{s.ID})
	assert.Equal(t, []string{
		queue.KeyBookingRequested, queue.KeyBookingRequested,
		queue.KeyBookingRejected, queue.KeyBookingRejected,
	}, f.pub.kinds())
}

func TestRejectAcceptedBookingRequiresCancel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.slot(t, "10:00")
	b := f.request(t, f.playerA, s.ID)
	_, err := f.coord.Accept(ctx, f.owner, b.ID)
	require.NoError(t, err)

	_, err = f.coord.Reject(ctx, f.owner, b.ID)
	assert.ErrorIs(t, err, repository.ErrSlotLocked)

	got, err := f.ledger.Cancel(ctx, f.owner, b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingRejected, got.Status)
	slot := f.reload(t, s.ID)
	assert.Equal(t, model.SlotAvailable, slot.Status)
	assert.Nil(t, slot.AcceptedBookingID)

	_, err = f.ledger.Cancel(ctx, f.owner, b.ID)
	assert.ErrorIs(t, err, repository.ErrValidation)

	// The hour can be requested again.
	again := f.request(t, f.playerC, s.ID)
	assert.NotEqual(t, b.ID, again.ID)
	checkInvariants(t, f.store, []uint64{s.ID})
}

func TestCancelRefusedBySlotStateCountsConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.slot(t, "12:00")
	b := f.request(t, f.playerA, s.ID)
	_, err := f.coord.Accept(ctx, f.owner, b.ID)
	require.NoError(t, err)

	// Force a slot state Release refuses.
	cur := f.reload(t, s.ID)
	cur.Status = model.SlotLocked
	_, err = f.store.UpdateSlot(ctx, cur)
	require.NoError(t, err)

	locked := metrics.SlotConflictsTotal.WithLabelValues("locked")
	before := testutil.ToFloat64(locked)
	_, err = f.ledger.Cancel(ctx, f.owner, b.ID)
	assert.ErrorIs(t, err, repository.ErrSlotLocked)
	assert.Equal(t, before+1, testutil.ToFloat64(locked))
	assert.Equal(t, model.BookingAccepted, f.booking(t, b.ID).Status)
}

func TestIdempotentCreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.slot(t, "11:00")

	first, created, err := f.ledger.Create(ctx, f.playerA, BookingRequest{SlotID: s.ID})
	require.NoError(t, err)
	assert.True(t, created)
	second, created, err := f.ledger.Create(ctx, f.playerA, BookingRequest{SlotID: s.ID})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	bookings, err := f.store.ListBookingsBySlot(ctx, s.ID)
	require.NoError(t, err)
	assert.Len(t, bookings, 1)
	assert.Equal(t, []string{queue.KeyBookingRequested}, f.pub.kinds())
}

func TestLockScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.slot(t, "12:00")

	change, err := f.coord.SetSlotStatus(ctx, f.owner, f.stadium.ID, testDate, "12:00", model.SlotLocked)
	require.NoError(t, err)
	assert.Equal(t, model.SlotLocked, change.Slot.Status)

	_, _, err = f.ledger.Create(ctx, f.playerA, BookingRequest{SlotID: s.ID})
	assert.ErrorIs(t, err, repository.ErrSlotUnavailable)

	// Accept cannot touch a locked slot either.
	_, err = f.coord.SetSlotStatus(ctx, f.owner, f.stadium.ID, testDate, "12:00", model.SlotAvailable)
	require.NoError(t, err)
	b := f.request(t, f.playerA, s.ID)
	_, err = f.coord.Accept(ctx, f.owner, b.ID)
	require.NoError(t, err)

	_, err = f.coord.SetSlotStatus(ctx, f.owner, f.stadium.ID, testDate, "12:00", model.SlotLocked)
	assert.ErrorIs(t, err, repository.ErrSlotLocked)
	_, err = f.coord.SetSlotStatus(ctx, f.owner, f.stadium.ID, testDate, "12:00", model.SlotAvailable)
	assert.ErrorIs(t, err, repository.ErrSlotLocked)
	checkInvariants(t, f.store, []uint64{s.ID})
}

func TestLockingHeldSlotRejectsPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.slot(t, "13:00")
	b1 := f.request(t, f.playerA, s.ID)
	b2 := f.request(t, f.playerC, s.ID)

	change, err := f.coord.SetSlotStatus(ctx, f.owner, f.stadium.ID, testDate, "13:00", model.SlotLocked)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint64{b1.ID, b2.ID}, change.Rejected)
	assert.Equal(t, model.BookingRejected, f.booking(t, b1.ID).Status)

	_, err = f.coord.Accept(ctx, f.owner, b1.ID)
	assert.ErrorIs(t, err, repository.ErrSlotLocked)
	checkInvariants(t, f.store, []uint64{s.ID})
}

func TestOwnershipIsEnforced(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.slot(t, "14:00")
	b := f.request(t, f.playerA, s.ID)

	otherOwner := model.Identity{UserID: 2, Role: model.RoleStadiumOwner}
	_, err := f.coord.Accept(ctx, otherOwner, b.ID)
	assert.ErrorIs(t, err, repository.ErrUnauthorized)
	_, err = f.coord.Accept(ctx, f.playerA, b.ID)
	assert.ErrorIs(t, err, repository.ErrUnauthorized)
	_, err = f.coord.SetSlotStatus(ctx, otherOwner, f.stadium.ID, testDate, "14:00", model.SlotLocked)
	assert.ErrorIs(t, err, repository.ErrUnauthorized)
	_, _, err = f.ledger.Create(ctx, f.owner, BookingRequest{SlotID: s.ID})
	assert.ErrorIs(t, err, repository.ErrUnauthorized)

	_, err = f.coord.Accept(ctx, f.owner, 9999)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, _, err = f.ledger.Create(ctx, f.playerA, BookingRequest{SlotID: 9999})
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = f.coord.Resolve(ctx, f.owner, b.ID, model.Decision("maybe"))
	assert.ErrorIs(t, err, repository.ErrValidation)
}

func TestRequestWithTeamAndMessage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.slot(t, "15:00")

	team, err := f.teams.Create(ctx, f.playerA, TeamInput{Name: "Falcons"})
	require.NoError(t, err)

	msg := "we bring our own ball"
	b, _, err := f.ledger.Create(ctx, f.playerA, BookingRequest{SlotID: s.ID, TeamID: &team.ID, Message: &msg})
	require.NoError(t, err)
	require.NotNil(t, b.TeamID)

	_, _, err = f.ledger.Create(ctx, f.playerC, BookingRequest{SlotID: s.ID, TeamID: &team.ID})
	assert.ErrorIs(t, err, repository.ErrUnauthorized)

	missing := uint64(4242)
	_, _, err = f.ledger.Create(ctx, f.playerC, BookingRequest{SlotID: s.ID, TeamID: &missing})
	assert.ErrorIs(t, err, repository.ErrValidation)

	long := string(make([]byte, maxMessageLen+1))
	_, _, err = f.ledger.Create(ctx, f.playerC, BookingRequest{SlotID: s.ID, Message: &long})
	assert.ErrorIs(t, err, repository.ErrValidation)

	views, err := f.ledger.ListByPlayer(ctx, f.playerA)
	require.NoError(t, err)
	require.Len(t, views, 1)
	require.NotNil(t, views[0].TeamName)
	assert.Equal(t, "Falcons", *views[0].TeamName)
}

func TestPublishFailureDoesNotFailTransition(t *testing.T) {
	f := newFixture(t)
	f.pub.err = errors.New("broker down")
	s := f.slot(t, "16:00")

	b, created, err := f.ledger.Create(context.Background(), f.playerA, BookingRequest{SlotID: s.ID})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, model.BookingPending, b.Status)
	assert.Equal(t, model.SlotPendingHold, f.reload(t, s.ID).Status)
}

func TestConcurrentAcceptsHaveOneWinner(t *testing.T) {
	for round := 0; round < 20; round++ {
		f := newFixture(t)
		ctx := context.Background()
		s := f.slot(t, "20:00")

		var ids []uint64
		for p := uint64(100); p < 108; p++ {
			b := f.request(t, model.Identity{UserID: p, Role: model.RolePlayer}, s.ID)
			ids = append(ids, b.ID)
		}

		errs := make([]error, len(ids))
		var wg conc.WaitGroup
		for i, id := range ids {
			wg.Go(func() {
				_, errs[i] = f.coord.Accept(ctx, f.owner, id)
			})
		}
		wg.Wait()

		var wins int
		var winner uint64
		for i, err := range errs {
			if err == nil {
				wins++
				winner = ids[i]
				continue
			}
			assert.ErrorIs(t, err, repository.ErrSlotAlreadyBooked)
		}
		require.Equal(t, 1, wins)

		slot := f.reload(t, s.ID)
		assert.Equal(t, model.SlotBooked, slot.Status)
		require.NotNil(t, slot.AcceptedBookingID)
		assert.Equal(t, winner, *slot.AcceptedBookingID)
		checkInvariants(t, f.store, []uint64{s.ID})
	}
}

// TestRandomInterleavingsKeepInvariants drives random requests, accepts,
// rejects, cancels and lock toggles across a few slots and checks the
// slot/booking invariants after every step.
func TestRandomInterleavingsKeepInvariants(t *testing.T) {
	ctx := context.Background()
	starts := []string{"08:00", "09:00", "10:00"}
	players := []model.Identity{
		{UserID: 10, Role: model.RolePlayer},
		{UserID: 11, Role: model.RolePlayer},
		{UserID: 12, Role: model.RolePlayer},
		{UserID: 13, Role: model.RolePlayer},
	}

	for seed := int64(1); seed <= 25; seed++ {
		rng := rand.New(rand.NewSource(seed))
		f := newFixture(t)

		var slotIDs []uint64
		for _, start := range starts {
			slotIDs = append(slotIDs, f.slot(t, start).ID)
		}

		var bookingIDs []uint64
		for step := 0; step < 200; step++ {
			var err error
			switch op := rng.Intn(10); {
			case op < 4:
				var b model.Booking
				b, _, err = f.ledger.Create(ctx, players[rng.Intn(len(players))], BookingRequest{SlotID: slotIDs[rng.Intn(len(slotIDs))]})
				if err == nil {
					bookingIDs = append(bookingIDs, b.ID)
				}
				if err != nil && !errors.Is(err, repository.ErrSlotUnavailable) {
					t.Fatalf("seed %d step %d: create: %v", seed, step, err)
				}
			case op < 6 && len(bookingIDs) > 0:
				_, err = f.coord.Accept(ctx, f.owner, bookingIDs[rng.Intn(len(bookingIDs))])
				if err != nil && !isOneOf(err, repository.ErrSlotAlreadyBooked, repository.ErrSlotLocked, repository.ErrValidation) {
					t.Fatalf("seed %d step %d: accept: %v", seed, step, err)
				}
			case op < 8 && len(bookingIDs) > 0:
				_, err = f.coord.Reject(ctx, f.owner, bookingIDs[rng.Intn(len(bookingIDs))])
				if err != nil && !errors.Is(err, repository.ErrSlotLocked) {
					t.Fatalf("seed %d step %d: reject: %v", seed, step, err)
				}
			case op == 8 && len(bookingIDs) > 0:
				_, err = f.coord.Cancel(ctx, f.owner, bookingIDs[rng.Intn(len(bookingIDs))])
				if err != nil && !errors.Is(err, repository.ErrValidation) {
					t.Fatalf("seed %d step %d: cancel: %v", seed, step, err)
				}
			default:
				status := model.SlotLocked
				if rng.Intn(2) == 0 {
					status = model.SlotAvailable
				}
				_, err = f.coord.SetSlotStatus(ctx, f.owner, f.stadium.ID, testDate, starts[rng.Intn(len(starts))], status)
				if err != nil && !errors.Is(err, repository.ErrSlotLocked) {
					t.Fatalf("seed %d step %d: set status: %v", seed, step, err)
				}
			}
			checkInvariants(t, f.store, slotIDs)
		}
	}
}
