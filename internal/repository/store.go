package repository

import (
	"context"
	"time"

	"github.com/iliyamo/stadium-booking/internal/model"
)

// SlotRecords stores time slots. UpdateSlot is a compare-and-set on Version.
type SlotRecords interface {
	GetSlot(ctx context.Context, id uint64) (model.TimeSlot, error)
	// LockSlot reads a slot and, inside a unit of work, holds it against
	// concurrent writers until the unit ends.
	LockSlot(ctx context.Context, id uint64) (model.TimeSlot, error)
	FindSlot(ctx context.Context, key model.SlotKey) (model.TimeSlot, error)
	ListSlotsByStadiumDate(ctx context.Context, stadiumID uint64, date string) ([]model.TimeSlot, error)
	// InsertSlot fills ID, Version and timestamps. A duplicate
	// (stadium, date, start) returns ErrConflict.
	InsertSlot(ctx context.Context, s *model.TimeSlot) error
	// UpdateSlot writes Status and AcceptedBookingID if the stored version
	// still equals s.Version, and returns the slot with its new version.
	// Otherwise it returns ErrStale.
	UpdateSlot(ctx context.Context, s model.TimeSlot) (model.TimeSlot, error)
}

// BookingRecords stores booking requests.
type BookingRecords interface {
	InsertBooking(ctx context.Context, b *model.Booking) error
	GetBooking(ctx context.Context, id uint64) (model.Booking, error)
	FindPendingBooking(ctx context.Context, slotID, playerID uint64) (model.Booking, error)
	ListBookingsBySlot(ctx context.Context, slotID uint64) ([]model.Booking, error)
	// SetBookingStatus moves a booking from one status to another and
	// returns ErrStale if it is no longer in status from.
	SetBookingStatus(ctx context.Context, id uint64, from, to model.BookingStatus) error
	// RejectPendingBookings rejects every pending booking of the slot except
	// keepID and returns the ids it rejected.
	RejectPendingBookings(ctx context.Context, slotID, keepID uint64) ([]uint64, error)
	CountBookings(ctx context.Context, stadiumID uint64, status model.BookingStatus) (int, error)
	ListBookingsByOwner(ctx context.Context, ownerID uint64) ([]model.BookingView, error)
	ListBookingsByPlayer(ctx context.Context, playerID uint64) ([]model.BookingView, error)
}

// StadiumFilter narrows ListStadiums. Zero values mean no restriction.
type StadiumFilter struct {
	OwnerID uint64
	Query   string // substring of name or location
	Limit   int
	Offset  int
}

type StadiumRecords interface {
	InsertStadium(ctx context.Context, s *model.Stadium) error
	GetStadium(ctx context.Context, id uint64) (model.Stadium, error)
	UpdateStadium(ctx context.Context, s model.Stadium) error
	DeleteStadium(ctx context.Context, id uint64) error
	ListStadiums(ctx context.Context, f StadiumFilter) ([]model.Stadium, error)
}

// TeamFilter narrows ListTeams.
type TeamFilter struct {
	Query             string // substring of the team name
	LookingForPlayers bool
}

type TeamRecords interface {
	// InsertTeam returns ErrConflict if the captain already leads a team.
	InsertTeam(ctx context.Context, t *model.Team) error
	GetTeam(ctx context.Context, id uint64) (model.Team, error)
	GetTeamByCaptain(ctx context.Context, captainID uint64) (model.Team, error)
	UpdateTeam(ctx context.Context, t model.Team) error
	ListTeams(ctx context.Context, f TeamFilter) ([]model.Team, error)
	InsertMember(ctx context.Context, m *model.TeamMember) error
	ListMembers(ctx context.Context, teamID uint64) ([]model.TeamMember, error)
	DeleteMember(ctx context.Context, teamID, memberID uint64) error
}

type UserRecords interface {
	// InsertUser returns ErrEmailExists on a duplicate address.
	InsertUser(ctx context.Context, u *model.User) error
	GetUserByEmail(ctx context.Context, email string) (model.User, error)
	GetUserByID(ctx context.Context, id uint64) (model.User, error)
}

type TokenRecords interface {
	StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	// ValidateRefresh returns the owner of a live token or ErrNotFound.
	ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error)
	RevokeRefresh(ctx context.Context, tokenHash string) error
}

// Records is the full set of record operations.
type Records interface {
	SlotRecords
	BookingRecords
	StadiumRecords
	TeamRecords
	UserRecords
	TokenRecords
}

// Store is Records plus units of work. Every write made through the Records
// passed to fn commits together when fn returns nil and is discarded
// otherwise. Slots read with LockSlot inside fn have a single writer.
type Store interface {
	Records
	Atomic(ctx context.Context, fn func(Records) error) error
}
