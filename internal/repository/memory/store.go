// Package memory is an in-process repository.Store. Units of work are
// serialised and applied copy-on-write, so a failing unit leaves no trace.
package memory

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/iliyamo/stadium-booking/internal/model"
	"github.com/iliyamo/stadium-booking/internal/repository"
)

type refreshToken struct {
	userID    uint64
	expiresAt time.Time
	revoked   bool
}

type state struct {
	nextID   uint64
	users    map[uint64]model.User
	tokens   map[string]refreshToken
	stadiums map[uint64]model.Stadium
	slots    map[uint64]model.TimeSlot
	bookings map[uint64]model.Booking
	teams    map[uint64]model.Team
	members  map[uint64]model.TeamMember
}

func newState() *state {
	return &state{
		users:    map[uint64]model.User{},
		tokens:   map[string]refreshToken{},
		stadiums: map[uint64]model.Stadium{},
		slots:    map[uint64]model.TimeSlot{},
		bookings: map[uint64]model.Booking{},
		teams:    map[uint64]model.Team{},
		members:  map[uint64]model.TeamMember{},
	}
}

// clone copies the maps. Record values are replaced, never mutated in place,
// so sharing their pointer fields is safe.
func (s *state) clone() *state {
	return &state{
		nextID:   s.nextID,
		users:    maps.Clone(s.users),
		tokens:   maps.Clone(s.tokens),
		stadiums: maps.Clone(s.stadiums),
		slots:    maps.Clone(s.slots),
		bookings: maps.Clone(s.bookings),
		teams:    maps.Clone(s.teams),
		members:  maps.Clone(s.members),
	}
}

func (s *state) id() uint64 {
	s.nextID++
	return s.nextID
}

// Store implements repository.Store in memory.
type Store struct {
	records
	mu  sync.Mutex
	cur *state
	clock func() time.Time
}

var _ repository.Store = (*Store)(nil)

func New() *Store {
	s := &Store{cur: newState(), clock: func() time.Time { return time.Now().UTC() }}
	s.records = records{store: s}
	return s
}

// Atomic runs fn against a private copy of the state and publishes the copy
// only if fn succeeds. Units of work run one at a time.
func (s *Store) Atomic(ctx context.Context, fn func(repository.Records) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.cur.clone()
	if err := fn(records{store: s, tx: next}); err != nil {
		return err
	}
	s.cur = next
	return nil
}

// records is either a view of the live state (tx == nil, each call locks)
// or of a unit of work's private copy.
type records struct {
	store *Store
	tx    *state
}

func (r records) view(ctx context.Context) (*state, func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	if r.tx != nil {
		return r.tx, func() {}, nil
	}
	r.store.mu.Lock()
	return r.store.cur, r.store.mu.Unlock, nil
}

func (r records) now() time.Time { return r.store.clock() }
