// Package repository holds the record storage contract for stadiums, slots,
// bookings, teams and accounts, its MySQL implementation and the error
// taxonomy shared by every layer above it. Handlers map these sentinels to
// HTTP statuses with errors.Is.
package repository

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound: the referenced record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrSlotUnavailable: a request targeted a booked or locked slot.
	ErrSlotUnavailable = errors.New("slot unavailable")
	// ErrSlotAlreadyBooked: an accept lost to an earlier accept on the same slot.
	ErrSlotAlreadyBooked = errors.New("slot already booked")
	// ErrSlotLocked: the slot is locked, or a lock was attempted on a booked slot.
	ErrSlotLocked = errors.New("slot locked")
	// ErrUnauthorized: the caller does not own the resource or lacks the role.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrConflict: a uniqueness rule or dependent records block the write.
	ErrConflict = errors.New("conflict")
	// ErrStale: a compare-and-set write found the row changed underneath it.
	ErrStale = errors.New("stale record version")
	// ErrValidation matches every *ValidationError.
	ErrValidation = errors.New("validation failed")

	ErrEmailExists = fmt.Errorf("email already exists: %w", ErrConflict)
)

// ValidationError reports a malformed input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + ": " + e.Reason
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Invalid builds a *ValidationError.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
