package model

import (
	"fmt"
	"time"
)

type BookingStatus string

const (
	BookingPending  BookingStatus = "pending"
	BookingAccepted BookingStatus = "accepted"
	BookingRejected BookingStatus = "rejected"
)

// Decision is the owner's resolution of a pending request.
type Decision string

const (
	DecisionAccept Decision = "accept"
	DecisionReject Decision = "reject"
)

func ParseDecision(s string) (Decision, error) {
	switch Decision(s) {
	case DecisionAccept:
		return DecisionAccept, nil
	case DecisionReject:
		return DecisionReject, nil
	}
	return "", fmt.Errorf("unknown decision %q", s)
}

// Booking is a player's request for a slot. StadiumID is copied from the
// slot so owner listings need a single join.
type Booking struct {
	ID        uint64        `json:"id"`                // bookings.id
	SlotID    uint64        `json:"slot_id"`           // bookings.slot_id
	StadiumID uint64        `json:"stadium_id"`        // bookings.stadium_id
	PlayerID  uint64        `json:"player_id"`         // bookings.player_id
	TeamID    *uint64       `json:"team_id,omitempty"` // bookings.team_id
	Message   *string       `json:"message,omitempty"` // bookings.message
	Status    BookingStatus `json:"status"`            // bookings.status
	CreatedAt time.Time     `json:"created_at"`        // bookings.created_at
	UpdatedAt time.Time     `json:"updated_at"`        // bookings.updated_at
}

// BookingView is a booking joined with the stadium, slot and team it
// refers to, as shown in owner and player listings.
type BookingView struct {
	Booking
	StadiumName string  `json:"stadium_name"`
	Date        string  `json:"date"`
	StartTime   string  `json:"start_time"`
	EndTime     string  `json:"end_time"`
	TeamName    *string `json:"team_name,omitempty"`
}
