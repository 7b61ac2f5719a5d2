// Package queue carries booking lifecycle events over RabbitMQ: the payload,
// a persistent topic publisher and the consumer that records them.
package queue

import (
	"context"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
)

// Routing keys on the bookings topic exchange.
const (
	KeyBookingRequested = "booking.requested"
	KeyBookingAccepted  = "booking.accepted"
	KeyBookingRejected  = "booking.rejected"
	KeyBookingCancelled = "booking.cancelled"
	KeySlotLocked       = "slot.locked"
	KeySlotUnlocked     = "slot.unlocked"
)

// BindingKeys covers every key above.
var BindingKeys = []string{"booking.*", "slot.*"}

// BookingEvent describes one committed transition. Consumers deduplicate
// on EventID.
type BookingEvent struct {
	EventID            string    `json:"event_id"`
	Kind               string    `json:"kind"`
	SlotID             uint64    `json:"slot_id"`
	StadiumID          uint64    `json:"stadium_id"`
	StadiumName        string    `json:"stadium_name,omitempty"`
	OwnerID            uint64    `json:"owner_id"`
	BookingID          uint64    `json:"booking_id,omitempty"`
	PlayerID           uint64    `json:"player_id,omitempty"`
	Date               string    `json:"date"`
	StartTime          string    `json:"start_time"`
	SlotStatus         string    `json:"slot_status"`
	RejectedBookingIDs []uint64  `json:"rejected_booking_ids,omitempty"`
	OccurredAt         time.Time `json:"occurred_at"`
}

// NewEvent stamps a fresh id and time.
func NewEvent(kind string) BookingEvent {
	return BookingEvent{EventID: uuid.NewString(), Kind: kind, OccurredAt: time.Now().UTC()}
}

func (e BookingEvent) Encode() ([]byte, error) { return sonic.Marshal(e) }

func DecodeEvent(body []byte) (BookingEvent, error) {
	var e BookingEvent
	err := sonic.Unmarshal(body, &e)
	return e, err
}

// Publisher hands events to the broker.
type Publisher interface {
	Publish(ctx context.Context, ev BookingEvent) error
}

// NopPublisher drops events. It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, BookingEvent) error { return nil }
