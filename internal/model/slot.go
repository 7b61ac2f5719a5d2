package model

import (
	"fmt"
	"time"
)

// SlotStatus is the availability state of one stadium hour.
type SlotStatus string

const (
	SlotAvailable   SlotStatus = "available"
	SlotPendingHold SlotStatus = "pending-hold"
	SlotBooked      SlotStatus = "booked"
	SlotLocked      SlotStatus = "locked"
)

func (s SlotStatus) Valid() bool {
	switch s {
	case SlotAvailable, SlotPendingHold, SlotBooked, SlotLocked:
		return true
	}
	return false
}

// Bookable slots start on the hour between FirstSlotHour and LastSlotHour
// inclusive and last SlotLength.
const (
	FirstSlotHour = 8
	LastSlotHour  = 22
	SlotLength    = time.Hour

	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// TimeSlot is one bookable hour of one stadium on one date. It is unique
// per (StadiumID, Date, StartTime).
//
// AcceptedBookingID is set iff Status is SlotBooked. Version increments on
// every write and guards compare-and-set updates.
type TimeSlot struct {
	ID                uint64     `json:"id"`                            // time_slots.id
	StadiumID         uint64     `json:"stadium_id"`                    // time_slots.stadium_id
	Date              string     `json:"date"`                          // time_slots.slot_date
	StartTime         string     `json:"start_time"`                    // time_slots.start_time
	EndTime           string     `json:"end_time"`                      // time_slots.end_time
	Status            SlotStatus `json:"status"`                        // time_slots.status
	AcceptedBookingID *uint64    `json:"accepted_booking_id,omitempty"` // time_slots.accepted_booking_id
	Version           uint32     `json:"version"`                       // time_slots.version
	CreatedAt         time.Time  `json:"created_at"`                    // time_slots.created_at
	UpdatedAt         time.Time  `json:"updated_at"`                    // time_slots.updated_at
}

// SlotKey identifies a slot before it has been stored.
type SlotKey struct {
	StadiumID uint64
	Date      string
	StartTime string
}

// ParseSlotStart validates a start time and returns it in canonical HH:MM
// form together with its end time. "8:00" and "08:00" name the same hour.
func ParseSlotStart(start string) (canonical, end string, err error) {
	t, err := time.Parse(TimeLayout, start)
	if err != nil {
		return "", "", fmt.Errorf("start time must be HH:MM")
	}
	if t.Minute() != 0 {
		return "", "", fmt.Errorf("start time must be on the hour")
	}
	if t.Hour() < FirstSlotHour || t.Hour() > LastSlotHour {
		return "", "", fmt.Errorf("start time must be between %02d:00 and %02d:00", FirstSlotHour, LastSlotHour)
	}
	return t.Format(TimeLayout), t.Add(SlotLength).Format(TimeLayout), nil
}

// ParseSlotDate validates a calendar date in YYYY-MM-DD form.
func ParseSlotDate(date string) error {
	if _, err := time.Parse(DateLayout, date); err != nil {
		return fmt.Errorf("date must be YYYY-MM-DD")
	}
	return nil
}

// DayStarts lists the default start times of a day timeline.
func DayStarts() []string {
	out := make([]string, 0, LastSlotHour-FirstSlotHour+1)
	for h := FirstSlotHour; h <= LastSlotHour; h++ {
		out = append(out, fmt.Sprintf("%02d:00", h))
	}
	return out
}
