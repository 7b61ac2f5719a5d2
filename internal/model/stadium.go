package model

import "time"

// Stadium is a venue listed by exactly one owner. Price is kept in cents.
type Stadium struct {
	ID                uint64    `json:"id"`                   // stadiums.id
	OwnerID           uint64    `json:"owner_id"`             // stadiums.owner_id
	Name              string    `json:"name"`                 // stadiums.name
	Location          string    `json:"location"`             // stadiums.location
	PricePerHourCents uint32    `json:"price_per_hour_cents"` // stadiums.price_per_hour_cents
	Description       string    `json:"description"`          // stadiums.description
	Images            []string  `json:"images"`               // stadiums.images (JSON array)
	CreatedAt         time.Time `json:"created_at"`           // stadiums.created_at
	UpdatedAt         time.Time `json:"updated_at"`           // stadiums.updated_at
}
