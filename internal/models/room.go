package models

import "time"

// Room is append-only reference data managed by administrators.
// Rooms carry no embedded schedule; availability is derived from
// bookings filtered by room.
type Room struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
