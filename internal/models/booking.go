package models

import "time"

// Booking status values. A booking starts PENDING and transitions
// exactly once to APPROVED or REJECTED; re-submission after a
// rejection is a new booking, never a status reversal.
const (
	StatusPending  = "PENDING"
	StatusApproved = "APPROVED"
	StatusRejected = "REJECTED"
)

// PlaceholderEventName replaces the event name when a viewer is not
// allowed to see booking details.
const PlaceholderEventName = "Booking"

// Booking represents a room booking request record.
type Booking struct {
	ID          string    `json:"id"`
	RequesterID string    `json:"requester_id"`
	RoomID      string    `json:"room_id"`
	EventName   string    `json:"event_name"`
	Description string    `json:"description"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Status      string    `json:"status"`
	Comment     string    `json:"comment,omitempty"` // rejection rationale, set iff REJECTED
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Version     int64     `json:"version"`
}

// Range returns the booking's [Start, End) interval.
func (b *Booking) Range() TimeRange {
	return TimeRange{Start: b.Start, End: b.End}
}

// IsPending reports whether the booking is still awaiting a decision.
func (b *Booking) IsPending() bool {
	return b.Status == StatusPending
}

// IsResolved reports whether the booking reached a terminal status.
func (b *Booking) IsResolved() bool {
	return b.Status == StatusApproved || b.Status == StatusRejected
}

// OverlapsWith checks if this booking strictly overlaps another one.
// Uses half-open interval [start, end) semantics: touching boundaries
// are not an overlap.
func (b *Booking) OverlapsWith(other *Booking) bool {
	return b.Range().Overlaps(other.Range())
}

// ValidStatus reports whether s is one of the known booking statuses.
func ValidStatus(s string) bool {
	return s == StatusPending || s == StatusApproved || s == StatusRejected
}
