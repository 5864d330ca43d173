package service

import (
	"time"

	"roomdesk/internal/models"
)

// ProjectedBooking is the role-filtered view of a booking returned to
// calendar viewers. Status and time range are visible to any
// authenticated viewer; the event name and description only to admins
// and the requester. Rejected bookings are still returned so the
// consumer decides rendering (the visible calendar drops them).
type ProjectedBooking struct {
	ID          string    `json:"id"`
	RoomID      string    `json:"room_id"`
	RequesterID string    `json:"requester_id"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Status      string    `json:"status"`
	EventName   string    `json:"event_name"`
	Description string    `json:"description,omitempty"`
}

// Project builds the viewer-specific projection of a booking. It is a
// pure function of its inputs.
func Project(b *models.Booking, viewer models.Principal) ProjectedBooking {
	p := ProjectedBooking{
		ID:          b.ID,
		RoomID:      b.RoomID,
		RequesterID: b.RequesterID,
		Start:       b.Start,
		End:         b.End,
		Status:      b.Status,
		EventName:   models.PlaceholderEventName,
	}
	if viewer.CanView(b) {
		p.EventName = b.EventName
		p.Description = b.Description
	}
	return p
}

// ProjectAll projects a booking set for one viewer.
func ProjectAll(bookings []models.Booking, viewer models.Principal) []ProjectedBooking {
	out := make([]ProjectedBooking, 0, len(bookings))
	for i := range bookings {
		out = append(out, Project(&bookings[i], viewer))
	}
	return out
}
