package service

import (
	"time"
	"unicode/utf8"

	"roomdesk/internal/models"
)

const (
	// MaxEventNameLen caps the short display string.
	MaxEventNameLen = 120
	// MaxDescriptionLen caps the long text field.
	MaxDescriptionLen = 1000
)

// BookingRequest is a raw booking submission as received from the
// transport layer. Start and End are RFC 3339 timestamps.
type BookingRequest struct {
	RoomID      string `json:"room_id"`
	EventName   string `json:"event_name"`
	Description string `json:"description"`
	Start       string `json:"start"`
	End         string `json:"end"`
}

// Candidate is a validated booking request, ready for conflict
// checking.
type Candidate struct {
	RoomID      string
	EventName   string
	Description string
	Range       models.TimeRange
}

// ValidateBooking applies the creation-time business rules in order;
// the first failure wins. It has no side effects.
//
// The past-booking rule is date-grained on purpose: a booking later
// today whose start time is already behind the clock is still
// accepted, because users book whole slots of the current day.
func ValidateBooking(req BookingRequest, now time.Time) (*Candidate, error) {
	if req.RoomID == "" {
		return nil, &ValidationError{Field: "room_id", Reason: ReasonRequired}
	}
	if req.EventName == "" {
		return nil, &ValidationError{Field: "event_name", Reason: ReasonRequired}
	}
	// Limits count characters, not bytes, so non-ASCII names get the
	// same budget.
	if utf8.RuneCountInString(req.EventName) > MaxEventNameLen {
		return nil, &ValidationError{Field: "event_name", Reason: ReasonTooLong}
	}
	if utf8.RuneCountInString(req.Description) > MaxDescriptionLen {
		return nil, &ValidationError{Field: "description", Reason: ReasonTooLong}
	}

	start, err := time.Parse(time.RFC3339, req.Start)
	if err != nil {
		return nil, &ValidationError{Field: "start", Reason: ReasonInvalidTimestamp}
	}
	end, err := time.Parse(time.RFC3339, req.End)
	if err != nil {
		return nil, &ValidationError{Field: "end", Reason: ReasonInvalidTimestamp}
	}

	r := models.NewTimeRange(start.UTC(), end.UTC())
	if !r.Start.Before(r.End) {
		return nil, &ValidationError{Field: "end", Reason: ReasonOrderingViolation}
	}
	if !r.SameDay() {
		return nil, &ValidationError{Field: "end", Reason: ReasonCrossDayBooking}
	}
	if r.Start.Before(models.StartOfDay(now.UTC())) {
		return nil, &ValidationError{Field: "start", Reason: ReasonPastBooking}
	}

	return &Candidate{
		RoomID:      req.RoomID,
		EventName:   req.EventName,
		Description: req.Description,
		Range:       r,
	}, nil
}
