package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"roomdesk/internal/metrics"
	"roomdesk/internal/service"
)

// CreateBookingRequest is the request body for POST /api/bookings.
// Timestamps are RFC 3339 strings; both must fall on the same
// calendar day.
type CreateBookingRequest struct {
	RoomID      string `json:"room_id"`
	EventName   string `json:"event_name"`
	Description string `json:"description,omitempty"`
	Start       string `json:"start"`
	End         string `json:"end"`
}

// handleBookings creates a booking request or lists the caller's own.
// POST /api/bookings, GET /api/bookings
func (s *HTTPServer) handleBookings(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("bookings")
	switch r.Method {
	case http.MethodPost:
		s.createBooking(w, r)
	case http.MethodGet:
		s.listMyBookings(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) createBooking(w http.ResponseWriter, r *http.Request) {
	principal := principalFrom(r)

	if !s.limiterFor(principal.ID).Allow() {
		writeError(w, http.StatusTooManyRequests, "too many booking requests; slow down")
		return
	}

	var req CreateBookingRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	booking, err := s.svc.CreateBooking(r.Context(), service.BookingRequest{
		RoomID:      req.RoomID,
		EventName:   req.EventName,
		Description: req.Description,
		Start:       req.Start,
		End:         req.End,
	}, principal)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, booking)
}

func (s *HTTPServer) listMyBookings(w http.ResponseWriter, r *http.Request) {
	principal := principalFrom(r)

	bookings, err := s.svc.ListUserBookings(r.Context(), principal.ID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"bookings": bookings})
}

// handleRoomAvailability returns the projected calendar of one room.
// GET /api/rooms/{id}/availability?from=RFC3339&to=RFC3339
func (s *HTTPServer) handleRoomAvailability(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("room_availability")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	const prefix = "/api/rooms/"
	rest := strings.TrimPrefix(r.URL.Path, prefix)
	roomID, action, ok := strings.Cut(rest, "/")
	if !ok || roomID == "" || action != "availability" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	from, err := time.Parse(time.RFC3339, r.URL.Query().Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid from; expected RFC 3339 timestamp")
		return
	}
	to, err := time.Parse(time.RFC3339, r.URL.Query().Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid to; expected RFC 3339 timestamp")
		return
	}

	projected, err := s.svc.ListAvailability(r.Context(), roomID, from, to, principalFrom(r))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"bookings": projected})
}
