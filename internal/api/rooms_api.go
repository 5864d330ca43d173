package api

import (
	"encoding/json"
	"net/http"

	"roomdesk/internal/metrics"
)

// CreateRoomRequest is the request body for POST /api/rooms.
type CreateRoomRequest struct {
	Name string `json:"name"`
}

// handleRooms lists rooms or creates one.
// GET /api/rooms, POST /api/rooms (admin)
func (s *HTTPServer) handleRooms(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("rooms")
	switch r.Method {
	case http.MethodGet:
		rooms, err := s.svc.ListRooms(r.Context())
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"rooms": rooms})

	case http.MethodPost:
		var req CreateRoomRequest
		decoder := json.NewDecoder(r.Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		room, err := s.svc.CreateRoom(r.Context(), req.Name, principalFrom(r))
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, room)

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}
