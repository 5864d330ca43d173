package api

import (
	"encoding/json"
	"net/http"

	"roomdesk/internal/metrics"
)

// SetPhoneRequest is the request body for POST /api/user/phone. The
// number is normalized to E.164 before storage.
type SetPhoneRequest struct {
	Phone string `json:"phone"`
}

// handleSetPhone updates the caller's contact phone number.
// POST /api/user/phone
func (s *HTTPServer) handleSetPhone(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("user_phone")
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req SetPhoneRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	normalized, err := s.svc.SetPhone(r.Context(), principalFrom(r).ID, req.Phone)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"phone_e164": normalized})
}
