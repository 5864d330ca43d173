package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"roomdesk/internal/metrics"
	"roomdesk/internal/models"
)

// RejectRequest is the request body for the reject decision. The
// comment is mandatory: a rejection without a rationale is invalid.
type RejectRequest struct {
	Comment string `json:"comment"`
}

// handleAdminRequests lists booking requests for the admin queue.
// GET /api/admin/requests?status=PENDING|APPROVED|REJECTED
func (s *HTTPServer) handleAdminRequests(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("admin_requests")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	bookings, err := s.svc.ListRequests(r.Context(), r.URL.Query().Get("status"), principalFrom(r))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"requests": bookings})
}

// handleAdminDecision resolves a pending request.
// POST /api/admin/requests/{id}/approve
// POST /api/admin/requests/{id}/reject
func (s *HTTPServer) handleAdminDecision(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("admin_decision")
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	const prefix = "/api/admin/requests/"
	rest := strings.TrimPrefix(r.URL.Path, prefix)
	id, action, ok := strings.Cut(rest, "/")
	if !ok || id == "" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	var (
		booking *models.Booking
		err     error
	)
	switch action {
	case "approve":
		booking, err = s.svc.ApproveBooking(r.Context(), id, principalFrom(r))
	case "reject":
		var req RejectRequest
		decoder := json.NewDecoder(r.Body)
		decoder.DisallowUnknownFields()
		if decodeErr := decoder.Decode(&req); decodeErr != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		booking, err = s.svc.RejectBooking(r.Context(), id, principalFrom(r), req.Comment)
	default:
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, booking)
}

// handleExportRequests streams the request ledger as an XLSX workbook.
// GET /api/admin/requests/export?status=PENDING|APPROVED|REJECTED
func (s *HTTPServer) handleExportRequests(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("admin_export")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	bookings, err := s.svc.ListRequests(r.Context(), r.URL.Query().Get("status"), principalFrom(r))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	rooms, err := s.svc.ListRooms(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	roomNames := make(map[string]string, len(rooms))
	for _, room := range rooms {
		roomNames[room.ID] = room.Name
	}

	// Build the workbook in memory first so an export failure still
	// yields a JSON error instead of a truncated file.
	var buf bytes.Buffer
	if err := s.exporter.ExportRequests(&buf, bookings, roomNames); err != nil {
		s.log.Error().Err(err).Msg("export requests failed")
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}

	filename := fmt.Sprintf("requests-%s.xlsx", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// handleUsers lists accounts. Restricted to the owner.
// GET /api/admin/users
func (s *HTTPServer) handleUsers(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("admin_users")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	users, err := s.svc.ListUsers(r.Context(), principalFrom(r))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}
