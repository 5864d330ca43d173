// Package api exposes the booking workflow over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"roomdesk/internal/audit"
	"roomdesk/internal/config"
	"roomdesk/internal/models"
	"roomdesk/internal/service"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

type contextKey string

const principalKey contextKey = "principal"

// HTTPServer serves the booking API. Authentication is delegated to a
// fronting gateway that sets the identity headers; the server only
// checks the shared API key and reads the principal from headers.
type HTTPServer struct {
	svc      *service.BookingService
	exporter *audit.Exporter
	apiKey   string
	log      *zerolog.Logger
	server   *http.Server

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// NewHTTPServer wires the routes and middleware.
func NewHTTPServer(cfg *config.Config, svc *service.BookingService, exporter *audit.Exporter, logger *zerolog.Logger) *HTTPServer {
	perMinute := cfg.RateLimit.RequestsPerMinute
	if perMinute <= 0 {
		perMinute = 30
	}
	burst := cfg.RateLimit.Burst
	if burst <= 0 {
		burst = 5
	}

	s := &HTTPServer{
		svc:      svc,
		exporter: exporter,
		apiKey:   cfg.Server.APIKey,
		log:      logger,
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(float64(perMinute) / 60.0),
		burst:    burst,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/bookings", s.handleBookings)
	mux.HandleFunc("/api/rooms", s.handleRooms)
	mux.HandleFunc("/api/rooms/", s.handleRoomAvailability)
	mux.HandleFunc("/api/admin/requests", s.handleAdminRequests)
	mux.HandleFunc("/api/admin/requests/export", s.handleExportRequests)
	mux.HandleFunc("/api/admin/requests/", s.handleAdminDecision)
	mux.HandleFunc("/api/admin/users", s.handleUsers)
	mux.HandleFunc("/api/user/phone", s.handleSetPhone)

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           s.authMiddleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Start blocks serving until the listener fails or Shutdown is called.
func (s *HTTPServer) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("http server listening")
	return s.server.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler exposes the routed handler, used by tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey != "" && r.Header.Get("X-Api-Key") != s.apiKey {
			writeError(w, http.StatusUnauthorized, "invalid api key")
			return
		}

		userID := r.Header.Get("X-User-ID")
		if userID == "" {
			writeError(w, http.StatusUnauthorized, "X-User-ID header is required")
			return
		}

		p := models.Principal{
			ID:      userID,
			IsAdmin: r.Header.Get("X-User-Admin") == "true",
			IsOwner: r.Header.Get("X-User-Owner") == "true",
		}
		ctx := context.WithValue(r.Context(), principalKey, p)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func principalFrom(r *http.Request) models.Principal {
	p, _ := r.Context().Value(principalKey).(models.Principal)
	return p
}

// limiterFor returns the per-principal rate limiter, creating it on
// first use. The map is never pruned; principal cardinality is small.
func (s *HTTPServer) limiterFor(principalID string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	lim, ok := s.limiters[principalID]
	if !ok {
		lim = rate.NewLimiter(s.limit, s.burst)
		s.limiters[principalID] = lim
	}
	return lim
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps workflow errors to HTTP statuses. Unknown
// errors are logged and reported as 500 without leaking internals.
func (s *HTTPServer) writeServiceError(w http.ResponseWriter, err error) {
	var (
		validationErr *service.ValidationError
		conflictErr   *service.ConflictError
		authErr       *service.AuthorizationError
		stateErr      *service.StateError
		notFoundErr   *service.NotFoundError
	)
	switch {
	case errors.As(err, &validationErr):
		writeError(w, http.StatusBadRequest, validationErr.Error())
	case errors.As(err, &conflictErr):
		writeError(w, http.StatusConflict, conflictErr.Error())
	case errors.As(err, &authErr):
		writeError(w, http.StatusUnauthorized, authErr.Error())
	case errors.As(err, &stateErr):
		writeError(w, http.StatusBadRequest, stateErr.Error())
	case errors.As(err, &notFoundErr):
		writeError(w, http.StatusNotFound, notFoundErr.Error())
	default:
		s.log.Error().Err(err).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
