package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"roomdesk/internal/database"
	"roomdesk/internal/events"
	"roomdesk/internal/metrics"
	"roomdesk/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Repository is the storage contract the workflow depends on. The
// sqlite implementation lives in internal/database; tests substitute
// mocks.
type Repository interface {
	CreateBooking(ctx context.Context, b *models.Booking) error
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	ApproveBooking(ctx context.Context, id string, version int64) error
	RejectBooking(ctx context.Context, id string, version int64, comment string) error
	ListBookingsByStatus(ctx context.Context, status string) ([]models.Booking, error)
	ListUserBookings(ctx context.Context, requesterID string) ([]models.Booking, error)
	FindApprovedOverlapping(ctx context.Context, roomID string, r models.TimeRange) ([]models.Booking, error)
	FindIntersecting(ctx context.Context, roomID string, r models.TimeRange) ([]models.Booking, error)

	CreateRoom(ctx context.Context, room *models.Room) error
	GetRoom(ctx context.Context, id string) (*models.Room, error)
	ListRooms(ctx context.Context) ([]models.Room, error)

	GetUser(ctx context.Context, id string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdateUserPhone(ctx context.Context, id, phoneE164 string) error
}

// EventPublisher emits workflow events to in-process subscribers.
type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// AvailabilityCache caches availability query results per room.
type AvailabilityCache interface {
	Get(ctx context.Context, roomID string, r models.TimeRange) ([]models.Booking, bool)
	Set(ctx context.Context, roomID string, r models.TimeRange, bookings []models.Booking)
	Invalidate(ctx context.Context, roomID string)
}

// BookingService drives the booking request workflow: validation,
// conflict detection, the approval lifecycle and the availability
// read path.
type BookingService struct {
	repo      Repository
	bus       EventPublisher
	cache     AvailabilityCache
	detector  *ConflictDetector
	maxWindow time.Duration
	logger    *zerolog.Logger
}

// NewBookingService constructs the workflow service. cache may be nil.
func NewBookingService(repo Repository, bus EventPublisher, cache AvailabilityCache, maxWindowDays int, logger *zerolog.Logger) *BookingService {
	if maxWindowDays <= 0 {
		maxWindowDays = 90
	}
	return &BookingService{
		repo:      repo,
		bus:       bus,
		cache:     cache,
		detector:  NewConflictDetector(repo),
		maxWindow: time.Duration(maxWindowDays) * 24 * time.Hour,
		logger:    logger,
	}
}

// CreateBooking validates the request, checks the slot against
// approved bookings and creates a PENDING booking. The storage layer
// repeats the conflict check inside the insert transaction, so a
// concurrent approval cannot race the create.
func (s *BookingService) CreateBooking(ctx context.Context, req BookingRequest, requester models.Principal) (*models.Booking, error) {
	cand, err := ValidateBooking(req, time.Now())
	if err != nil {
		metrics.IncBookingRequest("rejected_validation")
		return nil, err
	}

	if _, err := s.repo.GetRoom(ctx, cand.RoomID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, &NotFoundError{Entity: "room", ID: cand.RoomID}
		}
		return nil, fmt.Errorf("load room: %w", err)
	}

	if err := s.detector.Check(ctx, cand.RoomID, cand.Range); err != nil {
		if errors.Is(err, ErrTimeNotAvailable) {
			metrics.IncBookingRequest("rejected_conflict")
		}
		return nil, err
	}

	now := time.Now().UTC()
	b := &models.Booking{
		ID:          uuid.NewString(),
		RequesterID: requester.ID,
		RoomID:      cand.RoomID,
		EventName:   cand.EventName,
		Description: cand.Description,
		Start:       cand.Range.Start,
		End:         cand.Range.End,
		Status:      models.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
		Version:     1,
	}

	if err := s.repo.CreateBooking(ctx, b); err != nil {
		if errors.Is(err, database.ErrNotAvailable) {
			metrics.IncBookingRequest("rejected_conflict")
			return nil, ErrTimeNotAvailable
		}
		metrics.IncBookingRequest("error")
		return nil, fmt.Errorf("create booking: %w", err)
	}

	s.invalidate(ctx, b.RoomID)
	s.publish(events.TypeBookingCreated, b)
	metrics.IncBookingRequest("created")
	return b, nil
}

// ApproveBooking transitions a PENDING booking to APPROVED. The
// conflict check is repeated inside the approval transaction: of two
// overlapping PENDING requests, only the first approval wins, the
// second fails with TIME_NOT_AVAILABLE. Sibling PENDING requests are
// left untouched; the admin queue remains the adjudication point.
//
// The capability check runs before the load so non-admins cannot
// probe which booking ids exist.
func (s *BookingService) ApproveBooking(ctx context.Context, id string, actor models.Principal) (*models.Booking, error) {
	if !actor.IsAdmin {
		return nil, &AuthorizationError{Required: "admin"}
	}

	b, err := s.getBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := CanApprove(b, actor); err != nil {
		return nil, err
	}

	if err := s.repo.ApproveBooking(ctx, id, b.Version); err != nil {
		switch {
		case errors.Is(err, database.ErrNotFound):
			return nil, &NotFoundError{Entity: "booking", ID: id}
		case errors.Is(err, database.ErrNotAvailable):
			return nil, ErrTimeNotAvailable
		case errors.Is(err, database.ErrConcurrentModification):
			return nil, s.staleStateError(ctx, id)
		default:
			return nil, fmt.Errorf("approve booking: %w", err)
		}
	}

	updated, err := s.getBooking(ctx, id)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, updated.RoomID)
	s.publish(events.TypeBookingApproved, updated)
	metrics.IncAdminDecision("approved")
	return updated, nil
}

// RejectBooking transitions a PENDING booking to REJECTED, storing
// the mandatory rationale comment. As with ApproveBooking, the
// capability check precedes the load.
func (s *BookingService) RejectBooking(ctx context.Context, id string, actor models.Principal, comment string) (*models.Booking, error) {
	if !actor.IsAdmin {
		return nil, &AuthorizationError{Required: "admin"}
	}

	b, err := s.getBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := CanReject(b, actor, comment); err != nil {
		return nil, err
	}

	if err := s.repo.RejectBooking(ctx, id, b.Version, comment); err != nil {
		switch {
		case errors.Is(err, database.ErrNotFound):
			return nil, &NotFoundError{Entity: "booking", ID: id}
		case errors.Is(err, database.ErrConcurrentModification):
			return nil, s.staleStateError(ctx, id)
		default:
			return nil, fmt.Errorf("reject booking: %w", err)
		}
	}

	updated, err := s.getBooking(ctx, id)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, updated.RoomID)
	s.publish(events.TypeBookingRejected, updated)
	metrics.IncAdminDecision("rejected")
	return updated, nil
}

// ListRequests returns bookings with the given status for the admin
// queue, newest first. An empty status defaults to PENDING.
func (s *BookingService) ListRequests(ctx context.Context, status string, actor models.Principal) ([]models.Booking, error) {
	if !actor.IsAdmin {
		return nil, &AuthorizationError{Required: "admin"}
	}
	if status == "" {
		status = models.StatusPending
	}
	if !models.ValidStatus(status) {
		return nil, &ValidationError{Field: "status", Reason: ReasonUnknownStatus}
	}

	bookings, err := s.repo.ListBookingsByStatus(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	return bookings, nil
}

// ListUserBookings returns the requester's own bookings, newest first.
func (s *BookingService) ListUserBookings(ctx context.Context, requesterID string) ([]models.Booking, error) {
	bookings, err := s.repo.ListUserBookings(ctx, requesterID)
	if err != nil {
		return nil, fmt.Errorf("list user bookings: %w", err)
	}
	return bookings, nil
}

// ListAvailability returns the viewer-projected bookings of a room
// intersecting [from, to). All statuses are returned; dropping
// REJECTED entries from the visible calendar is the consumer's
// rendering rule.
func (s *BookingService) ListAvailability(ctx context.Context, roomID string, from, to time.Time, viewer models.Principal) ([]ProjectedBooking, error) {
	window := models.NewTimeRange(from.UTC(), to.UTC())
	if window.IsZero() {
		return nil, &ValidationError{Field: "window", Reason: ReasonInvalidTimestamp}
	}
	if !window.Start.Before(window.End) {
		return nil, &ValidationError{Field: "window", Reason: ReasonOrderingViolation}
	}
	if window.Duration() > s.maxWindow {
		return nil, &ValidationError{Field: "window", Reason: ReasonTooLong}
	}

	if _, err := s.repo.GetRoom(ctx, roomID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, &NotFoundError{Entity: "room", ID: roomID}
		}
		return nil, fmt.Errorf("load room: %w", err)
	}

	bookings, cached := s.cachedIntersecting(ctx, roomID, window)
	if !cached {
		var err error
		bookings, err = s.repo.FindIntersecting(ctx, roomID, window)
		if err != nil {
			return nil, fmt.Errorf("find intersecting: %w", err)
		}
		if s.cache != nil {
			s.cache.Set(ctx, roomID, window, bookings)
		}
	}

	return ProjectAll(bookings, viewer), nil
}

func (s *BookingService) cachedIntersecting(ctx context.Context, roomID string, window models.TimeRange) ([]models.Booking, bool) {
	if s.cache == nil {
		return nil, false
	}
	return s.cache.Get(ctx, roomID, window)
}

func (s *BookingService) getBooking(ctx context.Context, id string) (*models.Booking, error) {
	b, err := s.repo.GetBooking(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, &NotFoundError{Entity: "booking", ID: id}
		}
		return nil, fmt.Errorf("load booking: %w", err)
	}
	return b, nil
}

// staleStateError reports the booking's current status after a lost
// CAS so the client can refresh.
func (s *BookingService) staleStateError(ctx context.Context, id string) error {
	current, err := s.repo.GetBooking(ctx, id)
	if err != nil {
		return &StateError{Status: "unknown"}
	}
	return &StateError{Status: current.Status}
}

func (s *BookingService) invalidate(ctx context.Context, roomID string) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, roomID)
	}
}

func (s *BookingService) publish(eventType string, b *models.Booking) {
	if s.bus == nil {
		return
	}
	if err := s.bus.PublishJSON(eventType, b); err != nil {
		s.logger.Warn().Err(err).Str("event", eventType).Msg("publish event failed")
	}
}
