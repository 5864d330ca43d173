package service

import (
	"context"
	"fmt"

	"roomdesk/internal/models"
)

// ApprovedFinder loads approved bookings of a room that strictly
// overlap a candidate range.
type ApprovedFinder interface {
	FindApprovedOverlapping(ctx context.Context, roomID string, r models.TimeRange) ([]models.Booking, error)
}

// ConflictDetector decides whether a candidate range collides with an
// already approved booking. Only APPROVED bookings reserve a slot:
// multiple PENDING requests for the same slot may coexist until an
// administrator adjudicates them.
type ConflictDetector struct {
	store ApprovedFinder
}

// NewConflictDetector constructs a detector over the given store.
func NewConflictDetector(store ApprovedFinder) *ConflictDetector {
	return &ConflictDetector{store: store}
}

// Check returns ErrTimeNotAvailable when the candidate range overlaps
// any approved booking for the room. Storage failures propagate as
// wrapped infrastructure errors.
func (d *ConflictDetector) Check(ctx context.Context, roomID string, r models.TimeRange) error {
	overlapping, err := d.store.FindApprovedOverlapping(ctx, roomID, r)
	if err != nil {
		return fmt.Errorf("find approved overlapping: %w", err)
	}
	if len(overlapping) > 0 {
		return ErrTimeNotAvailable
	}
	return nil
}
