package service

import "roomdesk/internal/models"

// Lifecycle guards for the PENDING -> APPROVED / REJECTED state
// machine. APPROVED and REJECTED are terminal: no transition ever
// moves a booking out of them, and nothing reverts to PENDING.

// CanApprove checks whether the actor may approve the booking.
func CanApprove(b *models.Booking, actor models.Principal) error {
	if !actor.IsAdmin {
		return &AuthorizationError{Required: "admin"}
	}
	if !b.IsPending() {
		return &StateError{Status: b.Status}
	}
	return nil
}

// CanReject checks whether the actor may reject the booking with the
// given comment. A rejection always carries a non-empty rationale.
func CanReject(b *models.Booking, actor models.Principal, comment string) error {
	if !actor.IsAdmin {
		return &AuthorizationError{Required: "admin"}
	}
	if !b.IsPending() {
		return &StateError{Status: b.Status}
	}
	if comment == "" {
		return &ValidationError{Field: "comment", Reason: ReasonMissingComment}
	}
	return nil
}
