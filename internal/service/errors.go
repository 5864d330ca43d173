package service

import "fmt"

// Validation failure reasons surfaced in ValidationError.Reason.
const (
	ReasonRequired          = "Required"
	ReasonTooLong           = "TooLong"
	ReasonInvalidTimestamp  = "InvalidTimestamp"
	ReasonOrderingViolation = "OrderingViolation"
	ReasonCrossDayBooking   = "CrossDayBooking"
	ReasonPastBooking       = "PastBooking"
	ReasonMissingComment    = "MissingComment"
	ReasonUnknownStatus     = "UnknownStatus"
	ReasonInvalidPhone      = "InvalidPhone"
	ReasonAlreadyExists     = "AlreadyExists"
)

// ValidationError reports malformed or out-of-policy input. The caller
// can always recover by correcting the named field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ConflictError reports that a requested slot is taken by an approved
// booking. Callers must surface it as a distinct, user-actionable
// error so the UI can say "that time isn't available".
type ConflictError struct {
	Code string
}

func (e *ConflictError) Error() string { return e.Code }

// ErrTimeNotAvailable is the only conflict the workflow produces.
var ErrTimeNotAvailable = &ConflictError{Code: "TIME_NOT_AVAILABLE"}

// AuthorizationError reports that the acting principal lacks the
// required capability. Not retryable without a role change.
type AuthorizationError struct {
	Required string // "admin" or "owner"
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("%s capability required", e.Required)
}

// StateError reports a transition attempted on a booking that already
// left the PENDING state. The client should refresh its view.
type StateError struct {
	Status string // status the booking actually has
}

func (e *StateError) Error() string {
	return fmt.Sprintf("booking is not pending (status %s)", e.Status)
}

// NotFoundError reports that a referenced entity does not exist.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}
