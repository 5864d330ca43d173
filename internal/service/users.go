package service

import (
	"context"
	"errors"
	"fmt"

	"roomdesk/internal/database"
	"roomdesk/internal/models"
	"roomdesk/internal/phone"
)

// SetPhone validates and normalizes a phone number to E.164 and
// stores it on the user's account. Phone numbers are unique across
// accounts.
func (s *BookingService) SetPhone(ctx context.Context, userID, raw string) (string, error) {
	if raw == "" {
		return "", &ValidationError{Field: "phone", Reason: ReasonRequired}
	}

	normalized, err := phone.ToE164(raw, "")
	if err != nil {
		return "", &ValidationError{Field: "phone", Reason: ReasonInvalidPhone}
	}

	if err := s.repo.UpdateUserPhone(ctx, userID, normalized); err != nil {
		switch {
		case errors.Is(err, database.ErrPhoneInUse):
			return "", &ValidationError{Field: "phone", Reason: ReasonAlreadyExists}
		case errors.Is(err, database.ErrNotFound):
			return "", &NotFoundError{Entity: "user", ID: userID}
		default:
			return "", fmt.Errorf("update phone: %w", err)
		}
	}
	return normalized, nil
}

// ListUsers returns all accounts. Restricted to the owner.
func (s *BookingService) ListUsers(ctx context.Context, actor models.Principal) ([]models.User, error) {
	if !actor.IsOwner {
		return nil, &AuthorizationError{Required: "owner"}
	}

	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}
