package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"roomdesk/internal/database"
	"roomdesk/internal/models"

	"github.com/google/uuid"
)

// CreateRoom adds a room to the reference data. Admin only; room
// names are unique.
func (s *BookingService) CreateRoom(ctx context.Context, name string, actor models.Principal) (*models.Room, error) {
	if !actor.IsAdmin {
		return nil, &AuthorizationError{Required: "admin"}
	}
	if name == "" {
		return nil, &ValidationError{Field: "name", Reason: ReasonRequired}
	}

	room := &models.Room{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.CreateRoom(ctx, room); err != nil {
		if errors.Is(err, database.ErrRoomExists) {
			return nil, &ValidationError{Field: "name", Reason: ReasonAlreadyExists}
		}
		return nil, fmt.Errorf("create room: %w", err)
	}
	return room, nil
}

// ListRooms returns all rooms ordered by name.
func (s *BookingService) ListRooms(ctx context.Context) ([]models.Room, error) {
	rooms, err := s.repo.ListRooms(ctx)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return rooms, nil
}
