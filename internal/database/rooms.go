package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"roomdesk/internal/models"
)

// CreateRoom inserts a room. Room names are unique; a duplicate
// returns ErrRoomExists.
func (db *DB) CreateRoom(ctx context.Context, room *models.Room) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO rooms (id, name, created_at) VALUES (?, ?, ?)`,
		room.ID, room.Name, room.CreatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrRoomExists
		}
		return fmt.Errorf("insert room: %w", err)
	}

	db.mu.Lock()
	db.roomsCache[room.ID] = cachedRoom{room: *room, cachedAt: time.Now()}
	db.mu.Unlock()
	return nil
}

// GetRoom loads a room by id, consulting the cache first.
func (db *DB) GetRoom(ctx context.Context, id string) (*models.Room, error) {
	db.mu.RLock()
	if entry, ok := db.roomsCache[id]; ok && time.Since(entry.cachedAt) < roomsCacheTTL {
		db.mu.RUnlock()
		room := entry.room
		return &room, nil
	}
	db.mu.RUnlock()

	var room models.Room
	err := db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM rooms WHERE id = ?`, id,
	).Scan(&room.ID, &room.Name, &room.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get room: %w", err)
	}

	db.mu.Lock()
	db.roomsCache[room.ID] = cachedRoom{room: room, cachedAt: time.Now()}
	db.mu.Unlock()
	return &room, nil
}

// ListRooms returns all rooms ordered by name and refreshes the cache.
func (db *DB) ListRooms(ctx context.Context) ([]models.Room, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, name, created_at FROM rooms ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	defer rows.Close()

	rooms := make([]models.Room, 0)
	for rows.Next() {
		var room models.Room
		if err := rows.Scan(&room.ID, &room.Name, &room.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	db.mu.Lock()
	db.roomsCache = make(map[string]cachedRoom, len(rooms))
	now := time.Now()
	for _, room := range rooms {
		db.roomsCache[room.ID] = cachedRoom{room: room, cachedAt: now}
	}
	db.mu.Unlock()

	return rooms, nil
}
