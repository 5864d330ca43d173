package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"roomdesk/internal/models"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/rs/zerolog"
)

// DB wraps the sqlite connection together with a small cache of the
// append-only room list.
type DB struct {
	*sql.DB
	roomsCache map[string]cachedRoom
	mu         sync.RWMutex
	logger     *zerolog.Logger
}

// cachedRoom carries its own timestamp so entries written by
// CreateRoom and GetRoom expire independently of ListRooms refreshes.
type cachedRoom struct {
	room     models.Room
	cachedAt time.Time
}

// Storage sentinels. The service layer translates them into the
// domain error taxonomy.
var (
	ErrNotFound               = errors.New("not found")
	ErrNotAvailable           = errors.New("time not available")
	ErrConcurrentModification = errors.New("concurrent modification")
	ErrRoomExists             = errors.New("room already exists")
	ErrPhoneInUse             = errors.New("phone number already in use")
)

const roomsCacheTTL = 5 * time.Minute

// NewDB opens the database at path and bootstraps the schema.
// In-memory databases (":memory:") are supported for tests.
func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	dsn := path
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
		// WAL for concurrent readers, immediate transactions so
		// check-then-write sequences serialize per database.
		dsn = path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_txlock=immediate"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if path == ":memory:" {
		// Each pooled connection would otherwise see its own empty
		// in-memory database.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(time.Hour)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	instance := &DB{
		DB:         db,
		roomsCache: make(map[string]cachedRoom),
		logger:     logger,
	}

	if err := instance.createTables(); err != nil {
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return instance, nil
}

func (db *DB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS rooms (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL UNIQUE,
		created_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS users (
		id         TEXT PRIMARY KEY,
		first_name TEXT NOT NULL DEFAULT '',
		last_name  TEXT NOT NULL DEFAULT '',
		email      TEXT NOT NULL UNIQUE,
		phone_e164 TEXT UNIQUE,
		is_admin   INTEGER NOT NULL DEFAULT 0,
		is_owner   INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS bookings (
		id           TEXT PRIMARY KEY,
		requester_id TEXT NOT NULL REFERENCES users(id),
		room_id      TEXT NOT NULL REFERENCES rooms(id),
		event_name   TEXT NOT NULL,
		description  TEXT NOT NULL DEFAULT '',
		start_time   TIMESTAMP NOT NULL,
		end_time     TIMESTAMP NOT NULL,
		status       TEXT NOT NULL DEFAULT 'PENDING',
		comment      TEXT NOT NULL DEFAULT '',
		created_at   TIMESTAMP NOT NULL,
		updated_at   TIMESTAMP NOT NULL,
		version      INTEGER NOT NULL DEFAULT 1
	);

	CREATE INDEX IF NOT EXISTS idx_bookings_room_status ON bookings(room_id, status);
	CREATE INDEX IF NOT EXISTS idx_bookings_requester   ON bookings(requester_id);
	CREATE INDEX IF NOT EXISTS idx_bookings_status      ON bookings(status);
	`
	_, err := db.Exec(schema)
	return err
}

// PingContext checks the connection, used by readiness probes.
func (db *DB) PingContext(ctx context.Context) error {
	return db.DB.PingContext(ctx)
}
