package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"roomdesk/internal/models"
)

const bookingColumns = `id, requester_id, room_id, event_name, description,
	start_time, end_time, status, comment, created_at, updated_at, version`

func scanBooking(row interface{ Scan(...any) error }) (*models.Booking, error) {
	var b models.Booking
	err := row.Scan(
		&b.ID, &b.RequesterID, &b.RoomID, &b.EventName, &b.Description,
		&b.Start, &b.End, &b.Status, &b.Comment, &b.CreatedAt, &b.UpdatedAt, &b.Version,
	)
	if err != nil {
		return nil, err
	}
	b.Start = b.Start.UTC()
	b.End = b.End.UTC()
	return &b, nil
}

// CreateBooking inserts a new PENDING booking. The absence of an
// overlapping APPROVED booking is re-checked inside the same
// transaction as the insert, so two concurrent creates cannot slip
// past an approval that lands between check and write.
func (db *DB) CreateBooking(ctx context.Context, b *models.Booking) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	count, err := countApprovedOverlapping(ctx, tx, b.RoomID, b.Range(), "")
	if err != nil {
		return fmt.Errorf("check availability: %w", err)
	}
	if count > 0 {
		return ErrNotAvailable
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO bookings (
			id, requester_id, room_id, event_name, description,
			start_time, end_time, status, comment, created_at, updated_at, version
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.RequesterID, b.RoomID, b.EventName, b.Description,
		b.Start, b.End, b.Status, b.Comment, b.CreatedAt, b.UpdatedAt, b.Version,
	)
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// GetBooking loads a booking by id.
func (db *DB) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id)
	b, err := scanBooking(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}
	return b, nil
}

// ApproveBooking flips a PENDING booking to APPROVED. The overlap
// check against other APPROVED bookings of the room runs inside the
// same transaction as the status flip, and the write is a
// compare-and-swap on (version, status), so two concurrent approvals
// of overlapping requests cannot both succeed.
func (db *DB) ApproveBooking(ctx context.Context, id string, version int64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id)
	b, err := scanBooking(row)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("load booking: %w", err)
	}
	if b.Status != models.StatusPending {
		return ErrConcurrentModification
	}

	count, err := countApprovedOverlapping(ctx, tx, b.RoomID, b.Range(), id)
	if err != nil {
		return fmt.Errorf("check availability: %w", err)
	}
	if count > 0 {
		return ErrNotAvailable
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE bookings
		SET status = ?, updated_at = ?, version = version + 1
		WHERE id = ? AND version = ? AND status = ?`,
		models.StatusApproved, time.Now().UTC(), id, version, models.StatusPending,
	)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrConcurrentModification
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// RejectBooking flips a PENDING booking to REJECTED and stores the
// rejection comment. CAS on (version, status) like ApproveBooking.
func (db *DB) RejectBooking(ctx context.Context, id string, version int64, comment string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var status string
	err = tx.QueryRowContext(ctx,
		`SELECT status FROM bookings WHERE id = ?`, id).Scan(&status)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("load booking: %w", err)
	}
	if status != models.StatusPending {
		return ErrConcurrentModification
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE bookings
		SET status = ?, comment = ?, updated_at = ?, version = version + 1
		WHERE id = ? AND version = ? AND status = ?`,
		models.StatusRejected, comment, time.Now().UTC(), id, version, models.StatusPending,
	)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrConcurrentModification
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// countApprovedOverlapping counts APPROVED bookings of the room whose
// [start, end) strictly overlaps r. excludeID guards re-checks at
// approval time against counting the candidate itself.
func countApprovedOverlapping(ctx context.Context, q querier, roomID string, r models.TimeRange, excludeID string) (int64, error) {
	var count int64
	err := q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM bookings
		WHERE room_id = ? AND status = ?
		  AND start_time < ? AND end_time > ?
		  AND id != ?`,
		roomID, models.StatusApproved, r.End, r.Start, excludeID,
	).Scan(&count)
	return count, err
}

// FindApprovedOverlapping returns APPROVED bookings of the room that
// strictly overlap r, ordered by start time.
func (db *DB) FindApprovedOverlapping(ctx context.Context, roomID string, r models.TimeRange) ([]models.Booking, error) {
	return db.queryBookings(ctx, `
		SELECT `+bookingColumns+` FROM bookings
		WHERE room_id = ? AND status = ?
		  AND start_time < ? AND end_time > ?
		ORDER BY start_time`,
		roomID, models.StatusApproved, r.End, r.Start)
}

// FindIntersecting returns bookings of any status whose range
// intersects [r.Start, r.End), ordered by start time. Status
// filtering is the caller's concern.
func (db *DB) FindIntersecting(ctx context.Context, roomID string, r models.TimeRange) ([]models.Booking, error) {
	return db.queryBookings(ctx, `
		SELECT `+bookingColumns+` FROM bookings
		WHERE room_id = ?
		  AND start_time < ? AND end_time > ?
		ORDER BY start_time`,
		roomID, r.End, r.Start)
}

// ListBookingsByStatus returns all bookings with the given status,
// newest first.
func (db *DB) ListBookingsByStatus(ctx context.Context, status string) ([]models.Booking, error) {
	return db.queryBookings(ctx, `
		SELECT `+bookingColumns+` FROM bookings
		WHERE status = ?
		ORDER BY created_at DESC`,
		status)
}

// ListUserBookings returns a requester's bookings, newest start first.
func (db *DB) ListUserBookings(ctx context.Context, requesterID string) ([]models.Booking, error) {
	return db.queryBookings(ctx, `
		SELECT `+bookingColumns+` FROM bookings
		WHERE requester_id = ?
		ORDER BY start_time DESC`,
		requesterID)
}

func (db *DB) queryBookings(ctx context.Context, query string, args ...any) ([]models.Booking, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query bookings: %w", err)
	}
	defer rows.Close()

	// Non-nil even when empty so list endpoints marshal as [].
	bookings := make([]models.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}
