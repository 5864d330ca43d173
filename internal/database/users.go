package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"roomdesk/internal/models"
)

// CreateUser inserts a user record.
func (db *DB) CreateUser(ctx context.Context, u *models.User) error {
	var phone any
	if u.PhoneE164 != "" {
		phone = u.PhoneE164
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO users (id, first_name, last_name, email, phone_e164, is_admin, is_owner, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.FirstName, u.LastName, u.Email, phone, u.IsAdmin, u.IsOwner, u.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetUser loads a user by id.
func (db *DB) GetUser(ctx context.Context, id string) (*models.User, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, first_name, last_name, email, phone_e164, is_admin, is_owner, created_at
		FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// ListUsers returns all users, newest first.
func (db *DB) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, first_name, last_name, email, phone_e164, is_admin, is_owner, created_at
		FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]models.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// UpdateUserPhone stores a normalized E.164 number for the user.
// Phone numbers are unique across accounts; a number held by another
// user returns ErrPhoneInUse.
func (db *DB) UpdateUserPhone(ctx context.Context, id, phoneE164 string) error {
	res, err := db.ExecContext(ctx,
		`UPDATE users SET phone_e164 = ? WHERE id = ?`, phoneE164, id)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrPhoneInUse
		}
		return fmt.Errorf("update phone: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	var u models.User
	var phone sql.NullString
	err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &phone,
		&u.IsAdmin, &u.IsOwner, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	if phone.Valid {
		u.PhoneE164 = phone.String
	}
	return &u, nil
}
