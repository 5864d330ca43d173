package models

import "time"

// User is an account record. The core operations never see a full
// user; they receive the Principal projection below.
type User struct {
	ID        string    `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	PhoneE164 string    `json:"phone_e164,omitempty"` // empty until the user completes their profile
	IsAdmin   bool      `json:"is_admin"`
	IsOwner   bool      `json:"is_owner"`
	CreatedAt time.Time `json:"created_at"`
}

// Principal is the authenticated actor for an operation. Capability
// flags are passed explicitly so authorization checks stay testable
// without any ambient session state.
type Principal struct {
	ID      string
	IsAdmin bool
	IsOwner bool
}

// Principal returns the capability projection of the user.
func (u *User) Principal() Principal {
	return Principal{ID: u.ID, IsAdmin: u.IsAdmin, IsOwner: u.IsOwner}
}

// CanView reports whether the principal may see full details of the
// given booking: admins and the requester themselves.
func (p Principal) CanView(b *Booking) bool {
	return p.IsAdmin || p.ID == b.RequesterID
}
