package models

import "time"

type UserRole string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"
)

// Valid reports whether the role is one of the known values. Unknown roles
// are treated as non-admin everywhere else.
func (r UserRole) Valid() bool {
	return r == UserRoleUser || r == UserRoleAdmin
}

type User struct {
	ID           string
	Username     string
	Name         string
	Email        string
	PasswordHash []byte
	Role         UserRole
	IsActive     bool

	// Activation and reset tokens are set and cleared together with their
	// expiry; one without the other is a bug.
	ActivationToken          *string
	ActivationTokenExpiresAt *time.Time
	ResetToken               *string
	ResetTokenExpiresAt      *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// RefreshToken is a persisted, single-use credential. The token string itself
// is the primary lookup key; user_id is a weak reference kept around for bulk
// revocation.
type RefreshToken struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports lazy expiry relative to now. Rows past their expiry are
// invalid even while still persisted.
func (t RefreshToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
