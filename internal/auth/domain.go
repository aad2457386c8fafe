package auth

import "time"

// Account represents a user account owned by the authentication module.
// Role is deliberately absent here: it lives on the profile record only.
type Account struct {
	ID           int64
	Email        string
	PasswordHash string
	AvatarURL    string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
