package domain

import "time"

// User owns API tokens. Admin users may manage tokens over the admin surface.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	IsAdmin      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
