package user

import "time"

// User is an admin panel login identity. PasswordHash is a bcrypt hash and
// is never serialized.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Session is a server-side record of an issued token. TokenHash is the
// SHA-256 of the bearer token, never the token itself.
type Session struct {
	ID         string
	UserID     string
	TokenHash  string
	ExpiresAt  time.Time
	CreatedAt  time.Time
	LastSeenAt time.Time
}
