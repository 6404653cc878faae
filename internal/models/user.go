package models

import "time"

type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Session is one logged-in browser or device. Only the SHA-256 hash of the
// bearer token is stored; a leaked table cannot be replayed without the raw
// token. A user may hold any number of concurrent sessions.
type Session struct {
	ID        string
	UserID    string
	TokenHash []byte
	CreatedAt time.Time
	ExpiresAt time.Time
}
