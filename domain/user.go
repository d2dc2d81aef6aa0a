package domain

import "time"

// User is a registered account. IsOnline and LastSeen are advisory copies of
// the live presence state, persisted best-effort.
type User struct {
	ID           UserID
	Username     string
	Email        string
	Phone        string
	PasswordHash string
	Verified     bool
	ProfileURL   string
	IsOnline     bool
	LastSeen     *time.Time
	CreatedAt    time.Time
}
