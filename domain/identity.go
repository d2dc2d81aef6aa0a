// Package domain contains core concepts of the chat system.
// No runtime, network, or UI logic should be added here.
package domain

// UserID identifies a registered account.
type UserID string

// ChannelID identifies a named channel.
type ChannelID string

// ConnectionID identifies one live transport session. A user with several
// open tabs owns several connections at once.
type ConnectionID string

// Connection is the resolved identity attached to a transport session
// after the authentication handshake.
type Connection struct {
	ID       ConnectionID
	User     UserID
	Username string
}
