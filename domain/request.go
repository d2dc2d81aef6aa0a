package domain

import (
	"time"

	"github.com/google/uuid"
)

type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

// PrivateRequest is a pending invitation request against a private channel,
// resolved by the channel owner.
type PrivateRequest struct {
	ID        uuid.UUID
	Channel   ChannelID
	Requester UserID
	Creator   UserID
	Status    RequestStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}
