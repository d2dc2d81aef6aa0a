package domain

import "time"

// Channel is a named group-chat room. Members are durable membership,
// distinct from the live subscriber set tracked by the live subsystem.
type Channel struct {
	ID           ChannelID
	Name         string
	CreatedBy    UserID
	Members      []UserID
	LeftMembers  []UserID
	InvitedUsers []UserID
	IsPrivate    bool
	Capacity     int // 0 = unlimited
	CreatedAt    time.Time
}

func (c Channel) IsOwner(u UserID) bool {
	return c.CreatedBy == u
}

func (c Channel) IsMember(u UserID) bool {
	return contains(c.Members, u)
}

func (c Channel) IsInvited(u UserID) bool {
	return contains(c.InvitedUsers, u)
}

// CanJoin reports whether a user may enter the channel: public channels are
// open to everyone, private ones require an invite, ownership, or existing
// membership.
func (c Channel) CanJoin(u UserID) bool {
	if !c.IsPrivate {
		return true
	}
	return c.IsOwner(u) || c.IsMember(u) || c.IsInvited(u)
}

// HasCapacity reports whether the channel can accept one more member.
func (c Channel) HasCapacity() bool {
	return c.Capacity == 0 || len(c.Members) < c.Capacity
}

func contains(ids []UserID, u UserID) bool {
	for _, id := range ids {
		if id == u {
			return true
		}
	}
	return false
}
