// Package event defines the server-to-client frames of the live surface.
// Each event marshals to the data part of a {"event": name, "data": ...} frame.
package event

import (
	"time"

	"chat-hub/domain"
)

// Event is anything deliverable to a connection sink.
type Event interface {
	Name() string
}

type JoinedChannel struct {
	ChannelID domain.ChannelID `json:"channelId"`
}

func (JoinedChannel) Name() string { return "joined:channel" }

type LeftChannel struct {
	ChannelID domain.ChannelID `json:"channelId"`
}

func (LeftChannel) Name() string { return "left:channel" }

// PresenceSnapshot is sent once to a freshly admitted connection so the
// client does not have to infer presence from history.
type PresenceSnapshot struct {
	OnlineUserIDs []domain.UserID `json:"onlineUserIds"`
}

func (PresenceSnapshot) Name() string { return "presence:snapshot" }

// PresenceUpdate fires on a user's 0->1 or 1->0 connection-count edge, never
// on intermediate additions or removals.
type PresenceUpdate struct {
	UserID   domain.UserID `json:"userId"`
	IsOnline bool          `json:"isOnline"`
	LastSeen *time.Time    `json:"lastSeen,omitempty"`
}

func (PresenceUpdate) Name() string { return "presence:update" }

type MessageReceived struct {
	Message MessagePayload `json:"message"`
}

func (MessageReceived) Name() string { return "message:received" }

type MessageUpdated struct {
	Message MessagePayload `json:"message"`
}

func (MessageUpdated) Name() string { return "message:updated" }

type MessageDeleted struct {
	MessageID string           `json:"messageId"`
	ChannelID domain.ChannelID `json:"channelId"`
}

func (MessageDeleted) Name() string { return "message:deleted" }

// Typing is transient: never persisted, never acknowledged, never delivered
// back to its originator.
type Typing struct {
	UserID    domain.UserID    `json:"userId"`
	Username  string           `json:"username"`
	ChannelID domain.ChannelID `json:"channelId"`
	IsTyping  bool             `json:"isTyping"`
}

func (Typing) Name() string { return "typing" }

// Error is delivered to the originating connection only.
type Error struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	RetryAfterMs int64  `json:"retryAfterMs,omitempty"`
}

func (Error) Name() string { return "error" }

// MessagePayload is the wire shape of a persisted message.
type MessagePayload struct {
	ID          string              `json:"id"`
	ChannelID   domain.ChannelID    `json:"channelId"`
	SenderID    domain.UserID       `json:"senderId"`
	SenderName  string              `json:"senderName"`
	Text        string              `json:"text"`
	Attachments []domain.Attachment `json:"attachments,omitempty"`
	CreatedAt   time.Time           `json:"createdAt"`
	EditedAt    *time.Time          `json:"editedAt,omitempty"`
}

// ToPayload converts a domain message to its wire shape.
func ToPayload(m domain.Message) MessagePayload {
	return MessagePayload{
		ID:          m.ID.String(),
		ChannelID:   m.Channel,
		SenderID:    m.Sender,
		SenderName:  m.SenderName,
		Text:        m.Text,
		Attachments: m.Attachments,
		CreatedAt:   m.CreatedAt,
		EditedAt:    m.EditedAt,
	}
}
