package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Attachment references an uploaded file carried by a message.
type Attachment struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
}

// Message is a persisted chat event.
type Message struct {
	ID          uuid.UUID
	Channel     ChannelID
	Sender      UserID
	SenderName  string
	Text        string
	Attachments []Attachment
	CreatedAt   time.Time
	EditedAt    *time.Time
}

// IsEmpty reports whether the message carries no content at all:
// blank text and no attachments.
func (m Message) IsEmpty() bool {
	return strings.TrimSpace(m.Text) == "" && len(m.Attachments) == 0
}
