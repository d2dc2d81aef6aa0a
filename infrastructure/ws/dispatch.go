package ws

import (
	"context"
	"encoding/json"
	stderrors "errors"

	"chat-hub/domain"
	"chat-hub/domain/event"
	"chat-hub/errors"
	"chat-hub/live"

	"github.com/google/uuid"
)

// Client-to-server event names.
const (
	evtJoinChannel   = "join:channel"
	evtLeaveChannel  = "leave:channel"
	evtMessageNew    = "message:new"
	evtMessageUpdate = "message:update"
	evtMessageDelete = "message:delete"
	evtTyping        = "typing"
)

type joinPayload struct {
	ChannelID domain.ChannelID `json:"channelId"`
}

type sendPayload struct {
	ChannelID   domain.ChannelID    `json:"channelId"`
	Text        string              `json:"text"`
	Attachments []domain.Attachment `json:"attachments,omitempty"`
}

type editPayload struct {
	MessageID string `json:"messageId"`
	Text      string `json:"text"`
}

type deletePayload struct {
	MessageID string `json:"messageId"`
}

type typingPayload struct {
	ChannelID domain.ChannelID `json:"channelId"`
	IsTyping  bool             `json:"isTyping"`
}

// dispatch routes one inbound frame to its hub operation. Failures go back
// to the originating connection as an error event; they never close the
// socket.
func (h *Handler) dispatch(ctx context.Context, conn connection, frame Frame) {
	switch frame.Event {
	case evtJoinChannel:
		var p joinPayload
		if !h.decode(ctx, conn, frame, &p, "JOIN_FAIL") {
			return
		}
		if err := h.hub.JoinChannel(ctx, conn.ID, p.ChannelID); err != nil {
			h.sendError(ctx, conn, err, "JOIN_FAIL")
			return
		}
		h.sendEvent(ctx, conn, event.JoinedChannel{ChannelID: p.ChannelID})

	case evtLeaveChannel:
		var p joinPayload
		if !h.decode(ctx, conn, frame, &p, "NO_CHANNEL") {
			return
		}
		h.hub.LeaveChannel(conn.ID, p.ChannelID)
		h.sendEvent(ctx, conn, event.LeftChannel{ChannelID: p.ChannelID})

	case evtMessageNew:
		var p sendPayload
		if !h.decode(ctx, conn, frame, &p, "MSG_SAVE_FAIL") {
			return
		}
		_, err := h.hub.PostMessage(ctx, conn.ID, live.NewMessage{
			Channel:     p.ChannelID,
			Text:        p.Text,
			Attachments: p.Attachments,
		})
		if err != nil {
			h.sendError(ctx, conn, err, "MSG_SAVE_FAIL")
		}

	case evtMessageUpdate:
		var p editPayload
		if !h.decode(ctx, conn, frame, &p, "MSG_UPDATE_FAIL") {
			return
		}
		id, err := uuid.Parse(p.MessageID)
		if err != nil {
			h.sendError(ctx, conn, errors.ErrMessageNotFound, "MSG_UPDATE_FAIL")
			return
		}
		if _, err := h.hub.UpdateMessage(ctx, conn.ID, id, p.Text); err != nil {
			h.sendError(ctx, conn, err, "MSG_UPDATE_FAIL")
		}

	case evtMessageDelete:
		var p deletePayload
		if !h.decode(ctx, conn, frame, &p, "MSG_DELETE_FAIL") {
			return
		}
		id, err := uuid.Parse(p.MessageID)
		if err != nil {
			h.sendError(ctx, conn, errors.ErrMessageNotFound, "MSG_DELETE_FAIL")
			return
		}
		if err := h.hub.DeleteMessage(ctx, conn.ID, id); err != nil {
			h.sendError(ctx, conn, err, "MSG_DELETE_FAIL")
		}

	case evtTyping:
		var p typingPayload
		if err := json.Unmarshal(frame.Data, &p); err != nil {
			return // typing is best-effort, malformed frames are dropped
		}
		h.hub.Typing(ctx, conn.ID, p.ChannelID, p.IsTyping)

	default:
		h.log.Debug("unknown client event", "event", frame.Event, "connection_id", conn.ID)
	}
}

func (h *Handler) decode(ctx context.Context, conn connection, frame Frame, dst any, fallback string) bool {
	if err := json.Unmarshal(frame.Data, dst); err != nil {
		h.sendEvent(ctx, conn, event.Error{Code: fallback, Message: "malformed payload"})
		return false
	}
	return true
}

// sendError maps a hub error to its wire code and delivers it to the
// originating connection only.
func (h *Handler) sendError(ctx context.Context, conn connection, err error, fallback string) {
	evt := event.Error{
		Code:    errors.CodeOf(err, fallback),
		Message: err.Error(),
	}
	var rl *live.RateLimitError
	if stderrors.As(err, &rl) {
		evt.RetryAfterMs = rl.RetryAfter.Milliseconds()
	}
	h.sendEvent(ctx, conn, evt)
}

func (h *Handler) sendEvent(ctx context.Context, conn connection, evt event.Event) {
	_ = conn.sink.Consume(ctx, evt)
}
