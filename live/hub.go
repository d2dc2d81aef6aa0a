package live

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"chat-hub/contract"
	"chat-hub/domain"
	"chat-hub/domain/event"
	"chat-hub/errors"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// RateLimitError carries the wait hint handed back to a throttled client.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%v, retry in %s", errors.ErrRateLimited, e.RetryAfter)
}

func (e *RateLimitError) Unwrap() error { return errors.ErrRateLimited }

// Hub is the request/response surface of the live subsystem, one method per
// client event type. The transport layer owns sockets and frames; the hub
// owns every piece of shared in-memory state behind it.
type Hub struct {
	log      *slog.Logger
	registry *Registry
	rooms    *Rooms
	presence *Presence
	limiter  *Limiter
	pipeline *Pipeline
	channels contract.IChannelDirectory
}

func NewHub(log *slog.Logger, registry *Registry, rooms *Rooms,
	presence *Presence, limiter *Limiter, pipeline *Pipeline,
	channels contract.IChannelDirectory) *Hub {
	return &Hub{
		log:      log,
		registry: registry,
		rooms:    rooms,
		presence: presence,
		limiter:  limiter,
		pipeline: pipeline,
		channels: channels,
	}
}

// Connect admits an authenticated connection and runs the presence side
// effects: snapshot to the newcomer, online broadcast on the 0->1 edge.
func (h *Hub) Connect(ctx context.Context, conn domain.Connection, sink contract.EventSink) error {
	first, err := h.registry.Admit(conn, sink)
	if err != nil {
		return err
	}
	h.log.Info("connection admitted",
		"connection_id", conn.ID, "user_id", conn.User, "first", first)
	h.presence.ConnectionAdmitted(ctx, conn, sink, first)
	return nil
}

// Disconnect removes a connection, purges its room subscriptions, and fires
// the offline transition if it was the user's last. Idempotent: unknown ids
// are a no-op.
func (h *Hub) Disconnect(ctx context.Context, id domain.ConnectionID) {
	conn, last, ok := h.registry.Remove(id)
	if !ok {
		return
	}
	h.rooms.DropConnection(id)
	h.log.Info("connection removed",
		"connection_id", id, "user_id", conn.User, "last", last)
	h.presence.ConnectionClosed(ctx, conn, last)
}

// JoinChannel subscribes a connection to a channel's live stream after
// validating the channel exists and the user may enter it. Private channels
// apply the same gating as the REST join path: owner, member, or invited.
func (h *Hub) JoinChannel(ctx context.Context, id domain.ConnectionID, channelID domain.ChannelID) error {
	if channelID == "" {
		return errors.ErrNoChannel
	}
	conn, ok := h.registry.Connection(id)
	if !ok {
		return errors.ErrJoinFail
	}

	channel, err := h.channels.GetChannel(ctx, channelID)
	if err != nil {
		if stderrors.Is(err, errors.ErrChannelNotFound) {
			return err
		}
		return fmt.Errorf("%w: %v", errors.ErrJoinFail, err)
	}
	if !channel.CanJoin(conn.User) {
		return errors.ErrNotAllowed
	}

	h.rooms.Join(id, channelID)
	return nil
}

// LeaveChannel drops the subscription; absent entries are a no-op.
func (h *Hub) LeaveChannel(id domain.ConnectionID, channelID domain.ChannelID) {
	h.rooms.Leave(id, channelID)
}

// Typing relays a typing indicator to the room, excluding the sender. Events
// from connections that are not room members are silently dropped: typing is
// best-effort and never worth an error round-trip.
func (h *Hub) Typing(ctx context.Context, id domain.ConnectionID, channelID domain.ChannelID, isTyping bool) {
	conn, ok := h.registry.Connection(id)
	if !ok || !h.rooms.IsMember(id, channelID) {
		return
	}
	members := lo.Without(h.rooms.MembersOf(channelID), id)
	deliver(ctx, h.log, h.registry.ResolveSinks(members), event.Typing{
		UserID:    conn.User,
		Username:  conn.Username,
		ChannelID: channelID,
		IsTyping:  isTyping,
	})
}

// PostMessage is the live-path message origination: rate-limited per user,
// then handed to the broadcast pipeline.
func (h *Hub) PostMessage(ctx context.Context, id domain.ConnectionID, in NewMessage) (domain.Message, error) {
	conn, ok := h.registry.Connection(id)
	if !ok {
		return domain.Message{}, errors.ErrIdentityRequired
	}
	now := time.Now().UTC()
	if !h.limiter.TryAccept(conn.User, now) {
		return domain.Message{}, &RateLimitError{RetryAfter: h.limiter.RetryAfter(conn.User, now)}
	}
	return h.pipeline.Post(ctx, conn.User, conn.Username, in)
}

// UpdateMessage edits a previously sent message; only its sender may.
func (h *Hub) UpdateMessage(ctx context.Context, id domain.ConnectionID, messageID uuid.UUID, text string) (domain.Message, error) {
	conn, ok := h.registry.Connection(id)
	if !ok {
		return domain.Message{}, errors.ErrIdentityRequired
	}
	return h.pipeline.Update(ctx, conn.User, messageID, text)
}

// DeleteMessage removes a previously sent message; only its sender may.
func (h *Hub) DeleteMessage(ctx context.Context, id domain.ConnectionID, messageID uuid.UUID) error {
	conn, ok := h.registry.Connection(id)
	if !ok {
		return errors.ErrIdentityRequired
	}
	return h.pipeline.Delete(ctx, conn.User, messageID)
}
