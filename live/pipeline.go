package live

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"chat-hub/contract"
	"chat-hub/domain"
	"chat-hub/domain/event"
	"chat-hub/errors"
	"chat-hub/moderation"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// NewMessage is a message-creation intent, from the live path or the REST
// layer.
type NewMessage struct {
	Channel     domain.ChannelID
	Text        string
	Attachments []domain.Attachment
}

// Pipeline validates, persists, and fans out chat messages. The subscriber
// snapshot is always computed after persistence succeeded, so no observer
// ever sees an event for a message that failed to persist. Within one
// process, two messages to the same channel broadcast in the order their
// persistence calls completed, not necessarily submission order.
type Pipeline struct {
	log       *slog.Logger
	registry  *Registry
	rooms     *Rooms
	channels  contract.IChannelDirectory
	store     contract.IMessageStore
	index     contract.IMessageIndex
	moderator *moderation.Moderator

	// enforceMembership gates posting on durable channel membership.
	// The room join path applies the same rule unconditionally; see Hub.
	enforceMembership bool
}

func NewPipeline(log *slog.Logger, registry *Registry, rooms *Rooms,
	channels contract.IChannelDirectory, store contract.IMessageStore,
	index contract.IMessageIndex, moderator *moderation.Moderator,
	enforceMembership bool) *Pipeline {
	return &Pipeline{
		log:               log,
		registry:          registry,
		rooms:             rooms,
		channels:          channels,
		store:             store,
		index:             index,
		moderator:         moderator,
		enforceMembership: enforceMembership,
	}
}

// Post runs the full creation pipeline for one message and returns the
// persisted record.
func (p *Pipeline) Post(ctx context.Context, sender domain.UserID, senderName string, in NewMessage) (domain.Message, error) {
	if in.Channel == "" {
		return domain.Message{}, errors.ErrNoChannel
	}

	text := strings.TrimSpace(in.Text)
	if text == "" && len(in.Attachments) == 0 {
		return domain.Message{}, errors.ErrEmptyMessage
	}

	channel, err := p.channels.GetChannel(ctx, in.Channel)
	if err != nil {
		return domain.Message{}, channelLookupErr(err)
	}

	if p.enforceMembership && !channel.IsMember(sender) && !channel.IsOwner(sender) {
		return domain.Message{}, errors.ErrNotAllowed
	}

	msg := domain.Message{
		ID:          uuid.New(),
		Channel:     channel.ID,
		Sender:      sender,
		SenderName:  senderName,
		Text:        p.censor(text),
		Attachments: in.Attachments,
		CreatedAt:   time.Now().UTC(),
	}

	if err := p.store.Create(ctx, msg); err != nil {
		return domain.Message{}, fmt.Errorf("%w: %v", errors.ErrMessageSave, err)
	}
	p.indexMessage(msg)

	p.broadcast(ctx, channel.ID, event.MessageReceived{Message: event.ToPayload(msg)})
	return msg, nil
}

// Update edits a message's text. Only the original sender may edit.
func (p *Pipeline) Update(ctx context.Context, actor domain.UserID, messageID uuid.UUID, text string) (domain.Message, error) {
	msg, err := p.store.Get(ctx, messageID)
	if err != nil {
		return domain.Message{}, fmt.Errorf("%w: %v", errors.ErrMessageNotFound, err)
	}
	if msg.Sender != actor {
		return domain.Message{}, errors.ErrNotAllowed
	}

	now := time.Now().UTC()
	msg.Text = p.censor(strings.TrimSpace(text))
	msg.EditedAt = &now

	if err := p.store.Update(ctx, msg); err != nil {
		return domain.Message{}, fmt.Errorf("%w: %v", errors.ErrMessageUpdate, err)
	}
	p.indexMessage(msg)

	p.broadcast(ctx, msg.Channel, event.MessageUpdated{Message: event.ToPayload(msg)})
	return msg, nil
}

// Delete removes a message. Only the original sender may delete.
func (p *Pipeline) Delete(ctx context.Context, actor domain.UserID, messageID uuid.UUID) error {
	msg, err := p.store.Get(ctx, messageID)
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrMessageNotFound, err)
	}
	if msg.Sender != actor {
		return errors.ErrNotAllowed
	}

	if err := p.store.Delete(ctx, messageID); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrMessageDelete, err)
	}
	if p.index != nil {
		if err := p.index.Remove(messageID); err != nil {
			p.log.Warn("search index removal failed", "message_id", messageID, "error", err)
		}
	}

	p.broadcast(ctx, msg.Channel, event.MessageDeleted{
		MessageID: messageID.String(),
		ChannelID: msg.Channel,
	})
	return nil
}

func (p *Pipeline) censor(text string) string {
	if p.moderator == nil || text == "" {
		return text
	}
	censored, hits := p.moderator.Censor(text)
	if len(hits) > 0 {
		p.log.Info("message censored", "hits", len(hits))
	}
	return censored
}

func (p *Pipeline) indexMessage(msg domain.Message) {
	if p.index == nil {
		return
	}
	if err := p.index.Index(msg); err != nil {
		p.log.Warn("search indexing failed", "message_id", msg.ID, "error", err)
	}
}

// broadcast fans an event out to the channel's current subscribers, excluding
// any listed connection ids. The member snapshot is taken now; sinks resolve
// through the registry so already-disconnected ids drop out.
func (p *Pipeline) broadcast(ctx context.Context, channel domain.ChannelID, evt event.Event, exclude ...domain.ConnectionID) {
	members := lo.Without(p.rooms.MembersOf(channel), exclude...)
	deliver(ctx, p.log, p.registry.ResolveSinks(members), evt)
}

func channelLookupErr(err error) error {
	if stderrors.Is(err, errors.ErrChannelNotFound) {
		return err
	}
	return fmt.Errorf("%w: %v", errors.ErrChannelNotFound, err)
}

// deliver pushes one event into each sink. Sinks are required to be
// non-blocking, so a slow client costs at most a dropped frame, never a
// stalled fan-out.
func deliver(ctx context.Context, log *slog.Logger, sinks []contract.EventSink, evt event.Event) {
	for _, sink := range sinks {
		if err := sink.Consume(ctx, evt); err != nil {
			log.Debug("event delivery failed", "event", evt.Name(), "error", err)
		}
	}
}
