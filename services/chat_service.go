package services

import (
	"context"
	"log/slog"

	"chat-hub/domain"
	"chat-hub/live"
	"chat-hub/repositories"
)

// HistoryPage is one page of a channel's timeline, newest first. Cursor is
// nil when the timeline is exhausted.
type HistoryPage struct {
	Messages []domain.Message
	Cursor   *string
}

// ChatService is the REST face of the message pipeline: history pagination,
// search, and the same post path the live surface uses, minus its rate
// limiter.
type ChatService struct {
	pipeline *live.Pipeline
	messages *repositories.MessageRepository
	index    *repositories.MessageIndex
	log      *slog.Logger
}

func NewChatService(pipeline *live.Pipeline, messages *repositories.MessageRepository,
	index *repositories.MessageIndex, log *slog.Logger) *ChatService {
	return &ChatService{pipeline: pipeline, messages: messages, index: index, log: log}
}

// History pages through a channel's messages. An absent limit falls back to
// the repository default; oversized ones are clamped there.
func (s *ChatService) History(_ context.Context, channel domain.ChannelID, cursor *string, limit int) (HistoryPage, error) {
	msgs, next, err := s.messages.List(channel, cursor, limit)
	if err != nil {
		return HistoryPage{}, err
	}
	return HistoryPage{Messages: msgs, Cursor: next}, nil
}

// Post runs the full broadcast pipeline on behalf of a REST caller. Live
// subscribers of the channel receive the fanout exactly as they would for a
// socket-originated message.
func (s *ChatService) Post(ctx context.Context, sender domain.UserID, senderName string, in live.NewMessage) (domain.Message, error) {
	return s.pipeline.Post(ctx, sender, senderName, in)
}

// Search runs a full-text query scoped to one channel and resolves the hits
// back to stored messages. Hits whose message has since been deleted are
// skipped.
func (s *ChatService) Search(ctx context.Context, channel domain.ChannelID, query string, limit int) ([]domain.Message, error) {
	ids, err := s.index.Search(ctx, channel, query, limit)
	if err != nil {
		return nil, err
	}

	msgs := make([]domain.Message, 0, len(ids))
	for _, id := range ids {
		m, err := s.messages.Get(ctx, id)
		if err != nil {
			s.log.Debug("search hit no longer stored", "id", id, "error", err)
			continue
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}
