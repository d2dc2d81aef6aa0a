package repositories

import (
	"context"
	"log/slog"

	"chat-hub/domain"

	"github.com/blugelabs/bluge"
	"github.com/google/uuid"
)

// MessageIndex maintains a Bluge full-text index over message text. Indexing
// runs after persistence as a best-effort side effect; the Badger store
// remains the source of truth and search only returns message ids.
type MessageIndex struct {
	writer *bluge.Writer
	log    *slog.Logger
}

func NewMessageIndex(writer *bluge.Writer, log *slog.Logger) *MessageIndex {
	return &MessageIndex{writer: writer, log: log}
}

func (i *MessageIndex) Index(m domain.Message) error {
	doc := bluge.NewDocument(m.ID.String()).
		AddField(bluge.NewTextField("text", m.Text)).
		AddField(bluge.NewKeywordField("channel", string(m.Channel))).
		AddField(bluge.NewKeywordField("sender", string(m.Sender))).
		AddField(bluge.NewDateTimeField("created_at", m.CreatedAt))
	return i.writer.Update(doc.ID(), doc)
}

func (i *MessageIndex) Remove(id uuid.UUID) error {
	return i.writer.Delete(bluge.Identifier(id.String()))
}

// Search returns the ids of the channel's messages matching the query text,
// best match first.
func (i *MessageIndex) Search(ctx context.Context, channel domain.ChannelID, query string, limit int) ([]uuid.UUID, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}

	q := bluge.NewBooleanQuery().
		AddMust(bluge.NewMatchQuery(query).SetField("text")).
		AddMust(bluge.NewTermQuery(string(channel)).SetField("channel"))

	reader, err := i.writer.Reader()
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := reader.Close(); err != nil {
			i.log.Warn("closing index reader failed", "error", err)
		}
	}()

	iter, err := reader.Search(ctx, bluge.NewTopNSearch(limit, q))
	if err != nil {
		return nil, err
	}

	var ids []uuid.UUID
	for {
		match, err := iter.Next()
		if err != nil {
			return nil, err
		}
		if match == nil {
			break
		}
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			if field == "_id" {
				if id, err := uuid.Parse(string(value)); err == nil {
					ids = append(ids, id)
				}
			}
			return true
		})
		if err != nil {
			return nil, err
		}
	}
	return ids, nil
}
