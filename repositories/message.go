package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"chat-hub/domain"
	"chat-hub/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

const (
	// DefaultPageSize bounds history pages when the caller asks for nothing.
	DefaultPageSize = 30
	// MaxPageSize is the hard clamp on history page sizes.
	MaxPageSize = 100
)

// MessageRepository persists messages in BadgerDB.
// The primary key is "msg:{channel}:{timestamp_padded}:{uuid}":
//  1. 19-digit zero padding keeps keys in chronological lexicographic order,
//     so history pagination is a reverse prefix scan.
//  2. The UUID suffix disambiguates two messages landing on the same
//     nanosecond.
//
// A secondary "msgid:{uuid}" entry points back at the primary key so
// edit/delete can resolve a message by id alone.
type MessageRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewMessageRepository(db *badger.DB, log *slog.Logger) *MessageRepository {
	return &MessageRepository{db: db, log: log}
}

type storedMessage struct {
	ID          uuid.UUID           `json:"id"`
	Channel     domain.ChannelID    `json:"channel"`
	Sender      domain.UserID       `json:"sender"`
	SenderName  string              `json:"senderName"`
	Text        string              `json:"text"`
	Attachments []domain.Attachment `json:"attachments,omitempty"`
	CreatedAt   time.Time           `json:"createdAt"`
	EditedAt    *time.Time          `json:"editedAt,omitempty"`
}

func messageKey(m domain.Message) []byte {
	return []byte(fmt.Sprintf("msg:%s:%019d:%s", m.Channel, m.CreatedAt.UnixNano(), m.ID))
}

func messageIDKey(id uuid.UUID) []byte {
	return []byte("msgid:" + id.String())
}

func (r *MessageRepository) Create(_ context.Context, m domain.Message) error {
	value, err := json.Marshal(fromMessage(m))
	if err != nil {
		return err
	}
	key := messageKey(m)
	return r.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(key, value); err != nil {
			return err
		}
		return txn.Set(messageIDKey(m.ID), key)
	})
}

func (r *MessageRepository) Get(_ context.Context, id uuid.UUID) (domain.Message, error) {
	var stored storedMessage
	err := r.db.View(func(txn *badger.Txn) error {
		key, err := resolvePrimaryKey(txn, id)
		if err != nil {
			return err
		}
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &stored)
		})
	})
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return domain.Message{}, errors.ErrMessageNotFound
		}
		return domain.Message{}, err
	}
	return toMessage(stored), nil
}

// Update rewrites the message in place. The primary key embeds the creation
// timestamp, which never changes on edit, so the key stays stable.
func (r *MessageRepository) Update(_ context.Context, m domain.Message) error {
	value, err := json.Marshal(fromMessage(m))
	if err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		key, err := resolvePrimaryKey(txn, m.ID)
		if err != nil {
			return err
		}
		return txn.Set(key, value)
	})
}

func (r *MessageRepository) Delete(_ context.Context, id uuid.UUID) error {
	return r.db.Update(func(txn *badger.Txn) error {
		key, err := resolvePrimaryKey(txn, id)
		if err != nil {
			return err
		}
		if err := txn.Delete(key); err != nil {
			return err
		}
		return txn.Delete(messageIDKey(id))
	})
}

// List pages through a channel's history newest-first. The returned cursor
// is the key suffix of the last message and feeds the next call; a nil
// cursor starts from the newest message. A page shorter than limit is the
// last one and carries no cursor.
func (r *MessageRepository) List(channel domain.ChannelID, cursor *string, limit int) ([]domain.Message, *string, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	var rawValues [][]byte
	var lastKey string

	err := r.db.View(func(txn *badger.Txn) error {
		prefixStr := fmt.Sprintf("msg:%s:", channel)
		prefix := []byte(prefixStr)

		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		var seekKey []byte
		if cursor == nil {
			// Seek past the newest possible timestamp, then walk backwards.
			seekKey = append(prefix, []byte("9999999999999999999")...)
		} else {
			seekKey = append(prefix, []byte(*cursor)...)
		}

		it.Seek(seekKey)
		if cursor != nil && it.ValidForPrefix(prefix) {
			it.Next()
		}

		for ; it.ValidForPrefix(prefix); it.Next() {
			if len(rawValues) == limit {
				break
			}
			item := it.Item()
			lastKey = string(item.Key()[len(prefixStr):])
			if err := item.Value(func(val []byte) error {
				rawValues = append(rawValues, append([]byte(nil), val...))
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	if len(rawValues) == 0 {
		return nil, nil, nil
	}

	var messages []domain.Message
	for _, raw := range rawValues {
		var stored storedMessage
		if err := json.Unmarshal(raw, &stored); err != nil {
			return nil, nil, err
		}
		messages = append(messages, toMessage(stored))
	}
	// A short page means the walk ran out of keys: the timeline is exhausted.
	if len(messages) < limit {
		return messages, nil, nil
	}
	return messages, lo.ToPtr(lastKey), nil
}

func resolvePrimaryKey(txn *badger.Txn, id uuid.UUID) ([]byte, error) {
	item, err := txn.Get(messageIDKey(id))
	if err != nil {
		return nil, err
	}
	var key []byte
	err = item.Value(func(val []byte) error {
		key = append([]byte(nil), val...)
		return nil
	})
	return key, err
}

func fromMessage(m domain.Message) storedMessage {
	return storedMessage{
		ID:          m.ID,
		Channel:     m.Channel,
		Sender:      m.Sender,
		SenderName:  m.SenderName,
		Text:        m.Text,
		Attachments: m.Attachments,
		CreatedAt:   m.CreatedAt,
		EditedAt:    m.EditedAt,
	}
}

func toMessage(s storedMessage) domain.Message {
	return domain.Message{
		ID:          s.ID,
		Channel:     s.Channel,
		Sender:      s.Sender,
		SenderName:  s.SenderName,
		Text:        s.Text,
		Attachments: s.Attachments,
		CreatedAt:   s.CreatedAt,
		EditedAt:    s.EditedAt,
	}
}
