package repositories

import (
	"encoding/json"
	"strings"
	"time"

	"chat-hub/domain"
	"chat-hub/errors"

	"github.com/dgraph-io/badger/v4"
)

// ChannelRepository persists channel metadata in BadgerDB. Records live
// under "channel:id:{id}" with a lowercased "channel:name:{name}" index
// enforcing case-insensitive name uniqueness.
type ChannelRepository struct {
	db *badger.DB
}

func NewChannelRepository(db *badger.DB) *ChannelRepository {
	return &ChannelRepository{db: db}
}

type storedChannel struct {
	ID           domain.ChannelID `json:"id"`
	Name         string           `json:"name"`
	CreatedBy    domain.UserID    `json:"createdBy"`
	Members      []domain.UserID  `json:"members"`
	LeftMembers  []domain.UserID  `json:"leftMembers,omitempty"`
	InvitedUsers []domain.UserID  `json:"invitedUsers,omitempty"`
	IsPrivate    bool             `json:"isPrivate"`
	Capacity     int              `json:"capacity"`
	CreatedAt    time.Time        `json:"createdAt"`
}

func channelKey(id domain.ChannelID) []byte { return []byte("channel:id:" + string(id)) }
func channelNameKey(name string) []byte     { return []byte("channel:name:" + strings.ToLower(name)) }

func (r *ChannelRepository) Create(c domain.Channel) error {
	value, err := json.Marshal(fromChannel(c))
	if err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(channelNameKey(c.Name)); err == nil {
			return errors.ErrChannelNameTaken
		}
		if err := txn.Set(channelKey(c.ID), value); err != nil {
			return err
		}
		return txn.Set(channelNameKey(c.Name), []byte(c.ID))
	})
}

// Save rewrites channel state. Names are immutable after Create.
func (r *ChannelRepository) Save(c domain.Channel) error {
	value, err := json.Marshal(fromChannel(c))
	if err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(channelKey(c.ID), value)
	})
}

func (r *ChannelRepository) GetByID(id domain.ChannelID) (domain.Channel, error) {
	var stored storedChannel
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(channelKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &stored)
		})
	})
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return domain.Channel{}, errors.ErrChannelNotFound
		}
		return domain.Channel{}, err
	}
	return toChannel(stored), nil
}

func (r *ChannelRepository) GetByName(name string) (domain.Channel, error) {
	var id []byte
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(channelNameKey(name))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			id = append([]byte(nil), val...)
			return nil
		})
	})
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return domain.Channel{}, errors.ErrChannelNotFound
		}
		return domain.Channel{}, err
	}
	return r.GetByID(domain.ChannelID(id))
}

// List returns all channels via a prefix scan. The channel count of a
// single-process deployment stays small enough that no pagination is needed.
func (r *ChannelRepository) List() ([]domain.Channel, error) {
	var channels []domain.Channel
	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte("channel:id:")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var stored storedChannel
				if err := json.Unmarshal(val, &stored); err != nil {
					return err
				}
				channels = append(channels, toChannel(stored))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return channels, err
}

func fromChannel(c domain.Channel) storedChannel {
	return storedChannel{
		ID:           c.ID,
		Name:         c.Name,
		CreatedBy:    c.CreatedBy,
		Members:      c.Members,
		LeftMembers:  c.LeftMembers,
		InvitedUsers: c.InvitedUsers,
		IsPrivate:    c.IsPrivate,
		Capacity:     c.Capacity,
		CreatedAt:    c.CreatedAt,
	}
}

func toChannel(s storedChannel) domain.Channel {
	return domain.Channel{
		ID:           s.ID,
		Name:         s.Name,
		CreatedBy:    s.CreatedBy,
		Members:      s.Members,
		LeftMembers:  s.LeftMembers,
		InvitedUsers: s.InvitedUsers,
		IsPrivate:    s.IsPrivate,
		Capacity:     s.Capacity,
		CreatedAt:    s.CreatedAt,
	}
}
