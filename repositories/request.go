package repositories

import (
	"encoding/json"
	"fmt"

	"chat-hub/domain"
	"chat-hub/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// RequestRepository persists private-channel join requests. Records live
// under "req:{channel}:{id}" so a channel's pending requests are one prefix
// scan; "reqid:{id}" points back at the full key.
type RequestRepository struct {
	db *badger.DB
}

func NewRequestRepository(db *badger.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

func requestKey(channel domain.ChannelID, id uuid.UUID) []byte {
	return []byte(fmt.Sprintf("req:%s:%s", channel, id))
}

func requestIDKey(id uuid.UUID) []byte {
	return []byte("reqid:" + id.String())
}

func (r *RequestRepository) Save(req domain.PrivateRequest) error {
	value, err := json.Marshal(req)
	if err != nil {
		return err
	}
	key := requestKey(req.Channel, req.ID)
	return r.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(key, value); err != nil {
			return err
		}
		return txn.Set(requestIDKey(req.ID), key)
	})
}

func (r *RequestRepository) GetByID(id uuid.UUID) (domain.PrivateRequest, error) {
	var req domain.PrivateRequest
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(requestIDKey(id))
		if err != nil {
			return err
		}
		var key []byte
		if err := item.Value(func(val []byte) error {
			key = append([]byte(nil), val...)
			return nil
		}); err != nil {
			return err
		}
		item, err = txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &req)
		})
	})
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return domain.PrivateRequest{}, errors.ErrRequestNotFound
		}
		return domain.PrivateRequest{}, err
	}
	return req, nil
}

// ListByChannel returns every request filed against a channel.
func (r *RequestRepository) ListByChannel(channel domain.ChannelID) ([]domain.PrivateRequest, error) {
	var requests []domain.PrivateRequest
	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(fmt.Sprintf("req:%s:", channel))
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var req domain.PrivateRequest
				if err := json.Unmarshal(val, &req); err != nil {
					return err
				}
				requests = append(requests, req)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return requests, err
}
