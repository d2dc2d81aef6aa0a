package repositories

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"chat-hub/domain"
	"chat-hub/errors"

	"github.com/dgraph-io/badger/v4"
)

// UserRepository persists accounts in BadgerDB. The record lives under
// "user:id:{id}"; email, phone, and username indexes point back at the id so
// login by either identifier and uniqueness checks are single reads.
type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) *UserRepository {
	return &UserRepository{db: db}
}

type storedUser struct {
	ID           domain.UserID `json:"id"`
	Username     string        `json:"username"`
	Email        string        `json:"email"`
	Phone        string        `json:"phone"`
	PasswordHash string        `json:"passwordHash"`
	Verified     bool          `json:"verified"`
	ProfileURL   string        `json:"profileUrl,omitempty"`
	IsOnline     bool          `json:"isOnline"`
	LastSeen     *time.Time    `json:"lastSeen,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
}

func userKey(id domain.UserID) []byte      { return []byte("user:id:" + string(id)) }
func emailKey(email string) []byte         { return []byte("user:email:" + strings.ToLower(email)) }
func phoneKey(phone string) []byte         { return []byte("user:phone:" + phone) }
func usernameKey(username string) []byte   { return []byte("user:name:" + strings.ToLower(username)) }

// Create persists a new user and its lookup indexes, failing when any of
// email, phone, or username is already taken.
func (r *UserRepository) Create(u domain.User) error {
	value, err := json.Marshal(fromUser(u))
	if err != nil {
		return err
	}
	id := []byte(u.ID)

	return r.db.Update(func(txn *badger.Txn) error {
		for _, key := range [][]byte{emailKey(u.Email), phoneKey(u.Phone), usernameKey(u.Username)} {
			if _, err := txn.Get(key); err == nil {
				return errors.ErrUserAlreadyExists
			}
		}
		if err := txn.Set(userKey(u.ID), value); err != nil {
			return err
		}
		if err := txn.Set(emailKey(u.Email), id); err != nil {
			return err
		}
		if err := txn.Set(phoneKey(u.Phone), id); err != nil {
			return err
		}
		return txn.Set(usernameKey(u.Username), id)
	})
}

// Save rewrites the user record. Identifiers are immutable after Create, so
// the indexes need no maintenance here.
func (r *UserRepository) Save(u domain.User) error {
	value, err := json.Marshal(fromUser(u))
	if err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(userKey(u.ID), value)
	})
}

func (r *UserRepository) GetByID(id domain.UserID) (domain.User, error) {
	return r.getByKey(userKey(id))
}

func (r *UserRepository) GetByEmail(email string) (domain.User, error) {
	return r.getByIndex(emailKey(email))
}

func (r *UserRepository) GetByPhone(phone string) (domain.User, error) {
	return r.getByIndex(phoneKey(phone))
}

// GetByIdentifier resolves a login identifier that may be an email or a
// phone number.
func (r *UserRepository) GetByIdentifier(identifier string) (domain.User, error) {
	if strings.Contains(identifier, "@") {
		return r.GetByEmail(identifier)
	}
	return r.GetByPhone(identifier)
}

// SetPresence applies a best-effort durable presence update.
func (r *UserRepository) SetPresence(_ context.Context, id domain.UserID, online bool, lastSeen time.Time) error {
	user, err := r.GetByID(id)
	if err != nil {
		return err
	}
	user.IsOnline = online
	user.LastSeen = &lastSeen
	return r.Save(user)
}

func (r *UserRepository) getByIndex(indexKey []byte) (domain.User, error) {
	var id []byte
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(indexKey)
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
			return domain.User{}, errors.ErrUserNotFound
		}
		return domain.User{}, err
	}
	return r.getByKey(userKey(domain.UserID(id)))
}

func (r *UserRepository) getByKey(key []byte) (domain.User, error) {
	var stored storedUser
	err := r.db.View(func(txn *badger.Txn) error {
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
			return domain.User{}, errors.ErrUserNotFound
		}
		return domain.User{}, err
	}
	return toUser(stored), nil
}

func fromUser(u domain.User) storedUser {
	return storedUser{
		ID:           u.ID,
		Username:     u.Username,
		Email:        strings.ToLower(u.Email),
		Phone:        u.Phone,
		PasswordHash: u.PasswordHash,
		Verified:     u.Verified,
		ProfileURL:   u.ProfileURL,
		IsOnline:     u.IsOnline,
		LastSeen:     u.LastSeen,
		CreatedAt:    u.CreatedAt,
	}
}

func toUser(s storedUser) domain.User {
	return domain.User{
		ID:           s.ID,
		Username:     s.Username,
		Email:        s.Email,
		Phone:        s.Phone,
		PasswordHash: s.PasswordHash,
		Verified:     s.Verified,
		ProfileURL:   s.ProfileURL,
		IsOnline:     s.IsOnline,
		LastSeen:     s.LastSeen,
		CreatedAt:    s.CreatedAt,
	}
}
