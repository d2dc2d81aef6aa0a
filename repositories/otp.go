package repositories

import (
	"time"

	"chat-hub/errors"

	"github.com/dgraph-io/badger/v4"
)

// OTPRepository stores pending one-time codes under "otp:{phone}" with a
// Badger TTL, so expiry needs no sweeper.
type OTPRepository struct {
	db  *badger.DB
	ttl time.Duration
}

func NewOTPRepository(db *badger.DB, ttl time.Duration) *OTPRepository {
	return &OTPRepository{db: db, ttl: ttl}
}

func otpKey(phone string) []byte { return []byte("otp:" + phone) }

// Store replaces any pending code for the phone number.
func (r *OTPRepository) Store(phone, code string) error {
	return r.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(otpKey(phone), []byte(code)).WithTTL(r.ttl)
		return txn.SetEntry(entry)
	})
}

// Check consumes the pending code: a successful match deletes it so a code
// can only be used once.
func (r *OTPRepository) Check(phone, code string) (bool, error) {
	var match bool
	err := r.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(otpKey(phone))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return errors.ErrInvalidOTP
			}
			return err
		}
		err = item.Value(func(val []byte) error {
			match = string(val) == code
			return nil
		})
		if err != nil {
			return err
		}
		if match {
			return txn.Delete(otpKey(phone))
		}
		return nil
	})
	if err != nil {
		if err == errors.ErrInvalidOTP {
			return false, nil
		}
		return false, err
	}
	return match, nil
}
