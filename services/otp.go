package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"

	"chat-hub/repositories"
)

// DevOTPSender generates codes locally and logs them instead of calling an
// SMS gateway. Codes live in the store with a TTL and are consumed on the
// first successful check.
type DevOTPSender struct {
	store *repositories.OTPRepository
	log   *slog.Logger
}

func NewDevOTPSender(store *repositories.OTPRepository, log *slog.Logger) *DevOTPSender {
	return &DevOTPSender{store: store, log: log}
}

func (s *DevOTPSender) Send(_ context.Context, phone string) error {
	code, err := generateCode()
	if err != nil {
		return err
	}
	if err := s.store.Store(phone, code); err != nil {
		return err
	}
	s.log.Info("OTP generated", "phone", phone, "code", code)
	return nil
}

func (s *DevOTPSender) Check(_ context.Context, phone, code string) (bool, error) {
	return s.store.Check(phone, code)
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
