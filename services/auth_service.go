package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"chat-hub/auth"
	"chat-hub/contract"
	"chat-hub/domain"
	"chat-hub/errors"
	"chat-hub/repositories"

	"github.com/google/uuid"
)

// RegisterInput is the registration payload after transport decoding.
type RegisterInput struct {
	Username        string
	Email           string
	Phone           string
	Password        string
	ConfirmPassword string
}

// AuthService implements the registration / verification / login flow: an
// account is created unverified, receives a one-time code on its phone, and
// only a verified account can log in or receive a token.
type AuthService struct {
	users  *repositories.UserRepository
	otp    contract.IOTPSender
	tokens *auth.TokenIssuer
	log    *slog.Logger
}

func NewAuthService(users *repositories.UserRepository, otp contract.IOTPSender,
	tokens *auth.TokenIssuer, log *slog.Logger) *AuthService {
	return &AuthService{users: users, otp: otp, tokens: tokens, log: log}
}

// Register validates the payload, persists the unverified account, and
// dispatches the OTP.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) error {
	if in.Password != in.ConfirmPassword {
		return fmt.Errorf("%w: passwords do not match", errors.ErrInvalidPassword)
	}

	// Structural validation before any expensive cryptographic work.
	if err := auth.ValidateRegister(auth.RegisterRequest{
		Username: in.Username,
		Email:    in.Email,
		Phone:    in.Phone,
		Password: in.Password,
	}); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidPassword, err)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return fmt.Errorf("hashing failed: %w", err)
	}

	user := domain.User{
		ID:           domain.UserID(uuid.NewString()),
		Username:     in.Username,
		Email:        in.Email,
		Phone:        in.Phone,
		PasswordHash: hash,
		Verified:     false,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.Create(user); err != nil {
		return err
	}

	if err := s.otp.Send(ctx, in.Phone); err != nil {
		// The account exists; the client can ask for a resend.
		s.log.Warn("OTP dispatch failed after registration", "phone", in.Phone, "error", err)
		return err
	}
	return nil
}

// VerifyOTP checks the code, marks the account verified, and issues the
// first session token.
func (s *AuthService) VerifyOTP(ctx context.Context, phone, code string) (string, domain.User, error) {
	ok, err := s.otp.Check(ctx, phone, code)
	if err != nil {
		return "", domain.User{}, err
	}
	if !ok {
		return "", domain.User{}, errors.ErrInvalidOTP
	}

	user, err := s.users.GetByPhone(phone)
	if err != nil {
		return "", domain.User{}, err
	}
	user.Verified = true
	if err := s.users.Save(user); err != nil {
		return "", domain.User{}, err
	}

	token, err := s.tokens.Generate(user.ID, user.Username)
	if err != nil {
		return "", domain.User{}, errors.ErrTokenGeneration
	}
	return token, user, nil
}

// ResendOTP dispatches a fresh code to an existing account.
func (s *AuthService) ResendOTP(ctx context.Context, phone string) error {
	if _, err := s.users.GetByPhone(phone); err != nil {
		return err
	}
	return s.otp.Send(ctx, phone)
}

// Login authenticates by email or phone. Unverified accounts are rejected;
// lookup failures surface as invalid credentials to prevent enumeration.
func (s *AuthService) Login(_ context.Context, identifier, password string) (string, domain.User, error) {
	user, err := s.users.GetByIdentifier(identifier)
	if err != nil {
		return "", domain.User{}, errors.ErrInvalidCredentials
	}

	match, err := auth.ComparePassword(password, user.PasswordHash)
	if err != nil || !match {
		return "", domain.User{}, errors.ErrInvalidCredentials
	}
	if !user.Verified {
		return "", domain.User{}, errors.ErrUserNotVerified
	}

	token, err := s.tokens.Generate(user.ID, user.Username)
	if err != nil {
		return "", domain.User{}, errors.ErrTokenGeneration
	}
	return token, user, nil
}
