package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"chat-hub/domain"
	"chat-hub/errors"
	"chat-hub/repositories"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

var allowedAvatarTypes = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
}

// ProfileService owns the user-facing profile surface, currently avatar
// upload. Files are sniffed by content, never trusted by extension.
type ProfileService struct {
	users     *repositories.UserRepository
	uploadDir string
	log       *slog.Logger
}

func NewProfileService(users *repositories.UserRepository, uploadDir string, log *slog.Logger) *ProfileService {
	return &ProfileService{users: users, uploadDir: uploadDir, log: log}
}

// SetAvatar stores the image under a fresh name and records its public path
// on the user. Returns the URL path the file is served from.
func (s *ProfileService) SetAvatar(_ context.Context, userID domain.UserID, data []byte) (string, error) {
	mime := mimetype.Detect(data)
	ext, ok := allowedAvatarTypes[mime.String()]
	if !ok {
		return "", fmt.Errorf("%w: %s", errors.ErrUnsupportedMime, mime.String())
	}

	user, err := s.users.GetByID(userID)
	if err != nil {
		return "", err
	}

	name := uuid.NewString() + ext
	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(s.uploadDir, name), data, 0o644); err != nil {
		return "", err
	}

	old := user.ProfileURL
	user.ProfileURL = "/uploads/" + name
	if err := s.users.Save(user); err != nil {
		return "", err
	}

	// Old avatar becomes unreachable once the record points elsewhere.
	if old != "" {
		if err := os.Remove(filepath.Join(s.uploadDir, filepath.Base(old))); err != nil {
			s.log.Debug("stale avatar cleanup failed", "path", old, "error", err)
		}
	}
	return user.ProfileURL, nil
}

// GetProfile returns the public view of a user.
func (s *ProfileService) GetProfile(_ context.Context, id domain.UserID) (domain.User, error) {
	return s.users.GetByID(id)
}
