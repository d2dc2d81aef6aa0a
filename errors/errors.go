package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// Live surface errors. Each maps to a stable wire code via CodeOf.
	ErrNoChannel       = fmt.Errorf("channelId required")
	ErrChannelNotFound = fmt.Errorf("channel not found")
	ErrJoinFail        = fmt.Errorf("failed to join channel")
	ErrNotAllowed      = fmt.Errorf("not allowed")
	ErrRateLimited     = fmt.Errorf("sending messages too fast")
	ErrEmptyMessage    = fmt.Errorf("message empty")
	ErrMessageNotFound = fmt.Errorf("message not found")
	ErrMessageSave     = fmt.Errorf("failed to save message")
	ErrMessageUpdate   = fmt.Errorf("failed to update message")
	ErrMessageDelete   = fmt.Errorf("failed to delete message")

	// Connection admission.
	ErrIdentityRequired = fmt.Errorf("resolved user identity required")

	// Account and channel management.
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrInvalidPassword    = fmt.Errorf("password does not meet complexity rules")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")
	ErrUserAlreadyExists  = fmt.Errorf("user already exists")
	ErrUserNotFound       = fmt.Errorf("user not found")
	ErrUserNotVerified    = fmt.Errorf("account not verified")
	ErrInvalidOTP         = fmt.Errorf("invalid or expired OTP")
	ErrChannelNameTaken   = fmt.Errorf("channel name already exists")
	ErrChannelFull        = fmt.Errorf("channel capacity reached")
	ErrNotInvited         = fmt.Errorf("not invited to join this private channel")
	ErrRequestNotFound    = fmt.Errorf("request not found")

	// Infrastructure.
	ErrWorkerPanic     = fmt.Errorf("worker panic")
	ErrEmptyWords      = fmt.Errorf("no words have been found")
	ErrUnsupportedMime = fmt.Errorf("unsupported file type")
)

// CodeOf maps an error to the stable code carried by the live error event.
// Errors outside the taxonomy fall back to the code of the operation that
// raised them.
func CodeOf(err error, fallback string) string {
	switch {
	case errors.Is(err, ErrNoChannel):
		return "NO_CHANNEL"
	case errors.Is(err, ErrChannelNotFound):
		return "CHANNEL_NOT_FOUND"
	case errors.Is(err, ErrJoinFail):
		return "JOIN_FAIL"
	case errors.Is(err, ErrNotAllowed), errors.Is(err, ErrNotInvited):
		return "NOT_ALLOWED"
	case errors.Is(err, ErrRateLimited):
		return "RATE_LIMIT"
	case errors.Is(err, ErrEmptyMessage):
		return "EMPTY_MESSAGE"
	case errors.Is(err, ErrMessageNotFound):
		return "MSG_NOT_FOUND"
	case errors.Is(err, ErrMessageSave):
		return "MSG_SAVE_FAIL"
	case errors.Is(err, ErrMessageUpdate):
		return "MSG_UPDATE_FAIL"
	case errors.Is(err, ErrMessageDelete):
		return "MSG_DELETE_FAIL"
	default:
		return fallback
	}
}

// HTTPStatus maps an error to the REST layer's response status.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNoChannel),
		errors.Is(err, ErrEmptyMessage),
		errors.Is(err, ErrInvalidPassword),
		errors.Is(err, ErrInvalidOTP),
		errors.Is(err, ErrUnsupportedMime):
		return http.StatusBadRequest
	case errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrUserNotVerified):
		return http.StatusUnauthorized
	case errors.Is(err, ErrNotAllowed),
		errors.Is(err, ErrNotInvited),
		errors.Is(err, ErrChannelFull):
		return http.StatusForbidden
	case errors.Is(err, ErrChannelNotFound),
		errors.Is(err, ErrMessageNotFound),
		errors.Is(err, ErrUserNotFound),
		errors.Is(err, ErrRequestNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUserAlreadyExists),
		errors.Is(err, ErrChannelNameTaken):
		return http.StatusConflict
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
