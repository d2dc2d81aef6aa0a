package http

import (
	"log/slog"
	"net/http"

	"chat-hub/domain"
	"chat-hub/services"
)

type AuthHandler struct {
	auth *services.AuthService
	log  *slog.Logger
}

func NewAuthHandler(auth *services.AuthService, log *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, log: log}
}

type registerBody struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type verifyBody struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

type resendBody struct {
	Phone string `json:"phone"`
}

type loginBody struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type sessionResponse struct {
	Token string      `json:"token"`
	User  userProfile `json:"user"`
}

type userProfile struct {
	ID         domain.UserID `json:"id"`
	Username   string        `json:"username"`
	Email      string        `json:"email,omitempty"`
	ProfileURL string        `json:"profileUrl,omitempty"`
	IsOnline   bool          `json:"isOnline"`
	LastSeen   *string       `json:"lastSeen,omitempty"`
}

func profileOf(u domain.User) userProfile {
	p := userProfile{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		ProfileURL: u.ProfileURL,
		IsOnline:   u.IsOnline,
	}
	if u.LastSeen != nil {
		s := u.LastSeen.Format("2006-01-02T15:04:05.000Z07:00")
		p.LastSeen = &s
	}
	return p
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var body registerBody
	if !decodeBody(w, r, &body) {
		return
	}
	err := h.auth.Register(r.Context(), services.RegisterInput{
		Username:        body.Username,
		Email:           body.Email,
		Phone:           body.Phone,
		Password:        body.Password,
		ConfirmPassword: body.ConfirmPassword,
	})
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"status": "verification pending"})
}

func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var body verifyBody
	if !decodeBody(w, r, &body) {
		return
	}
	token, user, err := h.auth.VerifyOTP(r.Context(), body.Phone, body.Code)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, sessionResponse{Token: token, User: profileOf(user)})
}

func (h *AuthHandler) ResendOTP(w http.ResponseWriter, r *http.Request) {
	var body resendBody
	if !decodeBody(w, r, &body) {
		return
	}
	if err := h.auth.ResendOTP(r.Context(), body.Phone); err != nil {
		respondError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var body loginBody
	if !decodeBody(w, r, &body) {
		return
	}
	token, user, err := h.auth.Login(r.Context(), body.Identifier, body.Password)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, sessionResponse{Token: token, User: profileOf(user)})
}
