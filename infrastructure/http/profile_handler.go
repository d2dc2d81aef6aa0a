package http

import (
	"io"
	"log/slog"
	"net/http"

	"chat-hub/domain"
	"chat-hub/services"

	"github.com/go-chi/chi/v5"
)

type ProfileHandler struct {
	profiles  *services.ProfileService
	maxUpload int64
	log       *slog.Logger
}

func NewProfileHandler(profiles *services.ProfileService, maxUpload int64, log *slog.Logger) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, maxUpload: maxUpload, log: log}
}

// UploadAvatar accepts a multipart form with an "avatar" file part. The
// content type is sniffed server side.
func (h *ProfileHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	file, _, err := r.FormFile("avatar")
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "avatar file part required"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "upload truncated"})
		return
	}

	url, err := h.profiles.SetAvatar(r.Context(), userFrom(r), data)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"profileUrl": url})
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := domain.UserID(chi.URLParam(r, "userID"))
	user, err := h.profiles.GetProfile(r.Context(), id)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, profileOf(user))
}

func (h *ProfileHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.profiles.GetProfile(r.Context(), userFrom(r))
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, profileOf(user))
}
