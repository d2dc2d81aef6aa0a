package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"chat-hub/domain"
	"chat-hub/domain/event"
	"chat-hub/live"
	"chat-hub/services"
)

type MessageHandler struct {
	chat *services.ChatService
	log  *slog.Logger
}

func NewMessageHandler(chat *services.ChatService, log *slog.Logger) *MessageHandler {
	return &MessageHandler{chat: chat, log: log}
}

type historyResponse struct {
	Messages []event.MessagePayload `json:"messages"`
	Cursor   *string                `json:"cursor,omitempty"`
}

// History pages newest-first. ?cursor= continues a previous page, ?limit=
// caps the page size.
func (h *MessageHandler) History(w http.ResponseWriter, r *http.Request) {
	var cursor *string
	if c := r.URL.Query().Get("cursor"); c != "" {
		cursor = &c
	}
	limit := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		limit, _ = strconv.Atoi(l)
	}

	page, err := h.chat.History(r.Context(), channelParam(r), cursor, limit)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	out := historyResponse{
		Messages: make([]event.MessagePayload, 0, len(page.Messages)),
		Cursor:   page.Cursor,
	}
	for _, m := range page.Messages {
		out.Messages = append(out.Messages, event.ToPayload(m))
	}
	respondJSON(w, http.StatusOK, out)
}

type postMessageBody struct {
	Text        string              `json:"text"`
	Attachments []domain.Attachment `json:"attachments"`
}

// Post persists and fans out a message through the same pipeline the live
// surface uses.
func (h *MessageHandler) Post(w http.ResponseWriter, r *http.Request) {
	var body postMessageBody
	if !decodeBody(w, r, &body) {
		return
	}
	claims := claimsFrom(r)
	msg, err := h.chat.Post(r.Context(), domain.UserID(claims.UserID), claims.Username, live.NewMessage{
		Channel:     channelParam(r),
		Text:        body.Text,
		Attachments: body.Attachments,
	})
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusCreated, event.ToPayload(msg))
}

// Search runs a full-text query against one channel's messages.
func (h *MessageHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "q required"})
		return
	}
	limit := 20
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	msgs, err := h.chat.Search(r.Context(), channelParam(r), query, limit)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	out := make([]event.MessagePayload, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, event.ToPayload(m))
	}
	respondJSON(w, http.StatusOK, out)
}
