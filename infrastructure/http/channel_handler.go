package http

import (
	"log/slog"
	"net/http"

	"chat-hub/domain"
	"chat-hub/errors"
	"chat-hub/services"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type ChannelHandler struct {
	channels *services.ChannelService
	log      *slog.Logger
}

func NewChannelHandler(channels *services.ChannelService, log *slog.Logger) *ChannelHandler {
	return &ChannelHandler{channels: channels, log: log}
}

type createChannelBody struct {
	Name         string          `json:"name"`
	IsPrivate    bool            `json:"isPrivate"`
	Capacity     int             `json:"capacity"`
	InvitedUsers []domain.UserID `json:"invitedUsers"`
}

type channelResponse struct {
	ID        domain.ChannelID `json:"id"`
	Name      string           `json:"name"`
	CreatedBy domain.UserID    `json:"createdBy"`
	Members   []domain.UserID  `json:"members"`
	IsPrivate bool             `json:"isPrivate"`
	Capacity  int              `json:"capacity,omitempty"`
	IsOwner   bool             `json:"isOwner"`
	IsMember  bool             `json:"isMember"`
	IsInvited bool             `json:"isInvited"`
	CanJoin   bool             `json:"canJoin"`
}

func channelOf(v services.ChannelView) channelResponse {
	return channelResponse{
		ID:        v.Channel.ID,
		Name:      v.Channel.Name,
		CreatedBy: v.Channel.CreatedBy,
		Members:   v.Channel.Members,
		IsPrivate: v.Channel.IsPrivate,
		Capacity:  v.Channel.Capacity,
		IsOwner:   v.IsOwner,
		IsMember:  v.IsMember,
		IsInvited: v.IsInvited,
		CanJoin:   v.CanJoin,
	}
}

func (h *ChannelHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body createChannelBody
	if !decodeBody(w, r, &body) {
		return
	}
	if body.Name == "" {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "name required"})
		return
	}
	user := userFrom(r)
	c, err := h.channels.Create(r.Context(), user, services.CreateChannelInput{
		Name:         body.Name,
		IsPrivate:    body.IsPrivate,
		Capacity:     body.Capacity,
		InvitedUsers: body.InvitedUsers,
	})
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	view, err := h.channels.View(r.Context(), user, c.ID)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusCreated, channelOf(view))
}

func (h *ChannelHandler) List(w http.ResponseWriter, r *http.Request) {
	views, err := h.channels.List(r.Context(), userFrom(r))
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	out := make([]channelResponse, 0, len(views))
	for _, v := range views {
		out = append(out, channelOf(v))
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *ChannelHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.channels.View(r.Context(), userFrom(r), channelParam(r))
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, channelOf(view))
}

func (h *ChannelHandler) Join(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)
	if _, err := h.channels.Join(r.Context(), user, channelParam(r)); err != nil {
		respondError(w, h.log, err)
		return
	}
	view, err := h.channels.View(r.Context(), user, channelParam(r))
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, channelOf(view))
}

func (h *ChannelHandler) Leave(w http.ResponseWriter, r *http.Request) {
	if err := h.channels.Leave(r.Context(), userFrom(r), channelParam(r)); err != nil {
		respondError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "left"})
}

type requestResponse struct {
	ID        string           `json:"id"`
	Channel   domain.ChannelID `json:"channelId"`
	Requester domain.UserID    `json:"requesterId"`
	Status    string           `json:"status"`
}

func requestOf(req domain.PrivateRequest) requestResponse {
	return requestResponse{
		ID:        req.ID.String(),
		Channel:   req.Channel,
		Requester: req.Requester,
		Status:    string(req.Status),
	}
}

func (h *ChannelHandler) RequestAccess(w http.ResponseWriter, r *http.Request) {
	req, err := h.channels.RequestAccess(r.Context(), userFrom(r), channelParam(r))
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusCreated, requestOf(req))
}

func (h *ChannelHandler) ListRequests(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.channels.ListRequests(r.Context(), userFrom(r), channelParam(r))
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	out := make([]requestResponse, 0, len(reqs))
	for _, req := range reqs {
		out = append(out, requestOf(req))
	}
	respondJSON(w, http.StatusOK, out)
}

type resolveBody struct {
	Approve bool `json:"approve"`
}

func (h *ChannelHandler) ResolveRequest(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "requestID"))
	if err != nil {
		respondError(w, h.log, errors.ErrRequestNotFound)
		return
	}
	var body resolveBody
	if !decodeBody(w, r, &body) {
		return
	}
	req, err := h.channels.Resolve(r.Context(), userFrom(r), id, body.Approve)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, requestOf(req))
}

func channelParam(r *http.Request) domain.ChannelID {
	return domain.ChannelID(chi.URLParam(r, "channelID"))
}
