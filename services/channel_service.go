package services

import (
	"context"
	stderrors "errors"
	"log/slog"
	"time"

	"chat-hub/domain"
	"chat-hub/errors"
	"chat-hub/repositories"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// ChannelView is a channel enriched with the requesting user's relationship
// to it, the shape the client renders its channel list from.
type ChannelView struct {
	Channel   domain.Channel
	IsOwner   bool
	IsMember  bool
	IsInvited bool
	CanJoin   bool
}

type CreateChannelInput struct {
	Name         string
	IsPrivate    bool
	Capacity     int
	InvitedUsers []domain.UserID
}

// ChannelService owns durable channel membership. The live subsystem reads
// channels through it but never mutates them.
type ChannelService struct {
	channels *repositories.ChannelRepository
	requests *repositories.RequestRepository
	log      *slog.Logger
}

func NewChannelService(channels *repositories.ChannelRepository,
	requests *repositories.RequestRepository, log *slog.Logger) *ChannelService {
	return &ChannelService{channels: channels, requests: requests, log: log}
}

// GetChannel implements contract.IChannelDirectory.
func (s *ChannelService) GetChannel(_ context.Context, id domain.ChannelID) (domain.Channel, error) {
	return s.channels.GetByID(id)
}

// Create registers a channel. The creator is always its first member.
func (s *ChannelService) Create(_ context.Context, owner domain.UserID, in CreateChannelInput) (domain.Channel, error) {
	c := domain.Channel{
		ID:           domain.ChannelID(uuid.NewString()),
		Name:         in.Name,
		CreatedBy:    owner,
		Members:      []domain.UserID{owner},
		InvitedUsers: lo.Uniq(in.InvitedUsers),
		IsPrivate:    in.IsPrivate,
		Capacity:     in.Capacity,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.channels.Create(c); err != nil {
		return domain.Channel{}, err
	}
	return c, nil
}

// View returns a channel decorated with the viewer's relationship flags.
func (s *ChannelService) View(_ context.Context, viewer domain.UserID, id domain.ChannelID) (ChannelView, error) {
	c, err := s.channels.GetByID(id)
	if err != nil {
		return ChannelView{}, err
	}
	return viewOf(c, viewer), nil
}

// List returns every channel with the viewer's relationship flags.
func (s *ChannelService) List(_ context.Context, viewer domain.UserID) ([]ChannelView, error) {
	all, err := s.channels.List()
	if err != nil {
		return nil, err
	}
	return lo.Map(all, func(c domain.Channel, _ int) ChannelView {
		return viewOf(c, viewer)
	}), nil
}

// Join adds the user to durable membership. Private channels require an
// invite or ownership; full channels reject everyone.
func (s *ChannelService) Join(_ context.Context, user domain.UserID, id domain.ChannelID) (domain.Channel, error) {
	c, err := s.channels.GetByID(id)
	if err != nil {
		return domain.Channel{}, err
	}
	if c.IsMember(user) {
		return c, nil
	}
	if !c.CanJoin(user) {
		return domain.Channel{}, errors.ErrNotInvited
	}
	if !c.HasCapacity() {
		return domain.Channel{}, errors.ErrChannelFull
	}

	c.Members = append(c.Members, user)
	c.LeftMembers = lo.Without(c.LeftMembers, user)
	c.InvitedUsers = lo.Without(c.InvitedUsers, user)
	if err := s.channels.Save(c); err != nil {
		return domain.Channel{}, err
	}
	return c, nil
}

// Leave moves the user from members to leftMembers. Leaving a channel you
// never joined is a no-op.
func (s *ChannelService) Leave(_ context.Context, user domain.UserID, id domain.ChannelID) error {
	c, err := s.channels.GetByID(id)
	if err != nil {
		return err
	}
	if !c.IsMember(user) {
		return nil
	}

	c.Members = lo.Without(c.Members, user)
	if !lo.Contains(c.LeftMembers, user) {
		c.LeftMembers = append(c.LeftMembers, user)
	}
	return s.channels.Save(c)
}

// RequestAccess files a pending request to enter a private channel. Public
// channels never need one, and duplicate pending requests collapse into the
// existing one.
func (s *ChannelService) RequestAccess(_ context.Context, user domain.UserID, id domain.ChannelID) (domain.PrivateRequest, error) {
	c, err := s.channels.GetByID(id)
	if err != nil {
		return domain.PrivateRequest{}, err
	}
	if !c.IsPrivate || c.CanJoin(user) {
		return domain.PrivateRequest{}, errors.ErrNotAllowed
	}

	existing, err := s.requests.ListByChannel(id)
	if err != nil {
		return domain.PrivateRequest{}, err
	}
	for _, req := range existing {
		if req.Requester == user && req.Status == domain.RequestPending {
			return req, nil
		}
	}

	now := time.Now().UTC()
	req := domain.PrivateRequest{
		ID:        uuid.New(),
		Channel:   id,
		Requester: user,
		Creator:   c.CreatedBy,
		Status:    domain.RequestPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.requests.Save(req); err != nil {
		return domain.PrivateRequest{}, err
	}
	return req, nil
}

// Resolve approves or rejects a pending request. Only the channel owner may
// resolve; approval turns into an invite so the user can join on their own.
func (s *ChannelService) Resolve(_ context.Context, owner domain.UserID, requestID uuid.UUID, approve bool) (domain.PrivateRequest, error) {
	req, err := s.requests.GetByID(requestID)
	if err != nil {
		return domain.PrivateRequest{}, err
	}
	c, err := s.channels.GetByID(req.Channel)
	if err != nil {
		return domain.PrivateRequest{}, err
	}
	if !c.IsOwner(owner) {
		return domain.PrivateRequest{}, errors.ErrNotAllowed
	}
	if req.Status != domain.RequestPending {
		return req, nil
	}

	if approve {
		req.Status = domain.RequestApproved
		if !c.IsInvited(req.Requester) {
			c.InvitedUsers = append(c.InvitedUsers, req.Requester)
			if err := s.channels.Save(c); err != nil {
				return domain.PrivateRequest{}, err
			}
		}
	} else {
		req.Status = domain.RequestRejected
	}
	req.UpdatedAt = time.Now().UTC()
	if err := s.requests.Save(req); err != nil {
		return domain.PrivateRequest{}, err
	}
	return req, nil
}

// ListRequests returns the pending requests of a channel, owner only.
func (s *ChannelService) ListRequests(_ context.Context, owner domain.UserID, id domain.ChannelID) ([]domain.PrivateRequest, error) {
	c, err := s.channels.GetByID(id)
	if err != nil {
		return nil, err
	}
	if !c.IsOwner(owner) {
		return nil, errors.ErrNotAllowed
	}

	all, err := s.requests.ListByChannel(id)
	if err != nil {
		return nil, err
	}
	return lo.Filter(all, func(r domain.PrivateRequest, _ int) bool {
		return r.Status == domain.RequestPending
	}), nil
}

func viewOf(c domain.Channel, viewer domain.UserID) ChannelView {
	return ChannelView{
		Channel:   c,
		IsOwner:   c.IsOwner(viewer),
		IsMember:  c.IsMember(viewer),
		IsInvited: c.IsInvited(viewer),
		CanJoin:   c.CanJoin(viewer) && c.HasCapacity(),
	}
}

// IsNotFound reports whether the error maps to a missing channel, used by
// handlers to pick a 404 over a 500.
func IsNotFound(err error) bool {
	return stderrors.Is(err, errors.ErrChannelNotFound)
}
