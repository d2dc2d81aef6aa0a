package live

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"chat-hub/domain"
	"chat-hub/domain/event"
	"chat-hub/errors"
	"chat-hub/mocks"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type hubFixture struct {
	registry *Registry
	rooms    *Rooms
	channels *mocks.MockIChannelDirectory
	store    *mocks.MockIMessageStore
	hub      *Hub
}

func newHubFixture(t *testing.T, minInterval time.Duration) *hubFixture {
	ctrl := gomock.NewController(t)
	log := slog.Default()
	f := &hubFixture{
		registry: NewRegistry(),
		rooms:    NewRooms(),
		channels: mocks.NewMockIChannelDirectory(ctrl),
		store:    mocks.NewMockIMessageStore(ctrl),
	}
	presence := NewPresence(log, f.registry, nil)
	limiter := NewLimiter(minInterval)
	pipeline := NewPipeline(log, f.registry, f.rooms, f.channels, f.store, nil, nil, false)
	f.hub = NewHub(log, f.registry, f.rooms, presence, limiter, pipeline, f.channels)
	return f
}

func (f *hubFixture) connect(t *testing.T, user domain.UserID) (domain.Connection, *recordingSink) {
	t.Helper()
	conn := newConn(user)
	sink := &recordingSink{}
	require.NoError(t, f.hub.Connect(context.Background(), conn, sink))
	return conn, sink
}

func publicChannel(id domain.ChannelID) domain.Channel {
	return domain.Channel{ID: id, Name: string(id), CreatedBy: "owner"}
}

func TestHub_JoinChannel_Requires_Channel_ID(t *testing.T) {
	req := require.New(t)
	f := newHubFixture(t, 0)
	conn, _ := f.connect(t, "alice")

	err := f.hub.JoinChannel(context.Background(), conn.ID, "")

	req.ErrorIs(err, errors.ErrNoChannel)
}

func TestHub_JoinChannel_Unknown_Connection(t *testing.T) {
	req := require.New(t)
	f := newHubFixture(t, 0)

	err := f.hub.JoinChannel(context.Background(), "ghost", "general")

	req.ErrorIs(err, errors.ErrJoinFail)
}

func TestHub_JoinChannel_Unknown_Channel(t *testing.T) {
	req := require.New(t)
	f := newHubFixture(t, 0)
	conn, _ := f.connect(t, "alice")
	f.channels.EXPECT().GetChannel(gomock.Any(), domain.ChannelID("ghost")).
		Return(domain.Channel{}, errors.ErrChannelNotFound)

	err := f.hub.JoinChannel(context.Background(), conn.ID, "ghost")

	req.ErrorIs(err, errors.ErrChannelNotFound)
}

func TestHub_JoinChannel_Private_Gating(t *testing.T) {
	req := require.New(t)
	f := newHubFixture(t, 0)
	conn, _ := f.connect(t, "alice")
	private := domain.Channel{
		ID:        "vip",
		CreatedBy: "bob",
		IsPrivate: true,
		Members:   []domain.UserID{"bob"},
	}
	f.channels.EXPECT().GetChannel(gomock.Any(), domain.ChannelID("vip")).
		Return(private, nil)

	// Alice is not invited
	err := f.hub.JoinChannel(context.Background(), conn.ID, "vip")
	req.ErrorIs(err, errors.ErrNotAllowed)
	req.False(f.rooms.IsMember(conn.ID, "vip"))

	// Once invited, the same join succeeds
	private.InvitedUsers = []domain.UserID{"alice"}
	f.channels.EXPECT().GetChannel(gomock.Any(), domain.ChannelID("vip")).
		Return(private, nil)

	err = f.hub.JoinChannel(context.Background(), conn.ID, "vip")
	req.NoError(err)
	req.True(f.rooms.IsMember(conn.ID, "vip"))
}

func TestHub_Typing_Relay_Excludes_Sender(t *testing.T) {
	req := require.New(t)
	f := newHubFixture(t, 0)
	ctx := context.Background()

	aliceConn, aliceSink := f.connect(t, "alice")
	bobConn, bobSink := f.connect(t, "bob")
	f.channels.EXPECT().GetChannel(gomock.Any(), domain.ChannelID("general")).
		Return(publicChannel("general"), nil).Times(2)
	req.NoError(f.hub.JoinChannel(ctx, aliceConn.ID, "general"))
	req.NoError(f.hub.JoinChannel(ctx, bobConn.ID, "general"))

	aliceBefore := len(aliceSink.events)
	f.hub.Typing(ctx, aliceConn.ID, "general", true)

	// Bob sees the indicator, alice does not see her own
	var bobTyping []event.Typing
	for _, e := range bobSink.events {
		if typ, ok := e.(event.Typing); ok {
			bobTyping = append(bobTyping, typ)
		}
	}
	req.Len(bobTyping, 1)
	req.Equal(domain.UserID("alice"), bobTyping[0].UserID)
	req.True(bobTyping[0].IsTyping)
	req.Len(aliceSink.events, aliceBefore)
}

func TestHub_Typing_From_Non_Member_Is_Dropped(t *testing.T) {
	req := require.New(t)
	f := newHubFixture(t, 0)
	ctx := context.Background()

	aliceConn, _ := f.connect(t, "alice")
	bobConn, bobSink := f.connect(t, "bob")
	f.channels.EXPECT().GetChannel(gomock.Any(), domain.ChannelID("general")).
		Return(publicChannel("general"), nil)
	req.NoError(f.hub.JoinChannel(ctx, bobConn.ID, "general"))

	before := len(bobSink.events)
	// Alice never joined the room; no event and no error round-trip
	f.hub.Typing(ctx, aliceConn.ID, "general", true)

	req.Len(bobSink.events, before)
}

func TestHub_PostMessage_Rate_Limited(t *testing.T) {
	req := require.New(t)
	f := newHubFixture(t, 300*time.Millisecond)
	ctx := context.Background()

	conn, _ := f.connect(t, "alice")
	f.channels.EXPECT().GetChannel(gomock.Any(), domain.ChannelID("general")).
		Return(publicChannel("general"), nil)
	f.store.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

	_, err := f.hub.PostMessage(ctx, conn.ID, NewMessage{Channel: "general", Text: "first"})
	req.NoError(err)

	// An immediate second message is throttled with a wait hint
	_, err = f.hub.PostMessage(ctx, conn.ID, NewMessage{Channel: "general", Text: "second"})
	req.ErrorIs(err, errors.ErrRateLimited)
	var rl *RateLimitError
	req.ErrorAs(err, &rl)
	req.Greater(rl.RetryAfter, time.Duration(0))
}

func TestHub_Rejected_Message_Does_Not_Consume_Budget(t *testing.T) {
	req := require.New(t)
	f := newHubFixture(t, 300*time.Millisecond)
	ctx := context.Background()

	conn, _ := f.connect(t, "alice")

	// Validation failures are rejected before the limiter would matter, but
	// the accepted attempt's budget must survive them
	f.channels.EXPECT().GetChannel(gomock.Any(), domain.ChannelID("general")).
		Return(publicChannel("general"), nil)
	f.store.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

	_, err := f.hub.PostMessage(ctx, conn.ID, NewMessage{Channel: "general", Text: "ok"})
	req.NoError(err)

	for i := 0; i < 3; i++ {
		_, err = f.hub.PostMessage(ctx, conn.ID, NewMessage{Channel: "general", Text: "spam"})
		req.ErrorIs(err, errors.ErrRateLimited)
	}
}

func TestHub_Disconnect_Cleans_Rooms_And_Presence(t *testing.T) {
	req := require.New(t)
	f := newHubFixture(t, 0)
	ctx := context.Background()

	aliceConn, _ := f.connect(t, "alice")
	bobConn, bobSink := f.connect(t, "bob")
	f.channels.EXPECT().GetChannel(gomock.Any(), domain.ChannelID("general")).
		Return(publicChannel("general"), nil).Times(2)
	req.NoError(f.hub.JoinChannel(ctx, aliceConn.ID, "general"))
	req.NoError(f.hub.JoinChannel(ctx, bobConn.ID, "general"))

	f.hub.Disconnect(ctx, aliceConn.ID)

	// Rooms no longer carry the connection, presence reports offline
	req.False(f.rooms.IsMember(aliceConn.ID, "general"))
	req.ElementsMatch([]domain.ConnectionID{bobConn.ID}, f.rooms.MembersOf("general"))
	req.ElementsMatch([]domain.UserID{"bob"}, f.registry.OnlineUsers())

	var offline []event.PresenceUpdate
	for _, e := range bobSink.events {
		if u, ok := e.(event.PresenceUpdate); ok && !u.IsOnline {
			offline = append(offline, u)
		}
	}
	req.Len(offline, 1)
	req.Equal(domain.UserID("alice"), offline[0].UserID)
	req.NotNil(offline[0].LastSeen)

	// Disconnecting again is a no-op
	f.hub.Disconnect(ctx, aliceConn.ID)
}
