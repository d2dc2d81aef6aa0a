package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"chat-hub/domain"
	"chat-hub/domain/event"
	"chat-hub/live"
	"chat-hub/mocks"
	"chat-hub/sink"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type dispatchFixture struct {
	channels *mocks.MockIChannelDirectory
	store    *mocks.MockIMessageStore
	handler  *Handler
	hub      *live.Hub
}

func newDispatchFixture(t *testing.T) *dispatchFixture {
	ctrl := gomock.NewController(t)
	log := slog.Default()
	f := &dispatchFixture{
		channels: mocks.NewMockIChannelDirectory(ctrl),
		store:    mocks.NewMockIMessageStore(ctrl),
	}
	registry := live.NewRegistry()
	rooms := live.NewRooms()
	presence := live.NewPresence(log, registry, nil)
	pipeline := live.NewPipeline(log, registry, rooms, f.channels, f.store, nil, nil, false)
	f.hub = live.NewHub(log, registry, rooms, presence, live.NewLimiter(0), pipeline, f.channels)
	f.handler = NewHandler(log, f.hub, nil, 16)
	return f
}

func (f *dispatchFixture) connect(t *testing.T, user domain.UserID) connection {
	t.Helper()
	conn := domain.Connection{
		ID:       domain.ConnectionID(uuid.NewString()),
		User:     user,
		Username: string(user),
	}
	s := sink.NewConnSink(slog.Default(), 16)
	require.NoError(t, f.hub.Connect(context.Background(), conn, s))
	return connection{Connection: conn, sink: s}
}

// drain empties the connection's pending events. Dispatch is synchronous, so
// everything a frame produced is already buffered when it returns.
func drain(conn connection) []event.Event {
	var events []event.Event
	for {
		select {
		case evt := <-conn.sink.Events:
			events = append(events, evt)
		default:
			return events
		}
	}
}

func rawFrame(t *testing.T, name string, data any) Frame {
	t.Helper()
	payload, err := json.Marshal(data)
	require.NoError(t, err)
	return Frame{Event: name, Data: payload}
}

func TestDispatch_MessageNew_Reaches_The_Store(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newDispatchFixture(t)
	conn := f.connect(t, "alice")

	f.channels.EXPECT().GetChannel(gomock.Any(), domain.ChannelID("general")).
		Return(domain.Channel{ID: "general", Name: "general"}, nil).Times(2)
	req.NoError(f.hub.JoinChannel(ctx, conn.ID, "general"))
	drain(conn)

	// Given the documented client event name
	f.store.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
	f.handler.dispatch(ctx, conn, rawFrame(t, "message:new", map[string]any{
		"channelId": "general",
		"text":      "hello",
	}))

	// Then the message is persisted and broadcast back to the sender
	events := drain(conn)
	req.Len(events, 1)
	received, ok := events[0].(event.MessageReceived)
	req.True(ok)
	req.Equal("hello", received.Message.Text)
}

func TestDispatch_Unknown_Event_Names_Are_Ignored(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newDispatchFixture(t)
	conn := f.connect(t, "alice")
	drain(conn)

	// No store or directory expectations: nothing may be routed
	f.handler.dispatch(ctx, conn, rawFrame(t, "message:send", map[string]any{
		"channelId": "general",
		"text":      "hello",
	}))

	req.Empty(drain(conn))
}

func TestDispatch_MessageUpdate_Routes_To_The_Pipeline(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newDispatchFixture(t)
	conn := f.connect(t, "alice")

	f.channels.EXPECT().GetChannel(gomock.Any(), domain.ChannelID("general")).
		Return(domain.Channel{ID: "general", Name: "general"}, nil)
	req.NoError(f.hub.JoinChannel(ctx, conn.ID, "general"))
	drain(conn)

	id := uuid.New()
	stored := domain.Message{ID: id, Channel: "general", Sender: "alice", Text: "before"}
	f.store.EXPECT().Get(gomock.Any(), id).Return(stored, nil)
	f.store.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil)

	f.handler.dispatch(ctx, conn, rawFrame(t, "message:update", map[string]any{
		"messageId": id.String(),
		"text":      "after",
	}))

	events := drain(conn)
	req.Len(events, 1)
	updated, ok := events[0].(event.MessageUpdated)
	req.True(ok)
	req.Equal("after", updated.Message.Text)
}

func TestDispatch_Malformed_Leave_Reports_NO_CHANNEL(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newDispatchFixture(t)
	conn := f.connect(t, "alice")
	drain(conn)

	f.handler.dispatch(ctx, conn, Frame{
		Event: "leave:channel",
		Data:  json.RawMessage(`{"channelId": 42}`),
	})

	events := drain(conn)
	req.Len(events, 1)
	wsErr, ok := events[0].(event.Error)
	req.True(ok)
	req.Equal("NO_CHANNEL", wsErr.Code)
}
