package test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"chat-hub/domain"
	"chat-hub/domain/event"
	"chat-hub/live"
	"chat-hub/mocks"
	"chat-hub/moderation"
	"chat-hub/repositories"
	"chat-hub/runtime/workers"
	"chat-hub/services"
	"chat-hub/sink"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// Test_Scenario wires the real storage, search, moderation, and live stack
// together and walks one user session end to end.
func Test_Scenario(t *testing.T) {
	ctx := context.Background()
	req := require.New(t)
	// Reduced to 16 Mo for testing (avoid gigabytes of preallocation)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).
		WithLoggingLevel(badger.ERROR).
		WithValueLogFileSize(16 << 20))
	req.NoError(err)
	t.Cleanup(func() { _ = db.Close() })

	indexWriter, err := bluge.OpenWriter(bluge.DefaultConfig(t.TempDir()))
	req.NoError(err)
	t.Cleanup(func() { _ = indexWriter.Close() })

	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	// Repositories and services
	users := repositories.NewUserRepository(db)
	messages := repositories.NewMessageRepository(db, log)
	index := repositories.NewMessageIndex(indexWriter, log)
	channelService := services.NewChannelService(
		repositories.NewChannelRepository(db),
		repositories.NewRequestRepository(db),
		log,
	)

	words, err := moderation.LoadDefaultWords()
	req.NoError(err)
	moderator, err := moderation.NewModerator(words.Words, '*')
	req.NoError(err)

	// Live subsystem with the presence writer under supervision
	registry := live.NewRegistry()
	rooms := live.NewRooms()
	limiter := live.NewLimiter(300 * time.Millisecond)
	presenceWrites := make(chan live.PresenceWrite, 16)
	presence := live.NewPresence(log, registry, presenceWrites)
	pipeline := live.NewPipeline(log, registry, rooms, channelService,
		messages, index, moderator, false)
	hub := live.NewHub(log, registry, rooms, presence, limiter, pipeline, channelService)

	supervisor := workers.NewSupervisor(log, 200*time.Millisecond)
	supervisor.Add(workers.NewPresenceWriter(users, presenceWrites, log))
	supCtx, supCancel := context.WithCancel(ctx)
	go supervisor.Run(supCtx)
	t.Cleanup(func() {
		supCancel()
		supervisor.Stop()
	})

	// 1. Alice registers (pre-verified for the scenario) and creates a channel
	alice := domain.User{
		ID:       domain.UserID(uuid.NewString()),
		Username: "alice",
		Email:    "alice@example.com",
		Phone:    "+33611111111",
		Verified: true,
	}
	req.NoError(users.Create(alice))

	channel, err := channelService.Create(ctx, alice.ID, services.CreateChannelInput{Name: "general"})
	req.NoError(err)

	// 2. Alice and Bob connect; Bob observes through a gomock sink
	ctrl := gomock.NewController(t)
	bobSink := mocks.NewMockEventSink(ctrl)
	delivered := make(chan event.Event, 16)
	bobSink.EXPECT().Consume(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, e event.Event) error {
			delivered <- e
			return nil
		}).AnyTimes()

	aliceConn := domain.Connection{ID: "conn-alice", User: alice.ID, Username: "alice"}
	aliceSink := sink.NewConnSink(log, 16)
	req.NoError(hub.Connect(ctx, aliceConn, aliceSink))

	bobConn := domain.Connection{ID: "conn-bob", User: "bob-id", Username: "bob"}
	req.NoError(hub.Connect(ctx, bobConn, bobSink))

	req.NoError(hub.JoinChannel(ctx, aliceConn.ID, channel.ID))
	req.NoError(hub.JoinChannel(ctx, bobConn.ID, channel.ID))

	// 3. Alice posts a message containing a blacklisted word
	msg, err := hub.PostMessage(ctx, aliceConn.ID, live.NewMessage{
		Channel: channel.ID,
		Text:    "you idiot, the deployment works",
	})
	req.NoError(err)
	req.NotContains(msg.Text, "idiot")

	received := waitForEvent[event.MessageReceived](t, delivered)
	req.Equal(msg.ID.String(), received.Message.ID)

	// 4. The message is durable and searchable
	stored, err := messages.Get(ctx, msg.ID)
	req.NoError(err)
	req.Equal(msg.Text, stored.Text)

	ids, err := index.Search(ctx, channel.ID, "deployment", 10)
	req.NoError(err)
	req.Equal([]uuid.UUID{msg.ID}, ids)

	// 5. A burst is throttled
	_, err = hub.PostMessage(ctx, aliceConn.ID, live.NewMessage{Channel: channel.ID, Text: "again"})
	req.Error(err)

	// 6. Alice disconnects; her durable presence converges to offline
	hub.Disconnect(ctx, aliceConn.ID)
	for {
		update := waitForEvent[event.PresenceUpdate](t, delivered)
		if update.UserID != alice.ID {
			continue // bob's own online transition from step 2
		}
		req.False(update.IsOnline)
		break
	}

	req.Eventually(func() bool {
		refreshed, err := users.GetByID(alice.ID)
		return err == nil && !refreshed.IsOnline && refreshed.LastSeen != nil
	}, 2*time.Second, 50*time.Millisecond)
}

func waitForEvent[E event.Event](t *testing.T, delivered <-chan event.Event) E {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case e := <-delivered:
			if typed, ok := e.(E); ok {
				return typed
			}
		case <-deadline:
			var zero E
			t.Fatalf("timed out waiting for %s", zero.Name())
			return zero
		}
	}
}
