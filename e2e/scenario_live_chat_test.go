package e2e

import (
	"context"
	"strings"
	"testing"
	"time"

	"chat-hub/domain"
	"chat-hub/domain/event"
	"chat-hub/services"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type LiveChatSuite struct {
	suite.Suite
	server *Server

	aliceID domain.UserID
	bobID   domain.UserID
	alice   *Client
	bob     *Client
	channel domain.ChannelID
}

func TestLiveChatSuite(t *testing.T) {
	suite.Run(t, new(LiveChatSuite))
}

func (s *LiveChatSuite) SetupTest() {
	t := s.T()
	s.server = StartServer(t)

	var aliceToken, bobToken string
	s.aliceID, aliceToken = s.server.NewVerifiedUser(t, "alice")
	s.bobID, bobToken = s.server.NewVerifiedUser(t, "bob")

	c, err := s.server.Channels.Create(context.Background(), s.aliceID, services.CreateChannelInput{
		Name: "general",
	})
	require.NoError(t, err)
	s.channel = c.ID

	s.alice = s.server.Dial(t, aliceToken)
	s.bob = s.server.Dial(t, bobToken)
}

func (s *LiveChatSuite) Test_Scenario_Two_Users_Chatting() {
	t := s.T()
	req := require.New(t)

	Step(t, "presence is announced on connection")
	var snapshot event.PresenceSnapshot
	s.bob.WaitFor(t, "presence:snapshot", &snapshot)
	req.Contains(snapshot.OnlineUserIDs, s.aliceID)
	req.Contains(snapshot.OnlineUserIDs, s.bobID)

	// Alice sees her own online edge first; Bob's follows.
	var online event.PresenceUpdate
	for {
		s.alice.WaitFor(t, "presence:update", &online)
		if online.UserID == s.bobID {
			break
		}
	}
	req.True(online.IsOnline)

	Step(t, "both users join the channel")
	s.alice.Send(t, "join:channel", map[string]any{"channelId": s.channel})
	s.alice.WaitFor(t, "joined:channel", nil)
	s.bob.Send(t, "join:channel", map[string]any{"channelId": s.channel})
	s.bob.WaitFor(t, "joined:channel", nil)

	Step(t, "a message is moderated, persisted and fanned out")
	s.alice.Send(t, "message:new", map[string]any{
		"channelId": s.channel,
		"text":      "you absolute idiot",
	})
	var received event.MessageReceived
	s.bob.WaitFor(t, "message:received", &received)
	req.Equal(s.aliceID, received.Message.SenderID)
	req.Equal(s.channel, received.Message.ChannelID)
	req.NotContains(received.Message.Text, "idiot")
	req.Contains(received.Message.Text, strings.Repeat("*", len("idiot")))

	// The sender receives their own broadcast too.
	s.alice.WaitFor(t, "message:received", nil)
	messageID := received.Message.ID

	Step(t, "typing is relayed to everyone but the typist")
	s.bob.Send(t, "typing", map[string]any{"channelId": s.channel, "isTyping": true})
	var typing event.Typing
	s.alice.WaitFor(t, "typing", &typing)
	req.Equal(s.bobID, typing.UserID)
	req.True(typing.IsTyping)

	// Bob's own indicator was handled before Alice's was sent, so if it had
	// been echoed back it would arrive first. The first typing frame Bob
	// sees must therefore be Alice's.
	s.alice.Send(t, "typing", map[string]any{"channelId": s.channel, "isTyping": true})
	s.bob.WaitFor(t, "typing", &typing)
	req.Equal(s.aliceID, typing.UserID)

	Step(t, "only the sender may edit")
	s.bob.Send(t, "message:update", map[string]any{
		"messageId": messageID,
		"text":      "hijacked",
	})
	var wsErr event.Error
	s.bob.WaitFor(t, "error", &wsErr)
	req.Equal("NOT_ALLOWED", wsErr.Code)

	s.alice.Send(t, "message:update", map[string]any{
		"messageId": messageID,
		"text":      "sorry, that was rude",
	})
	var updated event.MessageUpdated
	s.bob.WaitFor(t, "message:updated", &updated)
	req.Equal("sorry, that was rude", updated.Message.Text)
	req.NotNil(updated.Message.EditedAt)

	Step(t, "bursts are throttled with a retry hint")
	time.Sleep(350 * time.Millisecond)
	s.alice.Send(t, "message:new", map[string]any{"channelId": s.channel, "text": "one"})
	s.alice.Send(t, "message:new", map[string]any{"channelId": s.channel, "text": "two"})
	var throttled event.Error
	s.alice.WaitFor(t, "error", &throttled)
	req.Equal("RATE_LIMIT", throttled.Code)
	req.Positive(throttled.RetryAfterMs)

	Step(t, "deletion leaves a tombstone event")
	s.alice.Send(t, "message:delete", map[string]any{"messageId": messageID})
	var deleted event.MessageDeleted
	s.bob.WaitFor(t, "message:deleted", &deleted)
	req.Equal(messageID, deleted.MessageID)
	req.Equal(s.channel, deleted.ChannelID)

	Step(t, "the last disconnect flips the user offline")
	req.NoError(s.bob.conn.Close())
	for {
		var offline event.PresenceUpdate
		s.alice.WaitFor(t, "presence:update", &offline)
		if offline.UserID != s.bobID {
			continue
		}
		req.False(offline.IsOnline)
		req.NotNil(offline.LastSeen)
		break
	}
}

func (s *LiveChatSuite) Test_Invalid_Frames_Are_Rejected_Without_Closing() {
	t := s.T()
	req := require.New(t)

	Step(t, "sending without a channel is rejected")
	s.alice.Send(t, "message:new", map[string]any{"text": "hello"})
	var wsErr event.Error
	s.alice.WaitFor(t, "error", &wsErr)
	req.Equal("NO_CHANNEL", wsErr.Code)

	Step(t, "an empty message is rejected")
	s.alice.Send(t, "join:channel", map[string]any{"channelId": s.channel})
	s.alice.WaitFor(t, "joined:channel", nil)
	time.Sleep(350 * time.Millisecond) // the rejected send above still spent the rate budget
	s.alice.Send(t, "message:new", map[string]any{"channelId": s.channel, "text": "   "})
	s.alice.WaitFor(t, "error", &wsErr)
	req.Equal("EMPTY_MESSAGE", wsErr.Code)

	Step(t, "joining an unknown channel is rejected")
	s.alice.Send(t, "join:channel", map[string]any{"channelId": "no-such-channel"})
	s.alice.WaitFor(t, "error", &wsErr)
	req.Equal("CHANNEL_NOT_FOUND", wsErr.Code)
}
