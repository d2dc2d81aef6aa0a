// Package e2e drives the assembled server over real websockets and HTTP,
// the way a browser client would.
package e2e

import (
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"chat-hub/auth"
	"chat-hub/domain"
	hubhttp "chat-hub/infrastructure/http"
	"chat-hub/infrastructure/ws"
	"chat-hub/live"
	"chat-hub/moderation"
	"chat-hub/repositories"
	"chat-hub/services"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/gookit/color"
	gorilla "github.com/gorilla/websocket"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

// Step prints a colorized scenario header, disabled via E2E_NO_COLOURS.
func Step(t *testing.T, name string) {
	t.Helper()
	header := fmt.Sprintf("  ====== %s ======", name)
	if os.Getenv("E2E_NO_COLOURS") == "" {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	t.Log(header)
}

// Server is the fully wired application behind an httptest listener.
type Server struct {
	HTTP     *httptest.Server
	Tokens   *auth.TokenIssuer
	Users    *repositories.UserRepository
	Channels *services.ChannelService
}

// StartServer assembles the real stack on temporary storage.
func StartServer(t *testing.T) *Server {
	t.Helper()
	req := require.New(t)

	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).
		WithLoggingLevel(badger.ERROR).
		WithValueLogFileSize(16 << 20))
	req.NoError(err)
	t.Cleanup(func() { _ = db.Close() })

	indexWriter, err := bluge.OpenWriter(bluge.DefaultConfig(t.TempDir()))
	req.NoError(err)
	t.Cleanup(func() { _ = indexWriter.Close() })

	log := logs.GetLoggerFromString("ERROR")

	users := repositories.NewUserRepository(db)
	messages := repositories.NewMessageRepository(db, log)
	index := repositories.NewMessageIndex(indexWriter, log)
	otps := repositories.NewOTPRepository(db, 10*time.Minute)

	words, err := moderation.LoadDefaultWords()
	req.NoError(err)
	moderator, err := moderation.NewModerator(words.Words, '*')
	req.NoError(err)

	tokens := auth.NewTokenIssuer("e2e-secret", time.Hour)
	otpSender := services.NewDevOTPSender(otps, log)
	authService := services.NewAuthService(users, otpSender, tokens, log)
	channelService := services.NewChannelService(
		repositories.NewChannelRepository(db),
		repositories.NewRequestRepository(db),
		log,
	)
	profileService := services.NewProfileService(users, t.TempDir(), log)

	registry := live.NewRegistry()
	rooms := live.NewRooms()
	limiter := live.NewLimiter(300 * time.Millisecond)
	presence := live.NewPresence(log, registry, nil)
	pipeline := live.NewPipeline(log, registry, rooms, channelService,
		messages, index, moderator, false)
	hub := live.NewHub(log, registry, rooms, presence, limiter, pipeline, channelService)
	chatService := services.NewChatService(pipeline, messages, index, log)

	router := hubhttp.NewRouter(hubhttp.RouterDeps{
		Log:       log,
		Tokens:    tokens,
		Auth:      hubhttp.NewAuthHandler(authService, log),
		Channels:  hubhttp.NewChannelHandler(channelService, log),
		Messages:  hubhttp.NewMessageHandler(chatService, log),
		Profiles:  hubhttp.NewProfileHandler(profileService, 1<<20, log),
		Live:      ws.NewHandler(log, hub, tokens, 64),
		UploadDir: t.TempDir(),
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &Server{HTTP: server, Tokens: tokens, Users: users, Channels: channelService}
}

// NewVerifiedUser seeds a verified account and returns its id and token.
func (s *Server) NewVerifiedUser(t *testing.T, username string) (domain.UserID, string) {
	t.Helper()
	user := domain.User{
		ID:       domain.UserID(uuid.NewString()),
		Username: username,
		Email:    username + "@example.com",
		Phone:    "+3361234" + fmt.Sprintf("%04d", len(username)*37%10000),
		Verified: true,
	}
	require.NoError(t, s.Users.Create(user))

	token, err := s.Tokens.Generate(user.ID, user.Username)
	require.NoError(t, err)
	return user.ID, token
}

// Client is one live websocket session.
type Client struct {
	conn *gorilla.Conn
}

type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Dial opens an authenticated websocket against the server.
func (s *Server) Dial(t *testing.T, token string) *Client {
	t.Helper()
	url := "ws" + strings.TrimPrefix(s.HTTP.URL, "http") + "/ws?token=" + token
	conn, resp, err := gorilla.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return &Client{conn: conn}
}

// Send emits one client frame.
func (c *Client) Send(t *testing.T, event string, data any) {
	t.Helper()
	payload, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, c.conn.WriteJSON(frame{Event: event, Data: payload}))
}

// WaitFor reads frames until one matches the event name, decoding its data.
func (c *Client) WaitFor(t *testing.T, event string, dst any) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	require.NoError(t, c.conn.SetReadDeadline(deadline))
	for {
		var f frame
		require.NoError(t, c.conn.ReadJSON(&f), "waiting for %q", event)
		if f.Event != event {
			continue
		}
		if dst != nil {
			require.NoError(t, json.Unmarshal(f.Data, dst))
		}
		return
	}
}

