package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chat-hub/domain/event"

	"github.com/Netflix/go-env"
	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// Config defines the client-side environment variables.
type Config struct {
	ServerAddress string `env:"CHAT_SERVER_ADDR,default=localhost:8080"`
	Channel       string `env:"CHAT_CHANNEL,default=general"`
	Identifier    string `env:"CHAT_IDENTIFIER,required=true"`
	Password      string `env:"CHAT_PASSWORD,required=true"`
	LogLevel      string `env:"LOG_LEVEL,default=ERROR"`
}

type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

// run handles login, the websocket session, and the stdin send loop.
func run() (int, error) {
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	token, err := login(ctx, config)
	if err != nil {
		return exitRuntime, err
	}

	url := fmt.Sprintf("ws://%s/ws?token=%s", config.ServerAddress, token)
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return exitRuntime, fmt.Errorf("could not connect to %s: %w", config.ServerAddress, err)
	}
	if resp != nil {
		_ = resp.Body.Close()
	}
	defer conn.Close()

	if err := send(conn, "join:channel", map[string]any{"channelId": config.Channel}); err != nil {
		return exitRuntime, err
	}
	color.Green.Printf("Joined #%s. Type a message and press enter, Ctrl+C to quit.\n", config.Channel)

	go receive(log, conn)

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			deadline := time.Now().Add(time.Second)
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
			return exitOK, nil
		case line, ok := <-lines:
			if !ok {
				return exitOK, nil
			}
			if line == "" {
				continue
			}
			err := send(conn, "message:new", map[string]any{
				"channelId": config.Channel,
				"text":      line,
			})
			if err != nil {
				return exitRuntime, fmt.Errorf("send failed: %w", err)
			}
		}
	}
}

// login exchanges credentials for an access token on the REST surface.
func login(ctx context.Context, config Config) (string, error) {
	body, _ := json.Marshal(map[string]string{
		"identifier": config.Identifier,
		"password":   config.Password,
	})
	url := fmt.Sprintf("http://%s/api/auth/login", config.ServerAddress)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("login request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login rejected with status %d", resp.StatusCode)
	}

	var session struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return "", fmt.Errorf("login response unreadable: %w", err)
	}
	return session.Token, nil
}

func send(conn *websocket.Conn, name string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return conn.WriteJSON(frame{Event: name, Data: payload})
}

// receive prints server frames until the connection drops.
func receive(log *slog.Logger, conn *websocket.Conn) {
	for {
		var f frame
		if err := conn.ReadJSON(&f); err != nil {
			log.Debug("Connection closed", "error", err)
			color.Red.Println("Disconnected.")
			return
		}
		render(f)
	}
}

func render(f frame) {
	switch f.Event {
	case "message:received", "message:updated":
		var m event.MessageReceived
		if err := json.Unmarshal(f.Data, &m); err != nil {
			return
		}
		stamp := m.Message.CreatedAt.Local().Format("15:04")
		color.Gray.Printf("[%s] ", stamp)
		color.Cyan.Printf("%s: ", m.Message.SenderName)
		fmt.Println(m.Message.Text)
	case "message:deleted":
		color.Gray.Println("(message deleted)")
	case "presence:update":
		var p event.PresenceUpdate
		if err := json.Unmarshal(f.Data, &p); err != nil {
			return
		}
		state := "offline"
		if p.IsOnline {
			state = "online"
		}
		color.Yellow.Printf("* %s is now %s\n", p.UserID, state)
	case "typing":
		var t event.Typing
		if err := json.Unmarshal(f.Data, &t); err != nil || !t.IsTyping {
			return
		}
		color.Gray.Printf("%s is typing...\n", t.Username)
	case "error":
		var e event.Error
		if err := json.Unmarshal(f.Data, &e); err != nil {
			return
		}
		color.Red.Printf("error %s: %s\n", e.Code, e.Message)
	}
}
