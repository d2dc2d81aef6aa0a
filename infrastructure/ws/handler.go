// Package ws carries the live surface over websockets: one read loop and one
// write pump per connection, JSON frames, token handshake on upgrade.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"chat-hub/auth"
	"chat-hub/domain"
	"chat-hub/domain/event"
	"chat-hub/errors"
	"chat-hub/live"
	"chat-hub/sink"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxFrameSize   = 64 * 1024
	closeGraceWait = time.Second
)

// Frame is the envelope of every message in both directions.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// connection pairs an admitted identity with its delivery sink for the
// lifetime of the socket. Errors raised by the connection's own frames go
// straight to its sink, bypassing the fan-out.
type connection struct {
	domain.Connection
	sink *sink.ConnSink
}

// Handler upgrades authenticated HTTP requests and bridges frames to the hub.
type Handler struct {
	log        *slog.Logger
	hub        *live.Hub
	tokens     *auth.TokenIssuer
	bufferSize int
	upgrader   websocket.Upgrader
}

func NewHandler(log *slog.Logger, hub *live.Hub, tokens *auth.TokenIssuer, bufferSize int) *Handler {
	return &Handler{
		log:        log,
		hub:        hub,
		tokens:     tokens,
		bufferSize: bufferSize,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	claims, err := h.authenticate(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	conn := domain.Connection{
		ID:       domain.ConnectionID(uuid.NewString()),
		User:     domain.UserID(claims.UserID),
		Username: claims.Username,
	}
	connSink := sink.NewConnSink(h.log, h.bufferSize)

	ctx, cancel := context.WithCancel(r.Context())
	if err := h.hub.Connect(ctx, conn, connSink); err != nil {
		h.log.Warn("connection rejected", "user_id", claims.UserID, "error", err)
		cancel()
		_ = ws.Close()
		return
	}

	go h.writePump(ctx, cancel, ws, connSink)
	h.readPump(ctx, ws, connection{Connection: conn, sink: connSink})

	cancel()
	h.hub.Disconnect(context.WithoutCancel(ctx), conn.ID)
	_ = ws.Close()
}

// authenticate accepts the token either as a query parameter, for browser
// websocket clients, or as a bearer header.
func (h *Handler) authenticate(r *http.Request) (*auth.Claims, error) {
	token := r.URL.Query().Get("token")
	if token == "" {
		header := r.Header.Get("Authorization")
		token = strings.TrimPrefix(header, "Bearer ")
	}
	if token == "" {
		return nil, errors.ErrIdentityRequired
	}
	return h.tokens.Validate(token)
}

// readPump is the per-connection request loop. It exits on any read error,
// which covers both clean closes and dead peers via the pong deadline.
func (h *Handler) readPump(ctx context.Context, ws *websocket.Conn, conn connection) {
	ws.SetReadLimit(maxFrameSize)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var frame Frame
		if err := ws.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug("websocket read ended", "connection_id", conn.ID, "error", err)
			}
			return
		}
		h.dispatch(ctx, conn, frame)
	}
}

// writePump serializes all socket writes: drained sink events and keepalive
// pings share the single writer goroutine the connection is allowed.
func (h *Handler) writePump(ctx context.Context, cancel context.CancelFunc, ws *websocket.Conn, s *sink.ConnSink) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		cancel()
	}()

	for {
		select {
		case evt := <-s.Events:
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteJSON(encode(evt)); err != nil {
				return
			}
		case <-ticker.C:
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-ctx.Done():
			_ = ws.SetWriteDeadline(time.Now().Add(closeGraceWait))
			_ = ws.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

func encode(evt event.Event) outFrame {
	return outFrame{Event: evt.Name(), Data: evt}
}

// outFrame mirrors Frame with an already-typed payload for marshalling.
type outFrame struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}
