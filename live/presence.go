package live

import (
	"context"
	"log/slog"
	"time"

	"chat-hub/contract"
	"chat-hub/domain"
	"chat-hub/domain/event"
)

// PresenceWrite is a durable-store update queued by the aggregator and
// applied by the presence writer worker.
type PresenceWrite struct {
	User     domain.UserID
	Online   bool
	LastSeen time.Time
}

// Presence converges a user's connection set into a single online/offline
// signal. Transitions fire exactly once per 0->1 and 1->0 edge; the edges
// themselves are detected by the registry under its lock, so this type only
// reacts to them. Durable writes are fire-and-forget through a queue;
// a full queue or failing store never blocks the broadcast path.
type Presence struct {
	log      *slog.Logger
	registry *Registry
	writes   chan<- PresenceWrite
}

func NewPresence(log *slog.Logger, registry *Registry, writes chan<- PresenceWrite) *Presence {
	return &Presence{log: log, registry: registry, writes: writes}
}

// ConnectionAdmitted sends the one-time presence snapshot to the new
// connection and, on the user's 0->1 edge, broadcasts the online transition
// to every connected client.
func (p *Presence) ConnectionAdmitted(ctx context.Context, conn domain.Connection, sink contract.EventSink, first bool) {
	snapshot := event.PresenceSnapshot{OnlineUserIDs: p.registry.OnlineUsers()}
	if err := sink.Consume(ctx, snapshot); err != nil {
		p.log.Warn("presence snapshot dropped", "connection_id", conn.ID, "error", err)
	}

	if !first {
		return
	}
	now := time.Now().UTC()
	p.broadcast(ctx, event.PresenceUpdate{UserID: conn.User, IsOnline: true})
	p.enqueueWrite(PresenceWrite{User: conn.User, Online: true, LastSeen: now})
}

// ConnectionClosed broadcasts the offline transition when the user's last
// connection went away, stamping the removal time as lastSeen.
func (p *Presence) ConnectionClosed(ctx context.Context, conn domain.Connection, last bool) {
	if !last {
		return
	}
	now := time.Now().UTC()
	p.broadcast(ctx, event.PresenceUpdate{UserID: conn.User, IsOnline: false, LastSeen: &now})
	p.enqueueWrite(PresenceWrite{User: conn.User, Online: false, LastSeen: now})
}

func (p *Presence) broadcast(ctx context.Context, evt event.Event) {
	deliver(ctx, p.log, p.registry.AllSinks(), evt)
}

func (p *Presence) enqueueWrite(w PresenceWrite) {
	if p.writes == nil {
		return
	}
	select {
	case p.writes <- w:
	default:
		p.log.Warn("presence write queue full, dropping durable update",
			"user_id", w.User, "online", w.Online)
	}
}
