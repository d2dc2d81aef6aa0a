// Package live implements the real-time subsystem: connection admission,
// presence aggregation, room membership, rate limiting, and event fan-out.
// All shared state lives behind explicit service objects constructed once
// per process and injected into the transport handlers.
package live

import (
	"sync"

	"chat-hub/contract"
	"chat-hub/domain"
	"chat-hub/errors"
)

type connSet map[domain.ConnectionID]struct{}

type session struct {
	conn domain.Connection
	sink contract.EventSink
}

// Registry tracks every admitted transport connection and the per-user
// connection sets presence is derived from. A user's isOnline is true iff
// their connection set is non-empty; the set cardinality before and after
// each mutation decides whether a presence edge fired.
type Registry struct {
	mu        sync.RWMutex
	sessions  map[domain.ConnectionID]session
	userConns map[domain.UserID]connSet
}

func NewRegistry() *Registry {
	return &Registry{
		sessions:  make(map[domain.ConnectionID]session),
		userConns: make(map[domain.UserID]connSet),
	}
}

// Admit registers a connection with its resolved identity and delivery sink.
// It reports whether this was the user's first connection (the 0->1 presence
// edge). Admission fails only when the upstream handshake did not attach a
// usable identity.
func (r *Registry) Admit(conn domain.Connection, sink contract.EventSink) (bool, error) {
	if conn.User == "" || conn.Username == "" {
		return false, errors.ErrIdentityRequired
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[conn.ID] = session{conn: conn, sink: sink}

	set, ok := r.userConns[conn.User]
	if !ok {
		set = make(connSet)
		r.userConns[conn.User] = set
	}
	before := len(set)
	set[conn.ID] = struct{}{}

	return before == 0, nil
}

// Remove drops a connection. It is idempotent: removing an unknown id is a
// no-op. It reports the connection's identity, whether it was the user's last
// connection (the 1->0 presence edge), and whether the id was known at all.
func (r *Registry) Remove(id domain.ConnectionID) (domain.Connection, bool, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return domain.Connection{}, false, false
	}
	delete(r.sessions, id)

	last := false
	if set, ok := r.userConns[s.conn.User]; ok {
		delete(set, id)
		if len(set) == 0 {
			delete(r.userConns, s.conn.User)
			last = true
		}
	}
	return s.conn, last, true
}

// Connection returns the identity attached to a live connection id.
func (r *Registry) Connection(id domain.ConnectionID) (domain.Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s.conn, ok
}

// ResolveSinks maps connection ids to their sinks, skipping ids that
// disconnected since the snapshot was taken. Resolution at delivery time is
// what guarantees a removed connection never receives a later broadcast.
func (r *Registry) ResolveSinks(ids []domain.ConnectionID) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var sinks []contract.EventSink
	for _, id := range ids {
		if s, ok := r.sessions[id]; ok {
			sinks = append(sinks, s.sink)
		}
	}
	return sinks
}

// AllSinks snapshots every connected sink, for process-wide broadcasts.
func (r *Registry) AllSinks() []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sinks := make([]contract.EventSink, 0, len(r.sessions))
	for _, s := range r.sessions {
		sinks = append(sinks, s.sink)
	}
	return sinks
}

// OnlineUsers snapshots the ids of every user with at least one connection.
func (r *Registry) OnlineUsers() []domain.UserID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]domain.UserID, 0, len(r.userConns))
	for u := range r.userConns {
		users = append(users, u)
	}
	return users
}

// Connections reports how many live connections a user currently holds.
func (r *Registry) Connections(user domain.UserID) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.userConns[user])
}

// Count reports the total number of live connections.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
