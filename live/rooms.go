package live

import (
	"sync"

	"chat-hub/domain"
)

// Rooms tracks which connections are subscribed to which channel's live
// stream. Membership is dual-indexed (channel->connections and
// connection->channels) so disconnect cleanup touches only the rooms the
// connection actually joined.
type Rooms struct {
	mu      sync.RWMutex
	byRoom  map[domain.ChannelID]connSet
	byConn  map[domain.ConnectionID]map[domain.ChannelID]struct{}
}

func NewRooms() *Rooms {
	return &Rooms{
		byRoom: make(map[domain.ChannelID]connSet),
		byConn: make(map[domain.ConnectionID]map[domain.ChannelID]struct{}),
	}
}

// Join subscribes a connection to a channel. Re-joining is a no-op.
func (r *Rooms) Join(conn domain.ConnectionID, channel domain.ChannelID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byRoom[channel]; !ok {
		r.byRoom[channel] = make(connSet)
	}
	r.byRoom[channel][conn] = struct{}{}

	if _, ok := r.byConn[conn]; !ok {
		r.byConn[conn] = make(map[domain.ChannelID]struct{})
	}
	r.byConn[conn][channel] = struct{}{}
}

// Leave removes the subscription if present; absent entries are a no-op.
// Empty sets are pruned so the maps don't leak over time.
func (r *Rooms) Leave(conn domain.ConnectionID, channel domain.ChannelID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaveLocked(conn, channel)
}

func (r *Rooms) leaveLocked(conn domain.ConnectionID, channel domain.ChannelID) {
	if members, ok := r.byRoom[channel]; ok {
		delete(members, conn)
		if len(members) == 0 {
			delete(r.byRoom, channel)
		}
	}
	if channels, ok := r.byConn[conn]; ok {
		delete(channels, channel)
		if len(channels) == 0 {
			delete(r.byConn, conn)
		}
	}
}

// MembersOf returns a snapshot of the channel's current subscribers. The set
// may change concurrently the moment this returns; callers resolve sinks
// through the registry at delivery time.
func (r *Rooms) MembersOf(channel domain.ChannelID) []domain.ConnectionID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := r.byRoom[channel]
	if len(members) == 0 {
		return nil
	}
	ids := make([]domain.ConnectionID, 0, len(members))
	for id := range members {
		ids = append(ids, id)
	}
	return ids
}

// IsMember reports whether a connection is currently subscribed to a channel.
func (r *Rooms) IsMember(conn domain.ConnectionID, channel domain.ChannelID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byConn[conn][channel]
	return ok
}

// DropConnection purges a connection from every room it was subscribed to,
// returning the affected channels. Runs under one lock so no broadcast
// snapshot can observe a half-cleaned membership.
func (r *Rooms) DropConnection(conn domain.ConnectionID) []domain.ChannelID {
	r.mu.Lock()
	defer r.mu.Unlock()

	channels := r.byConn[conn]
	if len(channels) == 0 {
		return nil
	}
	affected := make([]domain.ChannelID, 0, len(channels))
	for channel := range channels {
		affected = append(affected, channel)
	}
	for _, channel := range affected {
		r.leaveLocked(conn, channel)
	}
	return affected
}
