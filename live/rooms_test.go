package live

import (
	"testing"

	"chat-hub/domain"

	"github.com/stretchr/testify/require"
)

func TestRooms_Join_And_Members(t *testing.T) {
	req := require.New(t)
	rooms := NewRooms()

	rooms.Join("c1", "general")
	rooms.Join("c2", "general")
	rooms.Join("c1", "random")

	req.ElementsMatch([]domain.ConnectionID{"c1", "c2"}, rooms.MembersOf("general"))
	req.ElementsMatch([]domain.ConnectionID{"c1"}, rooms.MembersOf("random"))
	req.True(rooms.IsMember("c1", "general"))
	req.False(rooms.IsMember("c2", "random"))
}

func TestRooms_Join_Twice_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	rooms := NewRooms()

	rooms.Join("c1", "general")
	rooms.Join("c1", "general")

	req.Len(rooms.MembersOf("general"), 1)
}

func TestRooms_Leave_Unknown_Is_Noop(t *testing.T) {
	req := require.New(t)
	rooms := NewRooms()

	rooms.Leave("ghost", "general")

	req.Empty(rooms.MembersOf("general"))
}

func TestRooms_DropConnection_Cleans_Both_Indexes(t *testing.T) {
	req := require.New(t)
	rooms := NewRooms()
	rooms.Join("c1", "general")
	rooms.Join("c1", "random")
	rooms.Join("c2", "general")

	// When the connection is dropped
	affected := rooms.DropConnection("c1")

	// Then every room it joined is reported and purged
	req.ElementsMatch([]domain.ChannelID{"general", "random"}, affected)
	req.ElementsMatch([]domain.ConnectionID{"c2"}, rooms.MembersOf("general"))
	req.Empty(rooms.MembersOf("random"))
	req.False(rooms.IsMember("c1", "general"))

	// And dropping again finds nothing
	req.Empty(rooms.DropConnection("c1"))
}
