package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(id string) *Client {
	return &Client{
		ID:    id,
		Send:  make(chan []byte, 16),
		rooms: make(map[string]struct{}),
	}
}

func drain(c *Client) [][]byte {
	var out [][]byte
	for {
		select {
		case data := <-c.Send:
			out = append(out, data)
		default:
			return out
		}
	}
}

func TestRegistry_JoinAndBroadcast(t *testing.T) {
	registry := NewRegistry()
	a := newTestClient("a")
	b := newTestClient("b")

	registry.Register(a)
	registry.Register(b)
	registry.Join(a, "room-1")
	registry.Join(b, "room-1")

	registry.Broadcast("room-1", []byte("hello"))

	require.Len(t, drain(a), 1)
	require.Len(t, drain(b), 1)
}

func TestRegistry_BroadcastSkipsOtherRooms(t *testing.T) {
	registry := NewRegistry()
	a := newTestClient("a")
	b := newTestClient("b")

	registry.Register(a)
	registry.Register(b)
	registry.Join(a, "room-1")
	registry.Join(b, "room-2")

	registry.Broadcast("room-1", []byte("hello"))

	assert.Len(t, drain(a), 1)
	assert.Empty(t, drain(b))
}

func TestRegistry_UnregisterRemovesFromRooms(t *testing.T) {
	registry := NewRegistry()
	a := newTestClient("a")

	registry.Register(a)
	registry.Join(a, "room-1")
	assert.Equal(t, 1, registry.RoomCount("room-1"))

	registry.Unregister(a)

	assert.Equal(t, 0, registry.RoomCount("room-1"))
	assert.Equal(t, 0, registry.ClientCount())

	// Send channel is closed after unregister
	_, open := <-a.Send
	assert.False(t, open)
}

func TestRegistry_JoinWithoutRegisterIsNoop(t *testing.T) {
	registry := NewRegistry()
	a := newTestClient("a")

	registry.Join(a, "room-1")

	assert.Equal(t, 0, registry.RoomCount("room-1"))
}

func TestRegistry_MultipleRoomsPerClient(t *testing.T) {
	registry := NewRegistry()
	a := newTestClient("a")

	registry.Register(a)
	registry.Join(a, "room-1")
	registry.Join(a, "room-2")

	registry.Broadcast("room-1", []byte("one"))
	registry.Broadcast("room-2", []byte("two"))

	assert.Len(t, drain(a), 2)
}

func TestRegistry_CloseShutsDownClients(t *testing.T) {
	registry := NewRegistry()
	a := newTestClient("a")
	b := newTestClient("b")

	registry.Register(a)
	registry.Register(b)
	registry.Close()

	_, openA := <-a.Send
	_, openB := <-b.Send
	assert.False(t, openA)
	assert.False(t, openB)
	assert.Equal(t, 0, registry.ClientCount())

	// closing twice is safe
	registry.Close()
}

func TestRegistry_RegisterAfterClose(t *testing.T) {
	registry := NewRegistry()
	registry.Close()

	a := newTestClient("a")
	registry.Register(a)

	_, open := <-a.Send
	assert.False(t, open)
	assert.Equal(t, 0, registry.ClientCount())
}
