package chat

import (
	"sync"
)

// Conn abstracts a websocket connection for testability
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client represents a single live relay connection
type Client struct {
	ID     string
	UserID string
	Send   chan []byte
	conn   Conn
	rooms  map[string]struct{}
}

// Registry is the single in-process room table: roomID to the set of live
// connections currently joined. All operations are guarded by sync.RWMutex.
type Registry struct {
	mu     sync.RWMutex
	rooms  map[string]map[*Client]struct{}
	all    map[*Client]struct{}
	closed bool
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[string]map[*Client]struct{}),
		all:   make(map[*Client]struct{}),
	}
}

// Register adds a connection to the registry
func (reg *Registry) Register(client *Client) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if reg.closed {
		close(client.Send)
		return
	}

	reg.all[client] = struct{}{}
}

// Unregister removes a connection from every room it joined and closes its
// send channel. No queuing or redelivery happens for messages the connection
// misses afterwards.
func (reg *Registry) Unregister(client *Client) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if _, ok := reg.all[client]; !ok {
		return
	}

	for roomID := range client.rooms {
		if members, ok := reg.rooms[roomID]; ok {
			delete(members, client)
			if len(members) == 0 {
				delete(reg.rooms, roomID)
			}
		}
	}

	delete(reg.all, client)
	close(client.Send)
}

// Join registers a connection's interest in a room
func (reg *Registry) Join(client *Client, roomID string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if _, ok := reg.all[client]; !ok {
		return
	}

	if reg.rooms[roomID] == nil {
		reg.rooms[roomID] = make(map[*Client]struct{})
	}
	reg.rooms[roomID][client] = struct{}{}
	client.rooms[roomID] = struct{}{}
}

// Broadcast delivers data to every connection joined to the room, including
// the sender's own connection. Slow consumers are skipped rather than
// blocking the room.
func (reg *Registry) Broadcast(roomID string, data []byte) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	for client := range reg.rooms[roomID] {
		select {
		case client.Send <- data:
		default:
		}
	}
}

// Deliver sends data to a single connection
func (reg *Registry) Deliver(client *Client, data []byte) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	if _, ok := reg.all[client]; !ok {
		return
	}

	select {
	case client.Send <- data:
	default:
	}
}

// ClientCount returns the number of live connections
func (reg *Registry) ClientCount() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return len(reg.all)
}

// RoomCount returns the number of connections joined to a room
func (reg *Registry) RoomCount(roomID string) int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return len(reg.rooms[roomID])
}

// Close drains the registry at shutdown. Subsequent registrations are
// rejected and every live send channel is closed.
func (reg *Registry) Close() {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if reg.closed {
		return
	}
	reg.closed = true

	for client := range reg.all {
		close(client.Send)
	}
	reg.all = make(map[*Client]struct{})
	reg.rooms = make(map[string]map[*Client]struct{})
}
