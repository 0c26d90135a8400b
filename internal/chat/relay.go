package chat

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/healthbridge/healthbridge/pkg/interfaces"
	"github.com/healthbridge/healthbridge/pkg/logger"
	"github.com/healthbridge/healthbridge/pkg/monitoring"
	"github.com/healthbridge/healthbridge/pkg/types"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // tighten for production deployments
	},
}

// Relay accepts websocket connections and routes joinRoom/sendMessage events
// through the registry. Messages are persisted before broadcast, and
// broadcast is sequential per room, so delivery order within a room matches
// persistence order.
type Relay struct {
	registry *Registry
	repo     interfaces.ChatRepository
	logger   *logger.Logger
	metrics  *monitoring.MetricsCollector
	now      func() time.Time

	mu        sync.Mutex
	roomLocks map[string]*sync.Mutex
}

// NewRelay creates a new chat relay
func NewRelay(registry *Registry, repo interfaces.ChatRepository, log *logger.Logger, metrics *monitoring.MetricsCollector) *Relay {
	return &Relay{
		registry:  registry,
		repo:      repo,
		logger:    log,
		metrics:   metrics,
		now:       time.Now,
		roomLocks: make(map[string]*sync.Mutex),
	}
}

// RegisterRoutes configures the realtime endpoint. The limit middleware
// covers the upgrade request only, not individual messages.
func (rl *Relay) RegisterRoutes(router *mux.Router, limit mux.MiddlewareFunc) {
	ws := router.PathPrefix("/ws").Subrouter()
	ws.Use(limit)
	ws.HandleFunc("", rl.handleConnect).Methods("GET")
}

// handleConnect upgrades the HTTP connection and starts the client's pumps
func (rl *Relay) handleConnect(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		rl.logger.WithError(err).Warn("Websocket upgrade failed")
		return
	}

	client := &Client{
		ID:    uuid.New().String(),
		Send:  make(chan []byte, 256),
		conn:  ws,
		rooms: make(map[string]struct{}),
	}

	rl.registry.Register(client)
	rl.metrics.RecordWebSocketConnect()

	go rl.writePump(client)
	go rl.readPump(client)
}

// readPump reads envelopes off the connection and dispatches them
func (rl *Relay) readPump(client *Client) {
	defer func() {
		rl.registry.Unregister(client)
		client.conn.Close()
		rl.metrics.RecordWebSocketDisconnect()
	}()

	for {
		_, data, err := client.conn.ReadMessage()
		if err != nil {
			return
		}

		var envelope types.ChatEnvelope
		if err := json.Unmarshal(data, &envelope); err != nil {
			rl.sendError(client, "malformed envelope")
			continue
		}

		rl.Dispatch(client, &envelope)
	}
}

// writePump drains the client's send channel onto the connection
func (rl *Relay) writePump(client *Client) {
	defer client.conn.Close()

	for data := range client.Send {
		if err := client.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
}

// Dispatch routes one inbound envelope. Exposed for tests, which drive the
// relay with fake connections instead of live websockets.
func (rl *Relay) Dispatch(client *Client, envelope *types.ChatEnvelope) {
	switch envelope.Event {
	case types.EventJoinRoom:
		rl.handleJoinRoom(client, envelope.Data)
	case types.EventSendMessage:
		rl.handleSendMessage(client, envelope.Data)
	default:
		rl.sendError(client, "unknown event")
	}
}

// handleJoinRoom registers interest in a room and replays the room's full
// history to the joining connection, oldest first. It holds the room lock
// across register and replay so a message racing the join lands exactly once,
// either inside the replay or as a later broadcast.
func (rl *Relay) handleJoinRoom(client *Client, data json.RawMessage) {
	var payload types.JoinRoomPayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.RoomID == "" {
		rl.sendError(client, "invalid joinRoom payload")
		return
	}

	client.UserID = payload.UserID

	lock := rl.roomLock(payload.RoomID)
	lock.Lock()
	defer lock.Unlock()

	rl.registry.Join(client, payload.RoomID)

	history, err := rl.repo.ListByRoom(payload.RoomID)
	if err != nil {
		rl.logger.WithError(err).Error("Failed to load room history")
		rl.sendError(client, "could not load history")
		return
	}
	if history == nil {
		history = []*types.ChatMessage{}
	}

	rl.send(client, types.EventPreviousMessages, history)

	rl.logger.WithFields(map[string]interface{}{
		"room_id": payload.RoomID,
		"user_id": payload.UserID,
	}).Info("Client joined room")
}

// handleSendMessage persists the message, then broadcasts it to every
// connection in the room, including the sender's own.
func (rl *Relay) handleSendMessage(client *Client, data json.RawMessage) {
	var payload types.SendMessagePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		rl.sendError(client, "invalid sendMessage payload")
		return
	}
	if payload.RoomID == "" || payload.SenderID == "" || payload.Message == "" {
		rl.sendError(client, "roomId, senderId, and message are required")
		return
	}

	lock := rl.roomLock(payload.RoomID)
	lock.Lock()
	defer lock.Unlock()

	msg := &types.ChatMessage{
		ID:          uuid.New().String(),
		RoomID:      payload.RoomID,
		SenderID:    payload.SenderID,
		SenderName:  payload.SenderName,
		RecipientID: payload.ReceiverID,
		Message:     payload.Message,
		CreatedAt:   rl.now(),
	}

	if err := rl.repo.Create(msg); err != nil {
		rl.metrics.RecordChatMessage("error")
		rl.sendError(client, "could not persist message")
		return
	}

	envelope, err := marshalEnvelope(types.EventReceiveMessage, msg)
	if err != nil {
		rl.logger.WithError(err).Error("Failed to marshal chat message")
		return
	}

	rl.registry.Broadcast(payload.RoomID, envelope)
	rl.metrics.RecordChatMessage("delivered")
}

// roomLock returns the mutex serializing persist-then-broadcast for a room
func (rl *Relay) roomLock(roomID string) *sync.Mutex {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	lock, ok := rl.roomLocks[roomID]
	if !ok {
		lock = &sync.Mutex{}
		rl.roomLocks[roomID] = lock
	}
	return lock
}

// send delivers one envelope to a single client
func (rl *Relay) send(client *Client, event string, data interface{}) {
	envelope, err := marshalEnvelope(event, data)
	if err != nil {
		rl.logger.WithError(err).Error("Failed to marshal envelope")
		return
	}
	rl.registry.Deliver(client, envelope)
}

// sendError delivers an error event to a single client
func (rl *Relay) sendError(client *Client, message string) {
	rl.send(client, types.EventError, map[string]string{"message": message})
}

func marshalEnvelope(event string, data interface{}) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(&types.ChatEnvelope{Event: event, Data: raw})
}
