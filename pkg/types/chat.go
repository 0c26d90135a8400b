package types

import (
	"encoding/json"
	"time"
)

// Chat relay event names. Client-to-server events are joinRoom and
// sendMessage; server-to-client events are previousMessages and
// receiveMessage.
const (
	EventJoinRoom         = "joinRoom"
	EventSendMessage      = "sendMessage"
	EventPreviousMessages = "previousMessages"
	EventReceiveMessage   = "receiveMessage"
	EventError            = "error"
)

// ChatEnvelope is the framing for every message on the relay's websocket
type ChatEnvelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// ChatMessage represents one persisted realtime message
type ChatMessage struct {
	ID          string    `json:"id" db:"id"`
	RoomID      string    `json:"room_id" db:"room_id"`
	SenderID    string    `json:"sender_id" db:"sender_id"`
	SenderName  string    `json:"sender_name" db:"sender_name"`
	RecipientID string    `json:"recipient_id" db:"recipient_id"`
	Message     string    `json:"message" db:"message"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// JoinRoomPayload is the data of a joinRoom event
type JoinRoomPayload struct {
	RoomID string   `json:"roomId"`
	UserID string   `json:"userId"`
	Role   UserRole `json:"role"`
}

// SendMessagePayload is the data of a sendMessage event
type SendMessagePayload struct {
	RoomID     string `json:"roomId"`
	SenderID   string `json:"senderId"`
	SenderName string `json:"senderName"`
	ReceiverID string `json:"receiverId"`
	Message    string `json:"message"`
}
