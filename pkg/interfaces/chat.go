package interfaces

import (
	"github.com/healthbridge/healthbridge/pkg/types"
)

// ChatRepository defines the interface for chat message persistence
type ChatRepository interface {
	Create(msg *types.ChatMessage) error
	ListByRoom(roomID string) ([]*types.ChatMessage, error)
}
