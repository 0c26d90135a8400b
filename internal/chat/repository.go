package chat

import (
	"fmt"

	"github.com/healthbridge/healthbridge/pkg/database"
	"github.com/healthbridge/healthbridge/pkg/interfaces"
	"github.com/healthbridge/healthbridge/pkg/logger"
	"github.com/healthbridge/healthbridge/pkg/types"
)

// Repository implements the ChatRepository interface
type Repository struct {
	db     *database.DB
	logger *logger.Logger
}

// NewRepository creates a new chat repository
func NewRepository(db *database.DB, log *logger.Logger) interfaces.ChatRepository {
	return &Repository{
		db:     db,
		logger: log,
	}
}

// Create inserts a new chat message
func (r *Repository) Create(msg *types.ChatMessage) error {
	query := `
		INSERT INTO chat_messages (id, room_id, sender_id, sender_name, recipient_id, message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.Exec(query,
		msg.ID,
		msg.RoomID,
		msg.SenderID,
		msg.SenderName,
		msg.RecipientID,
		msg.Message,
		msg.CreatedAt,
	)

	if err != nil {
		r.logger.WithError(err).Error("Failed to persist chat message")
		return fmt.Errorf("failed to persist chat message: %w", err)
	}

	return nil
}

// ListByRoom retrieves a room's full history, oldest first
func (r *Repository) ListByRoom(roomID string) ([]*types.ChatMessage, error) {
	query := `
		SELECT id, room_id, sender_id, sender_name, recipient_id, message, created_at
		FROM chat_messages
		WHERE room_id = $1
		ORDER BY created_at ASC`

	rows, err := r.db.Query(query, roomID)
	if err != nil {
		r.logger.WithError(err).Error("Failed to load chat history")
		return nil, fmt.Errorf("failed to load chat history: %w", err)
	}
	defer rows.Close()

	var messages []*types.ChatMessage
	for rows.Next() {
		msg := &types.ChatMessage{}
		err := rows.Scan(
			&msg.ID,
			&msg.RoomID,
			&msg.SenderID,
			&msg.SenderName,
			&msg.RecipientID,
			&msg.Message,
			&msg.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chat message: %w", err)
		}
		messages = append(messages, msg)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chat messages: %w", err)
	}

	return messages, nil
}
