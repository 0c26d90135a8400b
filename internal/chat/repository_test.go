package chat

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthbridge/healthbridge/pkg/database"
	"github.com/healthbridge/healthbridge/pkg/logger"
	"github.com/healthbridge/healthbridge/pkg/types"
)

func setupTestChatRepository(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db := database.NewFromSQL(sqlDB, logger.New("error"))
	return &Repository{db: db, logger: logger.New("error")}, mock
}

func TestChatRepository_Create(t *testing.T) {
	repo, mock := setupTestChatRepository(t)

	sent := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	msg := &types.ChatMessage{
		ID:          "msg-1",
		RoomID:      "a:b",
		SenderID:    "a",
		SenderName:  "Alice",
		RecipientID: "b",
		Message:     "hello",
		CreatedAt:   sent,
	}

	mock.ExpectExec("INSERT INTO chat_messages").
		WithArgs("msg-1", "a:b", "a", "Alice", "b", "hello", sent).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.Create(msg))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChatRepository_ListByRoom(t *testing.T) {
	repo, mock := setupTestChatRepository(t)

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "room_id", "sender_id", "sender_name", "recipient_id", "message", "created_at"}).
		AddRow("m1", "a:b", "a", "Alice", "b", "first", base).
		AddRow("m2", "a:b", "b", "Bob", "a", "second", base.Add(time.Minute))

	mock.ExpectQuery("SELECT id, room_id, sender_id, sender_name, recipient_id, message, created_at").
		WithArgs("a:b").
		WillReturnRows(rows)

	messages, err := repo.ListByRoom("a:b")
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "first", messages[0].Message)
	assert.Equal(t, "second", messages[1].Message)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChatRepository_ListByRoomEmpty(t *testing.T) {
	repo, mock := setupTestChatRepository(t)

	rows := sqlmock.NewRows([]string{"id", "room_id", "sender_id", "sender_name", "recipient_id", "message", "created_at"})
	mock.ExpectQuery("SELECT id, room_id, sender_id, sender_name, recipient_id, message, created_at").
		WithArgs("a:b").
		WillReturnRows(rows)

	messages, err := repo.ListByRoom("a:b")
	require.NoError(t, err)
	assert.Empty(t, messages)
}
