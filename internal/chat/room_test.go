package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoomID_Commutative(t *testing.T) {
	assert.Equal(t, RoomID("alice", "bob"), RoomID("bob", "alice"))
	assert.Equal(t, "alice:bob", RoomID("bob", "alice"))
}

func TestRoomID_SamePair(t *testing.T) {
	assert.Equal(t, "u1:u1", RoomID("u1", "u1"))
}

func TestRoomID_UUIDPair(t *testing.T) {
	a := "0d9f2c1e-6b1a-4f3f-9d2a-111111111111"
	b := "ffe0aa00-0000-4000-8000-222222222222"

	assert.Equal(t, a+":"+b, RoomID(a, b))
	assert.Equal(t, a+":"+b, RoomID(b, a))
}
