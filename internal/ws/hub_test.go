package ws

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campuschat/internal/domain"
)

func newTestConn(userID string) *Conn {
	return &Conn{
		ID:   "conn-" + userID,
		user: &domain.User{ID: userID, FullName: "User " + userID},
		send: make(chan []byte, 8),
	}
}

func drainOne(t *testing.T, c *Conn) Envelope {
	t.Helper()
	select {
	case frame := <-c.send:
		var env Envelope
		require.NoError(t, json.Unmarshal(frame, &env))
		return env
	default:
		t.Fatal("expected a frame, send buffer empty")
		return Envelope{}
	}
}

func TestJoinIsIdempotent(t *testing.T) {
	hub := NewHub()
	conn := newTestConn("alice")
	hub.Register(conn)

	hub.Join(conn, "chat:c1")
	hub.Join(conn, "chat:c1")

	assert.Equal(t, 1, hub.RoomSize("chat:c1"))

	hub.Broadcast("chat:c1", EventMessageReceived, map[string]string{"x": "y"}, nil)
	assert.Len(t, conn.send, 1)
}

func TestLeaveUnknownRoomIsNoOp(t *testing.T) {
	hub := NewHub()
	conn := newTestConn("alice")
	hub.Register(conn)

	hub.Leave(conn, "chat:never-joined")
	assert.Equal(t, 0, hub.RoomSize("chat:never-joined"))
}

func TestBroadcastExcludesSender(t *testing.T) {
	hub := NewHub()
	alice := newTestConn("alice")
	bob := newTestConn("bob")
	hub.Register(alice)
	hub.Register(bob)
	hub.Join(alice, "chat:c1")
	hub.Join(bob, "chat:c1")

	hub.Broadcast("chat:c1", EventMessageReceived, map[string]string{"text": "hi"}, alice)

	assert.Len(t, alice.send, 0)
	env := drainOne(t, bob)
	assert.Equal(t, EventMessageReceived, env.Event)
}

func TestBroadcastReachesAllSessionsOfOneUser(t *testing.T) {
	hub := NewHub()
	first := newTestConn("alice")
	second := newTestConn("alice")
	hub.Register(first)
	hub.Register(second)
	hub.Join(first, "user:alice")
	hub.Join(second, "user:alice")

	assert.Equal(t, 2, hub.SessionCount("alice"))

	hub.Broadcast("user:alice", EventNotification, map[string]string{"chat_id": "c1"}, nil)
	assert.Len(t, first.send, 1)
	assert.Len(t, second.send, 1)
}

func TestBroadcastDropsFrameForStalledConn(t *testing.T) {
	hub := NewHub()
	stalled := newTestConn("alice")
	stalled.send = make(chan []byte) // unbuffered, nobody reading
	hub.Register(stalled)
	hub.Join(stalled, "chat:c1")

	// Must not block.
	hub.Broadcast("chat:c1", EventMessageReceived, map[string]string{"text": "hi"}, nil)
}

func TestRemoveConnIsIdempotent(t *testing.T) {
	hub := NewHub()
	conn := newTestConn("alice")
	hub.Register(conn)
	hub.Join(conn, "user:alice")
	hub.Join(conn, "chat:c1")
	hub.Join(conn, "group:g1")

	hub.RemoveConn(conn)

	assert.Equal(t, 0, hub.SessionCount("alice"))
	assert.Equal(t, 0, hub.RoomSize("user:alice"))
	assert.Equal(t, 0, hub.RoomSize("chat:c1"))
	assert.Equal(t, 0, hub.RoomSize("group:g1"))

	// Second removal finds nothing to do.
	hub.RemoveConn(conn)
	assert.Equal(t, 0, hub.SessionCount("alice"))
}

func TestRemoveConnKeepsOtherSubscribers(t *testing.T) {
	hub := NewHub()
	alice := newTestConn("alice")
	bob := newTestConn("bob")
	hub.Register(alice)
	hub.Register(bob)
	hub.Join(alice, "chat:c1")
	hub.Join(bob, "chat:c1")

	hub.RemoveConn(alice)

	assert.Equal(t, 1, hub.RoomSize("chat:c1"))
	hub.Broadcast("chat:c1", EventMessageReceived, map[string]string{"text": "hi"}, nil)
	assert.Len(t, bob.send, 1)
}
