package ws

import (
	"log/slog"
	"sync"
)

// Hub owns the session registry (identity → live connections) and the room
// registry (room id → subscribed connections). It is constructed once at
// process start and passed by handle to every connection handler; all
// mutation happens under its mutex, and no lock is ever held across a
// store call.
type Hub struct {
	mu sync.RWMutex

	// sessions maps a user id to that identity's live connections.
	sessions map[string]map[*Conn]struct{}
	// rooms maps a room id to its subscriber set.
	rooms map[string]map[*Conn]struct{}
	// joined mirrors each connection's room set for teardown.
	joined map[*Conn]map[string]struct{}
}

func NewHub() *Hub {
	return &Hub{
		sessions: make(map[string]map[*Conn]struct{}),
		rooms:    make(map[string]map[*Conn]struct{}),
		joined:   make(map[*Conn]map[string]struct{}),
	}
}

// Register binds an authenticated connection into the session registry.
func (h *Hub) Register(c *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	uid := c.user.ID
	if h.sessions[uid] == nil {
		h.sessions[uid] = make(map[*Conn]struct{})
	}
	h.sessions[uid][c] = struct{}{}
	if h.joined[c] == nil {
		h.joined[c] = make(map[string]struct{})
	}
}

// Join subscribes the connection to a room, creating the room entry
// lazily. Joining twice is a no-op.
func (h *Hub) Join(c *Conn, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[*Conn]struct{})
	}
	h.rooms[roomID][c] = struct{}{}
	if h.joined[c] == nil {
		h.joined[c] = make(map[string]struct{})
	}
	h.joined[c][roomID] = struct{}{}
}

// Leave removes the connection from a room. Leaving a room that does not
// exist, or was never joined, is a no-op.
func (h *Hub) Leave(c *Conn, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(c, roomID)
}

func (h *Hub) leaveLocked(c *Conn, roomID string) {
	if subs, ok := h.rooms[roomID]; ok {
		delete(subs, c)
		if len(subs) == 0 {
			delete(h.rooms, roomID)
		}
	}
	if rooms, ok := h.joined[c]; ok {
		delete(rooms, roomID)
	}
}

// RemoveConn tears a connection out of every room and the session
// registry. Safe to call more than once; the second call finds nothing to
// remove.
func (h *Hub) RemoveConn(c *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for roomID := range h.joined[c] {
		h.leaveLocked(c, roomID)
	}
	delete(h.joined, c)

	uid := c.user.ID
	if conns, ok := h.sessions[uid]; ok {
		delete(conns, c)
		if len(conns) == 0 {
			delete(h.sessions, uid)
		}
	}
}

// Broadcast delivers event/payload to every connection subscribed to the
// room, except exclude (may be nil). Delivery is at-most-once per
// subscriber and fire-and-forget: a stalled connection's frame is dropped,
// never queued or retried. Within one room, sequential Broadcast calls
// reach each subscriber in call order.
func (h *Hub) Broadcast(roomID, event string, payload any, exclude *Conn) {
	frame, err := Encode(event, payload)
	if err != nil {
		slog.Error("ws: encode broadcast", "event", event, "room", roomID, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.rooms[roomID] {
		if c == exclude {
			continue
		}
		if !c.enqueue(frame) {
			slog.Debug("ws: dropped frame for stalled connection",
				"room", roomID, "event", event, "conn", c.ID)
		}
	}
}

// RoomSize returns the number of connections subscribed to a room.
func (h *Hub) RoomSize(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

// SessionCount returns the number of live connections for an identity.
func (h *Hub) SessionCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[userID])
}
