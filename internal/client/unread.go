package client

import (
	"context"
	"sync"
)

// ReadMarker persists the read state for a conversation, typically by
// calling the mark-read endpoint.
type ReadMarker interface {
	MarkRead(ctx context.Context, conversationID string) error
}

// UnreadTracker keeps per-conversation unread counts on the client side.
// Counts grow on incoming signals for conversations the user is not
// currently viewing and reset when a conversation is opened.
type UnreadTracker struct {
	mu     sync.Mutex
	counts map[string]int
	active string
	marker ReadMarker
	selfID string
}

func NewUnreadTracker(selfID string, marker ReadMarker) *UnreadTracker {
	return &UnreadTracker{
		counts: make(map[string]int),
		marker: marker,
		selfID: selfID,
	}
}

// Seed replaces all counts with a server-provided summary, typically on
// login or reconnect.
func (t *UnreadTracker) Seed(counts map[string]int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.counts = make(map[string]int, len(counts))
	for id, n := range counts {
		if id == t.active {
			continue
		}
		t.counts[id] = n
	}
}

// HandleNotification records an unread signal for a one-to-one chat.
// Signals for the conversation currently open are ignored.
func (t *UnreadTracker) HandleNotification(chatID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if chatID == t.active {
		return
	}
	t.counts[chatID]++
}

// HandleGroupMessage records an unread signal for a group thread. The
// user's own broadcast echo never counts.
func (t *UnreadTracker) HandleGroupMessage(groupID, senderID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if groupID == t.active || senderID == t.selfID {
		return
	}
	t.counts[groupID]++
}

// Open marks a one-to-one chat as the conversation being viewed, clears
// its unread count and persists the read state exactly once per
// transition. Opening the chat that is already active is a no-op.
func (t *UnreadTracker) Open(ctx context.Context, chatID string) error {
	if !t.activate(chatID) {
		return nil
	}
	t.mu.Lock()
	marker := t.marker
	t.mu.Unlock()

	if marker == nil {
		return nil
	}
	return marker.MarkRead(ctx, chatID)
}

// OpenGroup marks a group thread as the conversation being viewed. Groups
// carry no server-side read state, so only the local count resets.
func (t *UnreadTracker) OpenGroup(groupID string) {
	t.activate(groupID)
}

// activate switches the viewed conversation and reports whether that was
// a transition.
func (t *UnreadTracker) activate(conversationID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active == conversationID {
		return false
	}
	t.active = conversationID
	delete(t.counts, conversationID)
	return true
}

// Close clears the active conversation so later signals count again.
func (t *UnreadTracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.active = ""
}

// Count returns the unread count for one conversation.
func (t *UnreadTracker) Count(conversationID string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.counts[conversationID]
}

// Total returns the sum across all conversations.
func (t *UnreadTracker) Total() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	total := 0
	for _, n := range t.counts {
		total += n
	}
	return total
}
