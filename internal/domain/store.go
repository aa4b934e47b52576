package domain

import "context"

// UserStore defines persistence operations for users.
type UserStore interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	ListByRole(ctx context.Context, role string) ([]*User, error)
}

// ChatStore defines persistence operations for one-to-one chats and their
// derived read/unread state.
type ChatStore interface {
	// Create inserts a chat for the sorted participant pair, or returns the
	// existing chat for that pair.
	Create(ctx context.Context, participant1, participant2 string) (*Chat, bool, error)
	GetByID(ctx context.Context, id string) (*Chat, error)
	// GetByPair returns the chat for the participant pair in either order,
	// or ErrNotFound.
	GetByPair(ctx context.Context, userA, userB string) (*Chat, error)
	// ListForUser returns the user's chats ordered by last activity, each
	// enriched with peer identity, last message text, and unread count.
	ListForUser(ctx context.Context, userID string) ([]*ChatSummary, error)
	// MarkRead flips is_read on every message in the chat not sent by the
	// reader. The transition is one-way.
	MarkRead(ctx context.Context, chatID, readerID string) error
	// Touch bumps the chat's last-activity timestamp.
	Touch(ctx context.Context, chatID string) error
	// UnreadSummary returns unread message counts per chat for the user.
	UnreadSummary(ctx context.Context, userID string) (map[string]int, error)
}

// MessageStore defines persistence operations for one-to-one messages.
type MessageStore interface {
	// Append stores the draft, assigning ID and CreatedAt. It either fully
	// succeeds or has no effect.
	Append(ctx context.Context, m *Message) error
	// History returns the chat's messages in chronological order with
	// sender names populated.
	History(ctx context.Context, chatID string) ([]*Message, error)
}

// GroupStore defines read operations on groups and memberships. Group
// administration itself belongs to the surrounding platform.
type GroupStore interface {
	GetByID(ctx context.Context, id string) (*Group, error)
	// IsMember is true for group members and for the group admin.
	IsMember(ctx context.Context, groupID, userID string) (bool, error)
	ListForUser(ctx context.Context, userID string) ([]*Group, error)
	Touch(ctx context.Context, groupID string) error
}

// GroupMessageStore defines persistence operations for group messages.
type GroupMessageStore interface {
	Append(ctx context.Context, m *GroupMessage) error
	History(ctx context.Context, groupID string) ([]*GroupMessage, error)
}

// FileStore holds uploaded attachments, addressable by id.
type FileStore interface {
	Save(ctx context.Context, filename, mimeType string, data []byte) (int64, error)
	Get(ctx context.Context, id int64) (*StoredFile, error)
}
