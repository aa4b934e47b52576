package domain

import "time"

// User roles. Roles gate which contact lists a user may open a chat from;
// the messaging core itself treats all roles the same.
const (
	RoleStudent    = "student"
	RoleInstructor = "instructor"
	RoleAdmin      = "admin"
)

// User statuses.
const (
	StatusActive   = "active"
	StatusDisabled = "disabled"
)

// User represents an application user.
type User struct {
	ID             string    `db:"user_id" json:"user_id"`
	FullName       string    `db:"full_name" json:"full_name"`
	Email          string    `db:"email" json:"email"`
	HashedPassword string    `db:"hashed_password" json:"-"`
	Role           string    `db:"role" json:"role"`
	Status         string    `db:"status" json:"status"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// Chat is a one-to-one conversation. The participant pair is stored
// sorted so that a pair of users maps to at most one chat.
type Chat struct {
	ID           string    `db:"chat_id" json:"chat_id"`
	Participant1 string    `db:"participant1" json:"participant1"`
	Participant2 string    `db:"participant2" json:"participant2"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// HasParticipant reports whether userID is one of the two participants.
func (c *Chat) HasParticipant(userID string) bool {
	return c.Participant1 == userID || c.Participant2 == userID
}

// Peer returns the other participant of the chat.
func (c *Chat) Peer(userID string) string {
	if c.Participant1 == userID {
		return c.Participant2
	}
	return c.Participant1
}

// ChatSummary is a chat enriched for list views: peer identity, the last
// message text, and the viewer's unread count.
type ChatSummary struct {
	Chat
	PeerID      string  `json:"peer_id"`
	PeerName    string  `json:"peer_name"`
	PeerRole    string  `json:"peer_role"`
	LastMessage *string `json:"last_message"`
	UnreadCount int     `json:"unread_count"`
}

// Group is a many-to-many thread. Membership lives in group_members; the
// group admin counts as a member even without a membership row.
type Group struct {
	ID        string    `db:"group_id" json:"group_id"`
	Name      string    `db:"name" json:"name"`
	AdminID   string    `db:"admin_id" json:"admin_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Message is a durable one-to-one message. At least one of Text and
// AttachmentFileID is required at the intent layer. IsRead only ever
// transitions false to true.
//
// SenderName is not a column of its own; stores populate it from a join
// when loading history, and the delivery engine fills it from the sending
// connection's identity before fan-out.
type Message struct {
	ID               string    `db:"message_id" json:"message_id"`
	ChatID           string    `db:"chat_id" json:"chat_id"`
	SenderID         string    `db:"sender_id" json:"sender_id"`
	ReceiverID       string    `db:"receiver_id" json:"receiver_id"`
	Text             *string   `db:"text" json:"text"`
	AttachmentFileID *int64    `db:"attachment_file_id" json:"attachment_file_id"`
	AttachmentType   *string   `db:"attachment_type" json:"attachment_type"`
	AttachmentName   *string   `db:"attachment_name" json:"attachment_name"`
	IsRead           bool      `db:"is_read" json:"is_read"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`

	SenderName string `db:"sender_name" json:"sender_name,omitempty"`
}

// GroupMessage is a durable group message. Group messages carry no
// per-recipient read state.
type GroupMessage struct {
	ID               string    `db:"message_id" json:"message_id"`
	GroupID          string    `db:"group_id" json:"group_id"`
	SenderID         string    `db:"sender_id" json:"sender_id"`
	Text             *string   `db:"text" json:"text"`
	AttachmentFileID *int64    `db:"attachment_file_id" json:"attachment_file_id"`
	AttachmentType   *string   `db:"attachment_type" json:"attachment_type"`
	AttachmentName   *string   `db:"attachment_name" json:"attachment_name"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`

	SenderName string `db:"sender_name" json:"sender_name,omitempty"`
}

// StoredFile is an uploaded attachment kept in the store and served by id.
type StoredFile struct {
	ID        int64     `db:"file_id" json:"file_id"`
	Filename  string    `db:"filename" json:"filename"`
	MimeType  string    `db:"mime_type" json:"mime_type"`
	Data      []byte    `db:"data" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
