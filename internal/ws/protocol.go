package ws

import (
	"encoding/json"
	"time"

	"campuschat/internal/domain"
)

// Client → server events.
const (
	EventJoinUser         = "join_user"
	EventJoinChat         = "join_chat"
	EventJoinGroup        = "join_group"
	EventSendMessage      = "send_message"
	EventSendGroupMessage = "send_group_message"
)

// Server → client events.
const (
	EventMessageReceived = "message_received"
	EventGroupMessage    = "group_message"
	EventNotification    = "notification"
	EventMessageError    = "message_error"
)

// Envelope is the wire frame: an event name and its payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type JoinUserPayload struct {
	UserID string `json:"user_id"`
}

type JoinChatPayload struct {
	ChatID string `json:"chat_id"`
}

type JoinGroupPayload struct {
	GroupID string `json:"group_id"`
}

// SendIntent is a client-submitted request to deliver a message, prior to
// validation and persistence. GroupID set means a group intent; otherwise
// the intent is one-to-one and needs ChatID or RecipientID to resolve.
type SendIntent struct {
	ChatID           string  `json:"chat_id,omitempty"`
	RecipientID      string  `json:"recipient_id,omitempty"`
	GroupID          string  `json:"group_id,omitempty"`
	Text             *string `json:"text,omitempty"`
	AttachmentFileID *int64  `json:"attachment_file_id,omitempty"`
	AttachmentType   *string `json:"attachment_type,omitempty"`
	AttachmentName   *string `json:"attachment_name,omitempty"`
}

// IsGroup reports whether the intent targets a group thread.
func (in SendIntent) IsGroup() bool { return in.GroupID != "" }

// Empty reports whether the intent carries neither text nor attachment.
func (in SendIntent) Empty() bool {
	return (in.Text == nil || *in.Text == "") && in.AttachmentFileID == nil
}

// NotificationPayload is the cross-conversation unread signal sent to the
// recipient's personal room on every one-to-one delivery.
type NotificationPayload struct {
	ChatID     string    `json:"chat_id"`
	SenderID   string    `json:"sender_id"`
	SenderName string    `json:"sender_name"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"created_at"`
}

type ErrorPayload struct {
	Error string `json:"error"`
}

// Encode builds a wire frame from an event name and payload.
func Encode(event string, payload any) ([]byte, error) {
	var data json.RawMessage
	if payload != nil {
		var err error
		data, err = json.Marshal(payload)
		if err != nil {
			return nil, err
		}
	}
	return json.Marshal(Envelope{Event: event, Data: data})
}

// notificationText is what the unread signal carries for attachment-only
// messages.
func notificationText(m *domain.Message) string {
	if m.Text != nil && *m.Text != "" {
		return *m.Text
	}
	return "Sent a message"
}
