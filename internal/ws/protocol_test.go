package ws

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campuschat/internal/domain"
)

func TestSendIntentEmpty(t *testing.T) {
	blank := ""
	text := "hi"
	fileID := int64(3)

	assert.True(t, SendIntent{}.Empty())
	assert.True(t, SendIntent{Text: &blank}.Empty())
	assert.False(t, SendIntent{Text: &text}.Empty())
	assert.False(t, SendIntent{AttachmentFileID: &fileID}.Empty())
}

func TestSendIntentIsGroup(t *testing.T) {
	assert.False(t, SendIntent{ChatID: "c1"}.IsGroup())
	assert.True(t, SendIntent{GroupID: "g1"}.IsGroup())
}

func TestEncodeRoundTrip(t *testing.T) {
	frame, err := Encode(EventNotification, NotificationPayload{ChatID: "c1", SenderID: "alice"})
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, json.Unmarshal(frame, &env))
	assert.Equal(t, EventNotification, env.Event)

	var p NotificationPayload
	require.NoError(t, json.Unmarshal(env.Data, &p))
	assert.Equal(t, "c1", p.ChatID)
	assert.Equal(t, "alice", p.SenderID)
}

func TestNotificationTextFallback(t *testing.T) {
	text := "see attachment"
	fileID := int64(9)

	withText := &domain.Message{Text: &text, AttachmentFileID: &fileID}
	assert.Equal(t, "see attachment", notificationText(withText))

	attachmentOnly := &domain.Message{AttachmentFileID: &fileID}
	assert.Equal(t, "Sent a message", notificationText(attachmentOnly))
}
