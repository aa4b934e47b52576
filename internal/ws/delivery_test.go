package ws

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"campuschat/internal/domain"
)

type MockChatStore struct {
	mock.Mock
}

func (m *MockChatStore) Create(ctx context.Context, p1, p2 string) (*domain.Chat, bool, error) {
	args := m.Called(ctx, p1, p2)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*domain.Chat), args.Bool(1), args.Error(2)
}

func (m *MockChatStore) GetByID(ctx context.Context, id string) (*domain.Chat, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Chat), args.Error(1)
}

func (m *MockChatStore) GetByPair(ctx context.Context, a, b string) (*domain.Chat, error) {
	args := m.Called(ctx, a, b)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Chat), args.Error(1)
}

func (m *MockChatStore) ListForUser(ctx context.Context, userID string) ([]*domain.ChatSummary, error) {
	return nil, nil
}

func (m *MockChatStore) MarkRead(ctx context.Context, chatID, readerID string) error {
	args := m.Called(ctx, chatID, readerID)
	return args.Error(0)
}

func (m *MockChatStore) Touch(ctx context.Context, chatID string) error {
	args := m.Called(ctx, chatID)
	return args.Error(0)
}

func (m *MockChatStore) UnreadSummary(ctx context.Context, userID string) (map[string]int, error) {
	return nil, nil
}

type MockMessageStore struct {
	mock.Mock
}

func (m *MockMessageStore) Append(ctx context.Context, msg *domain.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MockMessageStore) History(ctx context.Context, chatID string) ([]*domain.Message, error) {
	return nil, nil
}

type MockGroupStore struct {
	mock.Mock
}

func (m *MockGroupStore) GetByID(ctx context.Context, id string) (*domain.Group, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Group), args.Error(1)
}

func (m *MockGroupStore) IsMember(ctx context.Context, groupID, userID string) (bool, error) {
	args := m.Called(ctx, groupID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockGroupStore) ListForUser(ctx context.Context, userID string) ([]*domain.Group, error) {
	return nil, nil
}

func (m *MockGroupStore) Touch(ctx context.Context, groupID string) error {
	args := m.Called(ctx, groupID)
	return args.Error(0)
}

type MockGroupMessageStore struct {
	mock.Mock
}

func (m *MockGroupMessageStore) Append(ctx context.Context, msg *domain.GroupMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MockGroupMessageStore) History(ctx context.Context, groupID string) ([]*domain.GroupMessage, error) {
	return nil, nil
}

type broadcastCall struct {
	room    string
	event   string
	payload any
	exclude *Conn
}

type recordingRooms struct {
	calls []broadcastCall
}

func (r *recordingRooms) Broadcast(roomID, event string, payload any, exclude *Conn) {
	r.calls = append(r.calls, broadcastCall{room: roomID, event: event, payload: payload, exclude: exclude})
}

type deliveryFixture struct {
	chats     *MockChatStore
	messages  *MockMessageStore
	groups    *MockGroupStore
	groupMsgs *MockGroupMessageStore
	rooms     *recordingRooms
	delivery  *Delivery
}

func newDeliveryFixture() *deliveryFixture {
	f := &deliveryFixture{
		chats:     new(MockChatStore),
		messages:  new(MockMessageStore),
		groups:    new(MockGroupStore),
		groupMsgs: new(MockGroupMessageStore),
		rooms:     &recordingRooms{},
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.delivery = NewDelivery(f.chats, f.messages, f.groups, f.groupMsgs, f.rooms, 15*time.Second, log)
	return f
}

func strptr(s string) *string { return &s }

func TestSendDirect(t *testing.T) {
	sender := newTestConn("alice")
	chat := &domain.Chat{ID: "c1", Participant1: "alice", Participant2: "bob"}

	t.Run("Success", func(t *testing.T) {
		f := newDeliveryFixture()
		f.chats.On("GetByID", mock.Anything, "c1").Return(chat, nil)
		f.messages.On("Append", mock.Anything, mock.AnythingOfType("*domain.Message")).
			Run(func(args mock.Arguments) {
				m := args.Get(1).(*domain.Message)
				m.ID = "m1"
				m.CreatedAt = time.Now().UTC()
			}).Return(nil)
		f.chats.On("Touch", mock.Anything, "c1").Return(nil)

		err := f.delivery.HandleSendIntent(context.Background(), sender, SendIntent{
			ChatID: "c1",
			Text:   strptr("hi bob"),
		})
		require.NoError(t, err)
		require.Len(t, f.rooms.calls, 2)

		room := f.rooms.calls[0]
		assert.Equal(t, "chat:c1", room.room)
		assert.Equal(t, EventMessageReceived, room.event)
		assert.Same(t, sender, room.exclude)
		msg := room.payload.(*domain.Message)
		assert.Equal(t, "m1", msg.ID)
		assert.Equal(t, "alice", msg.SenderID)
		assert.Equal(t, "bob", msg.ReceiverID)
		assert.Equal(t, "User alice", msg.SenderName)

		personal := f.rooms.calls[1]
		assert.Equal(t, "user:bob", personal.room)
		assert.Equal(t, EventNotification, personal.event)
		assert.Nil(t, personal.exclude)
		notif := personal.payload.(NotificationPayload)
		assert.Equal(t, "c1", notif.ChatID)
		assert.Equal(t, "alice", notif.SenderID)
		assert.Equal(t, "hi bob", notif.Text)

		f.chats.AssertExpectations(t)
		f.messages.AssertExpectations(t)
	})

	t.Run("ResolvesByRecipient", func(t *testing.T) {
		f := newDeliveryFixture()
		f.chats.On("GetByPair", mock.Anything, "alice", "bob").Return(chat, nil)
		f.messages.On("Append", mock.Anything, mock.Anything).Return(nil)
		f.chats.On("Touch", mock.Anything, "c1").Return(nil)

		err := f.delivery.HandleSendIntent(context.Background(), sender, SendIntent{
			RecipientID: "bob",
			Text:        strptr("hi"),
		})
		require.NoError(t, err)
		assert.Len(t, f.rooms.calls, 2)
		f.chats.AssertExpectations(t)
	})

	t.Run("AttachmentOnlyNotificationFallback", func(t *testing.T) {
		f := newDeliveryFixture()
		fileID := int64(7)
		f.chats.On("GetByID", mock.Anything, "c1").Return(chat, nil)
		f.messages.On("Append", mock.Anything, mock.Anything).Return(nil)
		f.chats.On("Touch", mock.Anything, "c1").Return(nil)

		err := f.delivery.HandleSendIntent(context.Background(), sender, SendIntent{
			ChatID:           "c1",
			AttachmentFileID: &fileID,
			AttachmentName:   strptr("notes.pdf"),
		})
		require.NoError(t, err)
		require.Len(t, f.rooms.calls, 2)
		notif := f.rooms.calls[1].payload.(NotificationPayload)
		assert.Equal(t, "Sent a message", notif.Text)
	})

	t.Run("EmptyIntent", func(t *testing.T) {
		f := newDeliveryFixture()

		err := f.delivery.HandleSendIntent(context.Background(), sender, SendIntent{
			ChatID: "c1",
			Text:   strptr(""),
		})
		assert.ErrorIs(t, err, domain.ErrEmptyMessage)
		assert.Empty(t, f.rooms.calls)
		f.chats.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
		f.messages.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
	})

	t.Run("UnknownChat", func(t *testing.T) {
		f := newDeliveryFixture()
		f.chats.On("GetByID", mock.Anything, "missing").Return(nil, domain.ErrNotFound)

		err := f.delivery.HandleSendIntent(context.Background(), sender, SendIntent{
			ChatID: "missing",
			Text:   strptr("hi"),
		})
		assert.ErrorIs(t, err, domain.ErrChatNotFound)
		assert.Empty(t, f.rooms.calls)
	})

	t.Run("NoChatReference", func(t *testing.T) {
		f := newDeliveryFixture()

		err := f.delivery.HandleSendIntent(context.Background(), sender, SendIntent{
			Text: strptr("hi"),
		})
		assert.ErrorIs(t, err, domain.ErrChatNotFound)
	})

	t.Run("NotParticipant", func(t *testing.T) {
		f := newDeliveryFixture()
		foreign := &domain.Chat{ID: "c2", Participant1: "bob", Participant2: "carol"}
		f.chats.On("GetByID", mock.Anything, "c2").Return(foreign, nil)

		err := f.delivery.HandleSendIntent(context.Background(), sender, SendIntent{
			ChatID: "c2",
			Text:   strptr("hi"),
		})
		assert.ErrorIs(t, err, domain.ErrForbidden)
		assert.Empty(t, f.rooms.calls)
		f.messages.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
	})

	t.Run("StoreTimeout", func(t *testing.T) {
		f := newDeliveryFixture()
		f.chats.On("GetByID", mock.Anything, "c1").Return(chat, nil)
		f.messages.On("Append", mock.Anything, mock.Anything).Return(context.DeadlineExceeded)

		err := f.delivery.HandleSendIntent(context.Background(), sender, SendIntent{
			ChatID: "c1",
			Text:   strptr("hi"),
		})
		assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
		assert.Empty(t, f.rooms.calls)
	})
}

func TestSendToGroup(t *testing.T) {
	sender := newTestConn("alice")
	group := &domain.Group{ID: "g1", Name: "Algorithms", AdminID: "prof"}

	t.Run("Success", func(t *testing.T) {
		f := newDeliveryFixture()
		f.groups.On("GetByID", mock.Anything, "g1").Return(group, nil)
		f.groups.On("IsMember", mock.Anything, "g1", "alice").Return(true, nil)
		f.groupMsgs.On("Append", mock.Anything, mock.AnythingOfType("*domain.GroupMessage")).
			Run(func(args mock.Arguments) {
				m := args.Get(1).(*domain.GroupMessage)
				m.ID = "gm1"
				m.CreatedAt = time.Now().UTC()
			}).Return(nil)
		f.groups.On("Touch", mock.Anything, "g1").Return(nil)

		err := f.delivery.HandleSendIntent(context.Background(), sender, SendIntent{
			GroupID: "g1",
			Text:    strptr("hello all"),
		})
		require.NoError(t, err)

		// One room broadcast, no personal-room notifications, sender included.
		require.Len(t, f.rooms.calls, 1)
		call := f.rooms.calls[0]
		assert.Equal(t, "group:g1", call.room)
		assert.Equal(t, EventGroupMessage, call.event)
		assert.Nil(t, call.exclude)
		msg := call.payload.(*domain.GroupMessage)
		assert.Equal(t, "gm1", msg.ID)
		assert.Equal(t, "alice", msg.SenderID)
	})

	t.Run("NotAMember", func(t *testing.T) {
		f := newDeliveryFixture()
		f.groups.On("GetByID", mock.Anything, "g1").Return(group, nil)
		f.groups.On("IsMember", mock.Anything, "g1", "alice").Return(false, nil)

		err := f.delivery.HandleSendIntent(context.Background(), sender, SendIntent{
			GroupID: "g1",
			Text:    strptr("hello"),
		})
		assert.ErrorIs(t, err, domain.ErrNotAMember)
		assert.Empty(t, f.rooms.calls)
		f.groupMsgs.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
	})

	t.Run("GroupNotFound", func(t *testing.T) {
		f := newDeliveryFixture()
		f.groups.On("GetByID", mock.Anything, "missing").Return(nil, domain.ErrNotFound)

		err := f.delivery.HandleSendIntent(context.Background(), sender, SendIntent{
			GroupID: "missing",
			Text:    strptr("hello"),
		})
		assert.ErrorIs(t, err, domain.ErrGroupNotFound)
		assert.Empty(t, f.rooms.calls)
	})

	t.Run("StoreTimeout", func(t *testing.T) {
		f := newDeliveryFixture()
		f.groups.On("GetByID", mock.Anything, "g1").Return(group, nil)
		f.groups.On("IsMember", mock.Anything, "g1", "alice").Return(true, nil)
		f.groupMsgs.On("Append", mock.Anything, mock.Anything).Return(context.DeadlineExceeded)

		err := f.delivery.HandleSendIntent(context.Background(), sender, SendIntent{
			GroupID: "g1",
			Text:    strptr("hello"),
		})
		assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
		assert.Empty(t, f.rooms.calls)
	})
}
