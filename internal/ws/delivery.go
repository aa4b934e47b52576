package ws

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"campuschat/internal/domain"
)

// RoomBroadcaster is the slice of the hub the delivery engine needs.
type RoomBroadcaster interface {
	Broadcast(roomID, event string, payload any, exclude *Conn)
}

// Delivery validates send intents, persists them through the store
// gateway, and fans them out to the relevant rooms. Append and broadcast
// are two separate steps with no atomicity between them: a message that
// was stored but whose fan-out reached nobody is recovered from history
// on the next fetch.
type Delivery struct {
	chats     domain.ChatStore
	messages  domain.MessageStore
	groups    domain.GroupStore
	groupMsgs domain.GroupMessageStore
	rooms     RoomBroadcaster

	storeTimeout time.Duration
	log          *slog.Logger
}

func NewDelivery(
	chats domain.ChatStore,
	messages domain.MessageStore,
	groups domain.GroupStore,
	groupMsgs domain.GroupMessageStore,
	rooms RoomBroadcaster,
	storeTimeout time.Duration,
	log *slog.Logger,
) *Delivery {
	return &Delivery{
		chats:        chats,
		messages:     messages,
		groups:       groups,
		groupMsgs:    groupMsgs,
		rooms:        rooms,
		storeTimeout: storeTimeout,
		log:          log,
	}
}

// HandleSendIntent runs one intent to completion; there is no mid-flight
// cancellation beyond the bounded store timeout. Failures are returned to
// the caller for reporting to the sender only and never reach other
// participants.
func (d *Delivery) HandleSendIntent(ctx context.Context, sender *Conn, intent SendIntent) error {
	if intent.Empty() {
		return domain.ErrEmptyMessage
	}
	if intent.IsGroup() {
		return d.sendToGroup(ctx, sender, intent)
	}
	return d.sendDirect(ctx, sender, intent)
}

func (d *Delivery) sendDirect(ctx context.Context, sender *Conn, intent SendIntent) error {
	user := sender.User()

	// The chat must already exist; conversation creation happens over HTTP
	// before the first send, never implicitly here.
	chat, err := d.resolveChat(ctx, user.ID, intent)
	if err != nil {
		return err
	}
	if !chat.HasParticipant(user.ID) {
		return domain.ErrForbidden
	}
	recipient := chat.Peer(user.ID)

	msg := &domain.Message{
		ChatID:           chat.ID,
		SenderID:         user.ID,
		ReceiverID:       recipient,
		Text:             intent.Text,
		AttachmentFileID: intent.AttachmentFileID,
		AttachmentType:   intent.AttachmentType,
		AttachmentName:   intent.AttachmentName,
		SenderName:       user.FullName,
	}

	appendCtx, cancel := context.WithTimeout(ctx, d.storeTimeout)
	err = d.messages.Append(appendCtx, msg)
	cancel()
	if err != nil {
		return fmt.Errorf("append message: %w", mapStoreErr(err))
	}

	// The sender gets its confirmation through the intent result, not the
	// room channel, so it is excluded here.
	d.rooms.Broadcast(domain.ChatRoom(chat.ID), EventMessageReceived, msg, sender)

	// The personal-room signal is how a recipient not viewing this chat
	// learns a message arrived and bumps its unread counter.
	d.rooms.Broadcast(domain.PersonalRoom(recipient), EventNotification, NotificationPayload{
		ChatID:     chat.ID,
		SenderID:   user.ID,
		SenderName: user.FullName,
		Text:       notificationText(msg),
		CreatedAt:  msg.CreatedAt,
	}, nil)

	d.touchChat(ctx, chat.ID)
	return nil
}

func (d *Delivery) sendToGroup(ctx context.Context, sender *Conn, intent SendIntent) error {
	user := sender.User()

	lookupCtx, cancel := context.WithTimeout(ctx, d.storeTimeout)
	group, err := d.groups.GetByID(lookupCtx, intent.GroupID)
	cancel()
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrGroupNotFound
		}
		return fmt.Errorf("get group: %w", mapStoreErr(err))
	}

	memberCtx, cancel := context.WithTimeout(ctx, d.storeTimeout)
	isMember, err := d.groups.IsMember(memberCtx, group.ID, user.ID)
	cancel()
	if err != nil {
		return fmt.Errorf("check membership: %w", mapStoreErr(err))
	}
	if !isMember {
		return domain.ErrNotAMember
	}

	msg := &domain.GroupMessage{
		GroupID:          group.ID,
		SenderID:         user.ID,
		Text:             intent.Text,
		AttachmentFileID: intent.AttachmentFileID,
		AttachmentType:   intent.AttachmentType,
		AttachmentName:   intent.AttachmentName,
		SenderName:       user.FullName,
	}

	appendCtx, cancel := context.WithTimeout(ctx, d.storeTimeout)
	err = d.groupMsgs.Append(appendCtx, msg)
	cancel()
	if err != nil {
		return fmt.Errorf("append group message: %w", mapStoreErr(err))
	}

	// Group recipients rely solely on the group room: no personal-room
	// notification and no server-side read state for groups.
	d.rooms.Broadcast(domain.GroupRoom(group.ID), EventGroupMessage, msg, nil)

	d.touchGroup(ctx, group.ID)
	return nil
}

func (d *Delivery) resolveChat(ctx context.Context, senderID string, intent SendIntent) (*domain.Chat, error) {
	lookupCtx, cancel := context.WithTimeout(ctx, d.storeTimeout)
	defer cancel()

	var (
		chat *domain.Chat
		err  error
	)
	switch {
	case intent.ChatID != "":
		chat, err = d.chats.GetByID(lookupCtx, intent.ChatID)
	case intent.RecipientID != "":
		chat, err = d.chats.GetByPair(lookupCtx, senderID, intent.RecipientID)
	default:
		return nil, domain.ErrChatNotFound
	}
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrChatNotFound
		}
		return nil, fmt.Errorf("resolve chat: %w", mapStoreErr(err))
	}
	return chat, nil
}

// touchChat bumps last-activity best-effort: the message is already
// delivered, so a failure here is logged and never surfaced to the user.
func (d *Delivery) touchChat(ctx context.Context, chatID string) {
	touchCtx, cancel := context.WithTimeout(ctx, d.storeTimeout)
	defer cancel()
	if err := d.chats.Touch(touchCtx, chatID); err != nil {
		d.log.Warn("touch chat last-activity", "chat_id", chatID, "error", err)
	}
}

func (d *Delivery) touchGroup(ctx context.Context, groupID string) {
	touchCtx, cancel := context.WithTimeout(ctx, d.storeTimeout)
	defer cancel()
	if err := d.groups.Touch(touchCtx, groupID); err != nil {
		d.log.Warn("touch group last-activity", "group_id", groupID, "error", err)
	}
}

// mapStoreErr folds gateway timeouts into the transient-store taxonomy so
// the sender sees a retryable failure.
func mapStoreErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.ErrStoreUnavailable
	}
	return err
}
