package service

import (
	"context"
	"errors"
	"fmt"

	"campuschat/internal/domain"
)

// ChatService covers the HTTP side of one-to-one conversations: listing
// with unread summaries, explicit creation before the first send, history
// fetches, and read reconciliation.
type ChatService struct {
	chats    domain.ChatStore
	messages domain.MessageStore
	users    domain.UserStore
}

func NewChatService(chats domain.ChatStore, messages domain.MessageStore, users domain.UserStore) *ChatService {
	return &ChatService{
		chats:    chats,
		messages: messages,
		users:    users,
	}
}

func (s *ChatService) ListForUser(ctx context.Context, userID string) ([]*domain.ChatSummary, error) {
	return s.chats.ListForUser(ctx, userID)
}

// Create returns the chat for the (creator, recipient) pair, creating it
// if needed. The returned bool is true when a new chat row was created.
func (s *ChatService) Create(ctx context.Context, creatorID, recipientID string) (*domain.Chat, bool, error) {
	if recipientID == "" {
		return nil, false, fmt.Errorf("%w: recipient is required", domain.ErrInvalidInput)
	}
	if recipientID == creatorID {
		return nil, false, fmt.Errorf("%w: cannot create chat with yourself", domain.ErrInvalidInput)
	}

	recipient, err := s.users.GetByID(ctx, recipientID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, false, fmt.Errorf("%w: recipient", domain.ErrNotFound)
		}
		return nil, false, fmt.Errorf("get recipient: %w", err)
	}
	if recipient.Status != domain.StatusActive {
		return nil, false, fmt.Errorf("%w: recipient is not active", domain.ErrInvalidInput)
	}

	return s.chats.Create(ctx, creatorID, recipientID)
}

func (s *ChatService) History(ctx context.Context, chatID, userID string) ([]*domain.Message, error) {
	if err := s.requireParticipant(ctx, chatID, userID); err != nil {
		return nil, err
	}
	return s.messages.History(ctx, chatID)
}

func (s *ChatService) MarkRead(ctx context.Context, chatID, userID string) error {
	if err := s.requireParticipant(ctx, chatID, userID); err != nil {
		return err
	}
	return s.chats.MarkRead(ctx, chatID, userID)
}

func (s *ChatService) UnreadSummary(ctx context.Context, userID string) (map[string]int, error) {
	return s.chats.UnreadSummary(ctx, userID)
}

func (s *ChatService) requireParticipant(ctx context.Context, chatID, userID string) error {
	chat, err := s.chats.GetByID(ctx, chatID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrChatNotFound
		}
		return fmt.Errorf("get chat: %w", err)
	}
	if !chat.HasParticipant(userID) {
		return domain.ErrForbidden
	}
	return nil
}
