package service

import (
	"context"
	"errors"
	"fmt"

	"campuschat/internal/domain"
)

// GroupService covers the HTTP side of group threads. Group membership is
// managed by the surrounding platform; this service only reads it.
type GroupService struct {
	groups   domain.GroupStore
	messages domain.GroupMessageStore
}

func NewGroupService(groups domain.GroupStore, messages domain.GroupMessageStore) *GroupService {
	return &GroupService{
		groups:   groups,
		messages: messages,
	}
}

func (s *GroupService) ListForUser(ctx context.Context, userID string) ([]*domain.Group, error) {
	return s.groups.ListForUser(ctx, userID)
}

func (s *GroupService) History(ctx context.Context, groupID, userID string) ([]*domain.GroupMessage, error) {
	if _, err := s.groups.GetByID(ctx, groupID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrGroupNotFound
		}
		return nil, fmt.Errorf("get group: %w", err)
	}
	isMember, err := s.groups.IsMember(ctx, groupID, userID)
	if err != nil {
		return nil, fmt.Errorf("check membership: %w", err)
	}
	if !isMember {
		return nil, domain.ErrNotAMember
	}
	return s.messages.History(ctx, groupID)
}
