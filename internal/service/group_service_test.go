package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"campuschat/internal/domain"
	"campuschat/internal/service"
)

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
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Group), args.Error(1)
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
	args := m.Called(ctx, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.GroupMessage), args.Error(1)
}

func TestGroupHistory(t *testing.T) {
	group := &domain.Group{ID: "g1", Name: "Algorithms", AdminID: "prof"}

	t.Run("Success", func(t *testing.T) {
		groups := new(MockGroupStore)
		messages := new(MockGroupMessageStore)
		svc := service.NewGroupService(groups, messages)

		text := "welcome"
		history := []*domain.GroupMessage{{ID: "gm1", GroupID: "g1", SenderID: "prof", Text: &text}}
		groups.On("GetByID", mock.Anything, "g1").Return(group, nil)
		groups.On("IsMember", mock.Anything, "g1", "alice").Return(true, nil)
		messages.On("History", mock.Anything, "g1").Return(history, nil)

		msgs, err := svc.History(context.Background(), "g1", "alice")
		assert.NoError(t, err)
		assert.Len(t, msgs, 1)
	})

	t.Run("AdminWithoutMembershipRow", func(t *testing.T) {
		groups := new(MockGroupStore)
		messages := new(MockGroupMessageStore)
		svc := service.NewGroupService(groups, messages)

		groups.On("GetByID", mock.Anything, "g1").Return(group, nil)
		// The store resolves admin access inside IsMember.
		groups.On("IsMember", mock.Anything, "g1", "prof").Return(true, nil)
		messages.On("History", mock.Anything, "g1").Return([]*domain.GroupMessage{}, nil)

		_, err := svc.History(context.Background(), "g1", "prof")
		assert.NoError(t, err)
	})

	t.Run("UnknownGroup", func(t *testing.T) {
		groups := new(MockGroupStore)
		svc := service.NewGroupService(groups, new(MockGroupMessageStore))

		groups.On("GetByID", mock.Anything, "missing").Return(nil, domain.ErrNotFound)

		_, err := svc.History(context.Background(), "missing", "alice")
		assert.ErrorIs(t, err, domain.ErrGroupNotFound)
	})

	t.Run("NotAMember", func(t *testing.T) {
		groups := new(MockGroupStore)
		messages := new(MockGroupMessageStore)
		svc := service.NewGroupService(groups, messages)

		groups.On("GetByID", mock.Anything, "g1").Return(group, nil)
		groups.On("IsMember", mock.Anything, "g1", "eve").Return(false, nil)

		_, err := svc.History(context.Background(), "g1", "eve")
		assert.ErrorIs(t, err, domain.ErrNotAMember)
		messages.AssertNotCalled(t, "History", mock.Anything, mock.Anything)
	})
}
