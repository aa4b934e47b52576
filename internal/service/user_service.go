package service

import (
	"context"
	"fmt"

	"campuschat/internal/domain"
)

// UserService provides the contact lists a user may start a chat from.
type UserService struct {
	users domain.UserStore
}

func NewUserService(users domain.UserStore) *UserService {
	return &UserService{users: users}
}

func (s *UserService) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

// Contacts lists active users of the given role. Students reach
// instructors and admins, instructors reach students; the caller's role
// picks which list it asks for.
func (s *UserService) Contacts(ctx context.Context, role string) ([]*domain.User, error) {
	switch role {
	case domain.RoleStudent, domain.RoleInstructor, domain.RoleAdmin:
	default:
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrInvalidInput, role)
	}
	return s.users.ListByRole(ctx, role)
}
