package service

import (
	"context"
	"errors"
	"fmt"

	"campuschat/internal/domain"
	"campuschat/internal/security"
)

// AuthService handles registration and login. Both the HTTP middleware and
// the WebSocket handshake verify the tokens issued here, so the two paths
// resolve to the same identity.
type AuthService struct {
	users  domain.UserStore
	tokens *security.TokenService
	hash   *security.PasswordHasher
}

func NewAuthService(users domain.UserStore, tokens *security.TokenService, hash *security.PasswordHasher) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		hash:   hash,
	}
}

type RegisterInput struct {
	FullName string
	Email    string
	Password string
	Role     string
}

type LoginInput struct {
	Email    string
	Password string
}

type TokenResponse struct {
	AccessToken string
	TokenType   string
	User        *domain.User
}

func validRole(role string) bool {
	switch role {
	case domain.RoleStudent, domain.RoleInstructor, domain.RoleAdmin:
		return true
	}
	return false
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	if in.FullName == "" || in.Email == "" || in.Password == "" {
		return nil, fmt.Errorf("%w: full name, email and password are required", domain.ErrInvalidInput)
	}
	if in.Role == "" {
		in.Role = domain.RoleStudent
	}
	if !validRole(in.Role) {
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrInvalidInput, in.Role)
	}

	existing, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if existing != nil {
		return nil, domain.ErrConflict
	}

	hashed, err := s.hash.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		FullName:       in.FullName,
		Email:          in.Email,
		HashedPassword: hashed,
		Role:           in.Role,
		Status:         domain.StatusActive,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (*TokenResponse, error) {
	user, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrAuthRejected
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil || user.Status != domain.StatusActive {
		return nil, domain.ErrAuthRejected
	}

	if err := s.hash.Verify(in.Password, user.HashedPassword); err != nil {
		return nil, domain.ErrAuthRejected
	}

	token, err := s.tokens.CreateForUser(user.ID)
	if err != nil {
		return nil, fmt.Errorf("create token: %w", err)
	}

	return &TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        user,
	}, nil
}
