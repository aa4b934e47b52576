package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"campuschat/internal/domain"
	"campuschat/internal/security"
	"campuschat/internal/service"
)

type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) Create(ctx context.Context, u *domain.User) error {
	args := m.Called(ctx, u)
	if args.Error(0) == nil {
		u.ID = "generated-id"
	}
	return args.Error(0)
}

func (m *MockUserStore) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserStore) ListByRole(ctx context.Context, role string) ([]*domain.User, error) {
	args := m.Called(ctx, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.User), args.Error(1)
}

func newAuthService(users domain.UserStore) (*service.AuthService, *security.PasswordHasher) {
	tokenSvc := security.NewTokenService("secret", time.Hour)
	hasher := security.NewPasswordHasher(4) // low cost for tests
	return service.NewAuthService(users, tokenSvc, hasher), hasher
}

func TestRegister(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		users := new(MockUserStore)
		svc, _ := newAuthService(users)

		users.On("GetByEmail", mock.Anything, "new@campus.edu").Return(nil, domain.ErrNotFound)
		users.On("Create", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
			return u.Email == "new@campus.edu" && u.Role == domain.RoleStudent && u.Status == domain.StatusActive
		})).Return(nil)

		user, err := svc.Register(context.Background(), service.RegisterInput{
			FullName: "New User",
			Email:    "new@campus.edu",
			Password: "Password1!",
		})
		assert.NoError(t, err)
		assert.NotNil(t, user)
		assert.NotEqual(t, "Password1!", user.HashedPassword)
		users.AssertExpectations(t)
	})

	t.Run("EmailTaken", func(t *testing.T) {
		users := new(MockUserStore)
		svc, _ := newAuthService(users)

		existing := &domain.User{ID: "u1", Email: "taken@campus.edu"}
		users.On("GetByEmail", mock.Anything, "taken@campus.edu").Return(existing, nil)

		user, err := svc.Register(context.Background(), service.RegisterInput{
			FullName: "Someone",
			Email:    "taken@campus.edu",
			Password: "Password1!",
		})
		assert.ErrorIs(t, err, domain.ErrConflict)
		assert.Nil(t, user)
	})

	t.Run("MissingFields", func(t *testing.T) {
		users := new(MockUserStore)
		svc, _ := newAuthService(users)

		_, err := svc.Register(context.Background(), service.RegisterInput{
			Email: "no-name@campus.edu",
		})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
		users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("UnknownRole", func(t *testing.T) {
		users := new(MockUserStore)
		svc, _ := newAuthService(users)

		_, err := svc.Register(context.Background(), service.RegisterInput{
			FullName: "Someone",
			Email:    "x@campus.edu",
			Password: "Password1!",
			Role:     "janitor",
		})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestLogin(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		users := new(MockUserStore)
		svc, hasher := newAuthService(users)

		hashed, _ := hasher.Hash("Password1!")
		user := &domain.User{
			ID:             "u1",
			FullName:       "Alice",
			Email:          "alice@campus.edu",
			HashedPassword: hashed,
			Role:           domain.RoleStudent,
			Status:         domain.StatusActive,
		}
		users.On("GetByEmail", mock.Anything, "alice@campus.edu").Return(user, nil)

		resp, err := svc.Login(context.Background(), service.LoginInput{
			Email:    "alice@campus.edu",
			Password: "Password1!",
		})
		assert.NoError(t, err)
		assert.NotEmpty(t, resp.AccessToken)
		assert.Equal(t, "bearer", resp.TokenType)
		assert.Equal(t, user, resp.User)
	})

	t.Run("WrongPassword", func(t *testing.T) {
		users := new(MockUserStore)
		svc, hasher := newAuthService(users)

		hashed, _ := hasher.Hash("Password1!")
		user := &domain.User{ID: "u1", Email: "alice@campus.edu", HashedPassword: hashed, Status: domain.StatusActive}
		users.On("GetByEmail", mock.Anything, "alice@campus.edu").Return(user, nil)

		resp, err := svc.Login(context.Background(), service.LoginInput{
			Email:    "alice@campus.edu",
			Password: "wrong",
		})
		assert.ErrorIs(t, err, domain.ErrAuthRejected)
		assert.Nil(t, resp)
	})

	t.Run("UnknownEmail", func(t *testing.T) {
		users := new(MockUserStore)
		svc, _ := newAuthService(users)

		users.On("GetByEmail", mock.Anything, "ghost@campus.edu").Return(nil, domain.ErrNotFound)

		resp, err := svc.Login(context.Background(), service.LoginInput{
			Email:    "ghost@campus.edu",
			Password: "whatever",
		})
		assert.ErrorIs(t, err, domain.ErrAuthRejected)
		assert.Nil(t, resp)
	})

	t.Run("InactiveUser", func(t *testing.T) {
		users := new(MockUserStore)
		svc, hasher := newAuthService(users)

		hashed, _ := hasher.Hash("Password1!")
		user := &domain.User{ID: "u1", Email: "gone@campus.edu", HashedPassword: hashed, Status: domain.StatusDisabled}
		users.On("GetByEmail", mock.Anything, "gone@campus.edu").Return(user, nil)

		resp, err := svc.Login(context.Background(), service.LoginInput{
			Email:    "gone@campus.edu",
			Password: "Password1!",
		})
		assert.ErrorIs(t, err, domain.ErrAuthRejected)
		assert.Nil(t, resp)
	})
}
