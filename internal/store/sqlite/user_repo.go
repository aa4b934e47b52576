package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"campuschat/internal/domain"
)

type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	u.ID = uuid.NewString()
	u.CreatedAt = time.Now().UTC()

	const q = `
		INSERT INTO users (user_id, full_name, email, hashed_password, role, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, q,
		u.ID, u.FullName, u.Email, u.HashedPassword, u.Role, u.Status, u.CreatedAt)
	if err != nil {
		u.ID = ""
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return domain.ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getBy(ctx, "user_id", id)
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getBy(ctx, "email", email)
}

func (r *UserRepo) getBy(ctx context.Context, column, value string) (*domain.User, error) {
	q := fmt.Sprintf(`
		SELECT user_id, full_name, email, hashed_password, role, status, created_at
		FROM users WHERE %s = ?`, column)

	var u domain.User
	err := r.db.QueryRowContext(ctx, q, value).Scan(
		&u.ID, &u.FullName, &u.Email, &u.HashedPassword, &u.Role, &u.Status, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select user: %w", err)
	}
	return &u, nil
}

func (r *UserRepo) ListByRole(ctx context.Context, role string) ([]*domain.User, error) {
	const q = `
		SELECT user_id, full_name, email, hashed_password, role, status, created_at
		FROM users
		WHERE role = ? AND status = ?
		ORDER BY full_name`

	rows, err := r.db.QueryContext(ctx, q, role, domain.StatusActive)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.FullName, &u.Email, &u.HashedPassword, &u.Role, &u.Status, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, &u)
	}
	return users, rows.Err()
}
