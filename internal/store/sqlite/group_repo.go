package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"campuschat/internal/domain"
)

type GroupRepo struct {
	db *sql.DB
}

func NewGroupRepo(db *sql.DB) *GroupRepo {
	return &GroupRepo{db: db}
}

var _ domain.GroupStore = (*GroupRepo)(nil)

func (r *GroupRepo) GetByID(ctx context.Context, id string) (*domain.Group, error) {
	g := &domain.Group{}
	err := r.db.QueryRowContext(ctx, `
		SELECT group_id, name, admin_id, created_at, updated_at
		FROM groups WHERE group_id = ?
	`, id).Scan(&g.ID, &g.Name, &g.AdminID, &g.CreatedAt, &g.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get group: %w", err)
	}
	return g, nil
}

// IsMember is true for membership rows and for the group admin.
func (r *GroupRepo) IsMember(ctx context.Context, groupID, userID string) (bool, error) {
	var isMember bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM group_members WHERE group_id = ? AND user_id = ?
		) OR EXISTS (
			SELECT 1 FROM groups WHERE group_id = ? AND admin_id = ?
		)
	`, groupID, userID, groupID, userID).Scan(&isMember)
	if err != nil {
		return false, fmt.Errorf("check group membership: %w", err)
	}
	return isMember, nil
}

func (r *GroupRepo) ListForUser(ctx context.Context, userID string) ([]*domain.Group, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT g.group_id, g.name, g.admin_id, g.created_at, g.updated_at
		FROM groups g
		LEFT JOIN group_members gm ON gm.group_id = g.group_id
		WHERE gm.user_id = ? OR g.admin_id = ?
		ORDER BY g.updated_at DESC
	`, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	defer rows.Close()

	var res []*domain.Group
	for rows.Next() {
		g := &domain.Group{}
		if err := rows.Scan(&g.ID, &g.Name, &g.AdminID, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan group: %w", err)
		}
		res = append(res, g)
	}
	return res, rows.Err()
}

func (r *GroupRepo) Touch(ctx context.Context, groupID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE groups SET updated_at = ? WHERE group_id = ?
	`, time.Now().UTC(), groupID)
	return err
}
