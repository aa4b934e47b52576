package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"campuschat/internal/domain"
)

type GroupMessageRepo struct {
	db *sql.DB
}

func NewGroupMessageRepo(db *sql.DB) *GroupMessageRepo {
	return &GroupMessageRepo{db: db}
}

var _ domain.GroupMessageStore = (*GroupMessageRepo)(nil)

func (r *GroupMessageRepo) Append(ctx context.Context, m *domain.GroupMessage) error {
	m.ID = uuid.NewString()
	m.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO group_messages
			(message_id, group_id, sender_id, text,
			 attachment_file_id, attachment_type, attachment_name, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, m.ID, m.GroupID, m.SenderID, m.Text,
		m.AttachmentFileID, m.AttachmentType, m.AttachmentName, m.CreatedAt)
	if err != nil {
		m.ID = ""
		return fmt.Errorf("insert group message: %w", err)
	}
	return nil
}

func (r *GroupMessageRepo) History(ctx context.Context, groupID string) ([]*domain.GroupMessage, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT m.message_id, m.group_id, m.sender_id, m.text,
		       m.attachment_file_id, m.attachment_type, m.attachment_name,
		       m.created_at, u.full_name AS sender_name
		FROM group_messages m
		JOIN users u ON m.sender_id = u.user_id
		WHERE m.group_id = ?
		ORDER BY m.created_at ASC, m.message_id ASC
	`, groupID)
	if err != nil {
		return nil, fmt.Errorf("list group messages: %w", err)
	}
	defer rows.Close()

	var res []*domain.GroupMessage
	for rows.Next() {
		m := &domain.GroupMessage{}
		if err := rows.Scan(
			&m.ID, &m.GroupID, &m.SenderID, &m.Text,
			&m.AttachmentFileID, &m.AttachmentType, &m.AttachmentName,
			&m.CreatedAt, &m.SenderName,
		); err != nil {
			return nil, fmt.Errorf("scan group message: %w", err)
		}
		res = append(res, m)
	}
	return res, rows.Err()
}
