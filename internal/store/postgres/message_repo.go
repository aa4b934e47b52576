package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"campuschat/internal/domain"
)

type MessageRepo struct {
	db *sql.DB
}

func NewMessageRepo(db *sql.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

var _ domain.MessageStore = (*MessageRepo)(nil)

func (r *MessageRepo) Append(ctx context.Context, m *domain.Message) error {
	m.ID = uuid.NewString()
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO messages
			(message_id, chat_id, sender_id, receiver_id, text,
			 attachment_file_id, attachment_type, attachment_name, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, FALSE, NOW())
		RETURNING created_at
	`, m.ID, m.ChatID, m.SenderID, m.ReceiverID, m.Text,
		m.AttachmentFileID, m.AttachmentType, m.AttachmentName,
	).Scan(&m.CreatedAt)
	if err != nil {
		m.ID = ""
		return fmt.Errorf("insert message: %w", err)
	}
	m.IsRead = false
	return nil
}

func (r *MessageRepo) History(ctx context.Context, chatID string) ([]*domain.Message, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT m.message_id, m.chat_id, m.sender_id, m.receiver_id, m.text,
		       m.attachment_file_id, m.attachment_type, m.attachment_name,
		       m.is_read, m.created_at, u.full_name AS sender_name
		FROM messages m
		JOIN users u ON m.sender_id = u.user_id
		WHERE m.chat_id = $1
		ORDER BY m.created_at ASC, m.message_id ASC
	`, chatID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return scanMessages(rows)
}

func scanMessages(rows *sql.Rows) ([]*domain.Message, error) {
	defer rows.Close()
	var res []*domain.Message
	for rows.Next() {
		m := &domain.Message{}
		if err := rows.Scan(
			&m.ID, &m.ChatID, &m.SenderID, &m.ReceiverID, &m.Text,
			&m.AttachmentFileID, &m.AttachmentType, &m.AttachmentName,
			&m.IsRead, &m.CreatedAt, &m.SenderName,
		); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		res = append(res, m)
	}
	return res, rows.Err()
}
