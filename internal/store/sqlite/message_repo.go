package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

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
	m.IsRead = false
	m.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO messages
			(message_id, chat_id, sender_id, receiver_id, text,
			 attachment_file_id, attachment_type, attachment_name, is_read, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, ?)
	`, m.ID, m.ChatID, m.SenderID, m.ReceiverID, m.Text,
		m.AttachmentFileID, m.AttachmentType, m.AttachmentName, m.CreatedAt)
	if err != nil {
		m.ID = ""
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

func (r *MessageRepo) History(ctx context.Context, chatID string) ([]*domain.Message, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT m.message_id, m.chat_id, m.sender_id, m.receiver_id, m.text,
		       m.attachment_file_id, m.attachment_type, m.attachment_name,
		       m.is_read, m.created_at, u.full_name AS sender_name
		FROM messages m
		JOIN users u ON m.sender_id = u.user_id
		WHERE m.chat_id = ?
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
