package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"campuschat/internal/domain"
)

type ChatRepo struct {
	db *sql.DB
}

func NewChatRepo(db *sql.DB) *ChatRepo {
	return &ChatRepo{db: db}
}

var _ domain.ChatStore = (*ChatRepo)(nil)

// sortPair keeps the participant pair in a stable order so one pair of
// users maps to at most one chat row.
func sortPair(a, b string) (string, string) {
	if a > b {
		return b, a
	}
	return a, b
}

func (r *ChatRepo) Create(ctx context.Context, participant1, participant2 string) (*domain.Chat, bool, error) {
	p1, p2 := sortPair(participant1, participant2)

	existing, err := r.GetByPair(ctx, p1, p2)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, false, err
	}

	c := &domain.Chat{
		ID:           uuid.NewString(),
		Participant1: p1,
		Participant2: p2,
	}
	err = r.db.QueryRowContext(ctx, `
		INSERT INTO chats (chat_id, participant1, participant2)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at
	`, c.ID, p1, p2).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, false, fmt.Errorf("insert chat: %w", err)
	}
	return c, true, nil
}

func (r *ChatRepo) GetByID(ctx context.Context, id string) (*domain.Chat, error) {
	c := &domain.Chat{}
	err := r.db.QueryRowContext(ctx, `
		SELECT chat_id, participant1, participant2, created_at, updated_at
		FROM chats WHERE chat_id = $1
	`, id).Scan(&c.ID, &c.Participant1, &c.Participant2, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get chat: %w", err)
	}
	return c, nil
}

func (r *ChatRepo) GetByPair(ctx context.Context, userA, userB string) (*domain.Chat, error) {
	p1, p2 := sortPair(userA, userB)
	c := &domain.Chat{}
	err := r.db.QueryRowContext(ctx, `
		SELECT chat_id, participant1, participant2, created_at, updated_at
		FROM chats WHERE participant1 = $1 AND participant2 = $2
	`, p1, p2).Scan(&c.ID, &c.Participant1, &c.Participant2, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get chat by pair: %w", err)
	}
	return c, nil
}

func (r *ChatRepo) ListForUser(ctx context.Context, userID string) ([]*domain.ChatSummary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT
			c.chat_id, c.participant1, c.participant2, c.created_at, c.updated_at,
			u.user_id, u.full_name, u.role,
			(
				SELECT m.text FROM messages m
				WHERE m.chat_id = c.chat_id
				ORDER BY m.created_at DESC, m.message_id DESC
				LIMIT 1
			) AS last_message,
			(
				SELECT COUNT(*)::int FROM messages m
				WHERE m.chat_id = c.chat_id
				  AND m.is_read = FALSE
				  AND m.sender_id != $1
			) AS unread_count
		FROM chats c
		JOIN users u ON u.user_id = CASE
			WHEN c.participant1 = $1 THEN c.participant2
			ELSE c.participant1
		END
		WHERE $1 IN (c.participant1, c.participant2)
		ORDER BY c.updated_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	defer rows.Close()

	var res []*domain.ChatSummary
	for rows.Next() {
		s := &domain.ChatSummary{}
		if err := rows.Scan(
			&s.ID, &s.Participant1, &s.Participant2, &s.CreatedAt, &s.UpdatedAt,
			&s.PeerID, &s.PeerName, &s.PeerRole,
			&s.LastMessage, &s.UnreadCount,
		); err != nil {
			return nil, fmt.Errorf("scan chat summary: %w", err)
		}
		res = append(res, s)
	}
	return res, rows.Err()
}

func (r *ChatRepo) MarkRead(ctx context.Context, chatID, readerID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE messages SET is_read = TRUE
		WHERE chat_id = $1 AND sender_id != $2 AND is_read = FALSE
	`, chatID, readerID)
	return err
}

func (r *ChatRepo) Touch(ctx context.Context, chatID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE chats SET updated_at = NOW() WHERE chat_id = $1
	`, chatID)
	return err
}

func (r *ChatRepo) UnreadSummary(ctx context.Context, userID string) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT chat_id, COUNT(*)::int
		FROM messages
		WHERE receiver_id = $1 AND is_read = FALSE
		GROUP BY chat_id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("unread summary: %w", err)
	}
	defer rows.Close()

	res := make(map[string]int)
	for rows.Next() {
		var chatID string
		var count int
		if err := rows.Scan(&chatID, &count); err != nil {
			return nil, fmt.Errorf("scan unread count: %w", err)
		}
		res[chatID] = count
	}
	return res, rows.Err()
}
