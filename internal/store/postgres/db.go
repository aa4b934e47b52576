package postgres

import (
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Open opens a PostgreSQL database using the pgx stdlib driver.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// Migrate runs idempotent DDL migrations for the campuschat schema.
func Migrate(db *sql.DB) error {
	stmts := []string{
		// Users
		`CREATE TABLE IF NOT EXISTS users (
			user_id         UUID         PRIMARY KEY,
			full_name       VARCHAR(100) NOT NULL,
			email           VARCHAR(100) UNIQUE NOT NULL,
			hashed_password VARCHAR(255) NOT NULL,
			role            VARCHAR(20)  NOT NULL DEFAULT 'student',
			status          VARCHAR(20)  NOT NULL DEFAULT 'active',
			created_at      TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		)`,

		// Attachment blobs, served by id
		`CREATE TABLE IF NOT EXISTS files (
			file_id    BIGSERIAL   PRIMARY KEY,
			filename   TEXT        NOT NULL,
			mime_type  TEXT        NOT NULL,
			data       BYTEA       NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		// One-to-one chats; the participant pair is stored sorted
		`CREATE TABLE IF NOT EXISTS chats (
			chat_id      UUID        PRIMARY KEY,
			participant1 UUID        NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
			participant2 UUID        NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
			created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT unique_chat_pair UNIQUE (participant1, participant2)
		)`,

		// One-to-one messages
		`CREATE TABLE IF NOT EXISTS messages (
			message_id         UUID        PRIMARY KEY,
			chat_id            UUID        NOT NULL REFERENCES chats(chat_id) ON DELETE CASCADE,
			sender_id          UUID        NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
			receiver_id        UUID        NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
			text               TEXT,
			attachment_file_id BIGINT      REFERENCES files(file_id),
			attachment_type    VARCHAR(50),
			attachment_name    TEXT,
			is_read            BOOLEAN     NOT NULL DEFAULT FALSE,
			created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		// Groups and membership
		`CREATE TABLE IF NOT EXISTS groups (
			group_id   UUID         PRIMARY KEY,
			name       VARCHAR(100) NOT NULL,
			admin_id   UUID         NOT NULL REFERENCES users(user_id),
			created_at TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS group_members (
			group_id  UUID        NOT NULL REFERENCES groups(group_id) ON DELETE CASCADE,
			user_id   UUID        NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
			joined_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (group_id, user_id)
		)`,

		// Group messages: no per-recipient read state
		`CREATE TABLE IF NOT EXISTS group_messages (
			message_id         UUID        PRIMARY KEY,
			group_id           UUID        NOT NULL REFERENCES groups(group_id) ON DELETE CASCADE,
			sender_id          UUID        NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
			text               TEXT,
			attachment_file_id BIGINT      REFERENCES files(file_id),
			attachment_type    VARCHAR(50),
			attachment_name    TEXT,
			created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		// Indexes
		`CREATE INDEX IF NOT EXISTS idx_users_email ON users(email)`,
		`CREATE INDEX IF NOT EXISTS idx_users_role ON users(role)`,
		`CREATE INDEX IF NOT EXISTS idx_chats_updated_at ON chats(updated_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_chat ON messages(chat_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_unread ON messages(receiver_id) WHERE is_read = FALSE`,
		`CREATE INDEX IF NOT EXISTS idx_group_members_user ON group_members(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_group_messages_group ON group_messages(group_id, created_at)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w\nSQL: %s", err, stmt)
		}
	}
	return nil
}
