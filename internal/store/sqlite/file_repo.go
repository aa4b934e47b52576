package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"campuschat/internal/domain"
)

type FileRepo struct {
	db *sql.DB
}

func NewFileRepo(db *sql.DB) *FileRepo {
	return &FileRepo{db: db}
}

var _ domain.FileStore = (*FileRepo)(nil)

func (r *FileRepo) Save(ctx context.Context, filename, mimeType string, data []byte) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO files (filename, mime_type, data, created_at)
		VALUES (?, ?, ?, ?)
	`, filename, mimeType, data, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("insert file: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("file id: %w", err)
	}
	return id, nil
}

func (r *FileRepo) Get(ctx context.Context, id int64) (*domain.StoredFile, error) {
	f := &domain.StoredFile{}
	err := r.db.QueryRowContext(ctx, `
		SELECT file_id, filename, mime_type, data, created_at
		FROM files WHERE file_id = ?
	`, id).Scan(&f.ID, &f.Filename, &f.MimeType, &f.Data, &f.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}
	return f, nil
}
