package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/avkravtsov/crosspost/internal/models"
)

type PublicationLogRepository interface {
	Create(ctx context.Context, entry *models.PublicationLog) (int64, error)
	ListByPostID(ctx context.Context, postID string) ([]*models.PublicationLog, error)
}

type publicationLogRepository struct {
	db *sql.DB
}

func NewPublicationLogRepository(db *sql.DB) PublicationLogRepository {
	return &publicationLogRepository{db: db}
}

func (r *publicationLogRepository) Create(ctx context.Context, entry *models.PublicationLog) (int64, error) {
	query := `
		INSERT INTO publication_logs (post_id, platform, status, message)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query, entry.PostID, entry.Platform, entry.Status, entry.Message).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *publicationLogRepository) ListByPostID(ctx context.Context, postID string) ([]*models.PublicationLog, error) {
	query := `
		SELECT id, post_id, platform, status, message, timestamp
		FROM publication_logs
		WHERE post_id = $1
		ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, query, postID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var entries []*models.PublicationLog
	for rows.Next() {
		var entry models.PublicationLog
		err := rows.Scan(&entry.ID, &entry.PostID, &entry.Platform, &entry.Status, &entry.Message, &entry.Timestamp)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}
