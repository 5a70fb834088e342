package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/avkravtsov/crosspost/internal/models"
)

type StoryLogRepository interface {
	Create(ctx context.Context, entry *models.StoryPublicationLog) (int64, error)
	ListByStoryID(ctx context.Context, storyID string) ([]*models.StoryPublicationLog, error)
}

type storyLogRepository struct {
	db *sql.DB
}

func NewStoryLogRepository(db *sql.DB) StoryLogRepository {
	return &storyLogRepository{db: db}
}

func (r *storyLogRepository) Create(ctx context.Context, entry *models.StoryPublicationLog) (int64, error) {
	query := `
		INSERT INTO story_publication_logs (story_id, status, message)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query, entry.StoryID, entry.Status, entry.Message).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *storyLogRepository) ListByStoryID(ctx context.Context, storyID string) ([]*models.StoryPublicationLog, error) {
	query := `
		SELECT id, story_id, status, message, timestamp
		FROM story_publication_logs
		WHERE story_id = $1
		ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, query, storyID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var entries []*models.StoryPublicationLog
	for rows.Next() {
		var entry models.StoryPublicationLog
		err := rows.Scan(&entry.ID, &entry.StoryID, &entry.Status, &entry.Message, &entry.Timestamp)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}
