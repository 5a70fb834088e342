package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/avkravtsov/crosspost/internal/models"
)

type StoryRepository interface {
	Create(ctx context.Context, tx *sql.Tx, story *models.Story) (string, error)
	GetByID(ctx context.Context, id string) (*models.Story, error)
	GetByPostAndPlatform(ctx context.Context, postID, platform string) (*models.Story, error)
	List(ctx context.Context, skip, limit int) ([]*models.Story, error)
	SetPublished(ctx context.Context, storyID, postLink string, publishedAt time.Time) error
}

type storyRepository struct {
	db *sql.DB
}

func NewStoryRepository(db *sql.DB) StoryRepository {
	return &storyRepository{db: db}
}

const storyColumns = `id, post_id, platform, model_name, price, media_file_id,
	post_link, is_published, published_at, created_at`

func scanStory(row interface{ Scan(...any) error }) (*models.Story, error) {
	var story models.Story
	err := row.Scan(
		&story.ID, &story.PostID, &story.Platform, &story.ModelName, &story.Price,
		&story.MediaFileID, &story.PostLink, &story.IsPublished, &story.PublishedAt,
		&story.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &story, nil
}

func (r *storyRepository) Create(ctx context.Context, tx *sql.Tx, story *models.Story) (string, error) {
	query := `
		INSERT INTO stories (id, post_id, platform, model_name, price, media_file_id, post_link)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	var id string
	var err error

	args := []any{story.ID, story.PostID, story.Platform, story.ModelName, story.Price, story.MediaFileID, story.PostLink}
	if tx != nil {
		err = tx.QueryRowContext(ctx, query, args...).Scan(&id)
	} else {
		err = r.db.QueryRowContext(ctx, query, args...).Scan(&id)
	}
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}

	return id, nil
}

func (r *storyRepository) GetByID(ctx context.Context, id string) (*models.Story, error) {
	query := `SELECT ` + storyColumns + ` FROM stories WHERE id = $1`
	story, err := scanStory(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return story, nil
}

func (r *storyRepository) GetByPostAndPlatform(ctx context.Context, postID, platform string) (*models.Story, error) {
	query := `SELECT ` + storyColumns + ` FROM stories WHERE post_id = $1 AND platform = $2`
	story, err := scanStory(r.db.QueryRowContext(ctx, query, postID, platform))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return story, nil
}

func (r *storyRepository) List(ctx context.Context, skip, limit int) ([]*models.Story, error) {
	query := `SELECT ` + storyColumns + ` FROM stories ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, query, limit, skip)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var stories []*models.Story
	for rows.Next() {
		story, err := scanStory(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		stories = append(stories, story)
	}
	return stories, rows.Err()
}

func (r *storyRepository) SetPublished(ctx context.Context, storyID, postLink string, publishedAt time.Time) error {
	query := `
		UPDATE stories
		SET is_published = TRUE,
			published_at = $1,
			post_link = CASE WHEN $2 <> '' THEN $2 ELSE post_link END
		WHERE id = $3
	`
	_, err := r.db.ExecContext(ctx, query, publishedAt, postLink, storyID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
