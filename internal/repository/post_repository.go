package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/avkravtsov/crosspost/internal/models"
	"github.com/avkravtsov/crosspost/pkg/utils"
)

type PostRepository interface {
	Create(ctx context.Context, tx *sql.Tx, post *models.Post) (string, error)
	GetByID(ctx context.Context, id string) (*models.Post, error)
	List(ctx context.Context, skip, limit int, search string) ([]*models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	SetPublished(ctx context.Context, platform, postID string, publishedAt time.Time) error
	Remove(ctx context.Context, id string) error
}

type postRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) PostRepository {
	return &postRepository{db: db}
}

const postColumns = `id, text, name, storage_path, photos, videos,
	is_published_vk, is_published_telegram, is_published_instagram,
	published_vk_at, published_telegram_at, published_instagram_at,
	created_at, updated_at`

func scanPost(row interface{ Scan(...any) error }) (*models.Post, error) {
	var post models.Post
	err := row.Scan(
		&post.ID, &post.Text, &post.Name, &post.StoragePath,
		pq.Array(&post.Photos), pq.Array(&post.Videos),
		&post.IsPublishedVK, &post.IsPublishedTelegram, &post.IsPublishedInstagram,
		&post.PublishedVKAt, &post.PublishedTelegramAt, &post.PublishedInstagramAt,
		&post.CreatedAt, &post.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) Create(ctx context.Context, tx *sql.Tx, post *models.Post) (string, error) {
	query := `
		INSERT INTO posts (id, text, name, storage_path, photos, videos)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	var id string
	var err error

	args := []any{post.ID, post.Text, post.Name, post.StoragePath, pq.Array(post.Photos), pq.Array(post.Videos)}
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

func (r *postRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	query := fmt.Sprintf(`SELECT %s FROM posts WHERE id = $1`, postColumns)
	post, err := scanPost(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return post, nil
}

func (r *postRepository) List(ctx context.Context, skip, limit int, search string) ([]*models.Post, error) {
	var (
		conditions []string
		args       []any
	)

	if search != "" {
		args = append(args, "%"+search+"%")
		conditions = append(conditions, fmt.Sprintf("text ILIKE $%d", len(args)))

		// Date-shorthand queries additionally match on the creation date.
		if dq := utils.ParseDateQuery(search); dq != nil {
			var dateConds []string
			if dq.Year != 0 {
				args = append(args, dq.Year)
				dateConds = append(dateConds, fmt.Sprintf("EXTRACT(YEAR FROM created_at) = $%d", len(args)))
			}
			if dq.Month != 0 {
				args = append(args, dq.Month)
				dateConds = append(dateConds, fmt.Sprintf("EXTRACT(MONTH FROM created_at) = $%d", len(args)))
			}
			if dq.Day != 0 {
				args = append(args, dq.Day)
				dateConds = append(dateConds, fmt.Sprintf("EXTRACT(DAY FROM created_at) = $%d", len(args)))
			}
			conditions = append(conditions, "("+strings.Join(dateConds, " AND ")+")")
		}
	}

	query := fmt.Sprintf(`SELECT %s FROM posts`, postColumns)
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " OR ")
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))
	args = append(args, skip)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	query := `
		UPDATE posts
		SET text = $1,
			name = $2,
			photos = $3,
			videos = $4,
			updated_at = $5
		WHERE id = $6
	`
	_, err := r.db.ExecContext(ctx, query,
		post.Text, post.Name, pq.Array(post.Photos), pq.Array(post.Videos), time.Now(), post.ID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postRepository) SetPublished(ctx context.Context, platform, postID string, publishedAt time.Time) error {
	var flagCol, atCol string
	switch platform {
	case models.PlatformVK:
		flagCol, atCol = "is_published_vk", "published_vk_at"
	case models.PlatformTelegram:
		flagCol, atCol = "is_published_telegram", "published_telegram_at"
	case models.PlatformInstagram:
		flagCol, atCol = "is_published_instagram", "published_instagram_at"
	default:
		return fmt.Errorf("unknown platform: %s", platform)
	}

	query := fmt.Sprintf(`
		UPDATE posts
		SET %s = TRUE,
			%s = $1,
			updated_at = $2
		WHERE id = $3
	`, flagCol, atCol)

	_, err := r.db.ExecContext(ctx, query, publishedAt, time.Now(), postID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postRepository) Remove(ctx context.Context, id string) error {
	query := `DELETE FROM posts WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
