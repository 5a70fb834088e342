package models

import "time"

type Story struct {
	ID          string     `db:"id" json:"id"`
	PostID      string     `db:"post_id" json:"post_id"`
	Platform    string     `db:"platform" json:"platform"`
	ModelName   string     `db:"model_name" json:"model_name"`
	Price       string     `db:"price" json:"price"`
	MediaFileID string     `db:"media_file_id" json:"media_file_id"`
	PostLink    string     `db:"post_link" json:"post_link"`
	IsPublished bool       `db:"is_published" json:"is_published"`
	PublishedAt *time.Time `db:"published_at" json:"published_at"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

type StoryPublicationLog struct {
	ID        int64     `db:"id" json:"id"`
	StoryID   string    `db:"story_id" json:"story_id"`
	Status    string    `db:"status" json:"status"`
	Message   string    `db:"message" json:"message"`
	Timestamp time.Time `db:"timestamp" json:"timestamp"`
}
