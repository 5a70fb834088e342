package models

import "time"

type Post struct {
	ID          string    `db:"id" json:"id"`
	Text        string    `db:"text" json:"text"`
	Name        string    `db:"name" json:"name"`
	StoragePath string    `db:"storage_path" json:"storage_path"`
	Photos      []string  `db:"photos" json:"photos"`
	Videos      []string  `db:"videos" json:"videos"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`

	IsPublishedVK        bool `db:"is_published_vk" json:"is_published_vk"`
	IsPublishedTelegram  bool `db:"is_published_telegram" json:"is_published_telegram"`
	IsPublishedInstagram bool `db:"is_published_instagram" json:"is_published_instagram"`

	PublishedVKAt        *time.Time `db:"published_vk_at" json:"published_vk_at"`
	PublishedTelegramAt  *time.Time `db:"published_telegram_at" json:"published_telegram_at"`
	PublishedInstagramAt *time.Time `db:"published_instagram_at" json:"published_instagram_at"`
}

// IsPublished reports the publication flag for the given platform.
func (p *Post) IsPublished(platform string) bool {
	switch platform {
	case PlatformVK:
		return p.IsPublishedVK
	case PlatformTelegram:
		return p.IsPublishedTelegram
	case PlatformInstagram:
		return p.IsPublishedInstagram
	}
	return false
}

// PublishedAt returns the publication timestamp for the given platform.
func (p *Post) PublishedAt(platform string) *time.Time {
	switch platform {
	case PlatformVK:
		return p.PublishedVKAt
	case PlatformTelegram:
		return p.PublishedTelegramAt
	case PlatformInstagram:
		return p.PublishedInstagramAt
	}
	return nil
}

type PublicationLog struct {
	ID        int64     `db:"id" json:"id"`
	PostID    string    `db:"post_id" json:"post_id"`
	Platform  string    `db:"platform" json:"platform"`
	Status    string    `db:"status" json:"status"`
	Message   string    `db:"message" json:"message"`
	Timestamp time.Time `db:"timestamp" json:"timestamp"`
}

const (
	LogStatusSuccess = "success"
	LogStatusError   = "error"
)
