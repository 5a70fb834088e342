package publisher

import (
	"context"
	"errors"

	"github.com/avkravtsov/crosspost/internal/models"
)

// ErrNoMedia is returned when a platform cannot publish the entity
// without media (Instagram has no text-only posts, stories always
// need an image).
var ErrNoMedia = errors.New("no media to publish")

// Publisher is the per-platform publish capability. Implementations
// perform the platform calls only; publication flags and logs are
// written by the orchestrating service.
type Publisher interface {
	// PublishPost uploads the post's media and text to the platform.
	PublishPost(ctx context.Context, post *models.Post) error

	// PublishStory posts the story's composited image. The returned
	// link points at the published story where the platform exposes
	// one; it may be empty.
	PublishStory(ctx context.Context, story *models.Story) (string, error)
}

// Registry maps platform identifiers to their publisher.
type Registry map[string]Publisher

func NewRegistry(vk, telegram, instagram Publisher) Registry {
	return Registry{
		models.PlatformVK:        vk,
		models.PlatformTelegram:  telegram,
		models.PlatformInstagram: instagram,
	}
}

func (r Registry) Get(platform string) (Publisher, bool) {
	p, ok := r[platform]
	return p, ok
}
