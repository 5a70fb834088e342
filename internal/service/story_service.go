package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/avkravtsov/crosspost/internal/models"
	"github.com/avkravtsov/crosspost/internal/repository"
	"github.com/avkravtsov/crosspost/pkg/utils"
)

type StoryService interface {
	Create(ctx context.Context, postID, platform string) (*models.Story, error)
	Get(ctx context.Context, storyID string) (*models.Story, error)
	Logs(ctx context.Context, storyID string) ([]*models.StoryPublicationLog, error)
	List(ctx context.Context, skip, limit int) ([]*models.Story, error)
}

type storyService struct {
	sr repository.StoryRepository
	pr repository.PostRepository
	lr repository.StoryLogRepository
}

func NewStoryService(sr repository.StoryRepository, pr repository.PostRepository, lr repository.StoryLogRepository) StoryService {
	return &storyService{
		sr: sr,
		pr: pr,
		lr: lr,
	}
}

// Create is idempotent per (post, platform): a second call returns the
// existing story instead of creating a duplicate.
func (s *storyService) Create(ctx context.Context, postID, platform string) (*models.Story, error) {
	if !models.IsValidPlatform(platform) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPlatform, platform)
	}

	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrNotFound
	}

	existing, err := s.sr.GetByPostAndPlatform(ctx, postID, platform)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	modelName, price := utils.ExtractModelAndPrice(post.Text)

	var mediaFileID string
	if len(post.Photos) > 0 {
		mediaFileID = post.Photos[0]
	}

	story := &models.Story{
		ID:          uuid.NewString(),
		PostID:      postID,
		Platform:    platform,
		ModelName:   modelName,
		Price:       price,
		MediaFileID: mediaFileID,
	}

	if _, err := s.sr.Create(ctx, nil, story); err != nil {
		return nil, fmt.Errorf("error creating story: %w", err)
	}

	return s.sr.GetByID(ctx, story.ID)
}

func (s *storyService) Get(ctx context.Context, storyID string) (*models.Story, error) {
	story, err := s.sr.GetByID(ctx, storyID)
	if err != nil {
		return nil, err
	}
	if story == nil {
		return nil, ErrNotFound
	}
	return story, nil
}

func (s *storyService) Logs(ctx context.Context, storyID string) ([]*models.StoryPublicationLog, error) {
	story, err := s.sr.GetByID(ctx, storyID)
	if err != nil {
		return nil, err
	}
	if story == nil {
		return nil, ErrNotFound
	}
	return s.lr.ListByStoryID(ctx, storyID)
}

func (s *storyService) List(ctx context.Context, skip, limit int) ([]*models.Story, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	if skip < 0 {
		skip = 0
	}
	return s.sr.List(ctx, skip, limit)
}
