package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/avkravtsov/crosspost/internal/models"
	"github.com/avkravtsov/crosspost/internal/publisher"
	"github.com/avkravtsov/crosspost/internal/repository"
	"github.com/avkravtsov/crosspost/internal/transfer"
)

// PublishService drives publish attempts to completion and records
// their outcome. Publication state per (entity, platform) moves from
// unpublished to published exactly once; published is terminal.
type PublishService interface {
	PublishPost(ctx context.Context, postID, platform string) (*models.Post, error)
	PublishPostAll(ctx context.Context, postID string) (*models.Post, []transfer.PlatformResult, error)
	PublishStory(ctx context.Context, storyID string) (*models.Story, error)
}

const logWriteTimeout = 10 * time.Second

type publishService struct {
	pr       repository.PostRepository
	lr       repository.PublicationLogRepository
	sr       repository.StoryRepository
	slr      repository.StoryLogRepository
	registry publisher.Registry
	locks    *keyedLock
}

func NewPublishService(
	pr repository.PostRepository,
	lr repository.PublicationLogRepository,
	sr repository.StoryRepository,
	slr repository.StoryLogRepository,
	registry publisher.Registry) PublishService {
	return &publishService{
		pr:       pr,
		lr:       lr,
		sr:       sr,
		slr:      slr,
		registry: registry,
		locks:    newKeyedLock(),
	}
}

func (s *publishService) PublishPost(ctx context.Context, postID, platform string) (*models.Post, error) {
	if !models.IsValidPlatform(platform) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPlatform, platform)
	}

	pub, ok := s.registry.Get(platform)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPlatform, platform)
	}

	// The lock is held across the already-published check and the
	// outcome write so concurrent attempts cannot double-publish.
	lockKey := "post:" + postID + ":" + platform
	s.locks.Lock(lockKey)
	defer s.locks.Unlock(lockKey)

	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrNotFound
	}

	if post.IsPublished(platform) {
		return post, nil
	}

	if err := pub.PublishPost(ctx, post); err != nil {
		s.appendPostLog(postID, platform, models.LogStatusError, err.Error())
		return nil, fmt.Errorf("failed to publish to %s: %w", platform, err)
	}

	if err := s.pr.SetPublished(ctx, platform, postID, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("failed to record publication: %w", err)
	}
	s.appendPostLog(postID, platform, models.LogStatusSuccess, "Published to "+platform)

	return s.pr.GetByID(ctx, postID)
}

// PublishPostAll attempts every not-yet-published platform in fixed
// order. One platform's failure does not prevent attempting the next.
func (s *publishService) PublishPostAll(ctx context.Context, postID string) (*models.Post, []transfer.PlatformResult, error) {
	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return nil, nil, err
	}
	if post == nil {
		return nil, nil, ErrNotFound
	}

	results := make([]transfer.PlatformResult, 0, len(models.Platforms()))
	for _, platform := range models.Platforms() {
		if post.IsPublished(platform) {
			results = append(results, transfer.PlatformResult{Platform: platform, Success: true, Skipped: true})
			continue
		}

		result := transfer.PlatformResult{Platform: platform}
		if _, err := s.PublishPost(ctx, postID, platform); err != nil {
			result.Error = err.Error()
		} else {
			result.Success = true
		}
		results = append(results, result)
	}

	post, err = s.pr.GetByID(ctx, postID)
	if err != nil {
		return nil, results, err
	}
	return post, results, nil
}

func (s *publishService) PublishStory(ctx context.Context, storyID string) (*models.Story, error) {
	lockKey := "story:" + storyID
	s.locks.Lock(lockKey)
	defer s.locks.Unlock(lockKey)

	story, err := s.sr.GetByID(ctx, storyID)
	if err != nil {
		return nil, err
	}
	if story == nil {
		return nil, ErrNotFound
	}

	if story.IsPublished {
		return story, nil
	}

	pub, ok := s.registry.Get(story.Platform)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPlatform, story.Platform)
	}

	postLink, err := pub.PublishStory(ctx, story)
	if err != nil {
		s.appendStoryLog(storyID, models.LogStatusError, err.Error())
		return nil, fmt.Errorf("failed to publish story to %s: %w", story.Platform, err)
	}

	if err := s.sr.SetPublished(ctx, storyID, postLink, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("failed to record story publication: %w", err)
	}
	s.appendStoryLog(storyID, models.LogStatusSuccess, "Published to "+story.Platform)

	return s.sr.GetByID(ctx, storyID)
}

// Log writes must survive a failing attempt, including one whose
// request context is already canceled, so they run on a detached
// context. A failure to write the log itself is only logged.
func (s *publishService) appendPostLog(postID, platform, status, message string) {
	ctx, cancel := context.WithTimeout(context.Background(), logWriteTimeout)
	defer cancel()

	entry := &models.PublicationLog{
		PostID:   postID,
		Platform: platform,
		Status:   status,
		Message:  message,
	}
	if _, err := s.lr.Create(ctx, entry); err != nil {
		slog.Error("failed to append publication log", "post_id", postID, "error", err.Error())
	}
}

func (s *publishService) appendStoryLog(storyID, status, message string) {
	ctx, cancel := context.WithTimeout(context.Background(), logWriteTimeout)
	defer cancel()

	entry := &models.StoryPublicationLog{
		StoryID: storyID,
		Status:  status,
		Message: message,
	}
	if _, err := s.slr.Create(ctx, entry); err != nil {
		slog.Error("failed to append story publication log", "story_id", storyID, "error", err.Error())
	}
}
