package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/avkravtsov/crosspost/internal/models"
	"github.com/avkravtsov/crosspost/internal/repository"
	"github.com/avkravtsov/crosspost/internal/transfer"
)

type PostService interface {
	Create(ctx context.Context, pc *transfer.PostCreation) (*models.Post, error)
	Get(ctx context.Context, postID string) (*models.Post, error)
	Logs(ctx context.Context, postID string) ([]*models.PublicationLog, error)
	List(ctx context.Context, skip, limit int, search string) ([]*models.Post, error)
	Update(ctx context.Context, postID string, pu *transfer.PostUpdate) (*models.Post, error)
	Remove(ctx context.Context, postID string) error
}

type postService struct {
	pr       repository.PostRepository
	lr       repository.PublicationLogRepository
	mediaDir string
}

func NewPostService(pr repository.PostRepository, lr repository.PublicationLogRepository, mediaDir string) PostService {
	return &postService{
		pr:       pr,
		lr:       lr,
		mediaDir: mediaDir,
	}
}

func (s *postService) Create(ctx context.Context, pc *transfer.PostCreation) (*models.Post, error) {
	if pc == nil || pc.Text == "" {
		slog.Info("rejected post creation with empty text")
		return nil, ErrEmptyText
	}

	now := time.Now()
	name := GeneratePostName(pc.Text)

	post := &models.Post{
		ID:          uuid.NewString(),
		Text:        pc.Text,
		Name:        name,
		StoragePath: StoragePath(name, now),
		Photos:      emptyIfNil(pc.Photos),
		Videos:      emptyIfNil(pc.Videos),
	}

	if _, err := s.pr.Create(ctx, nil, post); err != nil {
		return nil, fmt.Errorf("error creating post: %w", err)
	}

	if err := s.writeSideStorage(post); err != nil {
		// The row exists; side-storage failures are logged, not fatal.
		slog.Info(err.Error())
	}

	return s.pr.GetByID(ctx, post.ID)
}

func (s *postService) Get(ctx context.Context, postID string) (*models.Post, error) {
	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrNotFound
	}
	return post, nil
}

func (s *postService) Logs(ctx context.Context, postID string) ([]*models.PublicationLog, error) {
	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrNotFound
	}
	return s.lr.ListByPostID(ctx, postID)
}

func (s *postService) List(ctx context.Context, skip, limit int, search string) ([]*models.Post, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	if skip < 0 {
		skip = 0
	}
	return s.pr.List(ctx, skip, limit, search)
}

func (s *postService) Update(ctx context.Context, postID string, pu *transfer.PostUpdate) (*models.Post, error) {
	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrNotFound
	}

	rewriteText := false
	rewriteMedia := false

	if pu.Text != nil {
		if *pu.Text == "" {
			return nil, ErrEmptyText
		}
		post.Text = *pu.Text
		post.Name = GeneratePostName(post.Text)
		rewriteText = true
	}
	if pu.Photos != nil {
		post.Photos = pu.Photos
		rewriteMedia = true
	}
	if pu.Videos != nil {
		post.Videos = pu.Videos
		rewriteMedia = true
	}

	if err := s.pr.Update(ctx, post); err != nil {
		return nil, fmt.Errorf("error updating post: %w", err)
	}

	if rewriteText {
		if err := s.writeTextFile(post); err != nil {
			slog.Info(err.Error())
		}
	}
	if rewriteMedia {
		if err := s.writeMediaManifest(post); err != nil {
			slog.Info(err.Error())
		}
	}

	return s.pr.GetByID(ctx, postID)
}

func (s *postService) Remove(ctx context.Context, postID string) error {
	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post == nil {
		return ErrNotFound
	}

	if err := s.pr.Remove(ctx, postID); err != nil {
		return fmt.Errorf("error removing post: %w", err)
	}

	if post.StoragePath != "" {
		if err := os.RemoveAll(filepath.Join(s.mediaDir, post.StoragePath)); err != nil {
			slog.Info(err.Error())
		}
	}

	return nil
}

func (s *postService) writeSideStorage(post *models.Post) error {
	if err := s.writeTextFile(post); err != nil {
		return err
	}
	return s.writeMediaManifest(post)
}

func (s *postService) writeTextFile(post *models.Post) error {
	dir := filepath.Join(s.mediaDir, post.StoragePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("error creating post directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "text.txt"), []byte(post.Text), 0o644); err != nil {
		return fmt.Errorf("error writing post text file: %w", err)
	}
	return nil
}

func (s *postService) writeMediaManifest(post *models.Post) error {
	dir := filepath.Join(s.mediaDir, post.StoragePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("error creating post directory: %w", err)
	}

	manifest := transfer.MediaManifest{
		Photos: emptyIfNil(post.Photos),
		Videos: emptyIfNil(post.Videos),
	}
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshalling media manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "media.json"), data, 0o644); err != nil {
		return fmt.Errorf("error writing media manifest: %w", err)
	}
	return nil
}

func emptyIfNil(refs []string) []string {
	if refs == nil {
		return []string{}
	}
	return refs
}
