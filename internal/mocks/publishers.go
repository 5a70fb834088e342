package mocks

import (
	"context"

	"github.com/avkravtsov/crosspost/internal/models"
)

// MockPublisher is a configurable implementation of publisher.Publisher.
type MockPublisher struct {
	PostError        error
	StoryError       error
	StoryLink        string
	PostCalls        []*models.Post
	StoryCalls       []*models.Story
	PublishPostFunc  func(ctx context.Context, post *models.Post) error
	PublishStoryFunc func(ctx context.Context, story *models.Story) (string, error)
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) PublishPost(ctx context.Context, post *models.Post) error {
	m.PostCalls = append(m.PostCalls, post)
	if m.PublishPostFunc != nil {
		return m.PublishPostFunc(ctx, post)
	}
	return m.PostError
}

func (m *MockPublisher) PublishStory(ctx context.Context, story *models.Story) (string, error) {
	m.StoryCalls = append(m.StoryCalls, story)
	if m.PublishStoryFunc != nil {
		return m.PublishStoryFunc(ctx, story)
	}
	return m.StoryLink, m.StoryError
}
