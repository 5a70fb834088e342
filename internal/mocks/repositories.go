package mocks

import (
	"context"
	"database/sql"
	"time"

	"github.com/avkravtsov/crosspost/internal/models"
)

// MockPostRepository is an in-memory implementation of PostRepository.
type MockPostRepository struct {
	Posts       map[string]*models.Post
	CreateError error
	UpdateError error
	SetPubError error
	SetPubCalls int
	RemovedIDs  []string
	ListFunc    func(ctx context.Context, skip, limit int, search string) ([]*models.Post, error)
}

func NewMockPostRepository() *MockPostRepository {
	return &MockPostRepository{Posts: make(map[string]*models.Post)}
}

func (m *MockPostRepository) Create(ctx context.Context, tx *sql.Tx, post *models.Post) (string, error) {
	if m.CreateError != nil {
		return "", m.CreateError
	}
	cp := *post
	m.Posts[post.ID] = &cp
	return post.ID, nil
}

func (m *MockPostRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	post, ok := m.Posts[id]
	if !ok {
		return nil, nil
	}
	cp := *post
	return &cp, nil
}

func (m *MockPostRepository) List(ctx context.Context, skip, limit int, search string) ([]*models.Post, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, skip, limit, search)
	}
	posts := make([]*models.Post, 0, len(m.Posts))
	for _, p := range m.Posts {
		cp := *p
		posts = append(posts, &cp)
	}
	return posts, nil
}

func (m *MockPostRepository) Update(ctx context.Context, post *models.Post) error {
	if m.UpdateError != nil {
		return m.UpdateError
	}
	cp := *post
	m.Posts[post.ID] = &cp
	return nil
}

func (m *MockPostRepository) SetPublished(ctx context.Context, platform, postID string, publishedAt time.Time) error {
	m.SetPubCalls++
	if m.SetPubError != nil {
		return m.SetPubError
	}
	post, ok := m.Posts[postID]
	if !ok {
		return sql.ErrNoRows
	}
	at := publishedAt
	switch platform {
	case models.PlatformVK:
		post.IsPublishedVK = true
		post.PublishedVKAt = &at
	case models.PlatformTelegram:
		post.IsPublishedTelegram = true
		post.PublishedTelegramAt = &at
	case models.PlatformInstagram:
		post.IsPublishedInstagram = true
		post.PublishedInstagramAt = &at
	}
	return nil
}

func (m *MockPostRepository) Remove(ctx context.Context, id string) error {
	delete(m.Posts, id)
	m.RemovedIDs = append(m.RemovedIDs, id)
	return nil
}

// MockPublicationLogRepository records publication log entries in memory.
type MockPublicationLogRepository struct {
	Entries     []*models.PublicationLog
	CreateError error
	nextID      int64
}

func NewMockPublicationLogRepository() *MockPublicationLogRepository {
	return &MockPublicationLogRepository{}
}

func (m *MockPublicationLogRepository) Create(ctx context.Context, entry *models.PublicationLog) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if m.CreateError != nil {
		return 0, m.CreateError
	}
	m.nextID++
	cp := *entry
	cp.ID = m.nextID
	cp.Timestamp = time.Now().UTC()
	m.Entries = append(m.Entries, &cp)
	return cp.ID, nil
}

func (m *MockPublicationLogRepository) ListByPostID(ctx context.Context, postID string) ([]*models.PublicationLog, error) {
	var entries []*models.PublicationLog
	for _, e := range m.Entries {
		if e.PostID == postID {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

// MockStoryRepository is an in-memory implementation of StoryRepository.
type MockStoryRepository struct {
	Stories     map[string]*models.Story
	CreateError error
	SetPubError error
	SetPubCalls int
}

func NewMockStoryRepository() *MockStoryRepository {
	return &MockStoryRepository{Stories: make(map[string]*models.Story)}
}

func (m *MockStoryRepository) Create(ctx context.Context, tx *sql.Tx, story *models.Story) (string, error) {
	if m.CreateError != nil {
		return "", m.CreateError
	}
	cp := *story
	m.Stories[story.ID] = &cp
	return story.ID, nil
}

func (m *MockStoryRepository) GetByID(ctx context.Context, id string) (*models.Story, error) {
	story, ok := m.Stories[id]
	if !ok {
		return nil, nil
	}
	cp := *story
	return &cp, nil
}

func (m *MockStoryRepository) GetByPostAndPlatform(ctx context.Context, postID, platform string) (*models.Story, error) {
	for _, s := range m.Stories {
		if s.PostID == postID && s.Platform == platform {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MockStoryRepository) List(ctx context.Context, skip, limit int) ([]*models.Story, error) {
	stories := make([]*models.Story, 0, len(m.Stories))
	for _, s := range m.Stories {
		cp := *s
		stories = append(stories, &cp)
	}
	return stories, nil
}

func (m *MockStoryRepository) SetPublished(ctx context.Context, storyID, postLink string, publishedAt time.Time) error {
	m.SetPubCalls++
	if m.SetPubError != nil {
		return m.SetPubError
	}
	story, ok := m.Stories[storyID]
	if !ok {
		return sql.ErrNoRows
	}
	at := publishedAt
	story.IsPublished = true
	story.PublishedAt = &at
	if postLink != "" {
		story.PostLink = postLink
	}
	return nil
}

// MockStoryLogRepository records story publication log entries in memory.
type MockStoryLogRepository struct {
	Entries     []*models.StoryPublicationLog
	CreateError error
	nextID      int64
}

func NewMockStoryLogRepository() *MockStoryLogRepository {
	return &MockStoryLogRepository{}
}

func (m *MockStoryLogRepository) Create(ctx context.Context, entry *models.StoryPublicationLog) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if m.CreateError != nil {
		return 0, m.CreateError
	}
	m.nextID++
	cp := *entry
	cp.ID = m.nextID
	cp.Timestamp = time.Now().UTC()
	m.Entries = append(m.Entries, &cp)
	return cp.ID, nil
}

func (m *MockStoryLogRepository) ListByStoryID(ctx context.Context, storyID string) ([]*models.StoryPublicationLog, error) {
	var entries []*models.StoryPublicationLog
	for _, e := range m.Entries {
		if e.StoryID == storyID {
			entries = append(entries, e)
		}
	}
	return entries, nil
}
