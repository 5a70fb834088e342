package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	cfg "github.com/avkravtsov/crosspost/configs"
	"github.com/avkravtsov/crosspost/internal/media"
	"github.com/avkravtsov/crosspost/internal/models"
	"github.com/avkravtsov/crosspost/internal/storyimage"
	"github.com/avkravtsov/crosspost/internal/transfer"
)

type VKPublisher struct {
	config     cfg.VK
	media      *media.Store
	compositor *storyimage.Compositor
	client     *http.Client

	// APIBase is overridable in tests.
	APIBase string
}

func NewVKPublisher(config cfg.VK, store *media.Store, compositor *storyimage.Compositor) *VKPublisher {
	return &VKPublisher{
		config:     config,
		media:      store,
		compositor: compositor,
		client:     &http.Client{Timeout: 5 * time.Minute},
		APIBase:    "https://api.vk.com",
	}
}

func (p *VKPublisher) PublishPost(ctx context.Context, post *models.Post) error {
	var attachments []string

	for _, fileID := range post.Photos {
		attachment, err := p.uploadWallPhoto(ctx, fileID)
		if err != nil {
			slog.Info("skipping photo upload", "file_id", fileID, "error", err.Error())
			continue
		}
		attachments = append(attachments, attachment)
	}

	for _, fileID := range post.Videos {
		attachment, err := p.uploadVideo(ctx, fileID, post.Name, post.Text)
		if err != nil {
			slog.Info("skipping video upload", "file_id", fileID, "error", err.Error())
			continue
		}
		attachments = append(attachments, attachment)
	}

	params := url.Values{}
	params.Set("owner_id", strconv.FormatInt(-p.groupID(), 10))
	params.Set("from_group", "1")
	params.Set("message", post.Text)
	params.Set("attachments", strings.Join(attachments, ","))

	var result json.RawMessage
	if err := p.call(ctx, "wall.post", params, &result); err != nil {
		return fmt.Errorf("failed to post to VK wall: %w", err)
	}
	return nil
}

func (p *VKPublisher) PublishStory(ctx context.Context, story *models.Story) (string, error) {
	if story.MediaFileID == "" {
		return "", fmt.Errorf("%w: story has no media file", ErrNoMedia)
	}

	data, err := p.media.Resolve(ctx, story.MediaFileID)
	if err != nil {
		return "", err
	}

	image, err := p.compositor.Compose(data, story.ModelName, story.Price)
	if err != nil {
		return "", err
	}

	// Story publication is a three-step handshake: request an upload
	// URL, upload the bytes, then register the uploaded story.
	params := url.Values{}
	params.Set("add_to_news", "1")
	params.Set("group_id", strconv.FormatInt(p.groupID(), 10))
	if story.PostLink != "" {
		params.Set("link_url", story.PostLink)
	}

	var server transfer.VKUploadServer
	if err := p.call(ctx, "stories.getPhotoUploadServer", params, &server); err != nil {
		return "", fmt.Errorf("failed to get story upload server: %w", err)
	}
	if server.UploadURL == "" {
		return "", fmt.Errorf("VK returned no story upload URL")
	}

	uploadResult, err := p.uploadStoryFile(ctx, server.UploadURL, image)
	if err != nil {
		return "", fmt.Errorf("failed to upload story: %w", err)
	}

	saveParams := url.Values{}
	saveParams.Set("upload_results", uploadResult)
	saveParams.Set("group_id", strconv.FormatInt(p.groupID(), 10))

	var saved transfer.VKSavedStories
	if err := p.call(ctx, "stories.save", saveParams, &saved); err != nil {
		return "", fmt.Errorf("failed to save story: %w", err)
	}
	if len(saved.Items) == 0 {
		return "", fmt.Errorf("VK did not register the uploaded story")
	}

	item := saved.Items[0]
	return fmt.Sprintf("https://vk.com/stories%d_%d", item.OwnerID, item.ID), nil
}

func (p *VKPublisher) uploadWallPhoto(ctx context.Context, fileID string) (string, error) {
	data, err := p.media.Resolve(ctx, fileID)
	if err != nil {
		return "", err
	}

	params := url.Values{}
	params.Set("group_id", strconv.FormatInt(p.groupID(), 10))

	var server transfer.VKUploadServer
	if err := p.call(ctx, "photos.getWallUploadServer", params, &server); err != nil {
		return "", err
	}

	uploadBody, err := p.uploadMultipart(ctx, server.UploadURL, "photo", fileID+".jpg", data)
	if err != nil {
		return "", err
	}

	var uploaded transfer.VKWallPhotoUpload
	if err := json.Unmarshal(uploadBody, &uploaded); err != nil {
		return "", fmt.Errorf("error parsing photo upload response: %w", err)
	}

	saveParams := url.Values{}
	saveParams.Set("group_id", strconv.FormatInt(p.groupID(), 10))
	saveParams.Set("photo", uploaded.Photo)
	saveParams.Set("server", strconv.Itoa(uploaded.Server))
	saveParams.Set("hash", uploaded.Hash)

	var saved []transfer.VKSavedPhoto
	if err := p.call(ctx, "photos.saveWallPhoto", saveParams, &saved); err != nil {
		return "", err
	}
	if len(saved) == 0 {
		return "", fmt.Errorf("VK did not save the uploaded photo")
	}

	return fmt.Sprintf("photo%d_%d", saved[0].OwnerID, saved[0].ID), nil
}

func (p *VKPublisher) uploadVideo(ctx context.Context, fileID, name, text string) (string, error) {
	data, err := p.media.Resolve(ctx, fileID)
	if err != nil {
		return "", err
	}

	params := url.Values{}
	params.Set("group_id", strconv.FormatInt(p.groupID(), 10))
	params.Set("name", name)
	params.Set("description", truncate(text, 200))

	var saved transfer.VKSavedVideo
	if err := p.call(ctx, "video.save", params, &saved); err != nil {
		return "", err
	}
	if saved.UploadURL == "" {
		return "", fmt.Errorf("VK returned no video upload URL")
	}

	if _, err := p.uploadMultipart(ctx, saved.UploadURL, "video_file", fileID+".mp4", data); err != nil {
		return "", err
	}

	return fmt.Sprintf("video%d_%d", saved.OwnerID, saved.VideoID), nil
}

// call invokes an api.vk.com method and unmarshals the response
// payload into out.
func (p *VKPublisher) call(ctx context.Context, method string, params url.Values, out any) error {
	params.Set("access_token", p.config.AccessToken)
	params.Set("v", p.config.APIVersion)

	endpoint := fmt.Sprintf("%s/method/%s", p.APIBase, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(params.Encode()))
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("VK request error: %w", err)
	}
	defer resp.Body.Close()

	var envelope transfer.VKResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("error parsing VK response: %w", err)
	}
	if envelope.Error != nil {
		return fmt.Errorf("VK %s failed: %s (code %d)", method, envelope.Error.Message, envelope.Error.Code)
	}
	if out != nil && len(envelope.Response) > 0 {
		if err := json.Unmarshal(envelope.Response, out); err != nil {
			return fmt.Errorf("error parsing VK %s payload: %w", method, err)
		}
	}
	return nil
}

func (p *VKPublisher) uploadMultipart(ctx context.Context, uploadURL, field, filename string, data []byte) ([]byte, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile(field, filename)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(data); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, &body)
	if err != nil {
		return nil, fmt.Errorf("error creating upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload request error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected upload status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func (p *VKPublisher) uploadStoryFile(ctx context.Context, uploadURL string, image []byte) (string, error) {
	body, err := p.uploadMultipart(ctx, uploadURL, "file", "story.jpg", image)
	if err != nil {
		return "", err
	}

	var upload transfer.VKStoryUpload
	if err := json.Unmarshal(body, &upload); err == nil && upload.UploadResult != "" {
		return upload.UploadResult, nil
	}

	// Some upload servers wrap the payload in the standard envelope.
	var envelope struct {
		Response transfer.VKStoryUpload `json:"response"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Response.UploadResult != "" {
		return envelope.Response.UploadResult, nil
	}

	return "", fmt.Errorf("invalid story upload response: %s", string(body))
}

func (p *VKPublisher) groupID() int64 {
	if p.config.GroupID < 0 {
		return -p.config.GroupID
	}
	return p.config.GroupID
}

func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}
