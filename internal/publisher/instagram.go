package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	cfg "github.com/avkravtsov/crosspost/configs"
	"github.com/avkravtsov/crosspost/internal/media"
	"github.com/avkravtsov/crosspost/internal/models"
	"github.com/avkravtsov/crosspost/internal/storyimage"
	"github.com/avkravtsov/crosspost/internal/transfer"
)

type InstagramPublisher struct {
	config     cfg.Instagram
	media      *media.Store
	compositor *storyimage.Compositor
	client     *http.Client

	// APIBase is overridable in tests.
	APIBase string
}

func NewInstagramPublisher(config cfg.Instagram, store *media.Store, compositor *storyimage.Compositor) *InstagramPublisher {
	return &InstagramPublisher{
		config:     config,
		media:      store,
		compositor: compositor,
		client:     &http.Client{Timeout: 5 * time.Minute},
		APIBase:    "https://graph.instagram.com",
	}
}

func (p *InstagramPublisher) PublishPost(ctx context.Context, post *models.Post) error {
	if len(post.Photos) == 0 && len(post.Videos) == 0 {
		return fmt.Errorf("%w: text-only posts are not supported on Instagram", ErrNoMedia)
	}

	photoURLs := p.resolveURLs(ctx, post.Photos)
	videoURLs := p.resolveURLs(ctx, post.Videos)

	if len(photoURLs) == 0 && len(videoURLs) == 0 {
		return fmt.Errorf("failed to resolve any media for Instagram post %s", post.ID)
	}

	total := len(photoURLs) + len(videoURLs)
	if total == 1 {
		if len(photoURLs) == 1 {
			return p.singleUpload(ctx, p.photoPayload(photoURLs[0], post.Text, false))
		}
		return p.singleUpload(ctx, p.videoPayload(videoURLs[0], post.Text, false))
	}

	err := p.carouselUpload(ctx, photoURLs, videoURLs, post.Text)
	if err == nil {
		return nil
	}

	// Mixed carousels can be rejected when the account lacks video
	// processing; retry with photos only and each video on its own.
	if len(videoURLs) > 0 && len(photoURLs) > 0 {
		slog.Info("carousel rejected, falling back to photos plus separate videos", "error", err.Error())

		if len(photoURLs) == 1 {
			err = p.singleUpload(ctx, p.photoPayload(photoURLs[0], post.Text, false))
		} else {
			err = p.carouselUpload(ctx, photoURLs, nil, post.Text)
		}
		if err != nil {
			return err
		}

		for _, videoURL := range videoURLs {
			if verr := p.singleUpload(ctx, p.videoPayload(videoURL, post.Text, false)); verr != nil {
				slog.Info("video upload failed", "error", verr.Error())
			}
		}
		return nil
	}

	return err
}

func (p *InstagramPublisher) PublishStory(ctx context.Context, story *models.Story) (string, error) {
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

	imageURL, err := p.media.ArchiveBytes(ctx, fmt.Sprintf("story_%s.jpg", story.ID), image, "image/jpeg")
	if err != nil {
		return "", err
	}

	// The caption is already burned into the image; it is sent anyway
	// so the container carries the text even if stories ever surface it.
	payload := map[string]any{
		"media_type":   "STORIES",
		"image_url":    imageURL,
		"caption":      storyimage.OverlayText(story.ModelName, story.Price),
		"access_token": p.config.AccessToken,
	}
	return "", p.singleUpload(ctx, payload)
}

func (p *InstagramPublisher) resolveURLs(ctx context.Context, fileIDs []string) []string {
	var urls []string
	for _, fileID := range fileIDs {
		u, err := p.media.PublicURL(ctx, fileID)
		if err != nil {
			slog.Info("skipping unresolvable media", "file_id", fileID, "error", err.Error())
			continue
		}
		urls = append(urls, u)
	}
	return urls
}

func (p *InstagramPublisher) photoPayload(imageURL, caption string, carouselItem bool) map[string]any {
	payload := map[string]any{
		"image_url":    imageURL,
		"access_token": p.config.AccessToken,
	}
	if carouselItem {
		payload["is_carousel_item"] = true
	} else {
		payload["caption"] = caption
	}
	return payload
}

func (p *InstagramPublisher) videoPayload(videoURL, caption string, carouselItem bool) map[string]any {
	payload := map[string]any{
		"media_type":   "REELS",
		"video_url":    videoURL,
		"access_token": p.config.AccessToken,
	}
	if carouselItem {
		payload["media_type"] = "VIDEO"
		payload["is_carousel_item"] = true
	} else {
		payload["caption"] = caption
	}
	return payload
}

// singleUpload creates one media container and publishes it.
func (p *InstagramPublisher) singleUpload(ctx context.Context, payload map[string]any) error {
	containerID, err := p.createContainer(ctx, payload)
	if err != nil {
		return err
	}
	return p.publishContainer(ctx, containerID)
}

func (p *InstagramPublisher) carouselUpload(ctx context.Context, photoURLs, videoURLs []string, caption string) error {
	children := make([]string, 0, len(photoURLs)+len(videoURLs))

	for _, u := range photoURLs {
		id, err := p.createContainer(ctx, p.photoPayload(u, "", true))
		if err != nil {
			return err
		}
		children = append(children, id)
	}
	for _, u := range videoURLs {
		id, err := p.createContainer(ctx, p.videoPayload(u, "", true))
		if err != nil {
			return err
		}
		children = append(children, id)
	}

	payload := map[string]any{
		"media_type":   "CAROUSEL",
		"caption":      caption,
		"children":     children,
		"access_token": p.config.AccessToken,
	}
	containerID, err := p.createContainer(ctx, payload)
	if err != nil {
		return err
	}
	return p.publishContainer(ctx, containerID)
}

func (p *InstagramPublisher) createContainer(ctx context.Context, payload map[string]any) (string, error) {
	endpoint := fmt.Sprintf("%s/v21.0/%s/media", p.APIBase, p.config.AccountID)

	container, err := p.post(ctx, endpoint, payload)
	if err != nil {
		return "", err
	}
	if container.ID == "" {
		return "", fmt.Errorf("no media ID returned from Instagram")
	}
	return container.ID, nil
}

func (p *InstagramPublisher) publishContainer(ctx context.Context, containerID string) error {
	endpoint := fmt.Sprintf("%s/v21.0/%s/media_publish", p.APIBase, p.config.AccountID)

	payload := map[string]any{
		"creation_id":  containerID,
		"access_token": p.config.AccessToken,
	}
	_, err := p.post(ctx, endpoint, payload)
	return err
}

func (p *InstagramPublisher) post(ctx context.Context, endpoint string, payload map[string]any) (*transfer.InstagramContainer, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("error marshalling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("instagram request error: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp transfer.InstagramErrorResponse
		if jerr := json.Unmarshal(respBody, &errResp); jerr == nil && errResp.Error.Message != "" {
			return nil, fmt.Errorf("instagram rejected the request: %s", errResp.Error.Message)
		}
		return nil, fmt.Errorf("unexpected status code from Instagram: %d", resp.StatusCode)
	}

	var container transfer.InstagramContainer
	if err := json.Unmarshal(respBody, &container); err != nil {
		return nil, fmt.Errorf("error parsing response: %w", err)
	}
	return &container, nil
}
