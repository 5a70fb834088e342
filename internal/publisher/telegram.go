package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	cfg "github.com/avkravtsov/crosspost/configs"
	"github.com/avkravtsov/crosspost/internal/media"
	"github.com/avkravtsov/crosspost/internal/models"
	"github.com/avkravtsov/crosspost/internal/storyimage"
	"github.com/avkravtsov/crosspost/internal/transfer"
)

// Telegram caps media groups at ten items per call.
const telegramMediaGroupLimit = 10

type TelegramPublisher struct {
	config     cfg.Telegram
	media      *media.Store
	compositor *storyimage.Compositor
	client     *http.Client

	// APIBase is overridable in tests.
	APIBase string
}

func NewTelegramPublisher(config cfg.Telegram, store *media.Store, compositor *storyimage.Compositor) *TelegramPublisher {
	return &TelegramPublisher{
		config:     config,
		media:      store,
		compositor: compositor,
		client:     &http.Client{Timeout: 5 * time.Minute},
		APIBase:    "https://api.telegram.org",
	}
}

type mediaItem struct {
	kind string // "photo" or "video"
	data []byte
}

func (p *TelegramPublisher) PublishPost(ctx context.Context, post *models.Post) error {
	items := p.resolveItems(ctx, post)

	if len(items) == 0 {
		// Text-only post, or nothing could be resolved.
		return p.sendMessage(ctx, post.Text)
	}

	for i := 0; i < len(items); i += telegramMediaGroupLimit {
		end := i + telegramMediaGroupLimit
		if end > len(items) {
			end = len(items)
		}
		caption := ""
		if i == 0 {
			caption = post.Text
		}
		if err := p.sendMediaGroup(ctx, items[i:end], caption); err != nil {
			return err
		}
	}

	return nil
}

func (p *TelegramPublisher) PublishStory(ctx context.Context, story *models.Story) (string, error) {
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

	caption := storyimage.OverlayText(story.ModelName, story.Price)
	if story.PostLink != "" {
		caption = strings.TrimSpace(caption + "\n" + story.PostLink)
	}

	return "", p.sendPhoto(ctx, image, caption)
}

// resolveItems fetches the bytes for every media reference, photos
// first, preserving order. Items that fail to resolve are skipped.
func (p *TelegramPublisher) resolveItems(ctx context.Context, post *models.Post) []mediaItem {
	var items []mediaItem
	for _, fileID := range post.Photos {
		data, err := p.media.Resolve(ctx, fileID)
		if err != nil {
			slog.Info("skipping unresolvable photo", "file_id", fileID, "error", err.Error())
			continue
		}
		items = append(items, mediaItem{kind: "photo", data: data})
	}
	for _, fileID := range post.Videos {
		data, err := p.media.Resolve(ctx, fileID)
		if err != nil {
			slog.Info("skipping unresolvable video", "file_id", fileID, "error", err.Error())
			continue
		}
		items = append(items, mediaItem{kind: "video", data: data})
	}
	return items
}

func (p *TelegramPublisher) sendMessage(ctx context.Context, text string) error {
	form := url.Values{}
	form.Set("chat_id", p.config.ChannelID)
	form.Set("text", text)

	resp, err := p.postForm(ctx, "sendMessage", form)
	if err != nil {
		return err
	}
	return checkTelegramResponse(resp)
}

func (p *TelegramPublisher) sendMediaGroup(ctx context.Context, items []mediaItem, caption string) error {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	inputMedia := make([]transfer.InputMedia, 0, len(items))
	for i, item := range items {
		name := fmt.Sprintf("file%d", i)
		im := transfer.InputMedia{Type: item.kind, Media: "attach://" + name}
		if i == 0 && caption != "" {
			im.Caption = caption
		}
		inputMedia = append(inputMedia, im)

		part, err := writer.CreateFormFile(name, name)
		if err != nil {
			return fmt.Errorf("error building media group request: %w", err)
		}
		if _, err := part.Write(item.data); err != nil {
			return fmt.Errorf("error building media group request: %w", err)
		}
	}

	mediaJSON, err := json.Marshal(inputMedia)
	if err != nil {
		return fmt.Errorf("error marshalling media group: %w", err)
	}
	if err := writer.WriteField("chat_id", p.config.ChannelID); err != nil {
		return err
	}
	if err := writer.WriteField("media", string(mediaJSON)); err != nil {
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}

	return p.postMultipart(ctx, "sendMediaGroup", &body, writer.FormDataContentType())
}

func (p *TelegramPublisher) sendPhoto(ctx context.Context, photo []byte, caption string) error {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("photo", "story.jpg")
	if err != nil {
		return err
	}
	if _, err := part.Write(photo); err != nil {
		return err
	}
	if err := writer.WriteField("chat_id", p.config.ChannelID); err != nil {
		return err
	}
	if caption != "" {
		if err := writer.WriteField("caption", caption); err != nil {
			return err
		}
	}
	if err := writer.Close(); err != nil {
		return err
	}

	return p.postMultipart(ctx, "sendPhoto", &body, writer.FormDataContentType())
}

func (p *TelegramPublisher) postForm(ctx context.Context, method string, form url.Values) (*http.Response, error) {
	endpoint := fmt.Sprintf("%s/bot%s/%s", p.APIBase, p.config.BotToken, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("telegram request error: %w", err)
	}
	return resp, nil
}

func (p *TelegramPublisher) postMultipart(ctx context.Context, method string, body *bytes.Buffer, contentType string) error {
	endpoint := fmt.Sprintf("%s/bot%s/%s", p.APIBase, p.config.BotToken, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram request error: %w", err)
	}
	return checkTelegramResponse(resp)
}

func checkTelegramResponse(resp *http.Response) error {
	defer resp.Body.Close()

	var result transfer.TelegramResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("error parsing telegram response: %w", err)
	}
	if !result.OK {
		return fmt.Errorf("telegram rejected the request: %s", result.Description)
	}
	return nil
}
