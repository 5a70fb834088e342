package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cfg "github.com/avkravtsov/crosspost/configs"
	"github.com/avkravtsov/crosspost/internal/media"
	"github.com/avkravtsov/crosspost/internal/models"
	"github.com/avkravtsov/crosspost/internal/storyimage"
	"github.com/avkravtsov/crosspost/internal/transfer"
)

// fakeTelegramAPI serves both the bot file API used by the media store
// and the publishing methods, recording every publish call.
type fakeTelegramAPI struct {
	mu          sync.Mutex
	messages    []url.Values
	mediaGroups [][]transfer.InputMedia
	photoCalls  []url.Values

	// files overrides the bytes served for specific references.
	files map[string][]byte
}

func (f *fakeTelegramAPI) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "/file/"):
			name := path.Base(r.URL.Path)
			if data, ok := f.files[name]; ok {
				w.Write(data)
				return
			}
			fmt.Fprintf(w, "bytes-%s", name)
		case strings.HasSuffix(r.URL.Path, "/getFile"):
			fileID := r.URL.Query().Get("file_id")
			if strings.HasPrefix(fileID, "bad") {
				fmt.Fprint(w, `{"ok":false,"description":"file not found"}`)
				return
			}
			fmt.Fprintf(w, `{"ok":true,"result":{"file_id":%q,"file_path":"files/%s"}}`, fileID, fileID)
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			r.ParseForm()
			f.mu.Lock()
			f.messages = append(f.messages, r.PostForm)
			f.mu.Unlock()
			fmt.Fprint(w, `{"ok":true}`)
		case strings.HasSuffix(r.URL.Path, "/sendMediaGroup"):
			r.ParseMultipartForm(32 << 20)
			var group []transfer.InputMedia
			json.Unmarshal([]byte(r.FormValue("media")), &group)
			f.mu.Lock()
			f.mediaGroups = append(f.mediaGroups, group)
			f.mu.Unlock()
			fmt.Fprint(w, `{"ok":true}`)
		case strings.HasSuffix(r.URL.Path, "/sendPhoto"):
			r.ParseMultipartForm(32 << 20)
			form := url.Values{}
			form.Set("chat_id", r.FormValue("chat_id"))
			form.Set("caption", r.FormValue("caption"))
			f.mu.Lock()
			f.photoCalls = append(f.photoCalls, form)
			f.mu.Unlock()
			fmt.Fprint(w, `{"ok":true}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

func newTestTelegramPublisher(t *testing.T) (*TelegramPublisher, *fakeTelegramAPI) {
	t.Helper()

	api := &fakeTelegramAPI{}
	srv := httptest.NewServer(api.handler())
	t.Cleanup(srv.Close)

	store := media.NewStore(&cfg.Config{
		MediaDir: t.TempDir(),
		Telegram: cfg.Telegram{BotToken: "test-token"},
	}, nil)
	store.APIBase = srv.URL

	p := NewTelegramPublisher(cfg.Telegram{BotToken: "test-token", ChannelID: "@channel"}, store, storyimage.NewCompositor())
	p.APIBase = srv.URL
	return p, api
}

func TestTelegramPublishTextOnly(t *testing.T) {
	p, api := newTestTelegramPublisher(t)

	err := p.PublishPost(context.Background(), &models.Post{Text: "Just text"})
	require.NoError(t, err)

	require.Len(t, api.messages, 1)
	assert.Equal(t, "Just text", api.messages[0].Get("text"))
	assert.Equal(t, "@channel", api.messages[0].Get("chat_id"))
	assert.Empty(t, api.mediaGroups)
}

func TestTelegramPublishMediaGroup(t *testing.T) {
	p, api := newTestTelegramPublisher(t)

	post := &models.Post{
		Text:   "Caption text",
		Photos: []string{"p1", "p2"},
		Videos: []string{"v1"},
	}
	require.NoError(t, p.PublishPost(context.Background(), post))

	require.Len(t, api.mediaGroups, 1)
	group := api.mediaGroups[0]
	require.Len(t, group, 3)

	// Photos come before videos and only the first item is captioned.
	assert.Equal(t, "photo", group[0].Type)
	assert.Equal(t, "photo", group[1].Type)
	assert.Equal(t, "video", group[2].Type)
	assert.Equal(t, "Caption text", group[0].Caption)
	assert.Empty(t, group[1].Caption)
	assert.Empty(t, group[2].Caption)
	assert.Empty(t, api.messages)
}

func TestTelegramPublishSplitsLargeGroups(t *testing.T) {
	p, api := newTestTelegramPublisher(t)

	post := &models.Post{Text: "Caption"}
	for i := 0; i < 12; i++ {
		post.Photos = append(post.Photos, fmt.Sprintf("p%d", i))
	}
	require.NoError(t, p.PublishPost(context.Background(), post))

	require.Len(t, api.mediaGroups, 2)
	assert.Len(t, api.mediaGroups[0], 10)
	assert.Len(t, api.mediaGroups[1], 2)
	assert.Equal(t, "Caption", api.mediaGroups[0][0].Caption)
	assert.Empty(t, api.mediaGroups[1][0].Caption)
}

func TestTelegramPublishSkipsUnresolvableMedia(t *testing.T) {
	p, api := newTestTelegramPublisher(t)

	post := &models.Post{
		Text:   "Partial",
		Photos: []string{"p1", "bad-photo", "p2"},
	}
	require.NoError(t, p.PublishPost(context.Background(), post))

	require.Len(t, api.mediaGroups, 1)
	assert.Len(t, api.mediaGroups[0], 2)
}

func TestTelegramPublishFallsBackToText(t *testing.T) {
	p, api := newTestTelegramPublisher(t)

	post := &models.Post{
		Text:   "Nothing resolved",
		Photos: []string{"bad-1", "bad-2"},
	}
	require.NoError(t, p.PublishPost(context.Background(), post))

	assert.Empty(t, api.mediaGroups)
	require.Len(t, api.messages, 1)
	assert.Equal(t, "Nothing resolved", api.messages[0].Get("text"))
}

func TestTelegramPublishStoryNoMedia(t *testing.T) {
	p, _ := newTestTelegramPublisher(t)

	_, err := p.PublishStory(context.Background(), &models.Story{ID: "s1"})
	assert.ErrorIs(t, err, ErrNoMedia)
}

func TestTelegramPublishStory(t *testing.T) {
	p, api := newTestTelegramPublisher(t)
	api.files = map[string][]byte{"src": encodeJPEG(t, 800, 600)}

	story := &models.Story{
		ID:          "s1",
		MediaFileID: "src",
		ModelName:   "iPhone 15",
		Price:       "95000₽",
		PostLink:    "https://t.me/channel/42",
	}
	link, err := p.PublishStory(context.Background(), story)
	require.NoError(t, err)
	assert.Empty(t, link)

	require.Len(t, api.photoCalls, 1)
	caption := api.photoCalls[0].Get("caption")
	assert.Contains(t, caption, "iPhone 15 - 95000₽")
	assert.Contains(t, caption, "https://t.me/channel/42")
}

func TestTelegramPublishStoryUndecodableMedia(t *testing.T) {
	p, _ := newTestTelegramPublisher(t)

	_, err := p.PublishStory(context.Background(), &models.Story{ID: "s1", MediaFileID: "src"})
	assert.Error(t, err)
}
