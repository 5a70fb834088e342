package publisher

import (
	"context"
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
)

// fakeVKAPI serves api.vk.com methods, the upload endpoints they hand
// out, and the Telegram file API the media store fetches from.
type fakeVKAPI struct {
	mu    sync.Mutex
	calls map[string][]url.Values

	failMethods map[string]bool
	files       map[string][]byte
}

func newFakeVKAPI() *fakeVKAPI {
	return &fakeVKAPI{
		calls:       make(map[string][]url.Values),
		failMethods: make(map[string]bool),
	}
}

func (f *fakeVKAPI) record(method string, form url.Values) {
	f.mu.Lock()
	f.calls[method] = append(f.calls[method], form)
	f.mu.Unlock()
}

func (f *fakeVKAPI) lastCall(method string) url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	calls := f.calls[method]
	if len(calls) == 0 {
		return nil
	}
	return calls[len(calls)-1]
}

func (f *fakeVKAPI) handler(serverURL func() string) http.Handler {
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
		case strings.HasPrefix(r.URL.Path, "/method/"):
			r.ParseForm()
			method := strings.TrimPrefix(r.URL.Path, "/method/")
			f.record(method, r.PostForm)

			if f.failMethods[method] {
				fmt.Fprint(w, `{"error":{"error_code":100,"error_msg":"One of the parameters is invalid"}}`)
				return
			}

			switch method {
			case "photos.getWallUploadServer":
				fmt.Fprintf(w, `{"response":{"upload_url":"%s/upload/photo"}}`, serverURL())
			case "photos.saveWallPhoto":
				fmt.Fprint(w, `{"response":[{"id":101,"owner_id":-55}]}`)
			case "video.save":
				fmt.Fprintf(w, `{"response":{"upload_url":"%s/upload/video","video_id":202,"owner_id":-55}}`, serverURL())
			case "wall.post":
				fmt.Fprint(w, `{"response":{"post_id":42}}`)
			case "stories.getPhotoUploadServer":
				fmt.Fprintf(w, `{"response":{"upload_url":"%s/upload/story"}}`, serverURL())
			case "stories.save":
				fmt.Fprint(w, `{"response":{"count":1,"items":[{"id":7,"owner_id":-55}]}}`)
			default:
				fmt.Fprint(w, `{"response":{}}`)
			}
		case r.URL.Path == "/upload/photo":
			fmt.Fprint(w, `{"server":123,"photo":"[]","hash":"abc"}`)
		case r.URL.Path == "/upload/video":
			fmt.Fprint(w, `{"size":100}`)
		case r.URL.Path == "/upload/story":
			fmt.Fprint(w, `{"upload_result":"story-token"}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

func newTestVKPublisher(t *testing.T) (*VKPublisher, *fakeVKAPI) {
	t.Helper()

	api := newFakeVKAPI()
	var srv *httptest.Server
	srv = httptest.NewServer(api.handler(func() string { return srv.URL }))
	t.Cleanup(srv.Close)

	store := media.NewStore(&cfg.Config{
		MediaDir: t.TempDir(),
		Telegram: cfg.Telegram{BotToken: "test-token"},
	}, nil)
	store.APIBase = srv.URL

	p := NewVKPublisher(cfg.VK{AccessToken: "token", GroupID: 55, APIVersion: "5.131"}, store, storyimage.NewCompositor())
	p.APIBase = srv.URL
	return p, api
}

func TestVKPublishPost(t *testing.T) {
	p, api := newTestVKPublisher(t)

	post := &models.Post{
		Name:   "iPhone 15",
		Text:   "Selling an iPhone 15",
		Photos: []string{"p1"},
		Videos: []string{"v1"},
	}
	require.NoError(t, p.PublishPost(context.Background(), post))

	wallPost := api.lastCall("wall.post")
	require.NotNil(t, wallPost)
	assert.Equal(t, "-55", wallPost.Get("owner_id"))
	assert.Equal(t, "1", wallPost.Get("from_group"))
	assert.Equal(t, "Selling an iPhone 15", wallPost.Get("message"))
	assert.Equal(t, "photo-55_101,video-55_202", wallPost.Get("attachments"))
}

func TestVKPublishPostTextOnly(t *testing.T) {
	p, api := newTestVKPublisher(t)

	require.NoError(t, p.PublishPost(context.Background(), &models.Post{Text: "Text only"}))

	wallPost := api.lastCall("wall.post")
	require.NotNil(t, wallPost)
	assert.Empty(t, wallPost.Get("attachments"))
	assert.Nil(t, api.lastCall("photos.getWallUploadServer"))
}

func TestVKPublishPostToleratesUploadFailures(t *testing.T) {
	p, api := newTestVKPublisher(t)
	api.failMethods["photos.getWallUploadServer"] = true

	post := &models.Post{
		Text:   "Photo upload will fail",
		Photos: []string{"p1"},
	}
	require.NoError(t, p.PublishPost(context.Background(), post))

	wallPost := api.lastCall("wall.post")
	require.NotNil(t, wallPost)
	assert.Empty(t, wallPost.Get("attachments"))
}

func TestVKPublishPostWallError(t *testing.T) {
	p, api := newTestVKPublisher(t)
	api.failMethods["wall.post"] = true

	err := p.PublishPost(context.Background(), &models.Post{Text: "Text"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wall.post")
}

func TestVKVideoDescriptionTruncated(t *testing.T) {
	p, api := newTestVKPublisher(t)

	longText := strings.Repeat("а", 250)
	post := &models.Post{
		Name:   "Video post",
		Text:   longText,
		Videos: []string{"v1"},
	}
	require.NoError(t, p.PublishPost(context.Background(), post))

	videoSave := api.lastCall("video.save")
	require.NotNil(t, videoSave)
	desc := videoSave.Get("description")
	assert.Len(t, []rune(desc), 203)
	assert.True(t, strings.HasSuffix(desc, "..."))
}

func TestVKPublishStory(t *testing.T) {
	p, api := newTestVKPublisher(t)
	api.files = map[string][]byte{"src": encodeJPEG(t, 600, 800)}

	story := &models.Story{
		ID:          "s1",
		MediaFileID: "src",
		ModelName:   "iPhone 15",
		Price:       "95000₽",
		PostLink:    "https://vk.com/wall-55_42",
	}
	link, err := p.PublishStory(context.Background(), story)
	require.NoError(t, err)
	assert.Equal(t, "https://vk.com/stories-55_7", link)

	getServer := api.lastCall("stories.getPhotoUploadServer")
	require.NotNil(t, getServer)
	assert.Equal(t, "55", getServer.Get("group_id"))
	assert.Equal(t, "https://vk.com/wall-55_42", getServer.Get("link_url"))

	save := api.lastCall("stories.save")
	require.NotNil(t, save)
	assert.Equal(t, "story-token", save.Get("upload_results"))
}

func TestVKPublishStoryNoMedia(t *testing.T) {
	p, _ := newTestVKPublisher(t)

	_, err := p.PublishStory(context.Background(), &models.Story{ID: "s1"})
	assert.ErrorIs(t, err, ErrNoMedia)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "абвгд...", truncate("абвгдежзик", 5))
}
