package media

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cfg "github.com/avkravtsov/crosspost/configs"
)

func newTestStore(t *testing.T, handler http.Handler) (*Store, *httptest.Server) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	store := NewStore(&cfg.Config{
		MediaDir: t.TempDir(),
		Telegram: cfg.Telegram{BotToken: "test-token"},
	}, nil)
	store.APIBase = srv.URL
	return store, srv
}

func telegramFileHandler(fetches *int32, content string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "getFile"):
			fmt.Fprint(w, `{"ok":true,"result":{"file_id":"f1","file_path":"documents/f1.jpg"}}`)
		case strings.Contains(r.URL.Path, "/file/"):
			atomic.AddInt32(fetches, 1)
			fmt.Fprint(w, content)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

func TestResolveFetchesAndCaches(t *testing.T) {
	var fetches int32
	store, _ := newTestStore(t, telegramFileHandler(&fetches, "file-bytes"))

	data, err := store.Resolve(context.Background(), "f1")
	require.NoError(t, err)
	assert.Equal(t, "file-bytes", string(data))
	assert.Equal(t, int32(1), atomic.LoadInt32(&fetches))

	// Second resolve hits the cache, not the API.
	data, err = store.Resolve(context.Background(), "f1")
	require.NoError(t, err)
	assert.Equal(t, "file-bytes", string(data))
	assert.Equal(t, int32(1), atomic.LoadInt32(&fetches))

	cached, err := os.ReadFile(store.CachePath("f1"))
	require.NoError(t, err)
	assert.Equal(t, "file-bytes", string(cached))
}

func TestResolveEmptyReference(t *testing.T) {
	store, _ := newTestStore(t, http.NotFoundHandler())

	_, err := store.Resolve(context.Background(), "")
	assert.ErrorIs(t, err, ErrFetch)
}

func TestResolveAPIFailure(t *testing.T) {
	store, _ := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ok":false,"description":"file not found"}`)
	}))

	_, err := store.Resolve(context.Background(), "missing")
	require.ErrorIs(t, err, ErrFetch)
	assert.Contains(t, err.Error(), "file not found")
}

func TestCachePathSanitizesReference(t *testing.T) {
	store, _ := newTestStore(t, http.NotFoundHandler())

	path := store.CachePath("AgAC/../secret")
	assert.Equal(t, store.cacheDir, filepath.Dir(path))
	assert.Equal(t, "AgAC_.._secret", filepath.Base(path))
}

func TestPublicURLWithoutMirror(t *testing.T) {
	store, _ := newTestStore(t, http.NotFoundHandler())

	_, err := store.PublicURL(context.Background(), "f1")
	assert.Error(t, err)
}

type recordingMirror struct {
	enabled      bool
	uploads      map[string][]byte
	contentTypes map[string]string
}

func newRecordingMirror() *recordingMirror {
	return &recordingMirror{
		enabled:      true,
		uploads:      make(map[string][]byte),
		contentTypes: make(map[string]string),
	}
}

func (m *recordingMirror) Enabled() bool { return m.enabled }

func (m *recordingMirror) Upload(_ context.Context, key string, data []byte, contentType string) error {
	m.uploads[key] = data
	m.contentTypes[key] = contentType
	return nil
}

func (m *recordingMirror) PublicURL(key string) string { return "https://cdn.example/" + key }

func TestPublicURLMirrorsResolvedBytes(t *testing.T) {
	var fetches int32
	srv := httptest.NewServer(telegramFileHandler(&fetches, "file-bytes"))
	t.Cleanup(srv.Close)

	mirror := newRecordingMirror()
	store := NewStore(&cfg.Config{
		MediaDir: t.TempDir(),
		Telegram: cfg.Telegram{BotToken: "test-token"},
	}, mirror)
	store.APIBase = srv.URL

	u, err := store.PublicURL(context.Background(), "f1")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/f1", u)
	assert.Equal(t, "file-bytes", string(mirror.uploads["f1"]))
}

func TestPublicURLDisabledMirror(t *testing.T) {
	mirror := newRecordingMirror()
	mirror.enabled = false
	store := NewStore(&cfg.Config{
		MediaDir: t.TempDir(),
		Telegram: cfg.Telegram{BotToken: "test-token"},
	}, mirror)

	_, err := store.PublicURL(context.Background(), "f1")
	assert.Error(t, err)
	assert.Empty(t, mirror.uploads)
}

func TestArchiveBytesSanitizesKey(t *testing.T) {
	mirror := newRecordingMirror()
	store := NewStore(&cfg.Config{
		MediaDir: t.TempDir(),
		Telegram: cfg.Telegram{BotToken: "test-token"},
	}, mirror)

	u, err := store.ArchiveBytes(context.Background(), "story/../s1.jpg", []byte("img"), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/story_.._s1.jpg", u)
	assert.Equal(t, "image/jpeg", mirror.contentTypes["story_.._s1.jpg"])
}

func TestSweepRemovesExpired(t *testing.T) {
	var fetches int32
	store, _ := newTestStore(t, telegramFileHandler(&fetches, "file-bytes"))

	_, err := store.Resolve(context.Background(), "f1")
	require.NoError(t, err)

	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(store.CachePath("f1"), old, old))

	removed, err := store.Sweep(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = os.Stat(store.CachePath("f1"))
	assert.True(t, os.IsNotExist(err))
}

func TestSweepKeepsFresh(t *testing.T) {
	var fetches int32
	store, _ := newTestStore(t, telegramFileHandler(&fetches, "file-bytes"))

	_, err := store.Resolve(context.Background(), "f1")
	require.NoError(t, err)

	removed, err := store.Sweep(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 0, removed)
}

func TestSweepMissingCacheDir(t *testing.T) {
	store, _ := newTestStore(t, http.NotFoundHandler())

	removed, err := store.Sweep(time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 0, removed)
}
