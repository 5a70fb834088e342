package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/h2non/filetype"

	cfg "github.com/avkravtsov/crosspost/configs"
	"github.com/avkravtsov/crosspost/internal/transfer"
)

// ErrFetch marks failures to retrieve media bytes for a reference.
var ErrFetch = errors.New("media fetch failed")

// Mirror archives media bytes and hands out public URLs for them.
// R2Mirror is the production implementation.
type Mirror interface {
	Enabled() bool
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	PublicURL(key string) string
}

// Store resolves opaque media references (Telegram file ids) to bytes,
// caching them on disk at a deterministic per-reference path.
type Store struct {
	botToken string
	cacheDir string
	client   *http.Client
	mirror   Mirror

	// APIBase is overridable in tests.
	APIBase string
}

func NewStore(config *cfg.Config, mirror Mirror) *Store {
	return &Store{
		botToken: config.Telegram.BotToken,
		cacheDir: filepath.Join(config.MediaDir, "cache"),
		client:   &http.Client{Timeout: 2 * time.Minute},
		mirror:   mirror,
		APIBase:  "https://api.telegram.org",
	}
}

// CachePath returns the deterministic cache location for a reference.
func (s *Store) CachePath(fileID string) string {
	return filepath.Join(s.cacheDir, sanitizeRef(fileID))
}

// Resolve returns the bytes for a media reference, fetching them from
// the Telegram file API on a cache miss. Concurrent fetches of the
// same reference may race on the cache file; the content is identical
// so the last writer wins.
func (s *Store) Resolve(ctx context.Context, fileID string) ([]byte, error) {
	if fileID == "" {
		return nil, fmt.Errorf("%w: empty reference", ErrFetch)
	}

	path := s.CachePath(fileID)
	if data, err := os.ReadFile(path); err == nil {
		return data, nil
	}

	data, err := s.fetch(ctx, fileID)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(s.cacheDir, 0o755); err != nil {
		slog.Info(err.Error())
		return data, nil
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		slog.Info(err.Error())
	}

	return data, nil
}

// PublicURL resolves a reference and mirrors it to the archive bucket,
// returning a public URL for the bytes. URL-based platform APIs
// (Instagram Graph media containers) consume these.
func (s *Store) PublicURL(ctx context.Context, fileID string) (string, error) {
	if s.mirror == nil || !s.mirror.Enabled() {
		return "", errors.New("media archive is not configured")
	}

	data, err := s.Resolve(ctx, fileID)
	if err != nil {
		return "", err
	}

	contentType := "application/octet-stream"
	if kind, err := filetype.Match(data); err == nil && kind.MIME.Value != "" {
		contentType = kind.MIME.Value
	}

	key := sanitizeRef(fileID)
	if err := s.mirror.Upload(ctx, key, data, contentType); err != nil {
		return "", fmt.Errorf("failed to mirror media %s: %w", fileID, err)
	}

	return s.mirror.PublicURL(key), nil
}

// ArchiveBytes uploads arbitrary bytes (derived artifacts such as
// composited story images) to the archive bucket under the given key
// and returns their public URL.
func (s *Store) ArchiveBytes(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if s.mirror == nil || !s.mirror.Enabled() {
		return "", errors.New("media archive is not configured")
	}
	key = sanitizeRef(key)
	if err := s.mirror.Upload(ctx, key, data, contentType); err != nil {
		return "", err
	}
	return s.mirror.PublicURL(key), nil
}

// Sweep removes cache files older than maxAge and reports the count.
func (s *Store) Sweep(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(s.cacheDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(s.cacheDir, entry.Name())); err == nil {
				removed++
			}
		}
	}
	return removed, nil
}

func (s *Store) fetch(ctx context.Context, fileID string) ([]byte, error) {
	infoURL := fmt.Sprintf("%s/bot%s/getFile?file_id=%s", s.APIBase, s.botToken, fileID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, infoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	var fileResp transfer.TelegramFileResponse
	if err := json.NewDecoder(resp.Body).Decode(&fileResp); err != nil {
		return nil, fmt.Errorf("%w: decoding file info: %v", ErrFetch, err)
	}
	if !fileResp.OK || fileResp.Result.FilePath == "" {
		return nil, fmt.Errorf("%w: %s", ErrFetch, fileResp.Description)
	}

	fileURL := fmt.Sprintf("%s/file/bot%s/%s", s.APIBase, s.botToken, fileResp.Result.FilePath)
	req, err = http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}

	resp, err = s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d", ErrFetch, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	return data, nil
}

func sanitizeRef(fileID string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		}
		return '_'
	}, fileID)
}
