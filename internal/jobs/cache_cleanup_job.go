package job

import (
	"log/slog"
	"time"

	"github.com/avkravtsov/crosspost/internal/media"
)

type CacheCleanupJob struct {
	store  *media.Store
	maxAge time.Duration
}

func NewCacheCleanupJob(store *media.Store, maxAge time.Duration) *CacheCleanupJob {
	return &CacheCleanupJob{
		store:  store,
		maxAge: maxAge,
	}
}

func (c *CacheCleanupJob) CleanupCache() {
	removed, err := c.store.Sweep(c.maxAge)
	if err != nil {
		slog.Info(err.Error())
		return
	}

	if removed > 0 {
		slog.Info("media cache cleanup", "removed", removed)
	}
}
