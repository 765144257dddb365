package roles

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	logx "pdbot/pkg/logx"
	"pdbot/internal/storage"
)

const (
	titlesBlobKey    = "achievement_titles"
	titlesRefreshTTL = 5 * time.Minute
)

// TitleCache maps achievement keys to display titles. It is populated on
// first miss from the site catalog, at most once per miss wave, and the
// result is persisted so restarts do not refetch. A key still unknown after
// a refresh stays a miss until the TTL passes; a member holding a stale
// achievement key must not cost one catalog fetch per lookup.
type TitleCache struct {
	fetch func(ctx context.Context) (map[string]string, error)
	store storage.Store
	log   logx.Logger

	mu          sync.Mutex
	titles      map[string]string
	lastRefresh time.Time
	refreshTTL  time.Duration
}

func NewTitleCache(fetch func(ctx context.Context) (map[string]string, error), store storage.Store, log logx.Logger) *TitleCache {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &TitleCache{fetch: fetch, store: store, log: log, refreshTTL: titlesRefreshTTL}
}

// Title resolves key to a display title, refreshing the catalog once on the
// first miss. An unknown key after a refresh reports ok=false and is the
// caller's cue to skip that key.
func (c *TitleCache) Title(ctx context.Context, key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.titles == nil {
		c.loadPersistedLocked(ctx)
	}
	if title, ok := c.titles[key]; ok {
		return title, true
	}
	if time.Since(c.lastRefresh) < c.refreshTTL {
		return "", false
	}

	// Failed attempts count against the TTL too, bounding fetch volume
	// while the site is down.
	c.lastRefresh = time.Now()
	fresh, err := c.fetch(ctx)
	if err != nil {
		c.log.Warn("achievement catalog refresh failed", logx.Err(err))
		return "", false
	}
	c.titles = fresh
	c.persistLocked(ctx)

	title, ok := c.titles[key]
	return title, ok
}

func (c *TitleCache) loadPersistedLocked(ctx context.Context) {
	c.titles = map[string]string{}
	if c.store == nil {
		return
	}
	b, ok, err := c.store.GetBlob(ctx, titlesBlobKey)
	if err != nil || !ok {
		return
	}
	var saved map[string]string
	if json.Unmarshal(b, &saved) == nil && saved != nil {
		c.titles = saved
	}
}

func (c *TitleCache) persistLocked(ctx context.Context) {
	if c.store == nil {
		return
	}
	b, err := json.Marshal(c.titles)
	if err != nil {
		return
	}
	if err := c.store.PutBlob(ctx, titlesBlobKey, b); err != nil {
		c.log.Debug("persisting achievement titles failed", logx.Err(err))
	}
}
