package videos

import (
	"context"
	"sync"
	"time"

	"github.com/llumina/backend/internal/models"
)

type cacheEntry struct {
	metadata models.VideoMetadata
	expires  time.Time
}

// CachingProvider wraps another Provider with a TTL-based in-memory cache so
// that resubmitting a recently-seen URL does not re-bill an inference call.
type CachingProvider struct {
	base Provider
	ttl  time.Duration

	mu    sync.RWMutex
	items map[string]cacheEntry
}

// NewCachingProvider returns a Provider that caches lookups for the provided TTL.
func NewCachingProvider(base Provider, ttl time.Duration) *CachingProvider {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CachingProvider{
		base:  base,
		ttl:   ttl,
		items: make(map[string]cacheEntry),
	}
}

// Lookup returns cached metadata when available, otherwise it delegates to the
// underlying provider and stores the result. Failed lookups are not cached.
func (c *CachingProvider) Lookup(ctx context.Context, url string) (models.VideoMetadata, error) {
	if c == nil || c.base == nil {
		return models.VideoMetadata{}, ErrProviderUnavailable
	}

	now := time.Now()

	c.mu.RLock()
	entry, ok := c.items[url]
	c.mu.RUnlock()
	if ok && now.Before(entry.expires) {
		return entry.metadata, nil
	}

	metadata, err := c.base.Lookup(ctx, url)
	if err != nil {
		return models.VideoMetadata{}, err
	}

	c.mu.Lock()
	c.items[url] = cacheEntry{metadata: metadata, expires: now.Add(c.ttl)}
	c.mu.Unlock()

	return metadata, nil
}
