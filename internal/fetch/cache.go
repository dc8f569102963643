package fetch

import (
	"context"
	"sync"
	"time"
)

// DefaultCacheTTL is how long fetched job text is reused.
const DefaultCacheTTL = 15 * time.Minute

type cacheEntry struct {
	text    string
	expires time.Time
}

// CachedFetcher memoizes successful job text lookups per URL for a fixed TTL.
// Failures are never cached.
type CachedFetcher struct {
	next TextFetcher
	ttl  time.Duration
	now  func() time.Time

	mu      sync.Mutex
	entries map[string]cacheEntry
}

// NewCachedFetcher wraps next. A non-positive ttl uses DefaultCacheTTL.
func NewCachedFetcher(next TextFetcher, ttl time.Duration) *CachedFetcher {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedFetcher{
		next:    next,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

// JobText returns cached text for url or fetches it. The lock is not held
// during the fetch, so concurrent misses for one URL may both fetch.
func (c *CachedFetcher) JobText(ctx context.Context, url string) (string, error) {
	c.mu.Lock()
	entry, ok := c.entries[url]
	if ok && c.now().Before(entry.expires) {
		c.mu.Unlock()
		return entry.text, nil
	}
	if ok {
		delete(c.entries, url)
	}
	c.mu.Unlock()

	text, err := c.next.JobText(ctx, url)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.entries[url] = cacheEntry{text: text, expires: c.now().Add(c.ttl)}
	c.mu.Unlock()
	return text, nil
}

// Len returns the number of cached entries, expired ones included.
func (c *CachedFetcher) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
