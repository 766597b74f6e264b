package fundamentals

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/komsit37/csp/pkg/csp/types"
)

// Cached decorates a Source with a TTL+LRU cache. Failed lookups are not cached.
type Cached struct {
	next Source
	ttl  time.Duration
	size int
	now  func() time.Time

	mu    sync.Mutex
	items map[string]cacheEntry
	order []string // simple LRU order, oldest at index 0
}

type cacheEntry struct {
	at   time.Time
	fund types.Fundamentals
}

func NewCached(next Source, ttl time.Duration, size int) *Cached {
	if size <= 0 {
		size = 1
	}
	return &Cached{next: next, ttl: ttl, size: size, now: time.Now, items: make(map[string]cacheEntry)}
}

func (c *Cached) Enrich(ctx context.Context, ticker string) (types.Fundamentals, error) {
	k := strings.ToUpper(ticker)
	now := c.now()
	c.mu.Lock()
	if ent, ok := c.items[k]; ok {
		if now.Sub(ent.at) <= c.ttl {
			c.touchLocked(k)
			f := ent.fund
			c.mu.Unlock()
			return f, nil
		}
		// expired
		delete(c.items, k)
		c.removeFromOrderLocked(k)
	}
	c.mu.Unlock()

	f, err := c.next.Enrich(ctx, ticker)
	if err != nil {
		return f, err
	}
	c.mu.Lock()
	if _, ok := c.items[k]; ok {
		c.removeFromOrderLocked(k)
	}
	c.items[k] = cacheEntry{at: now, fund: f}
	c.order = append(c.order, k)
	for len(c.items) > c.size && len(c.order) > 0 {
		old := c.order[0]
		c.order = c.order[1:]
		delete(c.items, old)
	}
	c.mu.Unlock()
	return f, nil
}

// Len reports the number of cached tickers.
func (c *Cached) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *Cached) touchLocked(k string) {
	c.removeFromOrderLocked(k)
	c.order = append(c.order, k)
}

func (c *Cached) removeFromOrderLocked(k string) {
	for i, v := range c.order {
		if v == k {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}
