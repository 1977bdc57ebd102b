package pipeline

import (
	"context"
	"sync"
	"time"
)

// Cache keeps the last successful load for ttl. Loads are serialised, so at
// most one scrape runs at a time however many callers are waiting.
type Cache[T any] struct {
	ttl    time.Duration
	load   func(context.Context) (T, error)
	now    func() time.Time
	mutex  sync.Mutex
	value  T
	loaded time.Time
	valid  bool
}

func NewCache[T any](ttl time.Duration, load func(context.Context) (T, error)) *Cache[T] {
	return &Cache[T]{ttl: ttl, load: load, now: time.Now}
}

// Get returns the cached value while it is fresh and reloads it otherwise.
// A failed reload returns the error and leaves the cache as it was.
func (c *Cache[T]) Get(ctx context.Context) (T, time.Time, error) {
	value, loaded, _, err := c.Refresh(ctx, c.ttl)
	return value, loaded, err
}

// Refresh reloads unless the cached value is younger than minAge, and
// reports whether it did.
func (c *Cache[T]) Refresh(ctx context.Context, minAge time.Duration) (T, time.Time, bool, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.valid && c.now().Sub(c.loaded) < minAge {
		return c.value, c.loaded, false, nil
	}
	value, err := c.load(ctx)
	if err != nil {
		var zero T
		return zero, time.Time{}, false, err
	}
	c.value, c.loaded, c.valid = value, c.now(), true
	return c.value, c.loaded, true, nil
}

// Invalidate forces the next Get to reload.
func (c *Cache[T]) Invalidate() {
	c.mutex.Lock()
	c.valid = false
	c.mutex.Unlock()
}
