// Package mediacache stores content tree walk results per root node with a fixed TTL.
package mediacache

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/yigit/practicelog/internal/pkg/metrics"
)

// Clock supplies the current time
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock
type ClockFunc func() time.Time

// Now implements Clock
func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the wall clock
var SystemClock Clock = ClockFunc(time.Now)

// Entry is a cached walk result
type Entry struct {
	URLs       []string
	CapturedAt time.Time
}

// Cache is safe for concurrent use. Entries are never invalidated explicitly;
// a stale entry is simply overwritten by the next walk.
type Cache struct {
	ttl   time.Duration
	clock Clock
	store *lru.Cache[string, Entry]
}

// New creates a cache holding at most size root nodes
func New(ttl time.Duration, size int, clock Clock) (*Cache, error) {
	if clock == nil {
		clock = SystemClock
	}
	if size <= 0 {
		size = 1024
	}
	store, err := lru.New[string, Entry](size)
	if err != nil {
		return nil, err
	}
	return &Cache{ttl: ttl, clock: clock, store: store}, nil
}

// Get returns a copy of the cached URLs for rootID while the entry is fresh
func (c *Cache) Get(rootID string) ([]string, bool) {
	entry, ok := c.store.Get(rootID)
	if !ok {
		metrics.CacheLookup("miss")
		return nil, false
	}
	if c.clock.Now().Sub(entry.CapturedAt) >= c.ttl {
		metrics.CacheLookup("stale")
		return nil, false
	}
	metrics.CacheLookup("hit")
	return append([]string{}, entry.URLs...), true
}

// Put overwrites the entry for rootID, stamping it with the current time
func (c *Cache) Put(rootID string, urls []string) {
	c.store.Add(rootID, Entry{
		URLs:       append([]string{}, urls...),
		CapturedAt: c.clock.Now(),
	})
}

// Len returns the number of entries, fresh or stale
func (c *Cache) Len() int {
	return c.store.Len()
}
