package pipeline

import (
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/simplelru"
)

// Clock tells the time. It lets tests control cache expiry.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the wall clock.
var SystemClock Clock = systemClock{}

// CacheKey identifies a result: the normalized emoji sequence plus every
// parameter which affects the output.
type CacheKey struct {
	Sequence      string // NFC-normalized emoji
	Width, Height int
	Options       string
}

func (k CacheKey) String() string {
	return fmt.Sprintf("%q/%dx%d/%s", k.Sequence, k.Width, k.Height, k.Options)
}

type cacheEntry struct {
	result  *Result
	created time.Time
}

// ResultCache is a memory cache for pipeline results. Entries are evicted
// least-recently-used first when capacity is exceeded, and after a fixed
// time-to-live, however often they are accessed.
//
// The cache is best effort: a cache which cannot be set up behaves as if
// every key were missing. ResultCache is safe for concurrent use.
type ResultCache struct {
	mu    sync.Mutex
	lru   *simplelru.LRU // nil if caching is disabled
	ttl   time.Duration
	clock Clock
}

// NewResultCache creates a cache holding up to capacity results for a
// duration of ttl. A capacity < 1 disables caching, a ttl <= 0 disables
// expiry. If clock is nil, the system clock is used.
func NewResultCache(capacity int, ttl time.Duration, clock Clock) *ResultCache {
	if clock == nil {
		clock = SystemClock
	}
	c := &ResultCache{ttl: ttl, clock: clock}
	if capacity < 1 {
		tracer().Infof("result cache disabled")
		return c
	}
	lru, err := simplelru.NewLRU(capacity, nil)
	if err != nil {
		tracer().Errorf("result cache disabled: %v", err)
		return c
	}
	c.lru = lru
	return c
}

// Get returns the result stored for key, if it is present and has not
// expired. Expired entries are removed.
func (c *ResultCache) Get(key CacheKey) (*Result, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lru == nil {
		return nil, false
	}
	v, ok := c.lru.Get(key)
	if !ok {
		return nil, false
	}
	entry := v.(*cacheEntry)
	if c.ttl > 0 && c.clock.Now().Sub(entry.created) >= c.ttl {
		tracer().Debugf("cached result for %s expired", key)
		c.lru.Remove(key)
		return nil, false
	}
	return entry.result, true
}

// Put stores a result. Existing entries for key are replaced, and their
// time-to-live starts anew.
func (c *ResultCache) Put(key CacheKey, result *Result) {
	if c == nil || result == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lru == nil {
		return
	}
	if evicted := c.lru.Add(key, &cacheEntry{result: result, created: c.clock.Now()}); evicted {
		tracer().Debugf("result cache full, evicted least recently used entry")
	}
}

// Len returns the number of entries, including expired ones not yet
// removed.
func (c *ResultCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lru == nil {
		return 0
	}
	return c.lru.Len()
}

// Purge removes all entries.
func (c *ResultCache) Purge() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lru != nil {
		c.lru.Purge()
	}
}
