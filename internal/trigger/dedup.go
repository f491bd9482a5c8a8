package trigger

import (
	"sync"
	"time"
)

const (
	// DefaultDedupWindow is how long a fingerprint counts as a repeat.
	DefaultDedupWindow = 5 * time.Second

	// DefaultSweepThreshold is the cache size above which stale entries
	// are swept.
	DefaultSweepThreshold = 100
)

// Clock is the time source for the dedup cache.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time { return time.Now() }

// DedupCache remembers recently processed prompt fingerprints.
type DedupCache interface {
	// Seen reports whether fp was recorded within the dedup window.
	Seen(fp Fingerprint) bool
	// Record marks fp as seen now.
	Record(fp Fingerprint)
	// SeenOrRecord reports whether fp is a repeat and, if it is not,
	// records it. The check and the insert happen atomically.
	SeenOrRecord(fp Fingerprint) bool
}

// Cache is the in-process DedupCache. All reads and writes, including the
// sweep, happen under one mutex.
type Cache struct {
	mu             sync.Mutex
	clock          Clock
	window         time.Duration
	sweepThreshold int
	entries        map[Fingerprint]time.Time
}

var _ DedupCache = (*Cache)(nil)

// NewCache creates a dedup cache. Zero or negative window and threshold
// fall back to the defaults; a nil clock uses SystemClock.
func NewCache(clock Clock, window time.Duration, sweepThreshold int) *Cache {
	if clock == nil {
		clock = SystemClock{}
	}
	if window <= 0 {
		window = DefaultDedupWindow
	}
	if sweepThreshold <= 0 {
		sweepThreshold = DefaultSweepThreshold
	}
	return &Cache{
		clock:          clock,
		window:         window,
		sweepThreshold: sweepThreshold,
		entries:        make(map[Fingerprint]time.Time),
	}
}

// Seen reports whether fp was recorded less than one window ago.
func (c *Cache) Seen(fp Fingerprint) bool {
	now := c.clock.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seenLocked(fp, now)
}

// Record stores fp with the current time and sweeps if the cache is over
// its threshold.
func (c *Cache) Record(fp Fingerprint) {
	now := c.clock.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recordLocked(fp, now)
}

// SeenOrRecord is Seen followed by Record on a miss, as one critical
// section. A repeat does not refresh the stored time.
func (c *Cache) SeenOrRecord(fp Fingerprint) bool {
	now := c.clock.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.seenLocked(fp, now) {
		return true
	}
	c.recordLocked(fp, now)
	return false
}

// Len returns the number of cached fingerprints.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) seenLocked(fp Fingerprint, now time.Time) bool {
	last, ok := c.entries[fp]
	return ok && now.Sub(last) < c.window
}

func (c *Cache) recordLocked(fp Fingerprint, now time.Time) {
	c.entries[fp] = now
	if len(c.entries) <= c.sweepThreshold {
		return
	}
	maxAge := 2 * c.window
	for k, t := range c.entries {
		if now.Sub(t) > maxAge {
			delete(c.entries, k)
		}
	}
}
