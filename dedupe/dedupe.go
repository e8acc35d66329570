// ABOUTME: TTL-bounded cache of seen send idempotency keys.
// ABOUTME: Stops the same user message from being dispatched twice on retry-happy UIs.

package dedupe

import (
	"container/list"
	"sync"
	"time"
)

// Defaults sized for an interactive chat client: keys only need to survive a
// burst of double-clicks or a quick reconnect, not a long history.
const (
	DefaultTTL     = 5 * time.Minute
	DefaultMaxSize = 512

	cleanupInterval = time.Minute
)

type entry struct {
	seenAt  time.Time
	element *list.Element
}

// Cache remembers recently seen idempotency keys. It is size-bounded with
// O(1) oldest-first eviction and expires entries after a TTL.
type Cache struct {
	mu      sync.Mutex
	seen    map[string]*entry
	order   *list.List // keys in insertion order, oldest at front
	ttl     time.Duration
	maxSize int
	done    chan struct{}
	closed  bool
}

// New creates a cache and starts its background expiry sweep. Zero ttl or
// maxSize select the defaults.
func New(ttl time.Duration, maxSize int) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	c := &Cache{
		seen:    make(map[string]*entry),
		order:   list.New(),
		ttl:     ttl,
		maxSize: maxSize,
		done:    make(chan struct{}),
	}
	go c.sweep()
	return c
}

// CheckAndMark reports whether the key was already seen within the TTL, and
// marks it seen if it was not. The check and the mark are atomic so two
// racing sends cannot both pass.
func (c *Cache) CheckAndMark(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.seen[key]; ok && time.Since(e.seenAt) < c.ttl {
		return true
	}
	c.markLocked(key)
	return false
}

func (c *Cache) markLocked(key string) {
	now := time.Now()

	if e, ok := c.seen[key]; ok {
		e.seenAt = now
		c.order.MoveToBack(e.element)
		return
	}

	if len(c.seen) >= c.maxSize {
		if front := c.order.Front(); front != nil {
			oldest, _ := front.Value.(string)
			c.order.Remove(front)
			delete(c.seen, oldest)
		}
	}

	c.seen[key] = &entry{
		seenAt:  now,
		element: c.order.PushBack(key),
	}
}

// Len returns the number of live entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.seen)
}

// Close stops the background sweep. The cache remains usable but no longer
// expires entries on its own.
func (c *Cache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.done)
	}
}

func (c *Cache) sweep() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.expire()
		case <-c.done:
			return
		}
	}
}

func (c *Cache) expire() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for {
		front := c.order.Front()
		if front == nil {
			return
		}
		key, _ := front.Value.(string)
		e := c.seen[key]
		if e == nil {
			c.order.Remove(front)
			continue
		}
		if time.Since(e.seenAt) < c.ttl {
			return
		}
		c.order.Remove(front)
		delete(c.seen, key)
	}
}
