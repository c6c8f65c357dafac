// ABOUTME: TTL cache for deduplicating redelivered webhook activities
// ABOUTME: Size-bounded with FIFO eviction; expired entries are reaped lazily on insert

package dedupe

import (
	"container/list"
	"sync"
	"time"
)

// entry stores the insertion time and list element for a cached activity ID.
type entry struct {
	seenAt  time.Time
	element *list.Element
}

// Cache tracks recently seen activity IDs. The channel redelivers an activity
// when the webhook answers slowly, and a redelivered message must not produce
// a second provider call or a second reply.
//
// There is no background reaper: expired entries are dropped on the next
// insert, keeping the gateway free of long-lived goroutines.
type Cache struct {
	mu      sync.Mutex
	seen    map[string]*entry
	order   *list.List // insertion order, oldest at front
	ttl     time.Duration
	maxSize int
	now     func() time.Time
}

// New creates a dedupe cache with the given TTL and maximum size.
func New(ttl time.Duration, maxSize int) *Cache {
	return &Cache{
		seen:    make(map[string]*entry),
		order:   list.New(),
		ttl:     ttl,
		maxSize: maxSize,
		now:     time.Now,
	}
}

// Seen atomically checks whether the activity ID was already processed and
// marks it if not. Returns true for a duplicate. The empty ID is never
// deduplicated: some channels omit activity IDs and those messages must all
// go through.
func (c *Cache) Seen(activityID string) bool {
	if activityID == "" {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if e, ok := c.seen[activityID]; ok && now.Sub(e.seenAt) < c.ttl {
		return true
	}

	c.reapExpired(now)
	c.mark(activityID, now)
	return false
}

// Len reports the number of tracked IDs, expired entries included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.seen)
}

// mark records the ID, evicting the oldest entry at capacity. Must be called
// with mu held.
func (c *Cache) mark(activityID string, now time.Time) {
	if e, ok := c.seen[activityID]; ok {
		e.seenAt = now
		c.order.MoveToBack(e.element)
		return
	}

	if len(c.seen) >= c.maxSize {
		c.evictOldest()
	}

	elem := c.order.PushBack(activityID)
	c.seen[activityID] = &entry{seenAt: now, element: elem}
}

// evictOldest removes the entry at the front of the order list. Must be
// called with mu held.
func (c *Cache) evictOldest() {
	front := c.order.Front()
	if front == nil {
		return
	}
	id, _ := front.Value.(string)
	c.order.Remove(front)
	delete(c.seen, id)
}

// reapExpired drops expired entries from the front of the order list. Entries
// are in insertion order, so reaping stops at the first live one. Must be
// called with mu held.
func (c *Cache) reapExpired(now time.Time) {
	for {
		front := c.order.Front()
		if front == nil {
			return
		}
		id, _ := front.Value.(string)
		e := c.seen[id]
		if e == nil || now.Sub(e.seenAt) < c.ttl {
			return
		}
		c.order.Remove(front)
		delete(c.seen, id)
	}
}
