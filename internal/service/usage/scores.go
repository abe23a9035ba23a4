package usage

import (
	"container/list"
	"sync"
	"time"
)

// ScoreCache keeps recently computed activity scores so dashboard polls
// don't recompute them for every row. It is bounded: once full, the
// least recently touched entry is evicted. Entries also expire after
// ttl so scores track the passage of time.
type ScoreCache struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	now      func() time.Time
	entries  map[string]*list.Element
	order    *list.List
}

type scoreEntry struct {
	key      string
	score    float64
	storedAt time.Time
}

func NewScoreCache(capacity int, ttl time.Duration) *ScoreCache {
	return newScoreCacheWithClock(capacity, ttl, time.Now)
}

func newScoreCacheWithClock(capacity int, ttl time.Duration, now func() time.Time) *ScoreCache {
	if capacity < 1 {
		capacity = 1
	}
	return &ScoreCache{
		capacity: capacity,
		ttl:      ttl,
		now:      now,
		entries:  make(map[string]*list.Element, capacity),
		order:    list.New(),
	}
}

func (c *ScoreCache) Get(key string) (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	element, ok := c.entries[key]
	if !ok {
		return 0, false
	}
	entry := element.Value.(*scoreEntry)
	if c.ttl > 0 && c.now().Sub(entry.storedAt) > c.ttl {
		c.order.Remove(element)
		delete(c.entries, key)
		return 0, false
	}
	c.order.MoveToFront(element)
	return entry.score, true
}

func (c *ScoreCache) Put(key string, score float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if element, ok := c.entries[key]; ok {
		entry := element.Value.(*scoreEntry)
		entry.score = score
		entry.storedAt = c.now()
		c.order.MoveToFront(element)
		return
	}

	element := c.order.PushFront(&scoreEntry{
		key:      key,
		score:    score,
		storedAt: c.now(),
	})
	c.entries[key] = element

	for len(c.entries) > c.capacity {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*scoreEntry).key)
	}
}

func (c *ScoreCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
