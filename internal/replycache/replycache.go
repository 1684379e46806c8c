// Package replycache remembers which bot reply answered which user message,
// so that edits to a recent message update the existing reply in place.
package replycache

import (
	"container/list"
	"sync"
)

// DefaultCapacity bounds the cache to roughly the window of messages users
// still plausibly edit.
const DefaultCapacity = 1000

// Record identifies one bot reply.
type Record struct {
	ChannelID string
	ReplyID   string
}

type entry struct {
	messageID string
	record    Record
}

// Cache is a fixed-capacity LRU keyed by the triggering message ID. Both Get
// and Put refresh recency; the least recently touched entry is evicted first.
type Cache struct {
	mu       sync.Mutex
	capacity int
	order    *list.List
	items    map[string]*list.Element
}

// New creates a cache. A non-positive capacity falls back to DefaultCapacity.
func New(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache{
		capacity: capacity,
		order:    list.New(),
		items:    make(map[string]*list.Element, capacity),
	}
}

// Get returns the reply record for a message ID, refreshing its recency.
func (c *Cache) Get(messageID string) (Record, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[messageID]
	if !ok {
		return Record{}, false
	}
	c.order.MoveToFront(elem)
	return elem.Value.(*entry).record, true
}

// Put stores or updates the reply record for a message ID, refreshing its
// recency and evicting the oldest entry when over capacity.
func (c *Cache) Put(messageID string, record Record) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[messageID]; ok {
		elem.Value.(*entry).record = record
		c.order.MoveToFront(elem)
		return
	}

	c.items[messageID] = c.order.PushFront(&entry{messageID: messageID, record: record})

	if c.order.Len() > c.capacity {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.items, oldest.Value.(*entry).messageID)
	}
}

// Len returns the number of cached records.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
