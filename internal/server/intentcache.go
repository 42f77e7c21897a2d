package server

import (
	"container/list"
	"sync"

	"github.com/tradebus/tradebus/internal/logger"
	"github.com/tradebus/tradebus/internal/tradestate"
)

// IntentCache is a small FIFO read cache in front of tradestate.Store.GetIntent,
// for the admin view (/intents/:id) under repeated polling of the same
// handful of hot intents. It is not a source of truth — a cache miss, or a
// state change the cache hasn't observed yet, always falls through to Store.
type IntentCache struct {
	mu    sync.Mutex
	data  map[string]*list.Element
	order *list.List
	limit int
	log   logger.InterfaceLogger
}

type cacheEntry struct {
	key   string
	value *tradestate.Intent
}

func NewIntentCache(log logger.InterfaceLogger) *IntentCache {
	return &IntentCache{
		data:  make(map[string]*list.Element),
		order: list.New(),
		limit: 64,
		log:   log,
	}
}

func (c *IntentCache) Get(id string) (*tradestate.Intent, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	elem, ok := c.data[id]
	if !ok {
		return nil, false
	}
	return elem.Value.(*cacheEntry).value, true
}

func (c *IntentCache) Set(id string, intent *tradestate.Intent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.data[id]; ok {
		elem.Value.(*cacheEntry).value = intent
		c.order.MoveToBack(elem)
		return
	}

	if c.order.Len() >= c.limit {
		oldest := c.order.Front()
		if oldest != nil {
			delete(c.data, oldest.Value.(*cacheEntry).key)
			c.order.Remove(oldest)
		}
	}

	elem := c.order.PushBack(&cacheEntry{key: id, value: intent})
	c.data[id] = elem
}

// Invalidate drops id from the cache so the next lookup re-reads the Store.
func (c *IntentCache) Invalidate(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.data[id]; ok {
		c.order.Remove(elem)
		delete(c.data, id)
	}
}
